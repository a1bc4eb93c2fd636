package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/marmos91/stashfs/internal/logger"
	"github.com/marmos91/stashfs/pkg/files"
	"github.com/marmos91/stashfs/pkg/store/metadata"
	"github.com/marmos91/stashfs/pkg/users"
)

// fileResponse is the wire projection of a file tree node. The storage
// location is deliberately absent: clients fetch content through the data
// endpoint, never by path.
type fileResponse struct {
	ID       string `json:"id"`
	UserID   string `json:"userId"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	IsPublic bool   `json:"isPublic"`
	ParentID string `json:"parentId"`
}

func toFileResponse(node *metadata.FileNode) fileResponse {
	return fileResponse{
		ID:       node.ID,
		UserID:   node.UserID,
		Name:     node.Name,
		Type:     string(node.Type),
		IsPublic: node.IsPublic,
		ParentID: node.ParentID,
	}
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

// respondServiceError maps a service error onto the HTTP status and wire
// message of the files_manager API. Unknown errors are logged and reported
// as a generic server error so internals never leak to clients.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, files.ErrMissingName),
		errors.Is(err, files.ErrMissingType),
		errors.Is(err, files.ErrMissingData),
		errors.Is(err, files.ErrInvalidData),
		errors.Is(err, files.ErrParentNotFound),
		errors.Is(err, files.ErrParentNotFolder),
		errors.Is(err, files.ErrFolderHasNoContent),
		errors.Is(err, files.ErrInvalidSize),
		errors.Is(err, users.ErrMissingEmail),
		errors.Is(err, users.ErrMissingPassword),
		errors.Is(err, users.ErrEmailTaken):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, users.ErrUnauthorized):
		respondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, files.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	default:
		logger.Error("Request failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Server error")
	}
}
