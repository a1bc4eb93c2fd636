package api

import (
	"encoding/json"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/marmos91/stashfs/pkg/files"
)

// handleCreateFile uploads a file or creates a folder.
//
// POST /files {"name", "type", "parentId", "isPublic", "data"} -> 201 file
func (s *Server) handleCreateFile(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name     string `json:"name"`
		Type     string `json:"type"`
		ParentID string `json:"parentId"`
		IsPublic bool   `json:"isPublic"`
		Data     string `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, files.ErrMissingName.Error())
		return
	}

	node, err := s.files.CreateNode(r.Context(), userIDFromContext(r.Context()), files.CreateNodeParams{
		Name:     body.Name,
		Type:     body.Type,
		IsPublic: body.IsPublic,
		ParentID: body.ParentID,
		Data:     body.Data,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, toFileResponse(node))
}

// handleGetFile returns one of the caller's nodes.
//
// GET /files/{id} -> 200 file
func (s *Server) handleGetFile(w http.ResponseWriter, r *http.Request) {
	node, err := s.files.GetNode(r.Context(), userIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toFileResponse(node))
}

// handleListFiles returns one page of the caller's nodes under a parent.
//
// GET /files?parentId=...&page=N -> 200 [file, ...]
func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	// An unparseable page means page zero, matching the legacy API.
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))

	nodes, err := s.files.ListNodes(r.Context(), userIDFromContext(r.Context()), r.URL.Query().Get("parentId"), page)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	out := make([]fileResponse, 0, len(nodes))
	for _, node := range nodes {
		out = append(out, toFileResponse(node))
	}
	respondJSON(w, http.StatusOK, out)
}

// handlePublish makes one of the caller's nodes public.
//
// PUT /files/{id}/publish -> 200 file
func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	s.setVisibility(w, r, true)
}

// handleUnpublish makes one of the caller's nodes private.
//
// PUT /files/{id}/unpublish -> 200 file
func (s *Server) handleUnpublish(w http.ResponseWriter, r *http.Request) {
	s.setVisibility(w, r, false)
}

func (s *Server) setVisibility(w http.ResponseWriter, r *http.Request, isPublic bool) {
	node, err := s.files.SetVisibility(r.Context(), userIDFromContext(r.Context()), chi.URLParam(r, "id"), isPublic)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toFileResponse(node))
}

// handleFileData streams file content, optionally a resized derivative.
//
// GET /files/{id}/data?size=N -> 200 raw bytes with the MIME type of the
// file name. Anonymous callers can read public files.
func (s *Server) handleFileData(w http.ResponseWriter, r *http.Request) {
	width := 0
	if raw := r.URL.Query().Get("size"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, files.ErrInvalidSize.Error())
			return
		}
		width = parsed
	}

	data, name, err := s.files.ReadContent(r.Context(), userIDFromContext(r.Context()), chi.URLParam(r, "id"), width)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		// Client went away mid-transfer; nothing to answer anymore.
		return
	}
}
