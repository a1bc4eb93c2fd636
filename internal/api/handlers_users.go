package api

import (
	"encoding/json"
	"net/http"

	"github.com/marmos91/stashfs/pkg/users"
)

// userResponse is the wire projection of an account. The password hash
// never leaves the metadata store.
type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// handleCreateUser registers a new account.
//
// POST /users {"email": ..., "password": ...} -> 201 {"id": ..., "email": ...}
func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Missing email")
		return
	}

	user, err := s.users.Register(r.Context(), body.Email, body.Password)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, userResponse{ID: user.ID, Email: user.Email})
}

// handleConnect exchanges Basic credentials for a session token.
//
// GET /connect (Authorization: Basic base64(email:password)) -> 200 {"token": ...}
func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	email, password, ok := r.BasicAuth()
	if !ok {
		respondError(w, http.StatusUnauthorized, users.ErrUnauthorized.Error())
		return
	}

	token, err := s.users.Connect(r.Context(), email, password)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"token": token})
}

// handleDisconnect invalidates the session behind the X-Token header.
//
// GET /disconnect -> 204
func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	if err := s.users.Disconnect(r.Context(), r.Header.Get("X-Token")); err != nil {
		respondServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleCurrentUser returns the account behind the session.
//
// GET /users/me -> 200 {"id": ..., "email": ...}
func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.users.UserFromToken(r.Context(), r.Header.Get("X-Token"))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, userResponse{ID: user.ID, Email: user.Email})
}

// handleStatus reports the health of the session cache and the metadata
// store.
//
// GET /status -> 200 {"redis": bool, "db": bool}
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	respondJSON(w, http.StatusOK, map[string]bool{
		"redis": s.tokens.HealthCheck(ctx) == nil,
		"db":    s.meta.HealthCheck(ctx) == nil,
	})
}

// handleStats reports account and file counts.
//
// GET /stats -> 200 {"users": n, "files": n}
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userCount, err := s.meta.CountUsers(ctx)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	fileCount, err := s.meta.CountNodes(ctx)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]int64{
		"users": userCount,
		"files": fileCount,
	})
}
