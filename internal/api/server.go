// Package api implements the HTTP surface of stashfs.
//
// The API speaks the files_manager wire protocol: JSON bodies, bearer
// sessions via the X-Token header, and fixed error messages per endpoint.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/marmos91/stashfs/pkg/files"
	"github.com/marmos91/stashfs/pkg/store/metadata"
	"github.com/marmos91/stashfs/pkg/store/tokens"
	"github.com/marmos91/stashfs/pkg/users"
)

// Config contains HTTP-surface settings the server needs beyond its
// service dependencies.
type Config struct {
	// RateLimitEnabled turns on per-IP request throttling
	RateLimitEnabled bool

	// RequestsPerMinute is the per-IP request budget when throttling is on
	RequestsPerMinute int
}

// Server routes HTTP requests to the users and files services.
type Server struct {
	users  *users.Service
	files  *files.Service
	meta   metadata.Store
	tokens tokens.Cache
	router chi.Router
}

// NewServer builds the router with all middleware and routes registered.
func NewServer(
	usersSvc *users.Service,
	filesSvc *files.Service,
	meta metadata.Store,
	tokenCache tokens.Cache,
	cfg Config,
) *Server {
	s := &Server{
		users:  usersSvc,
		files:  filesSvc,
		meta:   meta,
		tokens: tokenCache,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	if cfg.RateLimitEnabled {
		r.Use(httprate.Limit(
			cfg.RequestsPerMinute,
			time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP),
		))
	}

	r.Get("/status", s.handleStatus)
	r.Get("/stats", s.handleStats)
	r.Post("/users", s.handleCreateUser)
	r.Get("/connect", s.handleConnect)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)

		r.Get("/users/me", s.handleCurrentUser)
		r.Get("/disconnect", s.handleDisconnect)

		r.Post("/files", s.handleCreateFile)
		r.Get("/files", s.handleListFiles)
		r.Get("/files/{id}", s.handleGetFile)
		r.Put("/files/{id}/publish", s.handlePublish)
		r.Put("/files/{id}/unpublish", s.handleUnpublish)
	})

	// Content retrieval allows anonymous access to public files.
	r.With(s.optionalAuth).Get("/files/{id}/data", s.handleFileData)

	s.router = r
	return s
}

// Handler returns the root http.Handler of the API.
func (s *Server) Handler() http.Handler {
	return s.router
}
