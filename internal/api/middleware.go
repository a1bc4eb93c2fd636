package api

import (
	"context"
	"net/http"
	"time"

	"github.com/marmos91/stashfs/internal/logger"
)

// ctxKey is a private context key type so request values cannot collide
// with other packages.
type ctxKey int

const userIDKey ctxKey = iota

// userIDFromContext returns the authenticated user ID, or "" for an
// anonymous request.
func userIDFromContext(ctx context.Context) string {
	userID, _ := ctx.Value(userIDKey).(string)
	return userID
}

// requireAuth resolves the X-Token header to a user ID and rejects the
// request when the session is absent or expired.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := s.users.ResolveToken(r.Context(), r.Header.Get("X-Token"))
		if err != nil {
			respondServiceError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// optionalAuth resolves the X-Token header when present but lets anonymous
// requests through. The content endpoint uses it: public files are readable
// without a session.
func (s *Server) optionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if token := r.Header.Get("X-Token"); token != "" {
			if userID, err := s.users.ResolveToken(ctx, token); err == nil {
				ctx = context.WithValue(ctx, userIDKey, userID)
			}
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestLogger logs each request with its duration at debug level.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Debug("%s %s completed in %s", r.Method, r.URL.Path, time.Since(start))
	})
}
