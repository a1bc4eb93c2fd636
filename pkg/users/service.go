// Package users implements account registration and token-based
// authentication against the metadata store and the session token cache.
package users

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/marmos91/stashfs/internal/logger"
	"github.com/marmos91/stashfs/pkg/queue"
	"github.com/marmos91/stashfs/pkg/store/metadata"
	"github.com/marmos91/stashfs/pkg/store/tokens"
)

// TokenTTL is the session lifetime of an issued bearer token.
const TokenTTL = 24 * time.Hour

// tokenKeyPrefix namespaces session tokens inside the cache. The prefix is
// part of the legacy storage contract.
const tokenKeyPrefix = "auth_"

// Wire-level errors of the users API; messages are serialized verbatim.
var (
	ErrMissingEmail    = errors.New("Missing email")
	ErrMissingPassword = errors.New("Missing password")
	ErrEmailTaken      = errors.New("Already exist")
	ErrUnauthorized    = errors.New("Unauthorized")
)

// Service handles registration and session management.
//
// Dependencies are injected at construction; the service is safe for
// concurrent use.
type Service struct {
	meta   metadata.Store
	tokens tokens.Cache
	jobs   queue.Queue
}

// NewService creates a users service.
func NewService(meta metadata.Store, tokens tokens.Cache, jobs queue.Queue) *Service {
	return &Service{meta: meta, tokens: tokens, jobs: jobs}
}

// HashPassword returns the hex SHA-1 digest of password.
//
// SHA-1 is kept for compatibility with accounts migrated from the legacy
// system; it is a data-format constraint, not a recommendation.
func HashPassword(password string) string {
	sum := sha1.Sum([]byte(password))
	return hex.EncodeToString(sum[:])
}

// Register creates a new account and enqueues a welcome job.
func (s *Service) Register(ctx context.Context, email, password string) (*metadata.User, error) {
	if email == "" {
		return nil, ErrMissingEmail
	}
	if password == "" {
		return nil, ErrMissingPassword
	}

	user := &metadata.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: HashPassword(password),
	}

	if err := s.meta.CreateUser(ctx, user); err != nil {
		if errors.Is(err, metadata.ErrEmailExists) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	job := &queue.Job{
		ID:         uuid.NewString(),
		UserID:     user.ID,
		EnqueuedAt: time.Now(),
	}
	if err := s.jobs.Enqueue(ctx, queue.QueueWelcome, job); err != nil {
		// Registration already succeeded; a lost welcome job costs one
		// log line, not an account.
		logger.Warn("failed to enqueue welcome job for user %s: %v", user.ID, err)
	}

	return user, nil
}

// Connect verifies credentials and issues a new session token with
// TokenTTL expiry.
func (s *Service) Connect(ctx context.Context, email, password string) (string, error) {
	if email == "" || password == "" {
		return "", ErrUnauthorized
	}

	user, err := s.meta.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, metadata.ErrUserNotFound) {
			return "", ErrUnauthorized
		}
		return "", fmt.Errorf("failed to load user: %w", err)
	}

	if HashPassword(password) != user.PasswordHash {
		return "", ErrUnauthorized
	}

	token := uuid.NewString()
	if err := s.tokens.Set(ctx, tokenKeyPrefix+token, user.ID, TokenTTL); err != nil {
		return "", fmt.Errorf("failed to store session token: %w", err)
	}

	return token, nil
}

// Disconnect invalidates a session token.
func (s *Service) Disconnect(ctx context.Context, token string) error {
	if _, err := s.ResolveToken(ctx, token); err != nil {
		return err
	}

	if err := s.tokens.Del(ctx, tokenKeyPrefix+token); err != nil {
		return fmt.Errorf("failed to delete session token: %w", err)
	}
	return nil
}

// ResolveToken returns the user ID a session token was issued to, or
// ErrUnauthorized for absent or expired tokens.
func (s *Service) ResolveToken(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrUnauthorized
	}

	userID, err := s.tokens.Get(ctx, tokenKeyPrefix+token)
	if err != nil {
		if errors.Is(err, tokens.ErrTokenNotFound) {
			return "", ErrUnauthorized
		}
		return "", fmt.Errorf("failed to resolve token: %w", err)
	}
	return userID, nil
}

// UserFromToken resolves a session token to the full user record.
func (s *Service) UserFromToken(ctx context.Context, token string) (*metadata.User, error) {
	userID, err := s.ResolveToken(ctx, token)
	if err != nil {
		return nil, err
	}

	user, err := s.meta.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, metadata.ErrUserNotFound) {
			// The account behind a live session disappeared; treat the
			// session as dead.
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}
