// Package tokens defines the session token cache contract.
//
// The cache maps an opaque bearer token to a user ID with an expiry. It is
// the only authentication state in the system: deleting a token logs the
// session out, and expiry invalidates it without any cleanup pass.
package tokens

import (
	"context"
	"errors"
	"time"
)

// ErrTokenNotFound indicates the token is absent or has expired. The two
// cases are indistinguishable on purpose.
var ErrTokenNotFound = errors.New("token not found")

// Cache is the session token store.
//
// Implementations must be safe for concurrent use.
type Cache interface {
	// Set stores token -> userID for the given duration.
	Set(ctx context.Context, token, userID string, ttl time.Duration) error

	// Get returns the user ID for token, or ErrTokenNotFound if the token
	// is unknown or expired.
	Get(ctx context.Context, token string) (string, error)

	// Del removes token. Deleting an absent token is not an error.
	Del(ctx context.Context, token string) error

	// HealthCheck verifies the cache is reachable and operational.
	HealthCheck(ctx context.Context) error

	// Close releases cache resources.
	Close() error
}
