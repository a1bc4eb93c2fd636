// Package memory implements tokens.Cache in memory.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/marmos91/stashfs/pkg/store/tokens"
)

type entry struct {
	userID    string
	expiresAt time.Time
}

// MemoryCache keeps token entries in a map with lazy expiry: expired
// entries are dropped on lookup rather than by a background sweeper, which
// is sufficient for a session cache whose keyspace is bounded by active
// logins.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]entry
	closed  bool

	// now is swappable for expiry tests.
	now func() time.Time
}

// NewMemoryCache creates an empty in-memory token cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// SetNow replaces the cache's clock. It exists for expiry tests.
func (c *MemoryCache) SetNow(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// Set stores token -> userID for ttl.
func (c *MemoryCache) Set(ctx context.Context, token, userID string, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[token] = entry{userID: userID, expiresAt: c.now().Add(ttl)}
	return nil
}

// Get returns the user ID for an unexpired token.
func (c *MemoryCache) Get(ctx context.Context, token string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[token]
	if !ok {
		return "", tokens.ErrTokenNotFound
	}
	if c.now().After(e.expiresAt) {
		delete(c.entries, token)
		return "", tokens.ErrTokenNotFound
	}
	return e.userID, nil
}

// Del removes a token.
func (c *MemoryCache) Del(ctx context.Context, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, token)
	return nil
}

// HealthCheck reports whether the cache is still open.
func (c *MemoryCache) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("memory token cache is closed")
	}
	return nil
}

// Close marks the cache closed.
func (c *MemoryCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}
