// Package badger implements tokens.Cache on BadgerDB using native entry
// TTLs, so expiry needs no sweeper: Badger drops expired entries itself.
package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/marmos91/stashfs/pkg/store/tokens"
)

// tokenPrefix namespaces token keys so the cache can share a database with
// the badger-backed metadata store and job queue.
const tokenPrefix = "t:"

// BadgerCache implements tokens.Cache backed by BadgerDB. Tokens survive
// restarts, matching the durable session semantics of the legacy cache.
type BadgerCache struct {
	db     *badger.DB
	ownsDB bool
}

// NewBadgerCache creates a token cache on an already open database. The
// caller keeps ownership of db.
func NewBadgerCache(db *badger.DB) *BadgerCache {
	return &BadgerCache{db: db}
}

// NewBadgerCacheAtPath opens a database at path and returns a cache that
// owns it.
func NewBadgerCacheAtPath(ctx context.Context, path string) (*BadgerCache, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts := badger.DefaultOptions(path).WithLoggingLevel(badger.WARNING)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB at %s: %w", path, err)
	}
	return &BadgerCache{db: db, ownsDB: true}, nil
}

func tokenKey(token string) []byte {
	return []byte(tokenPrefix + token)
}

// Set stores the token with a Badger entry TTL.
func (c *BadgerCache) Set(ctx context.Context, token, userID string, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := c.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(tokenKey(token), []byte(userID)).WithTTL(ttl)
		return txn.SetEntry(e)
	})
	if err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	return nil
}

// Get returns the user ID for an unexpired token. Badger hides expired
// entries, so expiry and absence both surface as ErrKeyNotFound.
func (c *BadgerCache) Get(ctx context.Context, token string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var userID string
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(tokenKey(token))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			userID = string(val)
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return "", tokens.ErrTokenNotFound
		}
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	return userID, nil
}

// Del removes a token.
func (c *BadgerCache) Del(ctx context.Context, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(tokenKey(token))
	})
	if err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}

// HealthCheck verifies the database is open.
func (c *BadgerCache) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if c.db.IsClosed() {
		return errors.New("badger token cache is closed")
	}
	return nil
}

// Close closes the underlying database if this cache owns it.
func (c *BadgerCache) Close() error {
	if !c.ownsDB {
		return nil
	}
	return c.db.Close()
}
