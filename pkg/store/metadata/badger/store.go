// Package badger implements metadata.Store using BadgerDB for persistence.
package badger

import (
	"context"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
)

// BadgerStore implements metadata.Store backed by BadgerDB, a fast embedded
// key-value store. It is suitable for production deployments where metadata
// must survive restarts and crashes.
//
// Key Features:
//   - Persistent storage with crash recovery (WAL-based)
//   - ACID transactions: node insert and children-index update are atomic
//   - Efficient range scans for paginated directory listings
//
// Thread Safety:
// BadgerDB transactions provide isolation; the store holds no mutable state
// outside the database, so all operations are safe for concurrent use.
//
// The store can share a *badger.DB with the badger-backed token cache and
// job queue (see pkg/config factories): the key namespaces are disjoint, and
// sharing one database keeps the thumbnail outbox durable in the same store
// as the metadata it refers to.
type BadgerStore struct {
	db *badger.DB

	// ownsDB records whether Close should close the underlying database.
	// When the DB handle is shared with other badger-backed components the
	// process owner closes it once.
	ownsDB bool
}

// Open opens (or creates) a BadgerDB database at path with the options used
// across stashfs badger components.
func Open(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path)
	opts = opts.WithLoggingLevel(badger.WARNING) // Reduce log noise
	opts = opts.WithCompression(options.None)    // Entries are small, compression overhead not worth it

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB at %s: %w", path, err)
	}
	return db, nil
}

// NewBadgerStore creates a metadata store on an already open database.
//
// The caller keeps ownership of db; Close on the returned store is a no-op
// for the database itself.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

// NewBadgerStoreAtPath opens a database at path and returns a store that
// owns it. Close closes the database.
func NewBadgerStoreAtPath(ctx context.Context, path string) (*BadgerStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	return &BadgerStore{db: db, ownsDB: true}, nil
}

// HealthCheck verifies the database accepts transactions.
func (s *BadgerStore) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if s.db.IsClosed() {
		return fmt.Errorf("badger metadata store is closed")
	}
	return nil
}

// Close closes the underlying database if this store owns it.
func (s *BadgerStore) Close() error {
	if !s.ownsDB {
		return nil
	}
	return s.db.Close()
}

// countPrefix counts keys under a prefix without loading values.
func (s *BadgerStore) countPrefix(ctx context.Context, prefix []byte) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var count int64
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count keys: %w", err)
	}
	return count, nil
}
