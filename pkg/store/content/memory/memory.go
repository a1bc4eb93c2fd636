// Package memory implements content.Store in memory, for tests and
// ephemeral deployments.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/marmos91/stashfs/pkg/store/content"
)

// MemoryStore keeps blobs in a map behind a read-write mutex.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[content.ID][]byte
}

// NewMemoryStore creates an empty in-memory content store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[content.ID][]byte)}
}

// WriteContent stores a copy of data under id, refusing overwrites.
func (s *MemoryStore) WriteContent(ctx context.Context, id content.ID, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.blobs[id]; exists {
		return fmt.Errorf("content %s: %w", id, content.ErrContentExists)
	}

	blob := make([]byte, len(data))
	copy(blob, data)
	s.blobs[id] = blob
	return nil
}

// ReadContent returns a copy of the blob stored under id.
func (s *MemoryStore) ReadContent(ctx context.Context, id content.ID) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	blob, ok := s.blobs[id]
	if !ok {
		return nil, fmt.Errorf("content %s: %w", id, content.ErrContentNotFound)
	}

	out := make([]byte, len(blob))
	copy(out, blob)
	return out, nil
}

// ContentExists reports whether a blob is stored under id.
func (s *MemoryStore) ContentExists(ctx context.Context, id content.ID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.blobs[id]
	return ok, nil
}

// Close discards nothing; blobs live until the process exits.
func (s *MemoryStore) Close() error {
	return nil
}
