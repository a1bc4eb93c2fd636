// Package memory implements metadata.Store using in-memory storage.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/marmos91/stashfs/pkg/store/metadata"
)

// MemoryStore implements metadata.Store backed by in-memory maps.
//
// This implementation is suitable for tests and ephemeral deployments
// where persistence across restarts is not required.
//
// Thread Safety:
// All operations are protected by a single read-write mutex, making the
// store safe for concurrent access from multiple goroutines. The
// coarse-grained lock is simple and correct; none of the operations are
// long enough for contention to matter at this scale.
//
// Storage Model:
//   - users: user ID -> User
//   - usersByEmail: email -> user ID (uniqueness index)
//   - nodes: node ID -> FileNode
//   - children: owner ID + parent ID -> ordered slice of child node IDs
//
// The children slices record insertion order, which is the listing and
// pagination order the Store contract requires. Keying the index by owner
// and parent together makes listings owner-scoped without filtering.
type MemoryStore struct {
	mu           sync.RWMutex
	users        map[string]*metadata.User
	usersByEmail map[string]string
	nodes        map[string]*metadata.FileNode
	children     map[string][]string
	closed       bool
}

// NewMemoryStore creates an empty in-memory metadata store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:        make(map[string]*metadata.User),
		usersByEmail: make(map[string]string),
		nodes:        make(map[string]*metadata.FileNode),
		children:     make(map[string][]string),
	}
}

// CreateUser inserts a new user, enforcing email uniqueness.
func (s *MemoryStore) CreateUser(ctx context.Context, user *metadata.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.usersByEmail[user.Email]; exists {
		return metadata.ErrEmailExists
	}

	u := *user
	s.users[u.ID] = &u
	s.usersByEmail[u.Email] = u.ID
	return nil
}

// UserByID returns a copy of the user with the given ID.
func (s *MemoryStore) UserByID(ctx context.Context, id string) (*metadata.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, metadata.ErrUserNotFound
	}
	u := *user
	return &u, nil
}

// UserByEmail returns a copy of the user with the given email.
func (s *MemoryStore) UserByEmail(ctx context.Context, email string) (*metadata.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.usersByEmail[email]
	if !ok {
		return nil, metadata.ErrUserNotFound
	}
	u := *s.users[id]
	return &u, nil
}

// CountUsers returns the number of registered users.
func (s *MemoryStore) CountUsers(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.users)), nil
}

// CreateNode inserts a new file tree node and records it under its parent
// in insertion order.
func (s *MemoryStore) CreateNode(ctx context.Context, node *metadata.FileNode) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n := *node
	s.nodes[n.ID] = &n
	key := childrenKey(n.UserID, n.ParentID)
	s.children[key] = append(s.children[key], n.ID)
	return nil
}

// childrenKey indexes the children slices by owner and parent together.
func childrenKey(userID, parentID string) string {
	return userID + "\x00" + parentID
}

// NodeByID returns a copy of the node with the given ID regardless of owner.
func (s *MemoryStore) NodeByID(ctx context.Context, id string) (*metadata.FileNode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	node, ok := s.nodes[id]
	if !ok {
		return nil, metadata.ErrNodeNotFound
	}
	n := *node
	return &n, nil
}

// NodeByIDAndOwner returns the node only if owned by userID.
func (s *MemoryStore) NodeByIDAndOwner(ctx context.Context, id, userID string) (*metadata.FileNode, error) {
	node, err := s.NodeByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if node.UserID != userID {
		return nil, metadata.ErrNodeNotFound
	}
	return node, nil
}

// ListNodes returns userID's children of parentID in insertion order with
// offset/limit pagination.
func (s *MemoryStore) ListNodes(ctx context.Context, userID, parentID string, offset, limit int) ([]*metadata.FileNode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if offset < 0 {
		offset = 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.children[childrenKey(userID, parentID)]
	if offset >= len(ids) {
		return []*metadata.FileNode{}, nil
	}

	end := offset + limit
	if limit <= 0 || end > len(ids) {
		end = len(ids)
	}

	nodes := make([]*metadata.FileNode, 0, end-offset)
	for _, id := range ids[offset:end] {
		n := *s.nodes[id]
		nodes = append(nodes, &n)
	}
	return nodes, nil
}

// SetNodePublic updates the visibility of an owner's node and returns the
// refreshed copy.
func (s *MemoryStore) SetNodePublic(ctx context.Context, id, userID string, isPublic bool) (*metadata.FileNode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	node, ok := s.nodes[id]
	if !ok || node.UserID != userID {
		return nil, metadata.ErrNodeNotFound
	}

	node.IsPublic = isPublic
	n := *node
	return &n, nil
}

// CountNodes returns the number of file tree nodes.
func (s *MemoryStore) CountNodes(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.nodes)), nil
}

// HealthCheck always succeeds for an open in-memory store.
func (s *MemoryStore) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return errors.New("memory metadata store is closed")
	}
	return nil
}

// Close marks the store closed. Data is discarded with the process.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
