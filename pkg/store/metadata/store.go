// Package metadata defines the metadata store contract for stashfs.
//
// The metadata store holds the two entity collections of the service:
// user accounts and file tree nodes. Implementations must be safe for
// concurrent use; the HTTP layer and the background worker share a single
// store instance.
package metadata

import "context"

// RootID is the canonical parent value for nodes at the top of the tree.
//
// The API boundary normalizes every legacy spelling of the root parent
// (absent, empty string, numeric 0, string "0") to this value before any
// store call, so implementations only ever see the canonical form.
const RootID = "0"

// NodeType identifies what kind of entry a FileNode is.
type NodeType string

const (
	NodeTypeFolder NodeType = "folder"
	NodeTypeFile   NodeType = "file"
	NodeTypeImage  NodeType = "image"
)

// Valid reports whether t is one of the accepted node types.
func (t NodeType) Valid() bool {
	switch t {
	case NodeTypeFolder, NodeTypeFile, NodeTypeImage:
		return true
	default:
		return false
	}
}

// User is a registered account.
//
// Users are created once at registration and never mutated or deleted by
// the file tree core.
type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
}

// FileNode is a single entry in the file tree.
//
// Invariants enforced at creation time (see pkg/files):
//   - ParentID is RootID or the ID of an existing folder node.
//   - LocalPath is set if and only if Type != folder. It is a generated
//     content identifier, never derived from the user-supplied name.
//   - Type and UserID are immutable after creation; IsPublic is the only
//     mutable field.
type FileNode struct {
	ID        string   `json:"id"`
	UserID    string   `json:"user_id"`
	Name      string   `json:"name"`
	Type      NodeType `json:"type"`
	IsPublic  bool     `json:"is_public"`
	ParentID  string   `json:"parent_id"`
	LocalPath string   `json:"local_path,omitempty"`
}

// Store is the metadata repository used by the services.
//
// Listing order is insertion order per owner and parent: implementations
// must return children in the order they were created so pagination is
// stable.
type Store interface {
	// CreateUser inserts a new user. Returns ErrEmailExists if the email
	// is already registered.
	CreateUser(ctx context.Context, user *User) error

	// UserByID returns the user with the given ID, or ErrUserNotFound.
	UserByID(ctx context.Context, id string) (*User, error)

	// UserByEmail returns the user with the given email, or ErrUserNotFound.
	UserByEmail(ctx context.Context, email string) (*User, error)

	// CountUsers returns the total number of registered users.
	CountUsers(ctx context.Context) (int64, error)

	// CreateNode inserts a new file tree node. The caller assigns the ID.
	CreateNode(ctx context.Context, node *FileNode) error

	// NodeByID returns the node with the given ID regardless of owner,
	// or ErrNodeNotFound.
	NodeByID(ctx context.Context, id string) (*FileNode, error)

	// NodeByIDAndOwner returns the node only if it exists and is owned by
	// userID, or ErrNodeNotFound. Owner-scoped lookup is the storage-level
	// half of the access-control policy; the explicit half lives in
	// files.CanAccess.
	NodeByIDAndOwner(ctx context.Context, id, userID string) (*FileNode, error)

	// ListNodes returns up to limit of userID's children of parentID in
	// insertion order, skipping the first offset entries. parentID = RootID
	// lists top-level nodes. An unknown parentID yields an empty slice and
	// a negative offset is treated as zero.
	// Listing is owner-scoped: other users' nodes under the same parent are
	// never returned.
	ListNodes(ctx context.Context, userID, parentID string, offset, limit int) ([]*FileNode, error)

	// SetNodePublic updates the visibility flag of an owner's node and
	// returns the refreshed node, or ErrNodeNotFound. Setting the current
	// value is a no-op success.
	SetNodePublic(ctx context.Context, id, userID string, isPublic bool) (*FileNode, error)

	// CountNodes returns the total number of file tree nodes.
	CountNodes(ctx context.Context) (int64, error)

	// HealthCheck verifies the store is reachable and operational.
	HealthCheck(ctx context.Context) error

	// Close releases store resources. The store is unusable afterwards.
	Close() error
}
