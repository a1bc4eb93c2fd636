// Package content defines the content store contract for stashfs.
//
// Content is addressed by generated identifiers that are fully decoupled
// from user-supplied file names, so storage naming can never collide with
// or leak user input. Image derivatives live next to their original under
// a width-suffixed identifier.
package content

import (
	"context"
	"errors"
	"fmt"
)

// ID identifies a stored blob. IDs are generated (UUID v4) by the upload
// path; derivative IDs are derived with DerivativeID.
type ID string

// DerivativeID returns the identifier of the width-resized copy of id.
// The suffix convention is shared by the retrieval path and the thumbnail
// worker: existence of a derivative is inferred by convention, derivatives
// are not tracked in the metadata store.
func DerivativeID(id ID, width int) ID {
	return ID(fmt.Sprintf("%s_%d", id, width))
}

// Sentinel errors returned by Store implementations.
var (
	// ErrContentNotFound indicates no blob exists under the given ID.
	ErrContentNotFound = errors.New("content not found")

	// ErrContentExists indicates a write would overwrite an existing blob.
	// IDs are generated fresh per upload so this should never fire, but the
	// contract forbids silent overwrite.
	ErrContentExists = errors.New("content already exists")
)

// Store persists binary blobs.
//
// Implementations must be safe for concurrent use. Concurrent writers use
// disjoint generated IDs, so there is no write-write conflict on the same
// blob in normal operation.
type Store interface {
	// WriteContent stores data under id. Returns ErrContentExists if a
	// blob with this id is already present.
	WriteContent(ctx context.Context, id ID, data []byte) error

	// ReadContent returns the full blob stored under id, or
	// ErrContentNotFound.
	ReadContent(ctx context.Context, id ID) ([]byte, error)

	// ContentExists reports whether a blob is stored under id.
	ContentExists(ctx context.Context, id ID) (bool, error)

	// Close releases store resources.
	Close() error
}
