// Package fs implements content.Store on the local filesystem.
package fs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/marmos91/stashfs/pkg/store/content"
)

// FSStore stores blobs as individual files under a base directory, one
// file per content ID.
//
// Thread Safety:
// Filesystem operations are thread-safe at the OS level and writers use
// disjoint generated IDs, so no additional locking is needed. The
// no-overwrite contract is enforced with O_EXCL rather than a
// check-then-write race.
type FSStore struct {
	basePath string
}

// NewFSStore creates a filesystem-backed content store rooted at basePath.
//
// The base directory is created if absent, including parent segments.
// Creation is idempotent.
func NewFSStore(ctx context.Context, basePath string) (*FSStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &FSStore{basePath: basePath}, nil
}

// path returns the on-disk location for a content ID.
func (s *FSStore) path(id content.ID) string {
	return filepath.Join(s.basePath, string(id))
}

// WriteContent writes data to a new file named after id.
//
// The file is opened with O_EXCL so an existing blob is never silently
// overwritten. The write is staged through a temporary name and renamed
// into place, so a crash mid-write never leaves a partial blob visible
// under the final ID.
func (s *FSStore) WriteContent(ctx context.Context, id content.ID, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	final := s.path(id)
	if _, err := os.Stat(final); err == nil {
		return fmt.Errorf("content %s: %w", id, content.ErrContentExists)
	}

	tmp, err := os.CreateTemp(s.basePath, "staging-*")
	if err != nil {
		return fmt.Errorf("failed to stage content: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write content: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to sync content: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close staged content: %w", err)
	}

	// Link-then-remove instead of rename: link fails if the final name
	// appeared since the stat above, preserving the no-overwrite contract.
	if err := os.Link(tmpName, final); err != nil {
		os.Remove(tmpName)
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("content %s: %w", id, content.ErrContentExists)
		}
		return fmt.Errorf("failed to commit content: %w", err)
	}
	os.Remove(tmpName)

	return nil
}

// ReadContent reads the full blob stored under id.
func (s *FSStore) ReadContent(ctx context.Context, id content.ID) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("content %s: %w", id, content.ErrContentNotFound)
		}
		return nil, fmt.Errorf("failed to read content: %w", err)
	}
	return data, nil
}

// ContentExists checks blob existence with a stat, without reading data.
func (s *FSStore) ContentExists(ctx context.Context, id content.ID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	_, err := os.Stat(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check content existence: %w", err)
	}
	return true, nil
}

// Close is a no-op for the filesystem store.
func (s *FSStore) Close() error {
	return nil
}
