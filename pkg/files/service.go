// Package files implements the file tree core of stashfs: node creation
// with parent and ownership constraints, paginated listing, visibility
// toggling, and access-controlled content retrieval.
package files

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/marmos91/stashfs/internal/logger"
	"github.com/marmos91/stashfs/pkg/queue"
	"github.com/marmos91/stashfs/pkg/store/content"
	"github.com/marmos91/stashfs/pkg/store/metadata"
)

// PageSize is the fixed listing page size.
const PageSize = 20

// ThumbnailWidths are the derivative widths generated for image uploads,
// in the order the worker produces them.
var ThumbnailWidths = []int{500, 250, 100}

// Service coordinates the metadata store, the content store and the job
// queue for all file tree operations.
//
// All dependencies are injected at construction; the service holds no
// other state and is safe for concurrent use.
type Service struct {
	meta     metadata.Store
	contents content.Store
	jobs     queue.Queue
}

// NewService creates a file tree service.
func NewService(meta metadata.Store, contents content.Store, jobs queue.Queue) *Service {
	return &Service{meta: meta, contents: contents, jobs: jobs}
}

// CreateNodeParams carries the request fields of an upload.
type CreateNodeParams struct {
	Name     string
	Type     string
	IsPublic bool
	ParentID string
	// Data is the base64-encoded content, empty for folders.
	Data string
}

// NormalizeParentID maps every legacy spelling of the root parent (absent,
// empty, "0") to metadata.RootID. Any other value is passed through as a
// candidate node ID.
func NormalizeParentID(raw string) string {
	if raw == "" || raw == metadata.RootID {
		return metadata.RootID
	}
	return raw
}

// CanAccess reports whether userID may read node content: public nodes
// are readable by anyone, private nodes only by their owner. An empty
// userID denotes an unauthenticated caller.
func CanAccess(userID string, node *metadata.FileNode) bool {
	if node.IsPublic {
		return true
	}
	return userID != "" && userID == node.UserID
}

// CreateNode validates and creates a file tree node for userID.
//
// For non-folder nodes the content is decoded and written to the content
// store before the metadata record is inserted, so a failed write leaves
// no record behind. Image uploads enqueue a thumbnail job after the insert
// succeeds; upload success does not wait on thumbnail generation.
func (s *Service) CreateNode(ctx context.Context, userID string, params CreateNodeParams) (*metadata.FileNode, error) {
	if params.Name == "" {
		return nil, ErrMissingName
	}

	nodeType := metadata.NodeType(params.Type)
	if !nodeType.Valid() {
		return nil, ErrMissingType
	}

	if nodeType != metadata.NodeTypeFolder && params.Data == "" {
		return nil, ErrMissingData
	}

	parentID := NormalizeParentID(params.ParentID)
	if parentID != metadata.RootID {
		parent, err := s.meta.NodeByID(ctx, parentID)
		if err != nil {
			if errors.Is(err, metadata.ErrNodeNotFound) {
				return nil, ErrParentNotFound
			}
			return nil, fmt.Errorf("failed to resolve parent: %w", err)
		}
		if parent.Type != metadata.NodeTypeFolder {
			return nil, ErrParentNotFolder
		}
	}

	node := &metadata.FileNode{
		ID:       uuid.NewString(),
		UserID:   userID,
		Name:     params.Name,
		Type:     nodeType,
		IsPublic: params.IsPublic,
		ParentID: parentID,
	}

	if nodeType == metadata.NodeTypeFolder {
		if err := s.meta.CreateNode(ctx, node); err != nil {
			return nil, fmt.Errorf("failed to create folder: %w", err)
		}
		return node, nil
	}

	data, err := base64.StdEncoding.DecodeString(params.Data)
	if err != nil {
		return nil, ErrInvalidData
	}

	// Write content before inserting metadata: a failed write must leave
	// no record referencing bytes that never landed.
	contentID := content.ID(uuid.NewString())
	if err := s.contents.WriteContent(ctx, contentID, data); err != nil {
		return nil, fmt.Errorf("failed to write content: %w", err)
	}
	node.LocalPath = string(contentID)

	if err := s.meta.CreateNode(ctx, node); err != nil {
		return nil, fmt.Errorf("failed to create node: %w", err)
	}

	if nodeType == metadata.NodeTypeImage {
		job := &queue.Job{
			ID:         uuid.NewString(),
			UserID:     userID,
			FileID:     node.ID,
			LocalPath:  node.LocalPath,
			EnqueuedAt: time.Now(),
		}
		if err := s.jobs.Enqueue(ctx, queue.QueueThumbnails, job); err != nil {
			// The upload itself succeeded; losing the job only delays
			// thumbnails, so surface it in the log rather than failing
			// an already-durable upload.
			logger.Warn("failed to enqueue thumbnail job for file %s: %v", node.ID, err)
		}
	}

	return node, nil
}

// GetNode returns userID's node with the given ID. Nodes of other owners
// are reported as ErrNotFound.
func (s *Service) GetNode(ctx context.Context, userID, fileID string) (*metadata.FileNode, error) {
	node, err := s.meta.NodeByIDAndOwner(ctx, fileID, userID)
	if err != nil {
		if errors.Is(err, metadata.ErrNodeNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load node: %w", err)
	}
	return node, nil
}

// ListNodes returns the page-th page (20 entries, insertion order) of
// nodes under parentID.
//
// A parentID that does not resolve to an existing folder yields an empty
// page, not an error. Negative pages are treated as page zero; a page so
// large that its offset would overflow is necessarily past the end and
// yields an empty page.
func (s *Service) ListNodes(ctx context.Context, userID, parentID string, page int) ([]*metadata.FileNode, error) {
	if page < 0 {
		page = 0
	}
	if page > math.MaxInt/PageSize {
		return []*metadata.FileNode{}, nil
	}

	parentID = NormalizeParentID(parentID)
	if parentID != metadata.RootID {
		parent, err := s.meta.NodeByID(ctx, parentID)
		if err != nil {
			if errors.Is(err, metadata.ErrNodeNotFound) {
				return []*metadata.FileNode{}, nil
			}
			return nil, fmt.Errorf("failed to resolve parent: %w", err)
		}
		if parent.Type != metadata.NodeTypeFolder {
			return []*metadata.FileNode{}, nil
		}
	}

	nodes, err := s.meta.ListNodes(ctx, userID, parentID, page*PageSize, PageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list nodes: %w", err)
	}
	return nodes, nil
}

// SetVisibility updates the isPublic flag of userID's node and returns
// the refreshed node. Repeating the same value is a no-op success.
func (s *Service) SetVisibility(ctx context.Context, userID, fileID string, isPublic bool) (*metadata.FileNode, error) {
	node, err := s.meta.SetNodePublic(ctx, fileID, userID, isPublic)
	if err != nil {
		if errors.Is(err, metadata.ErrNodeNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update visibility: %w", err)
	}
	return node, nil
}

// ReadContent returns the bytes of a node's content, or of its
// width-resized derivative when width is non-zero, together with the
// node's name for content-type derivation.
//
// userID may be empty for unauthenticated callers. Unauthorized reads and
// missing content both surface as ErrNotFound so existence is never
// disclosed; a missing derivative is indistinguishable from one still
// pending generation.
func (s *Service) ReadContent(ctx context.Context, userID, fileID string, width int) ([]byte, string, error) {
	switch width {
	case 0, 100, 250, 500:
	default:
		return nil, "", ErrInvalidSize
	}

	node, err := s.meta.NodeByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, metadata.ErrNodeNotFound) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("failed to load node: %w", err)
	}

	if !CanAccess(userID, node) {
		return nil, "", ErrNotFound
	}

	if node.Type == metadata.NodeTypeFolder {
		return nil, "", ErrFolderHasNoContent
	}

	contentID := content.ID(node.LocalPath)
	if width != 0 {
		contentID = content.DerivativeID(contentID, width)
	}

	data, err := s.contents.ReadContent(ctx, contentID)
	if err != nil {
		if errors.Is(err, content.ErrContentNotFound) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("failed to read content: %w", err)
	}

	return data, node.Name, nil
}
