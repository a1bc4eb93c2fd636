package files

import (
	"context"
	"encoding/base64"
	"errors"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/stashfs/pkg/queue"
	queuememory "github.com/marmos91/stashfs/pkg/queue/memory"
	contentpkg "github.com/marmos91/stashfs/pkg/store/content"
	contentmemory "github.com/marmos91/stashfs/pkg/store/content/memory"
	"github.com/marmos91/stashfs/pkg/store/metadata"
	metamemory "github.com/marmos91/stashfs/pkg/store/metadata/memory"
)

type fixture struct {
	service  *Service
	meta     *metamemory.MemoryStore
	contents *contentmemory.MemoryStore
	jobs     *queuememory.MemoryQueue
}

func newFixture() *fixture {
	meta := metamemory.NewMemoryStore()
	contents := contentmemory.NewMemoryStore()
	jobs := queuememory.NewMemoryQueue()
	return &fixture{
		service:  NewService(meta, contents, jobs),
		meta:     meta,
		contents: contents,
		jobs:     jobs,
	}
}

func encode(data string) string {
	return base64.StdEncoding.EncodeToString([]byte(data))
}

func TestNormalizeParentID(t *testing.T) {
	assert.Equal(t, metadata.RootID, NormalizeParentID(""))
	assert.Equal(t, metadata.RootID, NormalizeParentID("0"))
	assert.Equal(t, "abc", NormalizeParentID("abc"))
}

func TestCreateNode_FolderThenChildFile(t *testing.T) {
	f := newFixture()
	ctx := t.Context()
	owner := uuid.NewString()

	folder, err := f.service.CreateNode(ctx, owner, CreateNodeParams{
		Name: "photos",
		Type: "folder",
	})
	require.NoError(t, err)
	assert.Empty(t, folder.LocalPath)
	assert.Equal(t, metadata.RootID, folder.ParentID)

	child, err := f.service.CreateNode(ctx, owner, CreateNodeParams{
		Name:     "note.txt",
		Type:     "file",
		ParentID: folder.ID,
		Data:     encode("hello"),
	})
	require.NoError(t, err)
	assert.Equal(t, folder.ID, child.ParentID)
	assert.NotEmpty(t, child.LocalPath)

	// The child shows up when listing the folder.
	listed, err := f.service.ListNodes(ctx, owner, folder.ID, 0)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, child.ID, listed[0].ID)
}

func TestCreateNode_Validation(t *testing.T) {
	f := newFixture()
	ctx := t.Context()
	owner := uuid.NewString()

	tests := []struct {
		name    string
		params  CreateNodeParams
		wantErr error
	}{
		{"missing name", CreateNodeParams{Type: "file", Data: encode("x")}, ErrMissingName},
		{"missing type", CreateNodeParams{Name: "a", Data: encode("x")}, ErrMissingType},
		{"bad type", CreateNodeParams{Name: "a", Type: "symlink", Data: encode("x")}, ErrMissingType},
		{"missing data", CreateNodeParams{Name: "a", Type: "file"}, ErrMissingData},
		{"bad base64", CreateNodeParams{Name: "a", Type: "file", Data: "%%%"}, ErrInvalidData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.CreateNode(ctx, owner, tt.params)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	// No metadata record was created by any rejected upload.
	count, err := f.meta.CountNodes(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestCreateNode_ParentConstraints(t *testing.T) {
	f := newFixture()
	ctx := t.Context()
	owner := uuid.NewString()

	_, err := f.service.CreateNode(ctx, owner, CreateNodeParams{
		Name:     "orphan.txt",
		Type:     "file",
		ParentID: uuid.NewString(),
		Data:     encode("x"),
	})
	assert.ErrorIs(t, err, ErrParentNotFound)

	file, err := f.service.CreateNode(ctx, owner, CreateNodeParams{
		Name: "plain.txt",
		Type: "file",
		Data: encode("x"),
	})
	require.NoError(t, err)

	_, err = f.service.CreateNode(ctx, owner, CreateNodeParams{
		Name:     "nested.txt",
		Type:     "file",
		ParentID: file.ID,
		Data:     encode("y"),
	})
	assert.ErrorIs(t, err, ErrParentNotFolder)
}

func TestCreateNode_ImageEnqueuesThumbnailJob(t *testing.T) {
	f := newFixture()
	ctx := t.Context()
	owner := uuid.NewString()

	node, err := f.service.CreateNode(ctx, owner, CreateNodeParams{
		Name: "cat.png",
		Type: "image",
		Data: encode("png-bytes"),
	})
	require.NoError(t, err)

	job, err := f.jobs.Dequeue(ctx, queue.QueueThumbnails)
	require.NoError(t, err)
	assert.Equal(t, node.ID, job.FileID)
	assert.Equal(t, owner, job.UserID)
	assert.Equal(t, node.LocalPath, job.LocalPath)

	// Plain files do not enqueue jobs.
	_, err = f.service.CreateNode(ctx, owner, CreateNodeParams{
		Name: "doc.txt",
		Type: "file",
		Data: encode("text"),
	})
	require.NoError(t, err)
	_, err = f.jobs.Dequeue(ctx, queue.QueueThumbnails)
	assert.ErrorIs(t, err, queue.ErrNoJobs)
}

func TestGetNode_OwnerScoped(t *testing.T) {
	f := newFixture()
	ctx := t.Context()
	owner := uuid.NewString()

	node, err := f.service.CreateNode(ctx, owner, CreateNodeParams{
		Name: "mine.txt", Type: "file", Data: encode("x"),
	})
	require.NoError(t, err)

	got, err := f.service.GetNode(ctx, owner, node.ID)
	require.NoError(t, err)
	assert.Equal(t, node.ID, got.ID)

	_, err = f.service.GetNode(ctx, uuid.NewString(), node.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.service.GetNode(ctx, owner, uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListNodes_PaginationAndBadParents(t *testing.T) {
	f := newFixture()
	ctx := t.Context()
	owner := uuid.NewString()

	for i := 0; i < 25; i++ {
		_, err := f.service.CreateNode(ctx, owner, CreateNodeParams{
			Name: "f", Type: "file", Data: encode("x"),
		})
		require.NoError(t, err)
	}

	page0, err := f.service.ListNodes(ctx, owner, "", 0)
	require.NoError(t, err)
	assert.Len(t, page0, PageSize)

	page1, err := f.service.ListNodes(ctx, owner, "0", 1)
	require.NoError(t, err)
	assert.Len(t, page1, 5)

	// Pages never overlap.
	seen := map[string]bool{}
	for _, n := range append(page0, page1...) {
		assert.False(t, seen[n.ID])
		seen[n.ID] = true
	}

	beyond, err := f.service.ListNodes(ctx, owner, "", 2)
	require.NoError(t, err)
	assert.Empty(t, beyond)

	// Unknown or non-folder parents yield an empty page, not an error.
	empty, err := f.service.ListNodes(ctx, owner, uuid.NewString(), 0)
	require.NoError(t, err)
	assert.Empty(t, empty)

	empty, err = f.service.ListNodes(ctx, owner, page0[0].ID, 0)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestListNodes_ExtremePages(t *testing.T) {
	f := newFixture()
	ctx := t.Context()
	owner := uuid.NewString()

	for i := 0; i < 3; i++ {
		_, err := f.service.CreateNode(ctx, owner, CreateNodeParams{
			Name: "f", Type: "file", Data: encode("x"),
		})
		require.NoError(t, err)
	}

	// A page whose offset would overflow int is past the end, so it is
	// the usual empty page rather than a panic or a wrapped-around page
	// zero.
	beyond, err := f.service.ListNodes(ctx, owner, "", math.MaxInt)
	require.NoError(t, err)
	assert.Empty(t, beyond)

	beyond, err = f.service.ListNodes(ctx, owner, "", math.MaxInt/PageSize+1)
	require.NoError(t, err)
	assert.Empty(t, beyond)

	// Negative pages are page zero.
	first, err := f.service.ListNodes(ctx, owner, "", -3)
	require.NoError(t, err)
	assert.Len(t, first, 3)
}

func TestSetVisibility_RoundTrip(t *testing.T) {
	f := newFixture()
	ctx := t.Context()
	owner := uuid.NewString()

	node, err := f.service.CreateNode(ctx, owner, CreateNodeParams{
		Name: "toggle.txt", Type: "file", Data: encode("x"),
	})
	require.NoError(t, err)
	require.False(t, node.IsPublic)

	published, err := f.service.SetVisibility(ctx, owner, node.ID, true)
	require.NoError(t, err)
	assert.True(t, published.IsPublic)

	// Repeating the same value is a no-op success.
	published, err = f.service.SetVisibility(ctx, owner, node.ID, true)
	require.NoError(t, err)
	assert.True(t, published.IsPublic)

	unpublished, err := f.service.SetVisibility(ctx, owner, node.ID, false)
	require.NoError(t, err)
	assert.False(t, unpublished.IsPublic)

	_, err = f.service.SetVisibility(ctx, uuid.NewString(), node.ID, true)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCanAccess(t *testing.T) {
	owner := uuid.NewString()
	private := &metadata.FileNode{UserID: owner}
	public := &metadata.FileNode{UserID: owner, IsPublic: true}

	assert.True(t, CanAccess(owner, private))
	assert.False(t, CanAccess(uuid.NewString(), private))
	assert.False(t, CanAccess("", private))

	assert.True(t, CanAccess(owner, public))
	assert.True(t, CanAccess(uuid.NewString(), public))
	assert.True(t, CanAccess("", public))
}

func TestReadContent_AccessRules(t *testing.T) {
	f := newFixture()
	ctx := t.Context()
	owner := uuid.NewString()
	stranger := uuid.NewString()

	node, err := f.service.CreateNode(ctx, owner, CreateNodeParams{
		Name: "secret.txt", Type: "file", Data: encode("top secret"),
	})
	require.NoError(t, err)

	// Owner reads back exactly the uploaded bytes.
	data, name, err := f.service.ReadContent(ctx, owner, node.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte("top secret"), data)
	assert.Equal(t, "secret.txt", name)

	// Other users and anonymous callers get NotFound, not Forbidden.
	_, _, err = f.service.ReadContent(ctx, stranger, node.ID, 0)
	assert.ErrorIs(t, err, ErrNotFound)
	_, _, err = f.service.ReadContent(ctx, "", node.ID, 0)
	assert.ErrorIs(t, err, ErrNotFound)

	// Publishing opens the content to everyone.
	_, err = f.service.SetVisibility(ctx, owner, node.ID, true)
	require.NoError(t, err)

	data, _, err = f.service.ReadContent(ctx, "", node.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte("top secret"), data)
}

func TestReadContent_FoldersAndSizes(t *testing.T) {
	f := newFixture()
	ctx := t.Context()
	owner := uuid.NewString()

	folder, err := f.service.CreateNode(ctx, owner, CreateNodeParams{
		Name: "dir", Type: "folder",
	})
	require.NoError(t, err)

	_, _, err = f.service.ReadContent(ctx, owner, folder.ID, 0)
	assert.ErrorIs(t, err, ErrFolderHasNoContent)

	image, err := f.service.CreateNode(ctx, owner, CreateNodeParams{
		Name: "pic.png", Type: "image", Data: encode("imagedata"),
	})
	require.NoError(t, err)

	// Derivative not generated yet.
	_, _, err = f.service.ReadContent(ctx, owner, image.ID, 100)
	assert.ErrorIs(t, err, ErrNotFound)

	// Once the worker writes the derivative it becomes readable.
	thumb := contentpkg.DerivativeID(contentpkg.ID(image.LocalPath), 100)
	require.NoError(t, f.contents.WriteContent(ctx, thumb, []byte("tiny")))

	data, _, err := f.service.ReadContent(ctx, owner, image.ID, 100)
	require.NoError(t, err)
	assert.Equal(t, []byte("tiny"), data)

	// Sizes outside the derivative set are rejected.
	_, _, err = f.service.ReadContent(ctx, owner, image.ID, 333)
	assert.ErrorIs(t, err, ErrInvalidSize)
}

// failingContentStore rejects every write, simulating a full disk.
type failingContentStore struct {
	contentpkg.Store
}

func (f *failingContentStore) WriteContent(ctx context.Context, id contentpkg.ID, data []byte) error {
	return errors.New("disk full")
}

func TestCreateNode_WriteFailureLeavesNoRecord(t *testing.T) {
	meta := metamemory.NewMemoryStore()
	jobs := queuememory.NewMemoryQueue()
	broken := &failingContentStore{Store: contentmemory.NewMemoryStore()}
	service := NewService(meta, broken, jobs)

	ctx := t.Context()
	_, err := service.CreateNode(ctx, uuid.NewString(), CreateNodeParams{
		Name: "doomed.txt", Type: "file", Data: encode("x"),
	})
	require.Error(t, err)

	// Write-then-insert: the failed write left no metadata record and no
	// queued job behind.
	count, err := meta.CountNodes(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	_, err = jobs.Dequeue(ctx, queue.QueueThumbnails)
	assert.ErrorIs(t, err, queue.ErrNoJobs)
}
