package testing

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/stashfs/pkg/store/metadata"
)

func newNode(userID, parentID string, nodeType metadata.NodeType, name string) *metadata.FileNode {
	node := &metadata.FileNode{
		ID:       uuid.NewString(),
		UserID:   userID,
		Name:     name,
		Type:     nodeType,
		ParentID: parentID,
	}
	if nodeType != metadata.NodeTypeFolder {
		node.LocalPath = uuid.NewString()
	}
	return node
}

// RunNodeTests exercises node creation and owner-scoped lookup.
func (suite *StoreTestSuite) RunNodeTests(t *testing.T) {
	t.Run("CreateAndLookup", func(t *testing.T) {
		store := suite.NewStore(t)
		defer store.Close()
		ctx := t.Context()

		owner := uuid.NewString()
		node := newNode(owner, metadata.RootID, metadata.NodeTypeFile, "notes.txt")
		require.NoError(t, store.CreateNode(ctx, node))

		got, err := store.NodeByID(ctx, node.ID)
		require.NoError(t, err)
		assert.Equal(t, node.Name, got.Name)
		assert.Equal(t, node.LocalPath, got.LocalPath)
		assert.Equal(t, metadata.RootID, got.ParentID)
	})

	t.Run("OwnerScopedLookup", func(t *testing.T) {
		store := suite.NewStore(t)
		defer store.Close()
		ctx := t.Context()

		owner := uuid.NewString()
		node := newNode(owner, metadata.RootID, metadata.NodeTypeFile, "private.txt")
		require.NoError(t, store.CreateNode(ctx, node))

		got, err := store.NodeByIDAndOwner(ctx, node.ID, owner)
		require.NoError(t, err)
		assert.Equal(t, node.ID, got.ID)

		// A different owner must not learn the node exists.
		_, err = store.NodeByIDAndOwner(ctx, node.ID, uuid.NewString())
		assert.ErrorIs(t, err, metadata.ErrNodeNotFound)
	})

	t.Run("LookupMissing", func(t *testing.T) {
		store := suite.NewStore(t)
		defer store.Close()

		_, err := store.NodeByID(t.Context(), uuid.NewString())
		assert.ErrorIs(t, err, metadata.ErrNodeNotFound)
	})

	t.Run("Count", func(t *testing.T) {
		store := suite.NewStore(t)
		defer store.Close()
		ctx := t.Context()

		owner := uuid.NewString()
		for i := 0; i < 4; i++ {
			require.NoError(t, store.CreateNode(ctx, newNode(owner, metadata.RootID, metadata.NodeTypeFile, fmt.Sprintf("f%d", i))))
		}

		count, err := store.CountNodes(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(4), count)
	})
}

// RunListingTests exercises insertion-order listing and pagination.
func (suite *StoreTestSuite) RunListingTests(t *testing.T) {
	t.Run("InsertionOrder", func(t *testing.T) {
		store := suite.NewStore(t)
		defer store.Close()
		ctx := t.Context()

		owner := uuid.NewString()
		folder := newNode(owner, metadata.RootID, metadata.NodeTypeFolder, "docs")
		require.NoError(t, store.CreateNode(ctx, folder))

		var names []string
		for i := 0; i < 5; i++ {
			name := fmt.Sprintf("doc-%d.txt", i)
			names = append(names, name)
			require.NoError(t, store.CreateNode(ctx, newNode(owner, folder.ID, metadata.NodeTypeFile, name)))
		}

		listed, err := store.ListNodes(ctx, owner, folder.ID, 0, 20)
		require.NoError(t, err)
		require.Len(t, listed, 5)
		for i, node := range listed {
			assert.Equal(t, names[i], node.Name)
		}
	})

	t.Run("Pagination", func(t *testing.T) {
		store := suite.NewStore(t)
		defer store.Close()
		ctx := t.Context()

		owner := uuid.NewString()
		for i := 0; i < 25; i++ {
			require.NoError(t, store.CreateNode(ctx, newNode(owner, metadata.RootID, metadata.NodeTypeFile, fmt.Sprintf("f-%02d", i))))
		}

		page0, err := store.ListNodes(ctx, owner, metadata.RootID, 0, 20)
		require.NoError(t, err)
		require.Len(t, page0, 20)
		assert.Equal(t, "f-00", page0[0].Name)
		assert.Equal(t, "f-19", page0[19].Name)

		page1, err := store.ListNodes(ctx, owner, metadata.RootID, 20, 20)
		require.NoError(t, err)
		require.Len(t, page1, 5)
		assert.Equal(t, "f-20", page1[0].Name)

		// A page past the end is empty, not an error.
		page2, err := store.ListNodes(ctx, owner, metadata.RootID, 40, 20)
		require.NoError(t, err)
		assert.Empty(t, page2)

		// A negative offset clamps to the start instead of slicing out
		// of range.
		clamped, err := store.ListNodes(ctx, owner, metadata.RootID, -20, 20)
		require.NoError(t, err)
		require.Len(t, clamped, 20)
		assert.Equal(t, "f-00", clamped[0].Name)
	})

	t.Run("UnknownParent", func(t *testing.T) {
		store := suite.NewStore(t)
		defer store.Close()

		listed, err := store.ListNodes(t.Context(), uuid.NewString(), uuid.NewString(), 0, 20)
		require.NoError(t, err)
		assert.Empty(t, listed)
	})

	t.Run("OwnerIsolation", func(t *testing.T) {
		store := suite.NewStore(t)
		defer store.Close()
		ctx := t.Context()

		alice := uuid.NewString()
		bob := uuid.NewString()
		require.NoError(t, store.CreateNode(ctx, newNode(alice, metadata.RootID, metadata.NodeTypeFile, "alice.txt")))
		require.NoError(t, store.CreateNode(ctx, newNode(bob, metadata.RootID, metadata.NodeTypeFile, "bob.txt")))

		listed, err := store.ListNodes(ctx, alice, metadata.RootID, 0, 20)
		require.NoError(t, err)
		require.Len(t, listed, 1)
		assert.Equal(t, "alice.txt", listed[0].Name)

		listed, err = store.ListNodes(ctx, bob, metadata.RootID, 0, 20)
		require.NoError(t, err)
		require.Len(t, listed, 1)
		assert.Equal(t, "bob.txt", listed[0].Name)
	})
}

// RunVisibilityTests exercises the publish/unpublish update path.
func (suite *StoreTestSuite) RunVisibilityTests(t *testing.T) {
	t.Run("Toggle", func(t *testing.T) {
		store := suite.NewStore(t)
		defer store.Close()
		ctx := t.Context()

		owner := uuid.NewString()
		node := newNode(owner, metadata.RootID, metadata.NodeTypeImage, "cat.png")
		require.NoError(t, store.CreateNode(ctx, node))

		updated, err := store.SetNodePublic(ctx, node.ID, owner, true)
		require.NoError(t, err)
		assert.True(t, updated.IsPublic)

		// Idempotent: setting the same value succeeds.
		updated, err = store.SetNodePublic(ctx, node.ID, owner, true)
		require.NoError(t, err)
		assert.True(t, updated.IsPublic)

		updated, err = store.SetNodePublic(ctx, node.ID, owner, false)
		require.NoError(t, err)
		assert.False(t, updated.IsPublic)
	})

	t.Run("WrongOwner", func(t *testing.T) {
		store := suite.NewStore(t)
		defer store.Close()
		ctx := t.Context()

		node := newNode(uuid.NewString(), metadata.RootID, metadata.NodeTypeFile, "x")
		require.NoError(t, store.CreateNode(ctx, node))

		_, err := store.SetNodePublic(ctx, node.ID, uuid.NewString(), true)
		assert.ErrorIs(t, err, metadata.ErrNodeNotFound)

		// The stored node is untouched.
		got, err := store.NodeByID(ctx, node.ID)
		require.NoError(t, err)
		assert.False(t, got.IsPublic)
	})

	t.Run("MissingNode", func(t *testing.T) {
		store := suite.NewStore(t)
		defer store.Close()

		_, err := store.SetNodePublic(t.Context(), uuid.NewString(), uuid.NewString(), true)
		assert.ErrorIs(t, err, metadata.ErrNodeNotFound)
	})
}
