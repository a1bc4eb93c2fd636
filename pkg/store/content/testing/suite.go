// Package testing provides a shared contract test suite for content.Store
// implementations.
package testing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/stashfs/pkg/store/content"
)

// StoreTestSuite exercises the content.Store contract.
type StoreTestSuite struct {
	// NewStore creates a fresh store for each test.
	NewStore func(t *testing.T) content.Store
}

// Run executes all tests in the suite.
func (suite *StoreTestSuite) Run(t *testing.T) {
	t.Run("RoundTrip", suite.RunRoundTripTests)
	t.Run("NoOverwrite", suite.RunNoOverwriteTests)
	t.Run("Missing", suite.RunMissingTests)
	t.Run("Derivatives", suite.RunDerivativeTests)
}

// RunRoundTripTests verifies written bytes come back unchanged.
func (suite *StoreTestSuite) RunRoundTripTests(t *testing.T) {
	store := suite.NewStore(t)
	defer store.Close()
	ctx := t.Context()

	id := content.ID(uuid.NewString())
	payload := []byte("Hello Webstack!\n")

	require.NoError(t, store.WriteContent(ctx, id, payload))

	got, err := store.ReadContent(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	exists, err := store.ContentExists(ctx, id)
	require.NoError(t, err)
	assert.True(t, exists)
}

// RunNoOverwriteTests verifies a second write to the same ID is rejected
// and the original blob survives.
func (suite *StoreTestSuite) RunNoOverwriteTests(t *testing.T) {
	store := suite.NewStore(t)
	defer store.Close()
	ctx := t.Context()

	id := content.ID(uuid.NewString())
	require.NoError(t, store.WriteContent(ctx, id, []byte("first")))

	err := store.WriteContent(ctx, id, []byte("second"))
	assert.ErrorIs(t, err, content.ErrContentExists)

	got, err := store.ReadContent(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), got)
}

// RunMissingTests verifies lookups of unknown IDs.
func (suite *StoreTestSuite) RunMissingTests(t *testing.T) {
	store := suite.NewStore(t)
	defer store.Close()
	ctx := t.Context()

	id := content.ID(uuid.NewString())

	_, err := store.ReadContent(ctx, id)
	assert.ErrorIs(t, err, content.ErrContentNotFound)

	exists, err := store.ContentExists(ctx, id)
	require.NoError(t, err)
	assert.False(t, exists)
}

// RunDerivativeTests verifies originals and width-suffixed derivatives are
// independent blobs.
func (suite *StoreTestSuite) RunDerivativeTests(t *testing.T) {
	store := suite.NewStore(t)
	defer store.Close()
	ctx := t.Context()

	id := content.ID(uuid.NewString())
	require.NoError(t, store.WriteContent(ctx, id, []byte("original-bytes")))

	// Derivative absent until written.
	thumb := content.DerivativeID(id, 100)
	_, err := store.ReadContent(ctx, thumb)
	assert.ErrorIs(t, err, content.ErrContentNotFound)

	require.NoError(t, store.WriteContent(ctx, thumb, []byte("tiny")))

	got, err := store.ReadContent(ctx, thumb)
	require.NoError(t, err)
	assert.Equal(t, []byte("tiny"), got)

	original, err := store.ReadContent(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []byte("original-bytes"), original)
}
