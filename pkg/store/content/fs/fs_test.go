package fs

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marmos91/stashfs/pkg/store/content"
	contenttesting "github.com/marmos91/stashfs/pkg/store/content/testing"
)

// TestFSStore runs the content.Store contract suite against the
// filesystem implementation.
func TestFSStore(t *testing.T) {
	suite := &contenttesting.StoreTestSuite{
		NewStore: func(t *testing.T) content.Store {
			store, err := NewFSStore(t.Context(), t.TempDir())
			require.NoError(t, err)
			return store
		},
	}

	suite.Run(t)
}
