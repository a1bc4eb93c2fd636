package memory

import (
	"testing"

	"github.com/marmos91/stashfs/pkg/store/content"
	contenttesting "github.com/marmos91/stashfs/pkg/store/content/testing"
)

// TestMemoryStore runs the content.Store contract suite against the
// in-memory implementation.
func TestMemoryStore(t *testing.T) {
	suite := &contenttesting.StoreTestSuite{
		NewStore: func(t *testing.T) content.Store {
			return NewMemoryStore()
		},
	}

	suite.Run(t)
}
