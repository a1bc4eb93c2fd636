package memory

import (
	"testing"

	"github.com/marmos91/stashfs/pkg/store/metadata"
	metadatatesting "github.com/marmos91/stashfs/pkg/store/metadata/testing"
)

// TestMemoryStore runs the complete metadata.Store contract suite against
// the in-memory implementation.
func TestMemoryStore(t *testing.T) {
	suite := &metadatatesting.StoreTestSuite{
		NewStore: func(t *testing.T) metadata.Store {
			return NewMemoryStore()
		},
	}

	suite.Run(t)
}
