// Package testing provides a shared contract test suite for metadata.Store
// implementations. The suite tests the interface contract, not implementation
// details, so it runs unchanged against the memory and badger stores.
package testing

import (
	"testing"

	"github.com/marmos91/stashfs/pkg/store/metadata"
)

// StoreTestSuite exercises the full metadata.Store contract.
type StoreTestSuite struct {
	// NewStore creates a fresh store for each test, ensuring isolation.
	NewStore func(t *testing.T) metadata.Store
}

// Run executes all tests in the suite.
func (suite *StoreTestSuite) Run(t *testing.T) {
	t.Run("Users", suite.RunUserTests)
	t.Run("Nodes", suite.RunNodeTests)
	t.Run("Listing", suite.RunListingTests)
	t.Run("Visibility", suite.RunVisibilityTests)
	t.Run("Healthcheck", suite.RunHealthcheckTests)
}

// RunHealthcheckTests verifies a fresh store reports healthy.
func (suite *StoreTestSuite) RunHealthcheckTests(t *testing.T) {
	store := suite.NewStore(t)
	defer store.Close()

	if err := store.HealthCheck(t.Context()); err != nil {
		t.Fatalf("expected healthy store, got: %v", err)
	}
}
