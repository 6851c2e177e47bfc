package testing

import (
	"context"
	"testing"

	"github.com/marmos91/dittocat/pkg/content"
)

// StoreTestSuite is a test suite for content.Store implementations.
// It tests the interface contract through relative paths only, so it does
// not depend on where an implementation keeps its bytes.
//
// Usage:
//
//	func TestMyContentStore(t *testing.T) {
//	    suite := &testing.StoreTestSuite{
//	        NewStore: func(t *testing.T) content.Store {
//	            return mystore.New(t.TempDir())
//	        },
//	    }
//	    suite.Run(t)
//	}
type StoreTestSuite struct {
	// NewStore is a factory function that creates a fresh Store instance
	// for each test. This ensures test isolation.
	NewStore func(t *testing.T) content.Store
}

// Run executes all tests in the suite.
func (suite *StoreTestSuite) Run(t *testing.T) {
	t.Run("FolderOperations", suite.RunFolderTests)
	t.Run("StagingOperations", suite.RunStagingTests)
	t.Run("ArtifactOperations", suite.RunArtifactTests)
}

// testContext returns a standard test context.
func testContext() context.Context {
	return context.Background()
}
