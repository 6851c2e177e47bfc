package testing

import (
	"bytes"
	"testing"

	"github.com/marmos91/dittocat/pkg/content"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mustStage stages data and fails the test if it errors.
func mustStage(t *testing.T, store content.Store, data []byte) *content.StagedContent {
	t.Helper()
	staged, err := store.Stage(testContext(), bytes.NewReader(data), int64(len(data))+1)
	require.NoError(t, err, "Stage should succeed")
	require.NotNil(t, staged)
	return staged
}

// mustPlace stages data and places it at relPath.
func mustPlace(t *testing.T, store content.Store, relPath string, data []byte) {
	t.Helper()
	staged := mustStage(t, store, data)
	require.NoError(t, store.Place(testContext(), staged, relPath), "Place should succeed")
}

// assertExists checks whether an artifact exists at relPath.
func assertExists(t *testing.T, store content.Store, relPath string, expected bool) {
	t.Helper()
	exists, err := store.Exists(testContext(), relPath)
	require.NoError(t, err, "Exists should not error")
	assert.Equal(t, expected, exists, "existence mismatch for %s", relPath)
}
