package testing

import (
	"bytes"
	"errors"
	"testing"

	"github.com/marmos91/dittocat/pkg/content"
	"github.com/marmos91/dittocat/pkg/pathguard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunFolderTests executes folder directory tests.
func (suite *StoreTestSuite) RunFolderTests(t *testing.T) {
	t.Run("EnsureFolderDir_Idempotent", suite.testEnsureFolderDirIdempotent)
	t.Run("EnsureFolderDir_RejectsTraversal", suite.testEnsureFolderDirRejectsTraversal)
	t.Run("RemoveFolderDir_RemovesArtifacts", suite.testRemoveFolderDirRemovesArtifacts)
	t.Run("RemoveFolderDir_Missing", suite.testRemoveFolderDirMissing)
}

// RunStagingTests executes upload staging tests.
func (suite *StoreTestSuite) RunStagingTests(t *testing.T) {
	t.Run("Stage_ExactlyAtLimit", suite.testStageExactlyAtLimit)
	t.Run("Stage_OverLimit", suite.testStageOverLimit)
	t.Run("Discard", suite.testDiscard)
	t.Run("PurgeStaging", suite.testPurgeStaging)
}

// RunArtifactTests executes placement, companion and removal tests.
func (suite *StoreTestSuite) RunArtifactTests(t *testing.T) {
	t.Run("Place_Basic", suite.testPlaceBasic)
	t.Run("Place_NoOverwrite", suite.testPlaceNoOverwrite)
	t.Run("Place_RejectsTraversal", suite.testPlaceRejectsTraversal)
	t.Run("WriteCompanion_KeepsExisting", suite.testWriteCompanionKeepsExisting)
	t.Run("Remove_Idempotent", suite.testRemoveIdempotent)
	t.Run("Remove_RejectsTraversal", suite.testRemoveRejectsTraversal)
}

// ============================================================================
// Folder Tests
// ============================================================================

func (suite *StoreTestSuite) testEnsureFolderDirIdempotent(t *testing.T) {
	store := suite.NewStore(t)

	require.NoError(t, store.EnsureFolderDir(testContext(), "fld_0000000001"))
	require.NoError(t, store.EnsureFolderDir(testContext(), "fld_0000000001"))
}

func (suite *StoreTestSuite) testEnsureFolderDirRejectsTraversal(t *testing.T) {
	store := suite.NewStore(t)

	err := store.EnsureFolderDir(testContext(), "../outside")
	assert.ErrorIs(t, err, pathguard.ErrInvalidPath)
}

func (suite *StoreTestSuite) testRemoveFolderDirRemovesArtifacts(t *testing.T) {
	store := suite.NewStore(t)
	require.NoError(t, store.EnsureFolderDir(testContext(), "fld_a"))
	mustPlace(t, store, "fld_a/report_00000001.pdf", []byte("pdf"))

	cleanup := store.RemoveFolderDir(testContext(), "fld_a")
	assert.True(t, cleanup.OK(), "cleanup failed: %v", cleanup.Err)
	assertExists(t, store, "fld_a/report_00000001.pdf", false)
}

func (suite *StoreTestSuite) testRemoveFolderDirMissing(t *testing.T) {
	store := suite.NewStore(t)

	cleanup := store.RemoveFolderDir(testContext(), "fld_never_created")
	assert.True(t, cleanup.OK())
}

// ============================================================================
// Staging Tests
// ============================================================================

func (suite *StoreTestSuite) testStageExactlyAtLimit(t *testing.T) {
	store := suite.NewStore(t)
	data := bytes.Repeat([]byte("x"), 1024)

	staged, err := store.Stage(testContext(), bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), staged.Size)
}

func (suite *StoreTestSuite) testStageOverLimit(t *testing.T) {
	store := suite.NewStore(t)
	data := bytes.Repeat([]byte("x"), 1025)

	staged, err := store.Stage(testContext(), bytes.NewReader(data), 1024)
	assert.Nil(t, staged)
	assert.True(t, errors.Is(err, content.ErrContentTooLarge), "expected ErrContentTooLarge, got %v", err)
}

func (suite *StoreTestSuite) testDiscard(t *testing.T) {
	store := suite.NewStore(t)
	staged := mustStage(t, store, []byte("discard me"))

	assert.True(t, store.Discard(staged).OK())
	// A second discard of the same file is still fine.
	assert.True(t, store.Discard(staged).OK())

	err := store.Place(testContext(), staged, "fld_a/late.txt")
	assert.ErrorIs(t, err, content.ErrContentNotFound)
}

func (suite *StoreTestSuite) testPurgeStaging(t *testing.T) {
	store := suite.NewStore(t)
	staged := mustStage(t, store, []byte("left behind"))

	require.NoError(t, store.PurgeStaging(testContext()))

	err := store.Place(testContext(), staged, "fld_a/left.txt")
	assert.ErrorIs(t, err, content.ErrContentNotFound)
}

// ============================================================================
// Artifact Tests
// ============================================================================

func (suite *StoreTestSuite) testPlaceBasic(t *testing.T) {
	store := suite.NewStore(t)

	mustPlace(t, store, "fld_a/notes_0a1b2c3d.txt", []byte("hello"))
	assertExists(t, store, "fld_a/notes_0a1b2c3d.txt", true)
}

func (suite *StoreTestSuite) testPlaceNoOverwrite(t *testing.T) {
	store := suite.NewStore(t)
	mustPlace(t, store, "fld_a/a.txt", []byte("first"))

	staged := mustStage(t, store, []byte("second"))
	err := store.Place(testContext(), staged, "fld_a/a.txt")
	assert.ErrorIs(t, err, content.ErrContentExists)
}

func (suite *StoreTestSuite) testPlaceRejectsTraversal(t *testing.T) {
	store := suite.NewStore(t)
	staged := mustStage(t, store, []byte("evil"))

	err := store.Place(testContext(), staged, "fld_1/../../etc/passwd")
	assert.ErrorIs(t, err, pathguard.ErrInvalidPath)
}

func (suite *StoreTestSuite) testWriteCompanionKeepsExisting(t *testing.T) {
	store := suite.NewStore(t)
	rel := "fld_a/a_0a1b2c3d_normalised.json"

	require.NoError(t, store.WriteCompanion(testContext(), rel))
	assertExists(t, store, rel, true)

	// Writing again is a no-op rather than an error.
	require.NoError(t, store.WriteCompanion(testContext(), rel))
	assertExists(t, store, rel, true)
}

func (suite *StoreTestSuite) testRemoveIdempotent(t *testing.T) {
	store := suite.NewStore(t)
	mustPlace(t, store, "fld_a/a.txt", []byte("bye"))

	assert.True(t, store.Remove(testContext(), "fld_a/a.txt").OK())
	assertExists(t, store, "fld_a/a.txt", false)
	assert.True(t, store.Remove(testContext(), "fld_a/a.txt").OK())
	assert.True(t, store.Remove(testContext(), "").OK())
}

func (suite *StoreTestSuite) testRemoveRejectsTraversal(t *testing.T) {
	store := suite.NewStore(t)

	cleanup := store.Remove(testContext(), "fld_1/../../etc/passwd")
	assert.False(t, cleanup.OK())
	assert.ErrorIs(t, cleanup.Err, pathguard.ErrInvalidPath)
}
