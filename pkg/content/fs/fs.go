// Package fs implements the filesystem side-effector for dittocat.
//
// This file contains the store constructor and the folder directory
// operations. Upload staging lives in fs_stage.go, artifact placement and
// removal in fs_write.go.
package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/marmos91/dittocat/pkg/content"
	"github.com/marmos91/dittocat/pkg/pathguard"
)

// StagingDirName is the directory under the storage root that receives
// uploads before they are committed into a folder.
const StagingDirName = ".staging"

// FSContentStore implements content.Store on the local filesystem.
//
// Layout under the storage root:
//
//	<root>/<folder id>/<stem>_<id><ext>
//	<root>/<folder id>/<stem>_<id>_normalised.json
//	<root>/.staging/upload-*
//
// Every relative path is resolved through a pathguard.Guard, so callers can
// pass caller-supplied strings without pre-validating them.
//
// Thread Safety:
// Operations on distinct paths are safe for concurrent use. The metadata
// store serializes operations on shared folder directories.
type FSContentStore struct {
	guard      *pathguard.Guard
	stagingDir string
}

var _ content.Store = (*FSContentStore)(nil)

// NewFSContentStore creates a filesystem content store rooted at basePath.
//
// The storage root and the staging directory are created with permissions
// 0755 if they don't exist.
//
// Parameters:
//   - ctx: Context for cancellation and timeouts
//   - basePath: Storage root directory
//
// Returns:
//   - *FSContentStore: Initialized store
//   - error: Returns error if directory creation fails or context is cancelled
func NewFSContentStore(ctx context.Context, basePath string) (*FSContentStore, error) {
	// ========================================================================
	// Step 1: Check context before filesystem operation
	// ========================================================================

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// ========================================================================
	// Step 2: Create the root and staging directories
	// ========================================================================

	guard, err := pathguard.New(basePath)
	if err != nil {
		return nil, err
	}

	stagingDir := filepath.Join(guard.Root(), StagingDirName)
	if err := os.MkdirAll(stagingDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}

	return &FSContentStore{
		guard:      guard,
		stagingDir: stagingDir,
	}, nil
}

// Root returns the absolute storage root.
func (r *FSContentStore) Root() string {
	return r.guard.Root()
}

// EnsureFolderDir creates the directory for folderID if it is missing.
//
// Parameters:
//   - ctx: Context for cancellation and timeouts
//   - folderID: Folder identifier, used as the directory name
//
// Returns:
//   - error: pathguard.ErrInvalidPath for an unsafe id, or a filesystem error
func (r *FSContentStore) EnsureFolderDir(ctx context.Context, folderID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir, err := r.guard.ResolveAbsolutePath(folderID)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create folder directory %s: %w", folderID, err)
	}
	return nil
}

// RemoveFolderDir recursively removes the directory of folderID.
//
// A directory that does not exist counts as removed. Failures are reported
// in the returned Cleanup, never as an error.
func (r *FSContentStore) RemoveFolderDir(ctx context.Context, folderID string) content.Cleanup {
	result := content.Cleanup{Path: folderID}

	if err := ctx.Err(); err != nil {
		result.Err = err
		return result
	}

	dir, err := r.guard.ResolveAbsolutePath(folderID)
	if err != nil {
		result.Err = err
		return result
	}

	if err := os.RemoveAll(dir); err != nil {
		result.Err = fmt.Errorf("failed to remove folder directory: %w", err)
	}
	return result
}

// Exists reports whether an artifact is present at relPath.
//
// Parameters:
//   - ctx: Context for cancellation and timeouts
//   - relPath: Path relative to the storage root
//
// Returns:
//   - bool: True if a regular file exists at relPath
//   - error: pathguard.ErrInvalidPath, context cancellation, or a stat
//     failure other than not-exists
func (r *FSContentStore) Exists(ctx context.Context, relPath string) (bool, error) {
	// ========================================================================
	// Step 1: Check context and resolve the path
	// ========================================================================

	if err := ctx.Err(); err != nil {
		return false, err
	}

	full, err := r.guard.ResolveAbsolutePath(relPath)
	if err != nil {
		return false, err
	}

	// ========================================================================
	// Step 2: Stat the artifact
	// ========================================================================

	info, err := os.Stat(full)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat %s: %w", relPath, err)
	}

	return info.Mode().IsRegular(), nil
}
