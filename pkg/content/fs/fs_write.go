package fs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/marmos91/dittocat/pkg/content"
)

// CompanionContent is the initial body of every normalized artifact.
const CompanionContent = `{"items": []}`

// Place moves a staged upload to relPath.
//
// The move is a rename inside the storage root, so the artifact appears
// fully written or not at all. Place refuses to overwrite an existing file.
//
// Parameters:
//   - ctx: Context for cancellation and timeouts
//   - staged: Result of a previous Stage call
//   - relPath: Destination relative to the storage root
//
// Returns:
//   - error: pathguard.ErrInvalidPath, content.ErrContentExists,
//     content.ErrContentNotFound (staged file vanished), or I/O failure
func (r *FSContentStore) Place(ctx context.Context, staged *content.StagedContent, relPath string) error {
	// ========================================================================
	// Step 1: Check context and resolve the destination
	// ========================================================================

	if err := ctx.Err(); err != nil {
		return err
	}

	dest, err := r.guard.ResolveAbsolutePath(relPath)
	if err != nil {
		return err
	}

	if _, err := os.Lstat(dest); err == nil {
		return fmt.Errorf("%s: %w", relPath, content.ErrContentExists)
	}

	// ========================================================================
	// Step 2: Rename the staged file into place
	// ========================================================================

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", relPath, err)
	}

	if err := os.Rename(staged.Path, dest); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("staged upload for %s: %w", relPath, content.ErrContentNotFound)
		}
		return fmt.Errorf("failed to place %s: %w", relPath, err)
	}

	return nil
}

// WriteCompanion creates the empty normalized artifact at relPath.
//
// An existing artifact is left untouched, so a companion already populated
// by the normalization process is never reset.
func (r *FSContentStore) WriteCompanion(ctx context.Context, relPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	full, err := r.guard.ResolveAbsolutePath(relPath)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", relPath, err)
	}

	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil
		}
		return fmt.Errorf("failed to create companion %s: %w", relPath, err)
	}

	if _, err := f.WriteString(CompanionContent); err != nil {
		_ = f.Close()
		_ = os.Remove(full)
		return fmt.Errorf("failed to write companion %s: %w", relPath, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(full)
		return fmt.Errorf("failed to close companion %s: %w", relPath, err)
	}

	return nil
}

// Remove deletes the artifact at relPath.
//
// The operation is idempotent: a file that does not exist counts as removed.
// An empty relPath is a no-op, matching entries that never had a companion.
//
// Returns:
//   - content.Cleanup: Outcome of the removal; never surfaces as an error
func (r *FSContentStore) Remove(ctx context.Context, relPath string) content.Cleanup {
	result := content.Cleanup{Path: relPath}
	if relPath == "" {
		return result
	}

	// ========================================================================
	// Step 1: Check context and resolve the path
	// ========================================================================

	if err := ctx.Err(); err != nil {
		result.Err = err
		return result
	}

	full, err := r.guard.ResolveAbsolutePath(relPath)
	if err != nil {
		result.Err = err
		return result
	}

	// ========================================================================
	// Step 2: Remove the file
	// ========================================================================

	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		result.Err = fmt.Errorf("failed to delete %s: %w", relPath, err)
	}

	return result
}
