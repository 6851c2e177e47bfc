package store

import (
	"context"
	"fmt"
	"time"

	"github.com/marmos91/dittocat/internal/logger"
	"github.com/marmos91/dittocat/pkg/catalog"
	"github.com/marmos91/dittocat/pkg/pathguard"
)

// CreateFolder adds an empty folder named name.
//
// Parameters:
//   - ctx: Context for cancellation and timeouts
//   - name: Human-entered name; trimmed before use
//
// Returns:
//   - []catalog.Folder: The updated folder list
//   - error: ErrInvalidName, ErrDuplicateName, or a persistence failure
func (s *Store) CreateFolder(ctx context.Context, name string) (folders []catalog.Folder, err error) {
	defer func(start time.Time) { s.record("CreateFolder", start, err) }(time.Now())

	// ========================================================================
	// Step 1: Validate the name before taking the lock
	// ========================================================================

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name, err = pathguard.SanitizeFolderName(name)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cat, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	if cat.HasFolderName(name) {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateName, name)
	}

	// ========================================================================
	// Step 2: Append the folder and create its directory
	// ========================================================================

	id := newFolderID(cat)
	cat.Folders = append(cat.Folders, catalog.Folder{ID: id, Name: name, Files: []catalog.FileEntry{}})

	if err := s.content.EnsureFolderDir(ctx, id); err != nil {
		return nil, err
	}

	// ========================================================================
	// Step 3: Persist
	// ========================================================================

	if err := s.save(ctx, cat); err != nil {
		s.cleanup("folder", s.content.RemoveFolderDir(ctx, id))
		return nil, err
	}

	logger.Info("Created folder %s (%q)", id, name)
	return cat.Folders, nil
}

// DeleteFolder removes a folder, its records and its directory.
//
// The directory is removed after the catalog is saved. Removal is
// best-effort: a failure is logged and leaves stray files, never an error.
//
// Returns:
//   - []catalog.Folder: The updated folder list
//   - error: ErrRootProtected, ErrFolderNotFound, or a persistence failure
func (s *Store) DeleteFolder(ctx context.Context, folderID string) (folders []catalog.Folder, err error) {
	defer func(start time.Time) { s.record("DeleteFolder", start, err) }(time.Now())

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if folderID == catalog.RootFolderID {
		return nil, ErrRootProtected
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cat, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	removed, ok := cat.RemoveFolder(folderID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFolderNotFound, folderID)
	}

	if err := s.save(ctx, cat); err != nil {
		return nil, err
	}

	s.cleanup("folder", s.content.RemoveFolderDir(ctx, folderID))

	logger.Info("Deleted folder %s (%q) with %d files", folderID, removed.Name, len(removed.Files))
	return cat.Folders, nil
}
