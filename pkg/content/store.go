package content

import (
	"context"
	"io"
)

// ============================================================================
// Store Interface
// ============================================================================

// Store performs the on-disk side effects requested by the metadata store.
//
// The content store manages only bytes and directories. It does NOT manage:
//   - Folder and file records → handled by the catalog
//   - De-duplication and naming policy → handled by the metadata store
//   - Serialization of mutations → handled by the metadata store lock
//
// Paths:
// Every path argument is relative to the storage root ("<folder id>/<disk
// name>") and is passed through the path guard before touching the disk.
// Implementations must reject anything that resolves outside the root.
//
// Cleanup:
// Removal operations are best-effort. They return a Cleanup describing the
// outcome instead of an error; callers may log a failed cleanup and carry on.
//
// Thread Safety:
// Implementations must be safe for concurrent use. Stage in particular is
// called without the metadata store lock held.
type Store interface {
	// EnsureFolderDir creates the directory for a folder id if it is missing.
	EnsureFolderDir(ctx context.Context, folderID string) error

	// RemoveFolderDir recursively removes a folder directory.
	RemoveFolderDir(ctx context.Context, folderID string) Cleanup

	// Stage streams r into a private staging file, enforcing maxBytes.
	//
	// Returns ErrContentTooLarge (partial file already removed) when the
	// stream is longer than maxBytes.
	Stage(ctx context.Context, r io.Reader, maxBytes int64) (*StagedContent, error)

	// Discard removes a staged file that will not be committed.
	Discard(staged *StagedContent) Cleanup

	// Place moves a staged file to its final relative path.
	Place(ctx context.Context, staged *StagedContent, relPath string) error

	// WriteCompanion creates the empty normalized artifact at relPath if absent.
	WriteCompanion(ctx context.Context, relPath string) error

	// Remove deletes the artifact at relPath. A missing file counts as removed.
	Remove(ctx context.Context, relPath string) Cleanup

	// Exists reports whether an artifact is present at relPath.
	Exists(ctx context.Context, relPath string) (bool, error)

	// PurgeStaging deletes staging leftovers from an interrupted process.
	PurgeStaging(ctx context.Context) error
}

// StagedContent is an upload that has been fully received but not committed.
type StagedContent struct {
	// Path is the absolute location of the staging file.
	Path string

	// Size is the number of bytes written.
	Size int64
}
