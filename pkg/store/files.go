package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/marmos91/dittocat/internal/logger"
	"github.com/marmos91/dittocat/pkg/catalog"
	"github.com/marmos91/dittocat/pkg/content"
	"github.com/marmos91/dittocat/pkg/pathguard"
)

// Upload is one file of an upload batch.
type Upload struct {
	// Name is the client-supplied file name. Uploads with an empty name
	// are skipped.
	Name string

	// Body streams the file bytes.
	Body io.Reader
}

// Rejection records an upload that was refused while the rest of the batch
// proceeded.
type Rejection struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// AddFilesResult is the outcome of a committed upload batch.
type AddFilesResult struct {
	// Catalog is the full catalog after the commit.
	Catalog *catalog.Catalog

	// Accepted lists the entries recorded by this batch.
	Accepted []catalog.FileEntry

	// Rejected lists the uploads refused for exceeding the size limit.
	Rejected []Rejection
}

// stagedUpload pairs an upload name with its staged bytes.
type stagedUpload struct {
	name   string
	staged *content.StagedContent
}

// AddFiles stores a batch of uploads in a folder.
//
// The bytes are streamed into staging without holding the lock, so a slow
// client never blocks other operations. The commit runs under the lock and
// re-checks the folder, since it may have been deleted while bytes were
// still arriving.
//
// An upload above the size limit is rejected on its own and the rest of the
// batch proceeds. When the same original name appears more than once, in the
// folder or within the batch, the last upload wins and the replaced
// artifacts are removed once the new catalog is saved.
//
// Parameters:
//   - ctx: Context for cancellation and timeouts
//   - folderID: Destination folder
//   - uploads: Files in client order
//
// Returns:
//   - *AddFilesResult: Updated catalog plus accepted and rejected files
//   - error: ErrNoFiles, ErrTooMany, ErrFolderNotFound, ErrTooLarge when
//     every upload was rejected, or an I/O failure
func (s *Store) AddFiles(ctx context.Context, folderID string, uploads []Upload) (result *AddFilesResult, err error) {
	defer func(start time.Time) { s.record("AddFiles", start, err) }(time.Now())

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// ========================================================================
	// Step 1: Batch limits and folder existence
	// ========================================================================

	if len(uploads) == 0 {
		return nil, ErrNoFiles
	}
	if len(uploads) > s.limits.MaxFilesPerUpload {
		s.metrics.RecordRejectedUpload("too_many")
		return nil, fmt.Errorf("%w. Max %d per upload.", ErrTooMany, s.limits.MaxFilesPerUpload)
	}

	if err := s.requireFolder(ctx, folderID); err != nil {
		return nil, err
	}

	// ========================================================================
	// Step 2: Stream bytes into staging (lock not held)
	// ========================================================================

	staged, rejected, err := s.stageAll(ctx, uploads)
	if err != nil {
		return nil, err
	}

	if len(staged) == 0 {
		if len(rejected) > 0 {
			names := make([]string, len(rejected))
			for i, r := range rejected {
				names[i] = r.Name
			}
			return nil, fmt.Errorf("%w: %s (max %s)", ErrTooLarge, strings.Join(names, ", "), formatLimit(s.limits.MaxFileSize))
		}
		return nil, ErrNoFiles
	}

	// ========================================================================
	// Step 3: Commit under the lock
	// ========================================================================

	s.mu.Lock()
	defer s.mu.Unlock()

	cat, accepted, err := s.commit(ctx, folderID, staged)
	if err != nil {
		return nil, err
	}

	return &AddFilesResult{Catalog: cat, Accepted: accepted, Rejected: rejected}, nil
}

// requireFolder checks that folderID exists in the current catalog.
func (s *Store) requireFolder(ctx context.Context, folderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cat, err := s.load(ctx)
	if err != nil {
		return err
	}
	if cat.FindFolder(folderID) == nil {
		return fmt.Errorf("%w: %s", ErrFolderNotFound, folderID)
	}
	return nil
}

// stageAll streams every named upload into staging. Oversized uploads become
// rejections; any other failure discards everything staged so far.
func (s *Store) stageAll(ctx context.Context, uploads []Upload) ([]stagedUpload, []Rejection, error) {
	var (
		staged   []stagedUpload
		rejected []Rejection
	)

	discardAll := func() {
		for _, su := range staged {
			s.cleanup("staged upload", s.content.Discard(su.staged))
		}
	}

	for _, u := range uploads {
		if u.Name == "" {
			continue
		}

		if err := ctx.Err(); err != nil {
			discardAll()
			return nil, nil, err
		}

		sc, err := s.content.Stage(ctx, u.Body, s.limits.MaxFileSize)
		if errors.Is(err, content.ErrContentTooLarge) {
			logger.Warn("Rejected upload %q: larger than %d bytes", u.Name, s.limits.MaxFileSize)
			s.metrics.RecordRejectedUpload("too_large")
			rejected = append(rejected, Rejection{
				Name:   u.Name,
				Reason: fmt.Sprintf("File too large: %s (max %s)", u.Name, formatLimit(s.limits.MaxFileSize)),
			})
			continue
		}
		if err != nil {
			discardAll()
			return nil, nil, fmt.Errorf("failed to receive %q: %w", u.Name, err)
		}

		staged = append(staged, stagedUpload{name: u.Name, staged: sc})
	}

	return staged, rejected, nil
}

// commit moves staged uploads into the folder, records them and saves.
//
// Must be called with s.mu held. On any failure the staged and placed bytes
// are removed and the catalog on disk is left as it was.
func (s *Store) commit(ctx context.Context, folderID string, staged []stagedUpload) (*catalog.Catalog, []catalog.FileEntry, error) {
	var placed []catalog.FileEntry

	rollback := func(pending []stagedUpload) {
		for _, p := range placed {
			s.removeArtifacts(ctx, p)
		}
		for _, su := range pending {
			s.cleanup("staged upload", s.content.Discard(su.staged))
		}
	}

	cat, err := s.load(ctx)
	if err != nil {
		rollback(staged)
		return nil, nil, err
	}

	folder := cat.FindFolder(folderID)
	if folder == nil {
		rollback(staged)
		return nil, nil, fmt.Errorf("%w: %s", ErrFolderNotFound, folderID)
	}

	if err := s.content.EnsureFolderDir(ctx, folderID); err != nil {
		rollback(staged)
		return nil, nil, err
	}

	var (
		obsolete []catalog.FileEntry
		total    int64
	)

	for i, su := range staged {
		serverName, normalizedName := artifactPaths(folderID, su.name)

		if err := s.content.Place(ctx, su.staged, serverName); err != nil {
			rollback(staged[i:])
			return nil, nil, fmt.Errorf("failed to store %q: %w", su.name, err)
		}

		entry := catalog.FileEntry{
			OriginalName:         su.name,
			ServerName:           serverName,
			Size:                 su.staged.Size,
			NormalizedServerName: normalizedName,
		}
		placed = append(placed, entry)

		if err := s.content.WriteCompanion(ctx, normalizedName); err != nil {
			rollback(staged[i+1:])
			return nil, nil, fmt.Errorf("failed to create companion for %q: %w", su.name, err)
		}

		if idx := folder.FindByOriginalName(su.name); idx >= 0 {
			obsolete = append(obsolete, folder.RemoveFileAt(idx))
		}
		folder.Files = append(folder.Files, entry)
		total += entry.Size
	}

	if err := s.save(ctx, cat); err != nil {
		rollback(nil)
		return nil, nil, err
	}

	for _, old := range obsolete {
		s.removeArtifacts(ctx, old)
	}

	var accepted []catalog.FileEntry
	for _, p := range placed {
		if folder.FindFile(p.ServerName) >= 0 {
			accepted = append(accepted, p)
		}
	}

	s.metrics.RecordUploadBytes(total)
	logger.Info("Stored %d files (%d bytes) in folder %s, replaced %d", len(accepted), total, folderID, len(obsolete))
	return cat, accepted, nil
}

// removeArtifacts deletes both artifacts of entry, best-effort.
func (s *Store) removeArtifacts(ctx context.Context, entry catalog.FileEntry) {
	s.cleanup("artifact", s.content.Remove(ctx, entry.ServerName))
	s.cleanup("companion", s.content.Remove(ctx, entry.NormalizedServerName))
}

// DeleteFile removes one file record and its artifacts.
//
// serverName is normalized and validated before anything touches the disk,
// and the normalized form is what gets looked up. The artifacts are removed
// after the catalog is saved, best-effort.
//
// Returns:
//   - []catalog.Folder: The updated folder list
//   - error: ErrInvalidPath, ErrFolderNotFound, ErrFileNotFound, or a
//     persistence failure
func (s *Store) DeleteFile(ctx context.Context, folderID, serverName string) (folders []catalog.Folder, err error) {
	defer func(start time.Time) { s.record("DeleteFile", start, err) }(time.Now())

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	serverName, err = pathguard.ResolveRelativePath(serverName)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cat, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	folder := cat.FindFolder(folderID)
	if folder == nil {
		return nil, fmt.Errorf("%w: %s", ErrFolderNotFound, folderID)
	}

	idx := folder.FindFile(serverName)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, serverName)
	}
	removed := folder.RemoveFileAt(idx)

	if err := s.save(ctx, cat); err != nil {
		return nil, err
	}

	s.removeArtifacts(ctx, removed)

	logger.Info("Deleted file %s (%q) from folder %s", removed.ServerName, removed.OriginalName, folderID)
	return cat.Folders, nil
}

// formatLimit renders a byte limit the way users expect to read it.
func formatLimit(n int64) string {
	const mib = 1024 * 1024
	if n >= mib && n%mib == 0 {
		return fmt.Sprintf("%dMB", n/mib)
	}
	return fmt.Sprintf("%d bytes", n)
}
