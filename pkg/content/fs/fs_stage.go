package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/marmos91/dittocat/pkg/content"
)

// stageChunkSize is the read size used while streaming an upload.
const stageChunkSize = 1 << 20

// Stage streams src into a new file under the staging directory.
//
// The stream is copied in 1MB chunks with a context check before each one.
// As soon as more than maxBytes have been read the partial file is removed
// and ErrContentTooLarge is returned; the rest of src is left unread.
//
// Parameters:
//   - ctx: Context for cancellation and timeouts
//   - src: Upload body
//   - maxBytes: Per-file byte ceiling (a stream of exactly maxBytes is accepted)
//
// Returns:
//   - *content.StagedContent: Location and size of the staged file
//   - error: content.ErrContentTooLarge, context cancellation, or I/O failure
func (r *FSContentStore) Stage(ctx context.Context, src io.Reader, maxBytes int64) (*content.StagedContent, error) {
	// ========================================================================
	// Step 1: Check context and create the staging file
	// ========================================================================

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp(r.stagingDir, "upload-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create staging file: %w", err)
	}
	tmpPath := tmp.Name()

	fail := func(err error) (*content.StagedContent, error) {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return nil, err
	}

	// ========================================================================
	// Step 2: Copy with the byte ceiling enforced mid-stream
	// ========================================================================

	limited := io.LimitReader(src, maxBytes+1)
	buf := make([]byte, stageChunkSize)
	var size int64

	for {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}

		n, readErr := limited.Read(buf)
		if n > 0 {
			size += int64(n)
			if size > maxBytes {
				return fail(fmt.Errorf("upload exceeds %d bytes: %w", maxBytes, content.ErrContentTooLarge))
			}
			if _, err := tmp.Write(buf[:n]); err != nil {
				return fail(fmt.Errorf("failed to write staging file: %w", err))
			}
		}
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return fail(fmt.Errorf("failed to read upload: %w", readErr))
		}
	}

	// ========================================================================
	// Step 3: Close the staging file
	// ========================================================================

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return nil, fmt.Errorf("failed to close staging file: %w", err)
	}

	return &content.StagedContent{Path: tmpPath, Size: size}, nil
}

// Discard removes a staged file that will not be committed.
func (r *FSContentStore) Discard(staged *content.StagedContent) content.Cleanup {
	if staged == nil {
		return content.Cleanup{}
	}

	result := content.Cleanup{Path: filepath.Base(staged.Path)}
	if err := os.Remove(staged.Path); err != nil && !os.IsNotExist(err) {
		result.Err = fmt.Errorf("failed to discard staged upload: %w", err)
	}
	return result
}

// PurgeStaging removes every entry left in the staging directory.
//
// Staged files only survive a process that died between Stage and Place, so
// anything found here at startup has no catalog record pointing at it.
//
// Context Cancellation:
// This operation checks context periodically while deleting.
//
// Returns:
//   - error: Returns error for context cancellation or when the staging
//     directory cannot be read; individual removal failures are joined
func (r *FSContentStore) PurgeStaging(ctx context.Context) error {
	// ========================================================================
	// Step 1: Check context before filesystem operation
	// ========================================================================

	if err := ctx.Err(); err != nil {
		return err
	}

	// ========================================================================
	// Step 2: Read staging entries
	// ========================================================================

	entries, err := os.ReadDir(r.stagingDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read staging directory: %w", err)
	}

	// ========================================================================
	// Step 3: Delete them, collecting failures
	// ========================================================================

	var errs []error
	for i, entry := range entries {
		// Check context periodically (every 100 entries)
		if i%100 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		if err := os.RemoveAll(filepath.Join(r.stagingDir, entry.Name())); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
