// Package file provides the default catalog backend: one JSON file on disk.
package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/marmos91/dittocat/pkg/catalog"
)

// DefaultFileName is the catalog file name inside the storage root.
const DefaultFileName = "metadata.json"

// FileBackend stores the catalog document in a single file.
//
// Writes go to a uniquely named temp file in the same directory, which is
// synced, closed and then renamed over the target. Rename within one
// directory is atomic, so readers see the old or the new document, never a
// partial one.
type FileBackend struct {
	path string
}

var _ catalog.Backend = (*FileBackend)(nil)

// NewFileBackend creates a backend for the document at path.
//
// The parent directory is created if it doesn't exist.
//
// Parameters:
//   - path: Location of the catalog document
//
// Returns:
//   - *FileBackend: Backend ready for use
//   - error: Returns error if the parent directory cannot be created
func NewFileBackend(path string) (*FileBackend, error) {
	if path == "" {
		return nil, fmt.Errorf("catalog file path is required")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create catalog directory: %w", err)
	}

	return &FileBackend{path: path}, nil
}

// Path returns the document location.
func (b *FileBackend) Path() string {
	return b.path
}

// ReadDocument reads the whole document.
func (b *FileBackend) ReadDocument(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(b.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, catalog.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to read %s: %w", b.path, err)
	}
	return data, nil
}

// WriteDocument atomically replaces the document with data.
func (b *FileBackend) WriteDocument(ctx context.Context, data []byte) error {
	// ========================================================================
	// Step 1: Write to a unique temp file next to the target
	// ========================================================================

	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(b.path)
	tmpFile, err := os.CreateTemp(dir, "."+filepath.Base(b.path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write catalog: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("sync catalog: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}

	// ========================================================================
	// Step 2: Rename over the target
	// ========================================================================

	if err := os.Chmod(tmpPath, 0644); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("chmod catalog: %w", err)
	}
	if err := os.Rename(tmpPath, b.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename catalog: %w", err)
	}

	return nil
}

// Close is a no-op; the backend holds no open handles.
func (b *FileBackend) Close() error {
	return nil
}
