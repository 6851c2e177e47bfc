package catalog

import (
	"context"
	"errors"
)

// ErrDocumentNotFound indicates the backend holds no catalog document yet.
//
// Load treats it as a first start and initializes a fresh catalog. Any other
// read error is treated as transient and retried; it never triggers a reset.
var ErrDocumentNotFound = errors.New("catalog document not found")

// Backend stores the serialized catalog document.
//
// Implementations:
//   - file: a JSON file replaced through a temp file and rename
//   - badger: a single key in a BadgerDB
//   - s3: a single object in an S3 bucket
//   - memory: an in-process byte slice
//
// Atomicity:
// WriteDocument must replace the whole document in one step. A concurrent
// ReadDocument sees either the old or the new bytes, never a mix.
type Backend interface {
	// ReadDocument returns the stored document, or ErrDocumentNotFound.
	ReadDocument(ctx context.Context) ([]byte, error)

	// WriteDocument atomically replaces the stored document.
	WriteDocument(ctx context.Context, data []byte) error

	// Close releases backend resources.
	Close() error
}
