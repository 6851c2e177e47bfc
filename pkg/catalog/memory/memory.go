// Package memory provides an in-process catalog backend.
package memory

import (
	"bytes"
	"context"
	"sync"

	"github.com/marmos91/dittocat/pkg/catalog"
)

// MemoryBackend keeps the catalog document in memory.
//
// This backend is suitable for:
//   - Tests that need a backend without touching the disk
//   - Ephemeral deployments where losing the catalog on restart is fine
//
// Thread Safety:
// All operations are protected by a single mutex. Reads return a copy, so
// callers can never mutate the stored bytes.
type MemoryBackend struct {
	mu   sync.Mutex
	data []byte
}

var _ catalog.Backend = (*MemoryBackend)(nil)

// NewMemoryBackend creates an empty backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

// ReadDocument returns a copy of the stored document.
func (b *MemoryBackend) ReadDocument(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.data == nil {
		return nil, catalog.ErrDocumentNotFound
	}
	return bytes.Clone(b.data), nil
}

// WriteDocument replaces the stored document with a copy of data.
func (b *MemoryBackend) WriteDocument(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.data = append([]byte{}, data...)
	return nil
}

// Close is a no-op.
func (b *MemoryBackend) Close() error {
	return nil
}
