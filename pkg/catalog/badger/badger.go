// Package badger stores the catalog document in a BadgerDB.
package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/marmos91/dittocat/pkg/catalog"
)

// DefaultKey is the key holding the catalog document.
const DefaultKey = "catalog:document"

// BadgerBackend keeps the catalog document under a single key.
//
// A write is one db.Update transaction, which BadgerDB commits atomically,
// so readers never see a partial document.
//
// Thread Safety:
// BadgerDB transactions are safe for concurrent use.
type BadgerBackend struct {
	db  *badger.DB
	key []byte
}

var _ catalog.Backend = (*BadgerBackend)(nil)

// BadgerBackendConfig contains configuration for the badger backend.
type BadgerBackendConfig struct {
	// DBPath is the BadgerDB directory.
	DBPath string

	// Key overrides DefaultKey.
	Key string

	// InMemory runs BadgerDB without touching the disk (tests).
	InMemory bool
}

// NewBadgerBackend opens (or creates) the BadgerDB at cfg.DBPath.
//
// Parameters:
//   - ctx: Context for cancellation and timeouts
//   - cfg: Database path and key
//
// Returns:
//   - *BadgerBackend: Backend ready for use (must be closed)
//   - error: Returns error if the database cannot be opened
func NewBadgerBackend(ctx context.Context, cfg BadgerBackendConfig) (*BadgerBackend, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if cfg.DBPath == "" && !cfg.InMemory {
		return nil, fmt.Errorf("badger db path is required")
	}

	key := cfg.Key
	if key == "" {
		key = DefaultKey
	}

	// The catalog is a single small value; skip compression and keep logs quiet.
	opts := badger.DefaultOptions(cfg.DBPath)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts = opts.WithLoggingLevel(badger.WARNING)
	opts = opts.WithCompression(options.None)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB at %s: %w", cfg.DBPath, err)
	}

	return &BadgerBackend{db: db, key: []byte(key)}, nil
}

// ReadDocument returns the stored document.
func (b *BadgerBackend) ReadDocument(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var data []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(b.key)
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, catalog.ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog from badger: %w", err)
	}
	return data, nil
}

// WriteDocument replaces the stored document in one transaction.
func (b *BadgerBackend) WriteDocument(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(b.key, data)
	})
	if err != nil {
		return fmt.Errorf("failed to write catalog to badger: %w", err)
	}
	return nil
}

// Close closes the database.
func (b *BadgerBackend) Close() error {
	return b.db.Close()
}
