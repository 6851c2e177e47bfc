// Package store implements the metadata store: every catalog mutation and
// its matching disk side effects, serialized behind one lock.
//
// Each operation runs a full load-mutate-save cycle while holding the lock,
// so two operations never interleave their reads and writes of the catalog
// document. Upload bytes are the one exception: AddFiles streams them into
// staging before taking the lock and only commits under it.
package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/marmos91/dittocat/internal/logger"
	"github.com/marmos91/dittocat/pkg/catalog"
	"github.com/marmos91/dittocat/pkg/content"
	"github.com/marmos91/dittocat/pkg/metrics"
)

const (
	// DefaultMaxFilesPerUpload is the default per-batch file limit.
	DefaultMaxFilesPerUpload = 50

	// DefaultMaxFileSize is the default per-file byte limit (50 MiB).
	DefaultMaxFileSize int64 = 50 * 1024 * 1024
)

// Limits bounds a single upload batch.
type Limits struct {
	MaxFilesPerUpload int
	MaxFileSize       int64
}

func (l *Limits) applyDefaults() {
	if l.MaxFilesPerUpload <= 0 {
		l.MaxFilesPerUpload = DefaultMaxFilesPerUpload
	}
	if l.MaxFileSize <= 0 {
		l.MaxFileSize = DefaultMaxFileSize
	}
}

// Config wires a Store to its collaborators.
type Config struct {
	// Persistence loads and saves the catalog document.
	Persistence *catalog.Persistence

	// Content performs disk side effects under the storage root.
	Content content.Store

	// Limits bounds upload batches. Zero values use the defaults.
	Limits Limits

	// Metrics is optional; nil disables collection.
	Metrics metrics.StoreMetrics
}

// Store is the serialized-access facade over the catalog.
//
// Thread Safety:
// Safe for concurrent use. A single mutex covers every load-mutate-save
// cycle end to end, including directory creation and file deletion.
type Store struct {
	mu          sync.Mutex
	persistence *catalog.Persistence
	content     content.Store
	limits      Limits
	metrics     metrics.StoreMetrics
}

// New creates a Store and prepares the storage root.
//
// Startup does two things before the store is handed out: it purges upload
// staging left behind by an interrupted process, and it loads the catalog
// once so a missing or corrupt document is initialized (and logged) now
// rather than on the first request.
//
// Parameters:
//   - ctx: Context for cancellation and timeouts
//   - cfg: Collaborators and limits
//
// Returns:
//   - *Store: Ready store
//   - error: Missing collaborators, or the initial load failed
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Persistence == nil {
		return nil, fmt.Errorf("store: persistence is required")
	}
	if cfg.Content == nil {
		return nil, fmt.Errorf("store: content store is required")
	}

	cfg.Limits.applyDefaults()
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewNoopStoreMetrics()
	}

	s := &Store{
		persistence: cfg.Persistence,
		content:     cfg.Content,
		limits:      cfg.Limits,
		metrics:     cfg.Metrics,
	}

	if err := s.content.PurgeStaging(ctx); err != nil {
		logger.Warn("Failed to purge upload staging: %v", err)
		s.metrics.RecordCleanupFailure("staging")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cat, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	logger.Info("Catalog loaded: %d folders, %d files", len(cat.Folders), cat.FileCount())
	return s, nil
}

// Limits returns the effective upload limits.
func (s *Store) Limits() Limits {
	return s.limits
}

// load reads the catalog and ensures every folder directory exists.
//
// Must be called with s.mu held.
func (s *Store) load(ctx context.Context) (*catalog.Catalog, error) {
	res, err := s.persistence.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	if res.Repair != catalog.RepairNone {
		s.metrics.RecordRepair(res.Repair.String())
	}

	for _, f := range res.Catalog.Folders {
		if err := s.content.EnsureFolderDir(ctx, f.ID); err != nil {
			// A folder with an unusable id stays in the catalog; uploads
			// into it fail at placement instead.
			logger.Warn("Cannot create directory for folder %q: %v", f.ID, err)
		}
	}

	s.metrics.SetCatalogSize(len(res.Catalog.Folders), res.Catalog.FileCount())
	return res.Catalog, nil
}

// save persists cat. Must be called with s.mu held.
func (s *Store) save(ctx context.Context, cat *catalog.Catalog) error {
	if err := s.persistence.Save(ctx, cat); err != nil {
		return err
	}
	s.metrics.SetCatalogSize(len(cat.Folders), cat.FileCount())
	return nil
}

// cleanup logs and counts a failed best-effort removal.
func (s *Store) cleanup(target string, c content.Cleanup) {
	if c.OK() {
		return
	}
	logger.Warn("Failed to remove %s %q, leaving it behind: %v", target, c.Path, c.Err)
	s.metrics.RecordCleanupFailure(target)
}

// record reports an operation outcome to metrics.
func (s *Store) record(operation string, start time.Time, err error) {
	s.metrics.RecordOperation(operation, time.Since(start), err)
}

// Catalog returns the full catalog.
func (s *Store) Catalog(ctx context.Context) (cat *catalog.Catalog, err error) {
	defer func(start time.Time) { s.record("Catalog", start, err) }(time.Now())

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load(ctx)
}

// Folders returns the folder list.
func (s *Store) Folders(ctx context.Context) ([]catalog.Folder, error) {
	cat, err := s.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	return cat.Folders, nil
}
