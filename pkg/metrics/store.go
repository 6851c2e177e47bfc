package metrics

import "time"

// StoreMetrics provides observability for metadata store operations.
//
// Implementations can collect metrics about catalog operations, repairs of
// the persisted document, upload volume and rejected uploads, and failed
// best-effort cleanups.
//
// This interface is optional - if not provided to the metadata store,
// operations proceed without metrics collection (zero overhead).
//
// Example usage:
//
//	// With metrics enabled
//	m := prometheus.NewStoreMetrics()
//	st, err := store.New(ctx, cfg, m)
//
//	// Without metrics (no-op)
//	st, err := store.New(ctx, cfg, nil)
type StoreMetrics interface {
	// RecordOperation records a completed store operation.
	//
	// Parameters:
	//   - operation: Operation name (e.g., "CreateFolder", "AddFiles")
	//   - duration: Time taken including lock wait
	//   - err: Error if operation failed, nil if successful
	RecordOperation(operation string, duration time.Duration, err error)

	// RecordRepair records a load that had to repair the catalog document.
	//
	// Parameters:
	//   - kind: Repair kind (e.g., "corruption", "missing_root")
	RecordRepair(kind string)

	// RecordUploadBytes records the size of an accepted upload.
	RecordUploadBytes(bytes int64)

	// RecordRejectedUpload records an upload dropped from a batch.
	//
	// Parameters:
	//   - reason: Rejection reason (e.g., "too_large")
	RecordRejectedUpload(reason string)

	// RecordCleanupFailure records a best-effort removal that failed.
	//
	// Parameters:
	//   - target: What was being removed ("file", "folder", "staging")
	RecordCleanupFailure(target string)

	// SetCatalogSize updates the folder and file entry gauges.
	SetCatalogSize(folders, files int)
}

// NewNoopStoreMetrics returns a StoreMetrics that records nothing.
func NewNoopStoreMetrics() StoreMetrics {
	return noopStoreMetrics{}
}

// noopStoreMetrics is a no-op implementation of StoreMetrics with zero overhead.
type noopStoreMetrics struct{}

func (noopStoreMetrics) RecordOperation(string, time.Duration, error) {}
func (noopStoreMetrics) RecordRepair(string)                          {}
func (noopStoreMetrics) RecordUploadBytes(int64)                      {}
func (noopStoreMetrics) RecordRejectedUpload(string)                  {}
func (noopStoreMetrics) RecordCleanupFailure(string)                  {}
func (noopStoreMetrics) SetCatalogSize(int, int)                      {}
