package prometheus

import (
	"time"

	"github.com/marmos91/dittocat/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// storeMetrics is the Prometheus implementation of metrics.StoreMetrics.
type storeMetrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	repairsTotal      *prometheus.CounterVec
	uploadBytes       prometheus.Counter
	uploadsRejected   *prometheus.CounterVec
	cleanupFailures   *prometheus.CounterVec
	folders           prometheus.Gauge
	files             prometheus.Gauge
}

// NewStoreMetrics creates a Prometheus-backed StoreMetrics on the global
// registry.
//
// Returns a no-op implementation if metrics are not enabled (InitRegistry not called).
func NewStoreMetrics() metrics.StoreMetrics {
	if !metrics.IsEnabled() {
		return metrics.NewNoopStoreMetrics()
	}
	return NewStoreMetricsWith(metrics.GetRegistry())
}

// NewStoreMetricsWith creates a StoreMetrics registered on reg.
func NewStoreMetricsWith(reg prometheus.Registerer) metrics.StoreMetrics {
	return &storeMetrics{
		operationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dittocat_store_operations_total",
				Help: "Total number of metadata store operations by operation and status",
			},
			[]string{"operation", "status"},
		),
		operationDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "dittocat_store_operation_duration_seconds",
				Help: "Duration of metadata store operations in seconds, including lock wait",
				Buckets: []float64{
					0.0005, // 500µs
					0.001,  // 1ms
					0.005,  // 5ms
					0.01,   // 10ms
					0.05,   // 50ms
					0.1,    // 100ms
					0.5,    // 500ms
					1.0,    // 1s
					5.0,    // 5s
				},
			},
			[]string{"operation"},
		),
		repairsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dittocat_catalog_repairs_total",
				Help: "Total number of catalog loads that repaired or reset the document",
			},
			[]string{"kind"},
		),
		uploadBytes: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "dittocat_upload_bytes_total",
				Help: "Total bytes of accepted uploads",
			},
		),
		uploadsRejected: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dittocat_uploads_rejected_total",
				Help: "Total number of uploads dropped from a batch",
			},
			[]string{"reason"},
		),
		cleanupFailures: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dittocat_cleanup_failures_total",
				Help: "Total number of best-effort removals that failed and left a file behind",
			},
			[]string{"target"},
		),
		folders: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "dittocat_catalog_folders",
				Help: "Current number of folders in the catalog, root included",
			},
		),
		files: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "dittocat_catalog_files",
				Help: "Current number of file entries in the catalog",
			},
		),
	}
}

func (m *storeMetrics) RecordOperation(operation string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	m.operationsTotal.WithLabelValues(operation, status).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func (m *storeMetrics) RecordRepair(kind string) {
	m.repairsTotal.WithLabelValues(kind).Inc()
}

func (m *storeMetrics) RecordUploadBytes(bytes int64) {
	m.uploadBytes.Add(float64(bytes))
}

func (m *storeMetrics) RecordRejectedUpload(reason string) {
	m.uploadsRejected.WithLabelValues(reason).Inc()
}

func (m *storeMetrics) RecordCleanupFailure(target string) {
	m.cleanupFailures.WithLabelValues(target).Inc()
}

func (m *storeMetrics) SetCatalogSize(folders, files int) {
	m.folders.Set(float64(folders))
	m.files.Set(float64(files))
}
