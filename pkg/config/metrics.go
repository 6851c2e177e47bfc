package config

import (
	"github.com/marmos91/dittocat/pkg/metrics"
	promMetrics "github.com/marmos91/dittocat/pkg/metrics/prometheus"
)

// MetricsResult contains all metrics-related components created from configuration.
type MetricsResult struct {
	// Server is the HTTP server exposing Prometheus metrics (nil if disabled)
	Server *metrics.Server

	// StoreMetrics records metadata store activity (never nil, uses noop if disabled)
	StoreMetrics metrics.StoreMetrics

	// HTTPMetrics records API requests (never nil, uses noop if disabled)
	HTTPMetrics metrics.HTTPMetrics
}

// InitializeMetrics creates and initializes all metrics components based on configuration.
//
// If metrics are enabled in the configuration:
//   - Initializes the global Prometheus registry
//   - Creates the metrics HTTP server
//   - Creates Prometheus-backed metrics instances for all components
//
// If metrics are disabled:
//   - Returns nil server
//   - Returns no-op metrics implementations (zero overhead)
func InitializeMetrics(cfg *Config) *MetricsResult {
	if !cfg.Metrics.Enabled {
		return &MetricsResult{
			StoreMetrics: metrics.NewNoopStoreMetrics(),
			HTTPMetrics:  metrics.NewNoopHTTPMetrics(),
		}
	}

	metrics.InitRegistry()

	return &MetricsResult{
		Server:       metrics.NewServer(metrics.ServerConfig{Port: cfg.Metrics.Port}),
		StoreMetrics: promMetrics.NewStoreMetrics(),
		HTTPMetrics:  promMetrics.NewHTTPMetrics(),
	}
}
