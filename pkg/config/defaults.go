package config

import (
	"strings"
	"time"

	"github.com/marmos91/dittocat/pkg/store"
)

// Default values applied by ApplyDefaults.
const (
	DefaultListenAddress   = ":8000"
	DefaultStorageRoot     = "./storage"
	DefaultCatalogType     = "file"
	DefaultRetryAttempts   = 3
	DefaultRetryDelay      = 100 * time.Millisecond
	DefaultMetricsPort     = 9090
	DefaultShutdownTimeout = 30 * time.Second
	DefaultRequestTimeout  = 5 * time.Minute
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// This function is called after loading configuration from file and environment
// variables to fill in any missing values with sensible defaults.
//
// Default Strategy:
//   - Zero values (0, "", false, nil) are replaced with defaults
//   - Explicit values are preserved
//   - Backend-specific defaults are handled by the factories
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyServerDefaults(&cfg.Server)
	applyStorageDefaults(&cfg.Storage)
	applyCatalogDefaults(&cfg.Catalog)
	applyLimitsDefaults(&cfg.Limits)
	applyMetricsDefaults(&cfg.Metrics)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	// Normalize log level to uppercase for consistent internal representation
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

// applyServerDefaults sets HTTP server defaults.
func applyServerDefaults(cfg *ServerConfig) {
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = DefaultListenAddress
	}

	// Uploads of up to MaxFilesPerUpload * MaxFileSize must fit inside the
	// read timeout, so it is generous.
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 10 * time.Minute
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Minute
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = 2 * time.Minute
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
}

// applyStorageDefaults sets the storage root.
func applyStorageDefaults(cfg *StorageConfig) {
	if cfg.Root == "" {
		cfg.Root = DefaultStorageRoot
	}
}

// applyCatalogDefaults sets catalog backend defaults.
func applyCatalogDefaults(cfg *CatalogConfig) {
	if cfg.Type == "" {
		cfg.Type = DefaultCatalogType
	}

	if cfg.File == nil {
		cfg.File = make(map[string]any)
	}
	if cfg.Badger == nil {
		cfg.Badger = make(map[string]any)
	}
	if cfg.S3 == nil {
		cfg.S3 = make(map[string]any)
	}
	if cfg.Memory == nil {
		cfg.Memory = make(map[string]any)
	}

	if cfg.RetryAttempts == 0 {
		cfg.RetryAttempts = DefaultRetryAttempts
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
}

// applyLimitsDefaults sets upload limits.
func applyLimitsDefaults(cfg *LimitsConfig) {
	if cfg.MaxFilesPerUpload == 0 {
		cfg.MaxFilesPerUpload = store.DefaultMaxFilesPerUpload
	}
	if cfg.MaxFileSize == 0 {
		cfg.MaxFileSize = store.DefaultMaxFileSize
	}
}

// applyMetricsDefaults sets the metrics port. Metrics stay disabled unless
// explicitly enabled.
func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Port == 0 {
		cfg.Port = DefaultMetricsPort
	}
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for:
//   - Generating sample configuration files
//   - Testing
func GetDefaultConfig() *Config {
	cfg := &Config{
		Catalog: CatalogConfig{
			Badger: map[string]any{
				"db_path": "./storage/catalog.db",
			},
			S3: map[string]any{
				"region":     "us-east-1",
				"bucket":     "dittocat",
				"key_prefix": "",
			},
		},
	}

	ApplyDefaults(cfg)
	return cfg
}
