package config

import (
	"testing"
	"time"
)

func TestApplyDefaults_EmptyConfig(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "INFO" || cfg.Logging.Format != "text" || cfg.Logging.Output != "stdout" {
		t.Errorf("Unexpected logging defaults: %+v", cfg.Logging)
	}
	if cfg.Server.ListenAddress != ":8000" {
		t.Errorf("Expected listen address :8000, got %q", cfg.Server.ListenAddress)
	}
	if cfg.Server.RequestTimeout != DefaultRequestTimeout {
		t.Errorf("Expected default request timeout, got %v", cfg.Server.RequestTimeout)
	}
	if cfg.Storage.Root != "./storage" {
		t.Errorf("Expected storage root ./storage, got %q", cfg.Storage.Root)
	}
	if cfg.Catalog.Type != "file" {
		t.Errorf("Expected catalog type file, got %q", cfg.Catalog.Type)
	}
	if cfg.Catalog.File == nil || cfg.Catalog.Badger == nil || cfg.Catalog.S3 == nil || cfg.Catalog.Memory == nil {
		t.Error("Expected backend option maps to be initialized")
	}
	if cfg.Catalog.RetryAttempts != 3 {
		t.Errorf("Expected 3 retry attempts, got %d", cfg.Catalog.RetryAttempts)
	}
	if cfg.Catalog.RetryDelay != 100*time.Millisecond {
		t.Errorf("Expected 100ms retry delay, got %v", cfg.Catalog.RetryDelay)
	}
	if cfg.Metrics.Enabled {
		t.Error("Expected metrics disabled by default")
	}
	if cfg.Metrics.Port != 9090 {
		t.Errorf("Expected metrics port 9090, got %d", cfg.Metrics.Port)
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{
		Logging: LoggingConfig{Level: "warn", Format: "json", Output: "stderr"},
		Server:  ServerConfig{ListenAddress: "127.0.0.1:9000", ShutdownTimeout: time.Second},
		Storage: StorageConfig{Root: "/data"},
		Catalog: CatalogConfig{Type: "s3", RetryAttempts: 1, RetryDelay: time.Second},
		Limits:  LimitsConfig{MaxFilesPerUpload: 5, MaxFileSize: 1024},
		Metrics: MetricsConfig{Enabled: true, Port: 9999},
	}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "WARN" {
		t.Errorf("Expected level normalized to WARN, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Output != "stderr" {
		t.Errorf("Explicit logging values were overwritten: %+v", cfg.Logging)
	}
	if cfg.Server.ListenAddress != "127.0.0.1:9000" || cfg.Server.ShutdownTimeout != time.Second {
		t.Errorf("Explicit server values were overwritten: %+v", cfg.Server)
	}
	if cfg.Storage.Root != "/data" || cfg.Catalog.Type != "s3" {
		t.Error("Explicit storage/catalog values were overwritten")
	}
	if cfg.Catalog.RetryAttempts != 1 || cfg.Catalog.RetryDelay != time.Second {
		t.Errorf("Explicit retry values were overwritten: %d %v", cfg.Catalog.RetryAttempts, cfg.Catalog.RetryDelay)
	}
	if cfg.Limits.MaxFilesPerUpload != 5 || cfg.Limits.MaxFileSize != 1024 {
		t.Errorf("Explicit limits were overwritten: %+v", cfg.Limits)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Port != 9999 {
		t.Errorf("Explicit metrics values were overwritten: %+v", cfg.Metrics)
	}
}

func TestGetDefaultConfig_HasBackendExamples(t *testing.T) {
	cfg := GetDefaultConfig()

	if cfg.Catalog.Badger["db_path"] == nil {
		t.Error("Expected sample badger db_path")
	}
	if cfg.Catalog.S3["bucket"] == nil || cfg.Catalog.S3["region"] == nil {
		t.Error("Expected sample s3 bucket and region")
	}
}
