package config

import (
	"strings"
	"testing"
)

func TestValidate_ValidConfig(t *testing.T) {
	if err := Validate(GetDefaultConfig()); err != nil {
		t.Errorf("Expected valid config to pass validation, got error: %v", err)
	}
}

func TestValidate_TagRules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		tag    string
	}{
		{"invalid log level", func(c *Config) { c.Logging.Level = "INVALID" }, "oneof"},
		{"invalid log format", func(c *Config) { c.Logging.Format = "xml" }, "oneof"},
		{"empty storage root", func(c *Config) { c.Storage.Root = "" }, "required"},
		{"unknown catalog type", func(c *Config) { c.Catalog.Type = "postgres" }, "oneof"},
		{"zero retry attempts", func(c *Config) { c.Catalog.RetryAttempts = 0 }, "gte"},
		{"too many retry attempts", func(c *Config) { c.Catalog.RetryAttempts = 100 }, "lte"},
		{"zero max files", func(c *Config) { c.Limits.MaxFilesPerUpload = 0 }, "gt"},
		{"negative max size", func(c *Config) { c.Limits.MaxFileSize = -1 }, "gt"},
		{"metrics port out of range", func(c *Config) { c.Metrics.Port = 70000 }, "lte"},
		{"zero shutdown timeout", func(c *Config) { c.Server.ShutdownTimeout = 0 }, "required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaultConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !strings.Contains(err.Error(), "'"+tt.tag+"'") {
				t.Errorf("Expected %q validation error, got: %v", tt.tag, err)
			}
		})
	}
}

func TestValidate_ListenAddress(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Server.ListenAddress = "8000"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected error for listen address without port separator")
	}
	if !strings.Contains(err.Error(), "listen_address") {
		t.Errorf("Expected listen_address error, got: %v", err)
	}
}

func TestValidate_MetricsPortConflict(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Server.ListenAddress = ":9090"
	cfg.Metrics.Enabled = true
	cfg.Metrics.Port = 9090

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected error when metrics and API share a port")
	}

	cfg.Metrics.Enabled = false
	if err := Validate(cfg); err != nil {
		t.Errorf("Disabled metrics should not conflict, got: %v", err)
	}
}

func TestValidate_BadgerInsideFolderDirectory(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Storage.Root = "/srv/storage"
	cfg.Catalog.Type = "badger"

	cfg.Catalog.Badger["db_path"] = "/srv/storage/root/catalog.db"
	if err := Validate(cfg); err == nil {
		t.Error("Expected error for badger db inside a folder directory")
	}

	cfg.Catalog.Badger["db_path"] = "/srv/storage/catalog.db"
	if err := Validate(cfg); err != nil {
		t.Errorf("Expected db directly under storage root to be valid, got: %v", err)
	}

	cfg.Catalog.Badger["db_path"] = "/var/lib/dittocat/catalog.db"
	if err := Validate(cfg); err != nil {
		t.Errorf("Expected db outside storage root to be valid, got: %v", err)
	}
}
