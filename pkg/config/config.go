package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete DittoCat configuration.
//
// This structure captures all configurable aspects of the server:
//   - Logging configuration
//   - HTTP server settings
//   - Storage root for uploaded artifacts
//   - Catalog backend selection and configuration (backend-specific)
//   - Upload limits
//   - Prometheus metrics
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority)
//  2. Environment variables (DITTOCAT_*)
//  3. Configuration file (YAML)
//  4. Default values (lowest priority)
//
// Backend Configuration Pattern:
// Each catalog backend defines its own option set. The Catalog section holds
// one map per backend type and only the map matching the selected type is used.
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Server contains HTTP server settings
	Server ServerConfig `mapstructure:"server" yaml:"server"`

	// Storage locates uploaded artifacts on disk
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`

	// Catalog selects where the catalog document is persisted
	Catalog CatalogConfig `mapstructure:"catalog" yaml:"catalog"`

	// Limits bounds upload batches
	Limits LimitsConfig `mapstructure:"limits" yaml:"limits"`

	// Metrics configures the Prometheus endpoint
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" yaml:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" yaml:"format" validate:"required,oneof=text json"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" yaml:"output" validate:"required"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	// ListenAddress is the host:port the API binds to
	ListenAddress string `mapstructure:"listen_address" yaml:"listen_address" validate:"required"`

	// ReadTimeout bounds reading a whole request, body included
	ReadTimeout time.Duration `mapstructure:"read_timeout" yaml:"read_timeout" validate:"gte=0"`

	// WriteTimeout bounds writing a response
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout" validate:"gte=0"`

	// IdleTimeout bounds keep-alive connections between requests
	IdleTimeout time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout" validate:"gte=0"`

	// RequestTimeout cancels a handler's context after this long
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout" validate:"required,gt=0"`

	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" validate:"required,gt=0"`
}

// MarshalYAML writes durations in their human-readable form ("30s").
func (c ServerConfig) MarshalYAML() (any, error) {
	return struct {
		ListenAddress   string `yaml:"listen_address"`
		ReadTimeout     string `yaml:"read_timeout"`
		WriteTimeout    string `yaml:"write_timeout"`
		IdleTimeout     string `yaml:"idle_timeout"`
		RequestTimeout  string `yaml:"request_timeout"`
		ShutdownTimeout string `yaml:"shutdown_timeout"`
	}{
		ListenAddress:   c.ListenAddress,
		ReadTimeout:     c.ReadTimeout.String(),
		WriteTimeout:    c.WriteTimeout.String(),
		IdleTimeout:     c.IdleTimeout.String(),
		RequestTimeout:  c.RequestTimeout.String(),
		ShutdownTimeout: c.ShutdownTimeout.String(),
	}, nil
}

// StorageConfig locates uploaded artifacts.
type StorageConfig struct {
	// Root is the directory holding one subdirectory per folder
	Root string `mapstructure:"root" yaml:"root" validate:"required"`
}

// CatalogConfig specifies catalog backend configuration.
//
// The Type field determines which backend implementation is used.
// Only the corresponding type-specific configuration section is used.
type CatalogConfig struct {
	// Type specifies which catalog backend to use
	// Valid values: file, badger, s3, memory
	Type string `mapstructure:"type" yaml:"type" validate:"required,oneof=file badger s3 memory"`

	// File contains file backend configuration
	// Only used when Type = "file"
	File map[string]any `mapstructure:"file" yaml:"file"`

	// Badger contains BadgerDB backend configuration
	// Only used when Type = "badger"
	Badger map[string]any `mapstructure:"badger" yaml:"badger"`

	// S3 contains S3 backend configuration
	// Only used when Type = "s3"
	S3 map[string]any `mapstructure:"s3" yaml:"s3"`

	// Memory contains memory backend configuration
	// Only used when Type = "memory"
	Memory map[string]any `mapstructure:"memory" yaml:"memory"`

	// RetryAttempts is how many times a backend read or write is tried
	RetryAttempts uint `mapstructure:"retry_attempts" yaml:"retry_attempts" validate:"gte=1,lte=20"`

	// RetryDelay is the base delay between tries
	RetryDelay time.Duration `mapstructure:"retry_delay" yaml:"retry_delay" validate:"gte=0"`
}

// MarshalYAML writes the retry delay in its human-readable form.
func (c CatalogConfig) MarshalYAML() (any, error) {
	return struct {
		Type          string         `yaml:"type"`
		File          map[string]any `yaml:"file,omitempty"`
		Badger        map[string]any `yaml:"badger,omitempty"`
		S3            map[string]any `yaml:"s3,omitempty"`
		Memory        map[string]any `yaml:"memory,omitempty"`
		RetryAttempts uint           `yaml:"retry_attempts"`
		RetryDelay    string         `yaml:"retry_delay"`
	}{
		Type:          c.Type,
		File:          c.File,
		Badger:        c.Badger,
		S3:            c.S3,
		Memory:        c.Memory,
		RetryAttempts: c.RetryAttempts,
		RetryDelay:    c.RetryDelay.String(),
	}, nil
}

// LimitsConfig bounds upload batches.
type LimitsConfig struct {
	// MaxFilesPerUpload is the maximum number of files in one upload
	MaxFilesPerUpload int `mapstructure:"max_files_per_upload" yaml:"max_files_per_upload" validate:"gt=0"`

	// MaxFileSize is the per-file byte ceiling
	MaxFileSize int64 `mapstructure:"max_file_size" yaml:"max_file_size" validate:"gt=0"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Enabled turns on metrics collection and the /metrics server
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Port is the TCP port of the metrics server
	Port int `mapstructure:"port" yaml:"port" validate:"gte=0,lte=65535"`
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (DITTOCAT_*)
//  2. Configuration file
//  3. Default values
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: Configuration loading or validation error
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration with helpful error messages.
// It checks if the config file exists and provides instructions if not.
func MustLoad(configPath string) (*Config, error) {
	if configPath == "" {
		if !DefaultConfigExists() {
			return nil, fmt.Errorf("no configuration file found at default location: %s\n\n"+
				"Please initialize a configuration file first:\n"+
				"  dittocat init\n\n"+
				"Or specify a custom config file:\n"+
				"  dittocat start --config /path/to/config.yaml",
				GetDefaultConfigPath())
		}
		configPath = GetDefaultConfigPath()
	} else if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s\n\n"+
			"Please create the configuration file:\n"+
			"  dittocat init --config %s",
			configPath, configPath)
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Environment variables use DITTOCAT_ prefix and underscores
	// Example: DITTOCAT_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("DITTOCAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only applies to keys viper already knows about, so every
	// scalar key is registered up front. Backend option maps stay file-only.
	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default location: $XDG_CONFIG_HOME/dittocat/config.yaml
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// envKeys lists the keys that can be set from the environment alone.
var envKeys = []string{
	"logging.level",
	"logging.format",
	"logging.output",
	"server.listen_address",
	"server.read_timeout",
	"server.write_timeout",
	"server.idle_timeout",
	"server.request_timeout",
	"server.shutdown_timeout",
	"storage.root",
	"catalog.type",
	"catalog.retry_attempts",
	"catalog.retry_delay",
	"limits.max_files_per_upload",
	"limits.max_file_size",
	"metrics.enabled",
	"metrics.port",
}

// readConfigFile reads the configuration file if it exists.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found is acceptable - use defaults
			return nil
		}
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to current
// directory (.) if home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "dittocat")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "dittocat")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists checks if a config file exists at the default location.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the configuration directory path (exposed for init command).
func GetConfigDir() string {
	return getConfigDir()
}
