package config

import (
	"fmt"
	"net"
	"path/filepath"

	"github.com/go-playground/validator/v10"
)

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate validates the configuration using struct tags and custom rules.
//
// This function uses go-playground/validator for declarative validation
// via struct tags, with additional custom validation for complex rules
// that cannot be expressed in tags.
//
// Note: Log level normalization is handled in ApplyDefaults, not here.
// Validation accepts both uppercase and lowercase log levels.
//
// Returns an error describing validation failures.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	if err := validateCustomRules(cfg); err != nil {
		return err
	}

	return nil
}

// validateCustomRules performs custom validation beyond struct tags.
func validateCustomRules(cfg *Config) error {
	if _, _, err := net.SplitHostPort(cfg.Server.ListenAddress); err != nil {
		return fmt.Errorf("server.listen_address: %q is not a host:port address: %w", cfg.Server.ListenAddress, err)
	}

	// The metrics server binds on all interfaces; it cannot share the API port.
	if cfg.Metrics.Enabled {
		_, port, _ := net.SplitHostPort(cfg.Server.ListenAddress)
		if port == fmt.Sprint(cfg.Metrics.Port) {
			return fmt.Errorf("metrics.port: %d is already used by server.listen_address", cfg.Metrics.Port)
		}
	}

	// The badger directory must not be inside a folder directory, or a
	// folder deletion would take the catalog with it.
	if cfg.Catalog.Type == "badger" {
		if p, ok := cfg.Catalog.Badger["db_path"].(string); ok && p != "" {
			if inside(cfg.Storage.Root, p) && filepath.Dir(filepath.Clean(p)) != filepath.Clean(cfg.Storage.Root) {
				return fmt.Errorf("catalog.badger.db_path: %q must be directly under storage.root or outside it", p)
			}
		}
	}

	return nil
}

// inside reports whether target lies below base, lexically.
func inside(base, target string) bool {
	rel, err := filepath.Rel(filepath.Clean(base), filepath.Clean(target))
	return err == nil && rel != "." && filepath.IsLocal(rel)
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		if len(validationErrs) > 0 {
			e := validationErrs[0]
			return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
				e.Namespace(), e.Tag(), e.Value())
		}
	}
	return err
}
