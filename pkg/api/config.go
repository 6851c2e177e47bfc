package api

import "time"

// APIConfig configures the catalog HTTP server.
type APIConfig struct {
	// ListenAddress is the host:port the server binds to.
	// Default: ":8000"
	ListenAddress string

	// ReadTimeout is the maximum duration for reading the entire request,
	// including the body. Zero means no timeout.
	ReadTimeout time.Duration

	// WriteTimeout is the maximum duration before timing out writes of the
	// response. Zero means no timeout.
	WriteTimeout time.Duration

	// IdleTimeout is the maximum time to wait for the next request when
	// keep-alives are enabled.
	// Default: 60s
	IdleTimeout time.Duration

	// RequestTimeout bounds each handler through the chi Timeout middleware.
	// Default: 5m
	RequestTimeout time.Duration

	// ShutdownTimeout bounds graceful shutdown when the serving context is
	// cancelled.
	// Default: 30s
	ShutdownTimeout time.Duration

	// MaxUploadBytes caps the body of an upload request. Zero disables the cap.
	MaxUploadBytes int64
}

// applyDefaults fills in zero values with sensible defaults.
func (c *APIConfig) applyDefaults() {
	if c.ListenAddress == "" {
		c.ListenAddress = ":8000"
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60 * time.Second
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 5 * time.Minute
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 30 * time.Second
	}
}

// UploadBodyLimit returns the body cap for a batch of maxFiles files of at
// most maxFileSize bytes each, plus headroom for multipart framing.
func UploadBodyLimit(maxFiles int, maxFileSize int64) int64 {
	const framingPerFile = 64 << 10
	return int64(maxFiles) * (maxFileSize + framingPerFile)
}
