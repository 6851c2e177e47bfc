package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/marmos91/dittocat/internal/logger"
	"github.com/marmos91/dittocat/pkg/api/handlers"
	"github.com/marmos91/dittocat/pkg/metrics"
)

// NewRouter creates the chi router with all middleware and routes.
//
// The router is configured with:
//   - Request ID middleware for request tracking
//   - Real IP extraction for proper client identification
//   - Request logging and HTTP metrics
//   - Panic recovery to prevent server crashes
//   - Request timeout to prevent hung requests
//
// Routes:
//   - GET    /health
//   - GET    /metadata
//   - POST   /folders
//   - DELETE /folders/{folderID}
//   - DELETE /folders/{folderID}/files?server_name=
//   - POST   /folders/{folderID}/validate
//   - POST   /upload?folder_id=
func NewRouter(s handlers.Store, httpMetrics metrics.HTTPMetrics, config APIConfig) http.Handler {
	config.applyDefaults()
	if httpMetrics == nil {
		httpMetrics = metrics.NewNoopHTTPMetrics()
	}

	r := chi.NewRouter()

	// Middleware stack - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(httpMetrics))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(config.RequestTimeout))

	catalogHandler := handlers.NewCatalogHandler(s)
	uploadHandler := handlers.NewUploadHandler(s, config.MaxUploadBytes)

	r.Get("/health", handlers.Health)
	r.Get("/metadata", catalogHandler.Metadata)

	r.Route("/folders", func(r chi.Router) {
		r.Post("/", catalogHandler.CreateFolder)
		r.Route("/{folderID}", func(r chi.Router) {
			r.Delete("/", catalogHandler.DeleteFolder)
			r.Delete("/files", catalogHandler.DeleteFile)
			r.Post("/validate", catalogHandler.Validate)
		})
	})

	r.Post("/upload", uploadHandler.Upload)

	return r
}

// requestLogger logs each request with the internal logger and records it
// in httpMetrics under its route pattern.
func requestLogger(httpMetrics metrics.HTTPMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := middleware.GetReqID(r.Context())

			logger.Debug("API request started: id=%s method=%s path=%s remote=%s",
				requestID, r.Method, r.URL.Path, r.RemoteAddr)

			httpMetrics.RecordRequestStart()
			defer httpMetrics.RecordRequestEnd()

			// Wrap response writer to capture status code
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			duration := time.Since(start)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			httpMetrics.RecordRequest(route, r.Method, status, duration)

			logger.Info("API request completed: id=%s method=%s path=%s status=%d bytes=%d duration=%s",
				requestID, r.Method, r.URL.Path, status, ww.BytesWritten(), duration)
		})
	}
}
