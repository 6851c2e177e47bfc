package metrics

import "time"

// HTTPMetrics provides observability for the HTTP request layer.
//
// This interface is optional - if not provided to the router, a no-op
// implementation is used with zero overhead.
type HTTPMetrics interface {
	// RecordRequest records a completed request.
	//
	// Parameters:
	//   - route: Route pattern (e.g., "/folders/{folderID}"), not the raw path
	//   - method: HTTP method
	//   - status: Response status code
	//   - duration: Time taken to serve the request
	RecordRequest(route, method string, status int, duration time.Duration)

	// RecordRequestStart increments the in-flight request gauge.
	RecordRequestStart()

	// RecordRequestEnd decrements the in-flight request gauge.
	RecordRequestEnd()
}

// NewNoopHTTPMetrics returns an HTTPMetrics that records nothing.
func NewNoopHTTPMetrics() HTTPMetrics {
	return noopHTTPMetrics{}
}

type noopHTTPMetrics struct{}

func (noopHTTPMetrics) RecordRequest(string, string, int, time.Duration) {}
func (noopHTTPMetrics) RecordRequestStart()                              {}
func (noopHTTPMetrics) RecordRequestEnd()                                {}
