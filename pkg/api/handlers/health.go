package handlers

import "net/http"

// Health handles GET /health. It succeeds whenever the process can serve
// requests and does not touch the catalog.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
