package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ValidateRequest lists the server names a caller intends to use together.
type ValidateRequest struct {
	Files []string `json:"files"`
}

// Validate handles POST /folders/{folderID}/validate.
//
// Every listed server name must be recorded in the folder and present on
// disk. On success the folder is returned; otherwise the detail lists the
// offending names.
func (h *CatalogHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "Invalid request body")
		return
	}
	if len(req.Files) == 0 {
		BadRequest(w, "files is required")
		return
	}

	folder, err := h.store.ValidateMembership(r.Context(), chi.URLParam(r, "folderID"), req.Files)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, folder)
}
