package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// CatalogHandler serves catalog reads and folder and file mutations.
type CatalogHandler struct {
	store Store
}

// NewCatalogHandler creates a handler backed by s.
func NewCatalogHandler(s Store) *CatalogHandler {
	return &CatalogHandler{store: s}
}

// Metadata handles GET /metadata and returns the whole catalog document.
func (h *CatalogHandler) Metadata(w http.ResponseWriter, r *http.Request) {
	cat, err := h.store.Catalog(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cat)
}

// CreateFolder handles POST /folders with form field "name".
func (h *CatalogHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		BadRequest(w, "Invalid form body")
		return
	}

	folders, err := h.store.CreateFolder(r.Context(), r.PostForm.Get("name"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, FoldersResponse{Folders: folders})
}

// DeleteFolder handles DELETE /folders/{folderID}.
func (h *CatalogHandler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	folders, err := h.store.DeleteFolder(r.Context(), chi.URLParam(r, "folderID"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, FoldersResponse{Folders: folders})
}

// DeleteFile handles DELETE /folders/{folderID}/files?server_name=.
func (h *CatalogHandler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	serverName := r.URL.Query().Get("server_name")
	if strings.TrimSpace(serverName) == "" {
		BadRequest(w, "server_name is required")
		return
	}

	folders, err := h.store.DeleteFile(r.Context(), chi.URLParam(r, "folderID"), serverName)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, FoldersResponse{Folders: folders})
}
