package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/dittocat/pkg/pathguard"
	"github.com/marmos91/dittocat/pkg/store"
)

func TestWriteStoreError_Translation(t *testing.T) {
	_, nameErr := pathguard.SanitizeFolderName("a/b")
	_, pathErr := pathguard.ResolveRelativePath("../x")

	tests := []struct {
		name   string
		err    error
		status int
		detail string
	}{
		{"invalid name", nameErr, http.StatusBadRequest, `Folder name cannot include \ / : * ? " < > |`},
		{"invalid path", pathErr, http.StatusBadRequest, "Invalid server_name path"},
		{"duplicate", fmt.Errorf("%w: Docs", store.ErrDuplicateName), http.StatusBadRequest, "Folder name already exists: Docs"},
		{"no files", store.ErrNoFiles, http.StatusBadRequest, "No files provided"},
		{"too many", fmt.Errorf("%w. Max 50 per upload.", store.ErrTooMany), http.StatusBadRequest, "Too many files. Max 50 per upload."},
		{"folder not found", fmt.Errorf("%w: fld_1", store.ErrFolderNotFound), http.StatusNotFound, "Folder not found: fld_1"},
		{"file not found", fmt.Errorf("%w: root/a.txt", store.ErrFileNotFound), http.StatusNotFound, "File not found in metadata: root/a.txt"},
		{"root protected", store.ErrRootProtected, http.StatusForbidden, "Root folder cannot be deleted"},
		{
			"not in folder",
			&store.MembershipError{Kind: store.ErrNotInFolder, Names: []string{"root/a"}},
			http.StatusBadRequest,
			"Some files not in selected folder: [root/a]",
		},
		{"internal", errors.New("disk on fire"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			writeStoreError(w, tt.err)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			var resp ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.Equal(t, tt.detail, resp.Detail)
		})
	}
}

func TestHealth_ReturnsOK(t *testing.T) {
	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	Health(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "", capitalize(""))
	assert.Equal(t, "Éclair", capitalize("éclair"))
	assert.Equal(t, "Already", capitalize("Already"))
}
