package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/dittocat/pkg/api"
	"github.com/marmos91/dittocat/pkg/api/handlers"
	"github.com/marmos91/dittocat/pkg/catalog"
	"github.com/marmos91/dittocat/pkg/catalog/memory"
	"github.com/marmos91/dittocat/pkg/content/fs"
	"github.com/marmos91/dittocat/pkg/store"
)

type recordedRequest struct {
	route  string
	method string
	status int
}

type fakeHTTPMetrics struct {
	mu       sync.Mutex
	requests []recordedRequest
	inFlight int
}

func (m *fakeHTTPMetrics) RecordRequest(route, method string, status int, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, recordedRequest{route: route, method: method, status: status})
}

func (m *fakeHTTPMetrics) RecordRequestStart() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inFlight++
}

func (m *fakeHTTPMetrics) RecordRequestEnd() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inFlight--
}

type testServer struct {
	root    string
	handler http.Handler
	metrics *fakeHTTPMetrics
}

func newTestServer(t *testing.T, limits store.Limits, maxUploadBytes int64) *testServer {
	t.Helper()
	ctx := context.Background()
	root := t.TempDir()

	contentStore, err := fs.NewFSContentStore(ctx, root)
	require.NoError(t, err)

	s, err := store.New(ctx, store.Config{
		Persistence: catalog.NewPersistence(memory.NewMemoryBackend(), catalog.Options{RetryAttempts: 1}),
		Content:     contentStore,
		Limits:      limits,
	})
	require.NoError(t, err)

	m := &fakeHTTPMetrics{}
	return &testServer{
		root:    root,
		metrics: m,
		handler: api.NewRouter(s, m, api.APIConfig{MaxUploadBytes: maxUploadBytes}),
	}
}

func (ts *testServer) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)
	return w
}

func (ts *testServer) createFolder(t *testing.T, name string) string {
	t.Helper()
	w := ts.do(t, formRequest("/folders", url.Values{"name": {name}}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp handlers.FoldersResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	want := strings.TrimSpace(name)
	for _, f := range resp.Folders {
		if f.Name == want {
			return f.ID
		}
	}
	t.Fatalf("folder %q missing from response", name)
	return ""
}

func (ts *testServer) upload(t *testing.T, folderID string, files map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	return ts.do(t, uploadRequest(t, folderID, files))
}

func formRequest(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func uploadRequest(t *testing.T, folderID string, files map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for name, content := range files {
		part, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload?folder_id="+url.QueryEscape(folderID), &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeDetail(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp handlers.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp.Detail
}

func decodeUpload(t *testing.T, w *httptest.ResponseRecorder) handlers.UploadResponse {
	t.Helper()
	var resp handlers.UploadResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

// ============================================================================
// Catalog and folders
// ============================================================================

func TestHealth(t *testing.T) {
	ts := newTestServer(t, store.Limits{}, 0)

	w := ts.do(t, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestMetadata_ReturnsRootOnFreshCatalog(t *testing.T) {
	ts := newTestServer(t, store.Limits{}, 0)

	w := ts.do(t, httptest.NewRequest(http.MethodGet, "/metadata", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"folders":[{"id":"root","name":"Root","files":[]}]}`, w.Body.String())
}

func TestCreateFolder(t *testing.T) {
	ts := newTestServer(t, store.Limits{}, 0)

	id := ts.createFolder(t, "  Reports ")

	assert.True(t, strings.HasPrefix(id, "fld_"))

	w := ts.do(t, httptest.NewRequest(http.MethodGet, "/metadata", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var cat catalog.Catalog
	require.NoError(t, json.NewDecoder(w.Body).Decode(&cat))
	folder := cat.FindFolder(id)
	require.NotNil(t, folder)
	assert.Equal(t, "Reports", folder.Name)

	info, err := os.Stat(filepath.Join(ts.root, id))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestCreateFolder_Errors(t *testing.T) {
	ts := newTestServer(t, store.Limits{}, 0)
	ts.createFolder(t, "Docs")

	tests := []struct {
		name   string
		form   url.Values
		detail string
	}{
		{"missing name", url.Values{}, "Folder name is required"},
		{"blank name", url.Values{"name": {"   "}}, "Folder name is required"},
		{"too long", url.Values{"name": {strings.Repeat("x", 61)}}, "Folder name too long (max 60)"},
		{"forbidden char", url.Values{"name": {"a:b"}}, `Folder name cannot include \ / : * ? " < > |`},
		{"duplicate", url.Values{"name": {"DOCS"}}, "Folder name already exists: DOCS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(t, formRequest("/folders", tt.form))

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.detail, decodeDetail(t, w))
		})
	}
}

func TestDeleteFolder(t *testing.T) {
	ts := newTestServer(t, store.Limits{}, 0)
	id := ts.createFolder(t, "Scratch")

	w := ts.do(t, httptest.NewRequest(http.MethodDelete, "/folders/"+id, nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp handlers.FoldersResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Len(t, resp.Folders, 1)
	assert.Equal(t, catalog.RootFolderID, resp.Folders[0].ID)

	_, err := os.Stat(filepath.Join(ts.root, id))
	assert.True(t, os.IsNotExist(err))
}

func TestDeleteFolder_Errors(t *testing.T) {
	ts := newTestServer(t, store.Limits{}, 0)

	w := ts.do(t, httptest.NewRequest(http.MethodDelete, "/folders/root", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Root folder cannot be deleted", decodeDetail(t, w))

	w = ts.do(t, httptest.NewRequest(http.MethodDelete, "/folders/fld_missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Folder not found: fld_missing", decodeDetail(t, w))
}

// ============================================================================
// Uploads
// ============================================================================

func TestUpload(t *testing.T) {
	ts := newTestServer(t, store.Limits{}, 0)

	w := ts.upload(t, catalog.RootFolderID, map[string]string{"notes.txt": "hello"})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decodeUpload(t, w)
	assert.True(t, resp.OK)
	assert.NotNil(t, resp.Rejected)
	assert.Empty(t, resp.Rejected)

	root := resp.Metadata.FindFolder(catalog.RootFolderID)
	require.NotNil(t, root)
	require.Len(t, root.Files, 1)

	entry := root.Files[0]
	assert.Equal(t, "notes.txt", entry.OriginalName)
	assert.Equal(t, int64(5), entry.Size)
	assert.Regexp(t, `^root/notes_[0-9a-f]{8}\.txt$`, entry.ServerName)

	data, err := os.ReadFile(filepath.Join(ts.root, filepath.FromSlash(entry.ServerName)))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestUpload_KeepsDirectoryPartOfOriginalName(t *testing.T) {
	ts := newTestServer(t, store.Limits{}, 0)

	w := ts.upload(t, catalog.RootFolderID, map[string]string{
		"x/report.pdf": "first",
		"y/report.pdf": "second",
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	root := decodeUpload(t, w).Metadata.FindFolder(catalog.RootFolderID)
	require.Len(t, root.Files, 2)

	names := []string{root.Files[0].OriginalName, root.Files[1].OriginalName}
	assert.ElementsMatch(t, []string{"x/report.pdf", "y/report.pdf"}, names)
	for _, fe := range root.Files {
		assert.Regexp(t, `^root/[xy]_report_[0-9a-f]{8}\.pdf$`, fe.ServerName)
	}
}

func TestUpload_RejectsOversizeFilesIndividually(t *testing.T) {
	ts := newTestServer(t, store.Limits{MaxFileSize: 8}, 0)

	w := ts.upload(t, catalog.RootFolderID, map[string]string{
		"small.txt": "tiny",
		"big.bin":   "far too many bytes",
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decodeUpload(t, w)
	require.Len(t, resp.Rejected, 1)
	assert.Equal(t, "big.bin", resp.Rejected[0].Name)
	assert.Equal(t, "File too large: big.bin (max 8 bytes)", resp.Rejected[0].Reason)

	root := resp.Metadata.FindFolder(catalog.RootFolderID)
	require.Len(t, root.Files, 1)
	assert.Equal(t, "small.txt", root.Files[0].OriginalName)
}

func TestUpload_AllOversizeFails(t *testing.T) {
	ts := newTestServer(t, store.Limits{MaxFileSize: 8}, 0)

	w := ts.upload(t, catalog.RootFolderID, map[string]string{"big.bin": "far too many bytes"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "File too large: big.bin (max 8 bytes)", decodeDetail(t, w))
}

func TestUpload_Errors(t *testing.T) {
	ts := newTestServer(t, store.Limits{MaxFilesPerUpload: 2}, 0)

	w := ts.upload(t, "", map[string]string{"a.txt": "a"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "folder_id is required", decodeDetail(t, w))

	w = ts.upload(t, "fld_missing", map[string]string{"a.txt": "a"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Folder not found: fld_missing", decodeDetail(t, w))

	w = ts.upload(t, catalog.RootFolderID, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No files provided", decodeDetail(t, w))

	w = ts.upload(t, catalog.RootFolderID, map[string]string{"a": "1", "b": "2", "c": "3"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Too many files. Max 2 per upload.", decodeDetail(t, w))

	req := httptest.NewRequest(http.MethodPost, "/upload?folder_id=root", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	w = ts.do(t, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No files provided", decodeDetail(t, w))
}

func TestUpload_BodyCap(t *testing.T) {
	ts := newTestServer(t, store.Limits{}, 256)

	w := ts.upload(t, catalog.RootFolderID, map[string]string{"big.bin": strings.Repeat("x", 4096)})

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, "Request body too large", decodeDetail(t, w))
}

func TestUploadBodyLimit(t *testing.T) {
	assert.Equal(t, int64(2*(100+64<<10)), api.UploadBodyLimit(2, 100))
}

// ============================================================================
// Files and validation
// ============================================================================

func uploadOne(t *testing.T, ts *testServer, folderID, name, body string) string {
	t.Helper()
	w := ts.upload(t, folderID, map[string]string{name: body})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decodeUpload(t, w)
	folder := resp.Metadata.FindFolder(folderID)
	require.NotNil(t, folder)
	return folder.Files[folder.FindByOriginalName(name)].ServerName
}

func TestDeleteFile(t *testing.T) {
	ts := newTestServer(t, store.Limits{}, 0)
	serverName := uploadOne(t, ts, catalog.RootFolderID, "a.txt", "aaa")

	path := "/folders/root/files?server_name=" + url.QueryEscape(serverName)
	w := ts.do(t, httptest.NewRequest(http.MethodDelete, path, nil))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"folders":[{"id":"root","name":"Root","files":[]}]}`, w.Body.String())

	_, err := os.Stat(filepath.Join(ts.root, filepath.FromSlash(serverName)))
	assert.True(t, os.IsNotExist(err))
}

func TestDeleteFile_Errors(t *testing.T) {
	ts := newTestServer(t, store.Limits{}, 0)

	tests := []struct {
		name   string
		path   string
		status int
		detail string
	}{
		{"missing server_name", "/folders/root/files", http.StatusBadRequest, "server_name is required"},
		{"traversal", "/folders/root/files?server_name=" + url.QueryEscape("root/../metadata.json"), http.StatusBadRequest, "Invalid server_name path"},
		{"unknown file", "/folders/root/files?server_name=root/nope.txt", http.StatusNotFound, "File not found in metadata: root/nope.txt"},
		{"unknown folder", "/folders/fld_missing/files?server_name=x", http.StatusNotFound, "Folder not found: fld_missing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(t, httptest.NewRequest(http.MethodDelete, tt.path, nil))

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.detail, decodeDetail(t, w))
		})
	}
}

func validateRequest(folderID string, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/folders/"+folderID+"/validate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestValidate(t *testing.T) {
	ts := newTestServer(t, store.Limits{}, 0)
	serverName := uploadOne(t, ts, catalog.RootFolderID, "a.txt", "aaa")

	body, err := json.Marshal(handlers.ValidateRequest{Files: []string{serverName}})
	require.NoError(t, err)
	w := ts.do(t, validateRequest(catalog.RootFolderID, string(body)))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var folder catalog.Folder
	require.NoError(t, json.NewDecoder(w.Body).Decode(&folder))
	assert.Equal(t, catalog.RootFolderID, folder.ID)
	require.Len(t, folder.Files, 1)
	assert.Equal(t, serverName, folder.Files[0].ServerName)

	body, err = json.Marshal(handlers.ValidateRequest{Files: []string{strings.ReplaceAll(serverName, "/", `\`)}})
	require.NoError(t, err)
	w = ts.do(t, validateRequest(catalog.RootFolderID, string(body)))
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestValidate_Errors(t *testing.T) {
	ts := newTestServer(t, store.Limits{}, 0)
	serverName := uploadOne(t, ts, catalog.RootFolderID, "a.txt", "aaa")
	require.NoError(t, os.Remove(filepath.Join(ts.root, filepath.FromSlash(serverName))))

	tests := []struct {
		name     string
		folderID string
		body     string
		status   int
		detail   string
	}{
		{"malformed body", "root", "{", http.StatusBadRequest, "Invalid request body"},
		{"empty list", "root", `{"files":[]}`, http.StatusBadRequest, "files is required"},
		{"not in folder", "root", `{"files":["root/other.txt"]}`, http.StatusBadRequest, "Some files not in selected folder: [root/other.txt]"},
		{"missing on disk", "root", `{"files":["` + serverName + `"]}`, http.StatusBadRequest, "Some files missing on server: [" + serverName + "]"},
		{"unknown folder", "fld_missing", `{"files":["x"]}`, http.StatusNotFound, "Folder not found: fld_missing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(t, validateRequest(tt.folderID, tt.body))

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.detail, decodeDetail(t, w))
		})
	}
}

// ============================================================================
// Middleware
// ============================================================================

func TestRouter_RecordsMetricsByRoutePattern(t *testing.T) {
	ts := newTestServer(t, store.Limits{}, 0)

	ts.do(t, httptest.NewRequest(http.MethodGet, "/metadata", nil))
	ts.do(t, httptest.NewRequest(http.MethodDelete, "/folders/fld_missing", nil))

	ts.metrics.mu.Lock()
	defer ts.metrics.mu.Unlock()

	require.Len(t, ts.metrics.requests, 2)
	assert.Equal(t, recordedRequest{route: "/metadata", method: http.MethodGet, status: http.StatusOK}, ts.metrics.requests[0])

	deleted := ts.metrics.requests[1]
	assert.Contains(t, deleted.route, "{folderID}")
	assert.NotContains(t, deleted.route, "fld_missing")
	assert.Equal(t, http.StatusNotFound, deleted.status)
	assert.Zero(t, ts.metrics.inFlight)
}

func TestRouter_UnknownRoute(t *testing.T) {
	ts := newTestServer(t, store.Limits{}, 0)

	w := ts.do(t, httptest.NewRequest(http.MethodGet, "/search", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}
