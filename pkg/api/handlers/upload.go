package handlers

import (
	"errors"
	"mime"
	"mime/multipart"
	"net/http"

	"github.com/marmos91/dittocat/internal/logger"
	"github.com/marmos91/dittocat/pkg/catalog"
	"github.com/marmos91/dittocat/pkg/store"
)

// multipartMemory is how much of a multipart body is buffered in memory
// before parts spill to temporary files.
const multipartMemory = 32 << 20

// UploadResponse is returned by a successful upload.
type UploadResponse struct {
	OK       bool              `json:"ok"`
	Metadata *catalog.Catalog  `json:"metadata"`
	Rejected []store.Rejection `json:"rejected"`
}

// UploadHandler handles multipart uploads into a folder.
type UploadHandler struct {
	store        Store
	maxBodyBytes int64
}

// NewUploadHandler creates an upload handler.
//
// Parameters:
//   - s: Store receiving the files
//   - maxBodyBytes: Ceiling on the whole request body; 0 disables the cap
func NewUploadHandler(s Store, maxBodyBytes int64) *UploadHandler {
	return &UploadHandler{store: s, maxBodyBytes: maxBodyBytes}
}

// Upload handles POST /upload?folder_id= with multipart field "files".
//
// Files over the per-file limit are listed in "rejected" while the rest of
// the batch is stored. The request fails only when nothing was stored.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	folderID := r.URL.Query().Get("folder_id")
	if folderID == "" {
		BadRequest(w, "folder_id is required")
		return
	}

	if h.maxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeDetail(w, http.StatusRequestEntityTooLarge,
				"Request body too large")
			return
		}
		if errors.Is(err, http.ErrNotMultipart) {
			BadRequest(w, "No files provided")
			return
		}
		BadRequest(w, "Invalid multipart body")
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			logger.Warn("Failed to remove multipart temp files: %v", err)
		}
	}()

	headers := r.MultipartForm.File["files"]
	uploads, closeAll, err := openUploads(headers)
	if err != nil {
		logger.Error("Failed to open uploaded part: %v", err)
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	defer closeAll()

	result, err := h.store.AddFiles(r.Context(), folderID, uploads)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	rejected := result.Rejected
	if rejected == nil {
		rejected = []store.Rejection{}
	}
	writeJSON(w, http.StatusOK, UploadResponse{
		OK:       true,
		Metadata: result.Catalog,
		Rejected: rejected,
	})
}

// openUploads opens every part. The returned func closes whatever was opened.
func openUploads(headers []*multipart.FileHeader) ([]store.Upload, func(), error) {
	uploads := make([]store.Upload, 0, len(headers))
	files := make([]multipart.File, 0, len(headers))
	closeAll := func() {
		for _, f := range files {
			_ = f.Close()
		}
	}

	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		files = append(files, f)
		uploads = append(uploads, store.Upload{Name: uploadName(fh), Body: f})
	}
	return uploads, closeAll, nil
}

// uploadName returns the filename as the client sent it, directory part
// included. FileHeader.Filename keeps only the base name.
func uploadName(fh *multipart.FileHeader) string {
	_, params, err := mime.ParseMediaType(fh.Header.Get("Content-Disposition"))
	if err != nil || params["filename"] == "" {
		return fh.Filename
	}
	return params["filename"]
}
