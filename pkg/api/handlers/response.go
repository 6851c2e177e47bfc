package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/marmos91/dittocat/internal/logger"
	"github.com/marmos91/dittocat/pkg/pathguard"
	"github.com/marmos91/dittocat/pkg/store"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// writeJSON writes data as a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Failed to encode response: %v", err)
	}
}

// writeDetail writes an error body with a human readable reason.
func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, ErrorResponse{Detail: detail})
}

// BadRequest writes a 400 response.
func BadRequest(w http.ResponseWriter, detail string) {
	writeDetail(w, http.StatusBadRequest, detail)
}

// writeStoreError translates a store error into a status code and detail.
//
// Mapping:
//   - validation and consistency errors: 400
//   - ErrFolderNotFound, ErrFileNotFound: 404
//   - ErrRootProtected: 403
//   - anything else: 500 (the cause is logged, not returned)
func writeStoreError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("Request failed: %v", err)
		writeDetail(w, status, "Internal server error")
		return
	}
	writeDetail(w, status, detailFor(err))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrFolderNotFound), errors.Is(err, store.ErrFileNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrRootProtected):
		return http.StatusForbidden
	case store.IsValidation(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// detailFor renders err for clients. Name and path errors carry their own
// wording; the remaining sentinels read as sentences once capitalized.
func detailFor(err error) string {
	switch {
	case errors.Is(err, pathguard.ErrInvalidName):
		return strings.TrimPrefix(err.Error(), pathguard.ErrInvalidName.Error()+": ")
	case errors.Is(err, pathguard.ErrInvalidPath):
		return "Invalid server_name path"
	default:
		return capitalize(err.Error())
	}
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
