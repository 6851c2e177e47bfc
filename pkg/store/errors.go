package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/marmos91/dittocat/pkg/pathguard"
)

// ============================================================================
// Store Errors
// ============================================================================

// Store operations return these errors, usually wrapped with the offending
// identifier. Callers check them with errors.Is and translate them:
//
//	Validation (caller-correctable):  ErrInvalidName, ErrInvalidPath,
//	                                  ErrDuplicateName, ErrNoFiles,
//	                                  ErrTooMany, ErrTooLarge
//	State:                            ErrFolderNotFound, ErrFileNotFound,
//	                                  ErrRootProtected
//	Consistency (catalog vs disk):    ErrNotInFolder, ErrMissingOnDisk
//
// Anything else is an internal failure (persistence or filesystem I/O).

var (
	// ErrInvalidName indicates a folder name failed sanitization.
	ErrInvalidName = pathguard.ErrInvalidName

	// ErrInvalidPath indicates a server name is empty, contains "..", or
	// resolves outside the storage root.
	ErrInvalidPath = pathguard.ErrInvalidPath

	// ErrDuplicateName indicates another folder already has the name,
	// compared case-insensitively.
	ErrDuplicateName = errors.New("folder name already exists")

	// ErrFolderNotFound indicates no folder has the given id.
	ErrFolderNotFound = errors.New("folder not found")

	// ErrFileNotFound indicates the folder has no entry with the server name.
	ErrFileNotFound = errors.New("file not found in metadata")

	// ErrRootProtected indicates an attempt to delete the root folder.
	ErrRootProtected = errors.New("root folder cannot be deleted")

	// ErrNoFiles indicates an upload batch with no files.
	ErrNoFiles = errors.New("no files provided")

	// ErrTooMany indicates an upload batch above the per-upload file limit.
	ErrTooMany = errors.New("too many files")

	// ErrTooLarge indicates an upload above the per-file byte limit. AddFiles
	// returns it only when every file in the batch was rejected.
	ErrTooLarge = errors.New("file too large")

	// ErrNotInFolder indicates requested files are not recorded in the folder.
	ErrNotInFolder = errors.New("some files not in selected folder")

	// ErrMissingOnDisk indicates recorded files whose artifact is gone.
	ErrMissingOnDisk = errors.New("some files missing on server")
)

// membershipPreview is how many names a MembershipError message lists.
const membershipPreview = 5

// MembershipError lists the files that failed membership validation.
//
// Kind is ErrNotInFolder or ErrMissingOnDisk; errors.Is matches it.
type MembershipError struct {
	Kind  error
	Names []string
}

func (e *MembershipError) Error() string {
	shown := e.Names
	suffix := ""
	if len(shown) > membershipPreview {
		shown = shown[:membershipPreview]
		suffix = fmt.Sprintf(" (and %d more)", len(e.Names)-membershipPreview)
	}
	return fmt.Sprintf("%s: [%s]%s", e.Kind, strings.Join(shown, ", "), suffix)
}

func (e *MembershipError) Unwrap() error {
	return e.Kind
}

// IsValidation reports whether err is caller-correctable.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrInvalidName, ErrInvalidPath, ErrDuplicateName,
		ErrNoFiles, ErrTooMany, ErrTooLarge,
		ErrNotInFolder, ErrMissingOnDisk,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
