package content

import "errors"

// ============================================================================
// Standard Content Store Errors
// ============================================================================

// These errors give every content store implementation a consistent way to
// report common failures. The metadata store checks them with errors.Is and
// maps them to its own error taxonomy.
//
// Error Wrapping:
// Implementations should wrap these errors with additional context:
//
//	if n > maxBytes {
//	    return nil, fmt.Errorf("staged %d bytes: %w", n, content.ErrContentTooLarge)
//	}

var (
	// ErrContentNotFound indicates the requested artifact does not exist.
	//
	// This error is returned when:
	//   - Place() is called with a staged file that was already moved or discarded
	//   - Operations that require an existing artifact
	ErrContentNotFound = errors.New("content not found")

	// ErrContentExists indicates an artifact already exists at the target path.
	//
	// Place() never overwrites: disk names carry a random component, so a
	// collision means something else wrote into the folder directory.
	ErrContentExists = errors.New("content already exists")

	// ErrContentTooLarge indicates a stream exceeded the per-file byte ceiling.
	//
	// The partial artifact has already been removed when this is returned.
	ErrContentTooLarge = errors.New("content too large")
)
