package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/go-playground/validator/v10"
	"github.com/marmos91/dittocat/internal/logger"
)

// RepairKind describes what Load had to do to produce a usable catalog.
type RepairKind int

const (
	// RepairNone means the stored document was used as-is.
	RepairNone RepairKind = iota

	// RepairInitialized means no document existed and a fresh one was saved.
	RepairInitialized

	// RepairedFromCorruption means the stored document could not be parsed
	// or had the wrong shape, and was replaced by a fresh catalog. The
	// previous content is lost.
	RepairedFromCorruption

	// RepairedMissingRoot means the document was valid but lacked the root
	// folder, which was inserted at the front.
	RepairedMissingRoot
)

func (k RepairKind) String() string {
	switch k {
	case RepairNone:
		return "none"
	case RepairInitialized:
		return "initialized"
	case RepairedFromCorruption:
		return "corruption"
	case RepairedMissingRoot:
		return "missing_root"
	default:
		return "unknown"
	}
}

// LoadResult is the outcome of Persistence.Load.
type LoadResult struct {
	Catalog *Catalog
	Repair  RepairKind

	// Reason explains a RepairedFromCorruption outcome.
	Reason string
}

// Options controls the retry policy for backend I/O.
type Options struct {
	// RetryAttempts is the total number of tries per read or write (min 1).
	RetryAttempts uint

	// RetryDelay is the base delay between tries.
	RetryDelay time.Duration
}

// Persistence loads and saves whole catalogs through a Backend.
//
// Persistence holds no catalog state of its own and does no locking; the
// metadata store serializes calls.
type Persistence struct {
	backend  Backend
	opts     Options
	validate *validator.Validate
}

// NewPersistence creates a Persistence over backend.
func NewPersistence(backend Backend, opts Options) *Persistence {
	if opts.RetryAttempts == 0 {
		opts.RetryAttempts = 1
	}
	return &Persistence{
		backend:  backend,
		opts:     opts,
		validate: validator.New(),
	}
}

// Backend returns the underlying storage backend.
func (p *Persistence) Backend() Backend {
	return p.backend
}

// Load reads the catalog document.
//
// Recovery policy:
//   - absent document: a fresh catalog is saved (RepairInitialized)
//   - unparsable or badly shaped document: a fresh catalog replaces it
//     (RepairedFromCorruption); the old content is discarded
//   - valid document without the root folder: root is inserted
//     (RepairedMissingRoot)
//   - any other read failure is retried and then returned; it never
//     resets the catalog
//
// Returns:
//   - *LoadResult: The usable catalog and what was repaired
//   - error: Read failures after retries, context cancellation, or a failed
//     save of a repaired catalog
func (p *Persistence) Load(ctx context.Context) (*LoadResult, error) {
	// ========================================================================
	// Step 1: Read the document, retrying transient failures
	// ========================================================================

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := retry.DoWithData(
		func() ([]byte, error) {
			return p.backend.ReadDocument(ctx)
		},
		p.retryOptions(ctx, "read")...,
	)
	if errors.Is(err, ErrDocumentNotFound) {
		cat := New()
		if err := p.Save(ctx, cat); err != nil {
			return nil, err
		}
		logger.Info("Catalog initialized with root folder")
		return &LoadResult{Catalog: cat, Repair: RepairInitialized}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	// ========================================================================
	// Step 2: Decode, resetting on corruption
	// ========================================================================

	cat, err := p.Decode(data)
	if err != nil {
		reason := err.Error()
		logger.Warn("Catalog document is corrupt, resetting to an empty catalog (previous content discarded): %s", reason)

		cat = New()
		if err := p.Save(ctx, cat); err != nil {
			return nil, err
		}
		return &LoadResult{Catalog: cat, Repair: RepairedFromCorruption, Reason: reason}, nil
	}

	// ========================================================================
	// Step 3: Restore the root folder if it went missing
	// ========================================================================

	if cat.ensureRoot() {
		logger.Warn("Catalog was missing the root folder, restored it")
		if err := p.Save(ctx, cat); err != nil {
			return nil, err
		}
		return &LoadResult{Catalog: cat, Repair: RepairedMissingRoot}, nil
	}

	return &LoadResult{Catalog: cat, Repair: RepairNone}, nil
}

// Save serializes cat and atomically replaces the stored document.
//
// Backend write failures are retried before being returned.
func (p *Persistence) Save(ctx context.Context, cat *Catalog) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := Encode(cat)
	if err != nil {
		return err
	}

	err = retry.Do(
		func() error {
			return p.backend.WriteDocument(ctx, data)
		},
		p.retryOptions(ctx, "write")...,
	)
	if err != nil {
		return fmt.Errorf("failed to save catalog: %w", err)
	}
	return nil
}

// Decode parses and shape-checks a catalog document.
func (p *Persistence) Decode(data []byte) (*Catalog, error) {
	var cat Catalog
	if err := json.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if err := p.validate.Struct(&cat); err != nil {
		return nil, fmt.Errorf("invalid catalog shape: %w", err)
	}
	cat.normalize()
	return &cat, nil
}

// Encode serializes cat with two-space indentation.
//
// The output is deterministic, so encoding a freshly decoded document
// reproduces the bytes it was decoded from.
func Encode(cat *Catalog) ([]byte, error) {
	cat.normalize()

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(cat); err != nil {
		return nil, fmt.Errorf("failed to encode catalog: %w", err)
	}
	return buf.Bytes(), nil
}

func (p *Persistence) retryOptions(ctx context.Context, op string) []retry.Option {
	// RandomDelay needs a positive jitter bound.
	delayType := retry.DelayType(retry.FixedDelay)
	if jitter := p.opts.RetryDelay / 2; jitter > 0 {
		delayType = retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay))
	}

	return []retry.Option{
		retry.Attempts(p.opts.RetryAttempts),
		retry.Delay(p.opts.RetryDelay),
		retry.MaxJitter(p.opts.RetryDelay / 2),
		delayType,
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, ErrDocumentNotFound) &&
				!errors.Is(err, context.Canceled) &&
				!errors.Is(err, context.DeadlineExceeded)
		}),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn("Catalog %s failed (attempt %d/%d): %v", op, n+1, p.opts.RetryAttempts, err)
		}),
		retry.Context(ctx),
	}
}
