// Package s3 stores the catalog document as a single S3 object.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/marmos91/dittocat/pkg/catalog"
)

// DefaultObjectKey is the object key used when no key is configured.
const DefaultObjectKey = "metadata.json"

// Client is the subset of *s3.Client used by the backend.
type Client interface {
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Backend keeps the catalog document in Amazon S3 or S3-compatible storage.
//
// PutObject replaces an object as a whole, so a reader sees either the old
// or the new document. Works with custom endpoints (MinIO, Localstack,
// Cubbit DS3) through the client configuration.
//
// Thread Safety:
// The AWS client is safe for concurrent use. Concurrent writers follow S3
// last-writer-wins semantics; the metadata store lock keeps writes serial
// within one process.
type S3Backend struct {
	client Client
	bucket string
	key    string
}

var _ catalog.Backend = (*S3Backend)(nil)

// S3BackendConfig contains configuration for the S3 backend.
type S3BackendConfig struct {
	// Client is the configured S3 client
	Client Client

	// Bucket is the S3 bucket name
	Bucket string

	// KeyPrefix is an optional prefix for the object key
	// Example: "dittocat/" results in "dittocat/metadata.json"
	KeyPrefix string

	// ObjectKey overrides DefaultObjectKey
	ObjectKey string
}

// NewS3Backend creates a new S3 backend and verifies bucket access.
//
// The bucket must already exist - this function does not create it.
//
// Parameters:
//   - ctx: Context for cancellation and timeouts
//   - cfg: S3 configuration
//
// Returns:
//   - *S3Backend: Initialized backend
//   - error: Returns error if bucket access fails or context is cancelled
func NewS3Backend(ctx context.Context, cfg S3BackendConfig) (*S3Backend, error) {
	// ========================================================================
	// Step 1: Validate configuration
	// ========================================================================

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if cfg.Client == nil {
		return nil, fmt.Errorf("S3 client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	key := cfg.ObjectKey
	if key == "" {
		key = DefaultObjectKey
	}

	// ========================================================================
	// Step 2: Verify bucket access
	// ========================================================================

	_, err := cfg.Client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(cfg.Bucket),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to access bucket %q: %w", cfg.Bucket, err)
	}

	return &S3Backend{
		client: cfg.Client,
		bucket: cfg.Bucket,
		key:    cfg.KeyPrefix + key,
	}, nil
}

// Key returns the full object key of the catalog document.
func (b *S3Backend) Key() string {
	return b.key
}

// ReadDocument downloads the catalog object.
func (b *S3Backend) ReadDocument(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, catalog.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to get catalog object: %w", err)
	}
	defer func() { _ = result.Body.Close() }()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog object: %w", err)
	}
	return data, nil
}

// WriteDocument uploads data as the catalog object.
func (b *S3Backend) WriteDocument(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(b.bucket),
		Key:           aws.String(b.key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to put catalog object: %w", err)
	}
	return nil
}

// Close is a no-op; the S3 client needs no teardown.
func (b *S3Backend) Close() error {
	return nil
}

// isNotFound reports whether err means the object does not exist.
//
// AWS returns a typed NoSuchKey; some S3-compatible services only return
// the generic API error code.
func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}
