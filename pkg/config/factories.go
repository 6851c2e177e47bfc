package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/mitchellh/mapstructure"

	"github.com/marmos91/dittocat/internal/logger"
	"github.com/marmos91/dittocat/pkg/catalog"
	catalogBadger "github.com/marmos91/dittocat/pkg/catalog/badger"
	catalogFile "github.com/marmos91/dittocat/pkg/catalog/file"
	catalogMemory "github.com/marmos91/dittocat/pkg/catalog/memory"
	catalogS3 "github.com/marmos91/dittocat/pkg/catalog/s3"
	contentFs "github.com/marmos91/dittocat/pkg/content/fs"
	"github.com/marmos91/dittocat/pkg/metrics"
	"github.com/marmos91/dittocat/pkg/store"
)

// CreateCatalogBackend creates a catalog backend based on configuration.
//
// This factory function uses the Type field to determine which backend
// implementation to create, then decodes the type-specific configuration
// from the corresponding map and passes it to the backend's constructor.
//
// Supported types:
//   - "file": Uses pkg/catalog/file (JSON document next to the folders)
//   - "badger": Uses pkg/catalog/badger (one key in a BadgerDB)
//   - "s3": Uses pkg/catalog/s3 (one object in Amazon S3 or compatible storage)
//   - "memory": Uses pkg/catalog/memory (ephemeral, for tests and demos)
//
// Parameters:
//   - ctx: Context for initialization operations
//   - cfg: Catalog configuration
//   - storageRoot: Storage root, used for the file backend's default location
//
// Returns:
//   - catalog.Backend: Initialized backend (must be closed)
//   - error: Configuration or initialization error
func CreateCatalogBackend(ctx context.Context, cfg *CatalogConfig, storageRoot string) (catalog.Backend, error) {
	switch cfg.Type {
	case "file":
		return createFileCatalogBackend(cfg.File, storageRoot)
	case "badger":
		return createBadgerCatalogBackend(ctx, cfg.Badger)
	case "s3":
		return createS3CatalogBackend(ctx, cfg.S3)
	case "memory":
		return catalogMemory.NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("unknown catalog backend type: %q (supported: file, badger, s3, memory)", cfg.Type)
	}
}

// createFileCatalogBackend creates the JSON file backend.
func createFileCatalogBackend(options map[string]any, storageRoot string) (catalog.Backend, error) {
	type FileCatalogConfig struct {
		Path string `mapstructure:"path"`
	}

	var backendCfg FileCatalogConfig
	if err := mapstructure.Decode(options, &backendCfg); err != nil {
		return nil, fmt.Errorf("failed to decode file catalog config: %w", err)
	}

	if backendCfg.Path == "" {
		if storageRoot == "" {
			return nil, fmt.Errorf("file catalog: path is required")
		}
		backendCfg.Path = filepath.Join(storageRoot, catalogFile.DefaultFileName)
	}

	backend, err := catalogFile.NewFileBackend(backendCfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file catalog backend: %w", err)
	}
	return backend, nil
}

// createBadgerCatalogBackend creates the BadgerDB backend.
func createBadgerCatalogBackend(ctx context.Context, options map[string]any) (catalog.Backend, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type BadgerCatalogConfig struct {
		DBPath string `mapstructure:"db_path"`
		Key    string `mapstructure:"key"`
	}

	var backendCfg BadgerCatalogConfig
	if err := mapstructure.Decode(options, &backendCfg); err != nil {
		return nil, fmt.Errorf("failed to decode badger catalog config: %w", err)
	}

	if backendCfg.DBPath == "" {
		return nil, fmt.Errorf("badger catalog: db_path is required")
	}

	backend, err := catalogBadger.NewBadgerBackend(ctx, catalogBadger.BadgerBackendConfig{
		DBPath: backendCfg.DBPath,
		Key:    backendCfg.Key,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create badger catalog backend: %w", err)
	}
	return backend, nil
}

// S3CatalogConfig holds the decoded options of the s3 catalog backend.
type S3CatalogConfig struct {
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
	KeyPrefix       string `mapstructure:"key_prefix"`
	ObjectKey       string `mapstructure:"object_key"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	MaxRetries      int    `mapstructure:"max_retries"`
}

// decodeS3Options decodes and checks the s3 option map.
func decodeS3Options(options map[string]any) (*S3CatalogConfig, error) {
	var backendCfg S3CatalogConfig
	if err := mapstructure.Decode(options, &backendCfg); err != nil {
		return nil, fmt.Errorf("failed to decode S3 catalog config: %w", err)
	}

	if backendCfg.Bucket == "" {
		return nil, fmt.Errorf("S3 catalog: bucket is required")
	}
	if backendCfg.Region == "" {
		return nil, fmt.Errorf("S3 catalog: region is required")
	}
	if backendCfg.MaxRetries == 0 {
		backendCfg.MaxRetries = 10
	}
	return &backendCfg, nil
}

// NewS3Client builds an S3 client from decoded options.
//
// A custom endpoint (MinIO, Localstack) switches the client to path-style
// addressing. Static credentials are used when both keys are set, otherwise
// the default AWS credential chain applies.
func NewS3Client(ctx context.Context, opts *S3CatalogConfig) (*s3.Client, error) {
	// ========================================================================
	// Step 1: Build AWS Config
	// ========================================================================

	configOptions := []func(*awsConfig.LoadOptions) error{
		awsConfig.WithRegion(opts.Region),
	}

	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		credProvider := credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, "")
		configOptions = append(configOptions, awsConfig.WithCredentialsProvider(credProvider))
	}

	maxRetries := opts.MaxRetries
	configOptions = append(configOptions, awsConfig.WithRetryer(func() aws.Retryer {
		return retry.NewStandard(func(o *retry.StandardOptions) {
			o.MaxAttempts = maxRetries
		})
	}))

	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, configOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	// ========================================================================
	// Step 2: Create S3 Client
	// ========================================================================

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// createS3CatalogBackend creates the S3 backend.
func createS3CatalogBackend(ctx context.Context, options map[string]any) (catalog.Backend, error) {
	opts, err := decodeS3Options(options)
	if err != nil {
		return nil, err
	}

	client, err := NewS3Client(ctx, opts)
	if err != nil {
		return nil, err
	}

	backend, err := catalogS3.NewS3Backend(ctx, catalogS3.S3BackendConfig{
		Client:    client,
		Bucket:    opts.Bucket,
		KeyPrefix: opts.KeyPrefix,
		ObjectKey: opts.ObjectKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 catalog backend: %w", err)
	}

	logger.Info("S3 catalog backend initialized: bucket=%s, region=%s, key=%s",
		opts.Bucket, opts.Region, backend.Key())

	return backend, nil
}

// InitializeStore wires the metadata store from configuration.
//
// Parameters:
//   - ctx: Context for initialization operations
//   - cfg: Complete configuration
//   - storeMetrics: Metrics sink (nil disables collection)
//
// Returns:
//   - *store.Store: Ready metadata store
//   - catalog.Backend: The backend in use; the caller closes it on shutdown
//   - error: Backend, content store or initial load failure
func InitializeStore(ctx context.Context, cfg *Config, storeMetrics metrics.StoreMetrics) (*store.Store, catalog.Backend, error) {
	contentStore, err := contentFs.NewFSContentStore(ctx, cfg.Storage.Root)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create content store: %w", err)
	}

	backend, err := CreateCatalogBackend(ctx, &cfg.Catalog, contentStore.Root())
	if err != nil {
		return nil, nil, err
	}

	persistence := catalog.NewPersistence(backend, catalog.Options{
		RetryAttempts: cfg.Catalog.RetryAttempts,
		RetryDelay:    cfg.Catalog.RetryDelay,
	})

	s, err := store.New(ctx, store.Config{
		Persistence: persistence,
		Content:     contentStore,
		Limits: store.Limits{
			MaxFilesPerUpload: cfg.Limits.MaxFilesPerUpload,
			MaxFileSize:       cfg.Limits.MaxFileSize,
		},
		Metrics: storeMetrics,
	})
	if err != nil {
		_ = backend.Close()
		return nil, nil, err
	}

	return s, backend, nil
}
