package config

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/marmos91/nfsinspect/internal/logger"
	"github.com/marmos91/nfsinspect/pkg/filestore"
	fsBadger "github.com/marmos91/nfsinspect/pkg/filestore/badger"
	fsLocal "github.com/marmos91/nfsinspect/pkg/filestore/fs"
	fsMemory "github.com/marmos91/nfsinspect/pkg/filestore/memory"
	fsS3 "github.com/marmos91/nfsinspect/pkg/filestore/s3"
	"github.com/marmos91/nfsinspect/pkg/metrics"
	"github.com/mitchellh/mapstructure"
)

// CreateFileStore creates a payload store based on configuration.
//
// This factory function uses the Type field to determine which store implementation
// to create, then decodes the type-specific configuration from the corresponding
// map and passes it to the store's constructor.
//
// Supported types:
//   - "none": no store; returns (nil, nil)
//   - "memory": pkg/filestore/memory (in-memory, ephemeral)
//   - "filesystem": pkg/filestore/fs (one file per chunk)
//   - "badger": pkg/filestore/badger (BadgerDB, persistent)
//   - "s3": pkg/filestore/s3 (Amazon S3 or compatible storage)
//
// Every store is wrapped with m so operations are reported; a nil m
// disables that.
func CreateFileStore(ctx context.Context, cfg *FileStoreConfig, m metrics.FileStoreMetrics) (filestore.Store, error) {
	var (
		store filestore.Store
		err   error
	)

	switch cfg.Type {
	case "none", "":
		return nil, nil
	case "memory":
		store, err = createMemoryFileStore(ctx, cfg.Memory)
	case "filesystem":
		store, err = createFilesystemFileStore(ctx, cfg.Filesystem)
	case "badger":
		store, err = createBadgerFileStore(ctx, cfg.Badger)
	case "s3":
		store, err = createS3FileStore(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown file store type: %q (supported: none, memory, filesystem, badger, s3)", cfg.Type)
	}
	if err != nil {
		return nil, err
	}

	return filestore.WithMetrics(store, cfg.Type, m), nil
}

// decodeOptions decodes a type-specific options map, accepting
// human-readable sizes.
func decodeOptions(options map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       byteSizeDecodeHook(),
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	return decoder.Decode(options)
}

// createMemoryFileStore creates an in-memory payload store.
func createMemoryFileStore(ctx context.Context, options map[string]any) (filestore.Store, error) {
	type MemoryFileStoreOptions struct {
		MaxSize ByteSize `mapstructure:"max_size"`
	}

	var storeOpts MemoryFileStoreOptions
	if err := decodeOptions(options, &storeOpts); err != nil {
		return nil, fmt.Errorf("failed to decode memory file store options: %w", err)
	}

	store, err := fsMemory.NewMemoryFileStore(ctx, uint64(storeOpts.MaxSize))
	if err != nil {
		return nil, fmt.Errorf("failed to create memory file store: %w", err)
	}
	return store, nil
}

// createFilesystemFileStore creates a filesystem-based payload store.
func createFilesystemFileStore(ctx context.Context, options map[string]any) (filestore.Store, error) {
	type FilesystemFileStoreOptions struct {
		Path string `mapstructure:"path"`
	}

	var storeOpts FilesystemFileStoreOptions
	if err := decodeOptions(options, &storeOpts); err != nil {
		return nil, fmt.Errorf("failed to decode filesystem file store options: %w", err)
	}

	if storeOpts.Path == "" {
		return nil, fmt.Errorf("filesystem file store: path is required")
	}

	store, err := fsLocal.NewFSFileStore(ctx, storeOpts.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create filesystem file store: %w", err)
	}
	return store, nil
}

// createBadgerFileStore creates a BadgerDB-based persistent payload store.
func createBadgerFileStore(ctx context.Context, options map[string]any) (filestore.Store, error) {
	type BadgerFileStoreOptions struct {
		DBPath           string `mapstructure:"db_path"`
		InMemory         bool   `mapstructure:"in_memory"`
		BlockCacheSizeMB int64  `mapstructure:"block_cache_mb"`
		Compression      bool   `mapstructure:"compression"`
	}

	var storeOpts BadgerFileStoreOptions
	if err := decodeOptions(options, &storeOpts); err != nil {
		return nil, fmt.Errorf("failed to decode badger file store options: %w", err)
	}

	if storeOpts.DBPath == "" && !storeOpts.InMemory {
		return nil, fmt.Errorf("badger file store: db_path is required")
	}

	store, err := fsBadger.NewBadgerFileStore(ctx, fsBadger.BadgerFileStoreConfig{
		DBPath:           storeOpts.DBPath,
		InMemory:         storeOpts.InMemory,
		BlockCacheSizeMB: storeOpts.BlockCacheSizeMB,
		Compression:      storeOpts.Compression,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create badger file store: %w", err)
	}
	return store, nil
}

// createS3FileStore creates an S3-based payload store.
func createS3FileStore(ctx context.Context, options map[string]any) (filestore.Store, error) {
	type S3FileStoreOptions struct {
		Region          string `mapstructure:"region"`
		Bucket          string `mapstructure:"bucket"`
		KeyPrefix       string `mapstructure:"key_prefix"`
		Endpoint        string `mapstructure:"endpoint"`
		AccessKeyID     string `mapstructure:"access_key_id"`
		SecretAccessKey string `mapstructure:"secret_access_key"`
		MaxRetries      int    `mapstructure:"max_retries"`
	}

	var storeCfg S3FileStoreOptions
	if err := decodeOptions(options, &storeCfg); err != nil {
		return nil, fmt.Errorf("failed to decode S3 file store options: %w", err)
	}

	if storeCfg.Bucket == "" {
		return nil, fmt.Errorf("S3 file store: bucket is required")
	}
	if storeCfg.Region == "" {
		return nil, fmt.Errorf("S3 file store: region is required")
	}

	// ========================================================================
	// Step 1: Build AWS Config
	// ========================================================================

	configOptions := []func(*awsConfig.LoadOptions) error{
		awsConfig.WithRegion(storeCfg.Region),
	}

	// Set credentials if provided, otherwise use default credential chain
	if storeCfg.AccessKeyID != "" && storeCfg.SecretAccessKey != "" {
		credProvider := credentials.NewStaticCredentialsProvider(
			storeCfg.AccessKeyID,
			storeCfg.SecretAccessKey,
			"", // session token (empty for static credentials)
		)
		configOptions = append(configOptions, awsConfig.WithCredentialsProvider(credProvider))
	}

	maxRetries := storeCfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = 10
	}
	configOptions = append(configOptions, awsConfig.WithRetryer(func() aws.Retryer {
		return retry.NewStandard(func(o *retry.StandardOptions) {
			o.MaxAttempts = maxRetries
		})
	}))

	cfg, err := awsConfig.LoadDefaultConfig(ctx, configOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	// ========================================================================
	// Step 2: Create S3 Client
	// ========================================================================

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		// Custom endpoints (MinIO, Localstack) need path-style addressing
		if storeCfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(storeCfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	// ========================================================================
	// Step 3: Create S3 File Store
	// ========================================================================

	store, err := fsS3.NewS3FileStore(ctx, fsS3.S3FileStoreConfig{
		Client:    client,
		Bucket:    storeCfg.Bucket,
		KeyPrefix: storeCfg.KeyPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 file store: %w", err)
	}

	logger.Info("S3 file store initialized: bucket=%s, region=%s, prefix=%s",
		storeCfg.Bucket, storeCfg.Region, storeCfg.KeyPrefix)

	return store, nil
}
