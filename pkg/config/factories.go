package config

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/mitchellh/mapstructure"

	"github.com/Anshuman-git-code/AWS-Drive-Storage/internal/logger"
	"github.com/Anshuman-git-code/AWS-Drive-Storage/pkg/blob"
	blobMemory "github.com/Anshuman-git-code/AWS-Drive-Storage/pkg/blob/memory"
	blobS3 "github.com/Anshuman-git-code/AWS-Drive-Storage/pkg/blob/s3"
	"github.com/Anshuman-git-code/AWS-Drive-Storage/pkg/storage"
	storageBadger "github.com/Anshuman-git-code/AWS-Drive-Storage/pkg/storage/badger"
	storageMemory "github.com/Anshuman-git-code/AWS-Drive-Storage/pkg/storage/memory"
)

// CreateMetadataStore creates a metadata store based on configuration.
//
// This factory function uses the Type field to determine which store
// implementation to create, then decodes the type-specific configuration
// from the corresponding map and passes it to the store's constructor.
//
// Supported types:
//   - "memory": Uses pkg/storage/memory (in-memory storage, ephemeral)
//   - "badger": Uses pkg/storage/badger (BadgerDB storage, persistent)
//
// Parameters:
//   - ctx: Context for initialization operations
//   - cfg: Metadata store configuration
//
// Returns:
//   - storage.MetadataStore: Initialized metadata store
//   - error: Configuration or initialization error
func CreateMetadataStore(ctx context.Context, cfg *MetadataConfig) (storage.MetadataStore, error) {
	switch cfg.Type {
	case "memory":
		return createMemoryMetadataStore(ctx)
	case "badger":
		return createBadgerMetadataStore(ctx, cfg.Badger)
	default:
		return nil, fmt.Errorf("unknown metadata store type: %q (supported: memory, badger)", cfg.Type)
	}
}

// createMemoryMetadataStore creates an in-memory metadata store.
func createMemoryMetadataStore(ctx context.Context) (storage.MetadataStore, error) {
	// Check context before creating store
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return storageMemory.NewMemoryMetadataStore(), nil
}

// createBadgerMetadataStore creates a BadgerDB-based persistent metadata store.
func createBadgerMetadataStore(ctx context.Context, options map[string]any) (storage.MetadataStore, error) {
	// Decode store-specific options
	var storeCfg storageBadger.BadgerMetadataStoreConfig
	if err := mapstructure.Decode(options, &storeCfg); err != nil {
		return nil, fmt.Errorf("failed to decode badger metadata store options: %w", err)
	}

	store, err := storageBadger.NewBadgerMetadataStore(ctx, storeCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create badger metadata store: %w", err)
	}

	logger.Info("Badger metadata store initialized: path=%s", storeCfg.Path)
	return store, nil
}

// CreateBlobStore creates a blob store based on configuration.
//
// Supported types:
//   - "memory": Uses pkg/blob/memory (in-process storage, for development)
//   - "s3": Uses pkg/blob/s3 (Amazon S3 or compatible storage)
//
// Parameters:
//   - ctx: Context for initialization operations
//   - cfg: Blob store configuration
//
// Returns:
//   - blob.Store: Initialized blob store
//   - error: Configuration or initialization error
func CreateBlobStore(ctx context.Context, cfg *BlobConfig) (blob.Store, error) {
	switch cfg.Type {
	case "memory":
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return blobMemory.NewMemoryBlobStore(), nil
	case "s3":
		return createS3BlobStore(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown blob store type: %q (supported: memory, s3)", cfg.Type)
	}
}

// createS3BlobStore creates an S3-based blob store.
func createS3BlobStore(ctx context.Context, options map[string]any) (blob.Store, error) {
	// Define the configuration struct for the S3 blob store
	type S3BlobStoreOptions struct {
		Region          string `mapstructure:"region"`
		Bucket          string `mapstructure:"bucket"`
		Endpoint        string `mapstructure:"endpoint"`
		AccessKeyID     string `mapstructure:"access_key_id"`
		SecretAccessKey string `mapstructure:"secret_access_key"`
		MaxRetries      int    `mapstructure:"max_retries"`
	}

	// Decode the options into the config struct
	var storeOpts S3BlobStoreOptions
	if err := mapstructure.Decode(options, &storeOpts); err != nil {
		return nil, fmt.Errorf("failed to decode S3 blob store options: %w", err)
	}

	// Validate required fields
	if storeOpts.Bucket == "" {
		return nil, fmt.Errorf("S3 blob store: bucket is required")
	}
	if storeOpts.Region == "" {
		return nil, fmt.Errorf("S3 blob store: region is required")
	}

	// ========================================================================
	// Step 1: Build AWS Config
	// ========================================================================

	var configOptions []func(*awsConfig.LoadOptions) error

	// Set region
	configOptions = append(configOptions, awsConfig.WithRegion(storeOpts.Region))

	// Set custom endpoint if provided (for MinIO, Localstack, etc.)
	if storeOpts.Endpoint != "" {
		//nolint:staticcheck // TODO: migrate to BaseEndpoint when AWS SDK v2 stabilizes the new API
		customResolver := aws.EndpointResolverWithOptionsFunc(
			func(service, region string, options ...interface{}) (aws.Endpoint, error) {
				//nolint:staticcheck // TODO: migrate to BaseEndpoint when AWS SDK v2 stabilizes the new API
				return aws.Endpoint{
					URL:               storeOpts.Endpoint,
					HostnameImmutable: true,
					Source:            aws.EndpointSourceCustom,
				}, nil
			},
		)
		//nolint:staticcheck // TODO: migrate to BaseEndpoint when AWS SDK v2 stabilizes the new API
		configOptions = append(configOptions, awsConfig.WithEndpointResolverWithOptions(customResolver))
	}

	// Set credentials if provided, otherwise use default credential chain
	if storeOpts.AccessKeyID != "" && storeOpts.SecretAccessKey != "" {
		credProvider := credentials.NewStaticCredentialsProvider(
			storeOpts.AccessKeyID,
			storeOpts.SecretAccessKey,
			"", // session token (empty for static credentials)
		)
		configOptions = append(configOptions, awsConfig.WithCredentialsProvider(credProvider))
	}

	// Configure retries for better resilience against temporary S3 failures
	// Default to 10 retries if not specified (increased from AWS default of 3)
	maxRetries := storeOpts.MaxRetries
	if maxRetries == 0 {
		maxRetries = 10 // Default: 10 attempts
	}
	configOptions = append(configOptions, awsConfig.WithRetryer(func() aws.Retryer {
		return retry.NewStandard(func(o *retry.StandardOptions) {
			o.MaxAttempts = maxRetries // Retry for transient errors (502, 503, timeouts, etc.)
		})
	}))

	// Load AWS config
	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, configOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	// ========================================================================
	// Step 2: Create S3 Client
	// ========================================================================

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		// Force path-style addressing for compatibility with MinIO/Localstack
		if storeOpts.Endpoint != "" {
			o.UsePathStyle = true
		}
	})

	// ========================================================================
	// Step 3: Create S3 Blob Store
	// ========================================================================

	store, err := blobS3.NewS3BlobStore(ctx, blobS3.S3BlobStoreConfig{
		Client: client,
		Bucket: storeOpts.Bucket,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 blob store: %w", err)
	}

	logger.Info("S3 blob store initialized: bucket=%s, region=%s", storeOpts.Bucket, storeOpts.Region)

	return store, nil
}
