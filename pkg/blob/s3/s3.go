// Package s3 implements blob.Store on Amazon S3 or S3-compatible storage.
package s3

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3BlobStore implements blob.Store using an S3 bucket.
//
// Download capabilities are minted as presigned GetObject URLs, the same
// mechanism API consumers already use against S3 directly. The store
// never buffers object bytes itself; uploads stream straight through to
// the SDK.
//
// Thread Safety: the S3 client is safe for concurrent use; this type
// holds no mutable state.
type S3BlobStore struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
}

// S3BlobStoreConfig contains configuration for the S3 blob store.
type S3BlobStoreConfig struct {
	// Client is the configured S3 client.
	Client *s3.Client

	// Bucket is the S3 bucket name. Must already exist.
	Bucket string
}

// NewS3BlobStore creates an S3-backed blob store and verifies bucket
// access. The bucket must already exist; this function does not create it.
func NewS3BlobStore(ctx context.Context, cfg S3BlobStoreConfig) (*S3BlobStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if cfg.Client == nil {
		return nil, fmt.Errorf("S3 client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	_, err := cfg.Client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(cfg.Bucket),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to access bucket %q: %w", cfg.Bucket, err)
	}

	return &S3BlobStore{
		client:  cfg.Client,
		presign: s3.NewPresignClient(cfg.Client),
		bucket:  cfg.Bucket,
	}, nil
}

// Put implements blob.Store.
func (s *S3BlobStore) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to put object %q: %w", key, err)
	}
	return nil
}

// Delete implements blob.Store. S3 DeleteObject succeeds for missing
// keys, which matches the interface contract.
func (s *S3BlobStore) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %q: %w", key, err)
	}
	return nil
}

// PresignDownload implements blob.Store.
func (s *S3BlobStore) PresignDownload(ctx context.Context, key string, ttl time.Duration) (string, error) {
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("failed to presign download for %q: %w", key, err)
	}
	return req.URL, nil
}
