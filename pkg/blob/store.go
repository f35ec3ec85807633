// Package blob defines the object store abstraction for file content.
//
// Metadata records (pkg/storage) reference blobs through opaque storage
// keys; this package is the only component that touches the bytes. The
// production implementation is S3 (pkg/blob/s3); the memory
// implementation backs tests and local development.
package blob

import (
	"context"
	"io"
	"time"
)

// Store provides durable blob storage addressed by key.
//
// PresignDownload mints an ephemeral download capability: anyone holding
// the returned URL can fetch the object until the TTL passes, with no
// further authentication. Callers decide whether a minting failure is
// fatal; share redemption in view mode degrades gracefully by omitting
// the URL, while explicit downloads surface the failure.
type Store interface {
	// Put stores the object under key, overwriting any previous content.
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error

	// Delete removes the object. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// PresignDownload returns a time-limited URL granting read access to
	// the object under key.
	PresignDownload(ctx context.Context, key string, ttl time.Duration) (string, error)
}
