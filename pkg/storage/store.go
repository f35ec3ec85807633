package storage

import (
	"context"
	"time"
)

// MetadataStore is the durable record store for File and Share records.
//
// Two implementations exist:
//   - memory: mutex-protected maps, for tests and development
//   - badger: BadgerDB-backed persistence for production deployments
//
// Separation of Concerns:
//
// The metadata store manages records only; blob bytes live in the object
// store (pkg/blob) and are addressed through File.StorageKey. This
// separation allows metadata and content storage to scale and fail
// independently, mirroring the original DynamoDB + S3 split.
//
// Concurrency Contract:
//
// Handlers are stateless and request-scoped; any two invocations may run
// concurrently against the same record, and the store is the only shared
// mutable resource. Implementations must therefore be safe for concurrent
// use, and RecordShareAccess must make the access-limit check and the
// counter increment a single atomic step. Every other operation relies on
// optimistic existence checks: a file deleted between a caller's read and
// a subsequent write is a benign, non-corrupting race.
//
// Error Contract:
//
// Absence is reported as *StoreError with ErrNotFound. Infrastructure
// failures are returned as plain wrapped errors; callers decide whether
// the operation was primary (surface as internal) or best-effort (log
// and continue).
type MetadataStore interface {
	// GetFile returns the file record for id, or ErrNotFound.
	// Soft-deleted records are returned; filtering on status is the
	// caller's concern because delete paths need to see them.
	GetFile(ctx context.Context, id string) (*File, error)

	// PutFile creates or overwrites the file record.
	PutFile(ctx context.Context, file *File) error

	// UpdateFile applies a partial update of advisory fields to an
	// existing file record. Used for best-effort secondary updates
	// (share count, last-shared); callers swallow and log failures.
	// Returns ErrNotFound if the record is gone.
	UpdateFile(ctx context.Context, id string, update FileUpdate) error

	// SetFileStatus transitions the file's lifecycle status and stamps
	// the modification (and, for deletions, deletion) time.
	SetFileStatus(ctx context.Context, id string, status FileStatus, now time.Time) error

	// DeleteFile permanently removes the file record. Shares referencing
	// the file are left in place; the dangling-reference rule makes them
	// unredeemable at redemption time.
	DeleteFile(ctx context.Context, id string) error

	// ListFilesByOwner returns up to limit active files owned by ownerID,
	// newest first. cursor is an opaque token from a previous call; the
	// returned cursor is empty when no further pages exist.
	ListFilesByOwner(ctx context.Context, ownerID string, limit int, cursor string) ([]*File, string, error)

	// GetShare returns the share record for id, or ErrNotFound.
	// Inactive shares are returned; existence hiding happens above.
	GetShare(ctx context.Context, id string) (*Share, error)

	// PutShare creates or overwrites the share record.
	PutShare(ctx context.Context, share *Share) error

	// DeactivateShare clears the share's IsActive flag. Idempotent:
	// deactivating an already-inactive share succeeds and changes
	// nothing. Returns ErrNotFound for missing shares.
	DeactivateShare(ctx context.Context, id string) error

	// RecordShareAccess atomically checks the share's access cap and, if
	// not reached, increments AccessCount by one and stamps
	// LastAccessedAt. Returns the post-increment count.
	//
	// The check-then-increment is linearizable per share: once the cap is
	// reached, concurrent callers racing the boundary observe
	// ErrAccessLimitReached rather than both succeeding. This is the one
	// conditional-update primitive the share engine depends on.
	RecordShareAccess(ctx context.Context, id string, now time.Time) (int, error)

	// Close releases store resources.
	Close() error
}
