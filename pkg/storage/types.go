package storage

import (
	"time"
)

// FileStatus represents the lifecycle state of a stored file.
type FileStatus string

const (
	// FileStatusActive is the normal state of an uploaded file.
	FileStatusActive FileStatus = "active"

	// FileStatusDeleted marks a soft-deleted file. The transition from
	// active to deleted is one-way; only a permanent delete removes the
	// record entirely. Deleted files must never be returned by listing,
	// download, or share-redemption paths.
	FileStatusDeleted FileStatus = "deleted"
)

// File is the metadata record for one stored object.
//
// The blob itself lives in the object store under StorageKey; this record
// only describes it. A File is exclusively owned by OwnerID and referenced
// (not owned) by zero or more Share records.
type File struct {
	// ID uniquely identifies the file. Immutable, generated at creation.
	ID string `json:"fileId"`

	// OwnerID is the user that uploaded the file.
	OwnerID string `json:"ownerId"`

	// Filename is the sanitized display name of the file.
	Filename string `json:"filename"`

	// StorageKey is the opaque locator of the blob in the object store.
	StorageKey string `json:"storageKey"`

	// ContentType is the MIME type detected or supplied at upload time.
	ContentType string `json:"contentType"`

	// SizeBytes is the blob size in bytes.
	SizeBytes int64 `json:"sizeBytes"`

	CreatedAt      time.Time  `json:"createdAt"`
	LastModifiedAt time.Time  `json:"lastModifiedAt"`
	DeletedAt      *time.Time `json:"deletedAt,omitempty"`

	// Status is active or deleted. See FileStatus.
	Status FileStatus `json:"status"`

	IsPublic    bool     `json:"isPublic"`
	Tags        []string `json:"tags,omitempty"`
	Description string   `json:"description,omitempty"`

	// Version starts at 1. Reserved for future content replacement.
	Version int `json:"version"`

	// ShareCount tracks how many shares have been created for this file.
	// It is advisory and updated best-effort; it never gates any operation.
	ShareCount int `json:"shareCount"`

	// LastSharedAt records the most recent share creation. Advisory.
	LastSharedAt *time.Time `json:"lastSharedAt,omitempty"`
}

// Active reports whether the file is in the active state.
func (f *File) Active() bool {
	return f.Status == FileStatusActive
}

// Share is one redeemable capability over exactly one File.
//
// A share is never deleted by the lifecycle engine: it expires by time,
// deactivates by flag, or becomes permanently unredeemable when the
// referenced file leaves the active state (the dangling-reference rule).
type Share struct {
	// ID uniquely identifies the share. Immutable.
	ID string `json:"shareId"`

	// FileID references the shared file. A reference, not ownership:
	// deleting the file does not cascade to the share.
	FileID string `json:"fileId"`

	// SharedBy is the user that created the share.
	SharedBy string `json:"sharedBy"`

	CreatedAt time.Time `json:"createdAt"`

	// ExpirationTime is CreatedAt + ExpirationHours, fixed at creation
	// and never mutated afterward.
	ExpirationTime time.Time `json:"expirationTime"`

	// ExpirationHours is the requested validity window (1-168). Informational;
	// ExpirationTime is authoritative.
	ExpirationHours int `json:"expirationHours"`

	// AllowDownload gates the download action on redemption. Viewing
	// metadata is always allowed for a valid share.
	AllowDownload bool `json:"allowDownload"`

	// AccessCount is the number of successful redemptions. Monotonically
	// non-decreasing; incremented by exactly one per redemption.
	AccessCount int `json:"accessCount"`

	// MaxAccess, when non-nil, caps successful redemptions. Always >= 1.
	MaxAccess *int `json:"maxAccess,omitempty"`

	// PasswordHash is the hex SHA-256 digest of the share password, or
	// empty when the share is not password-protected. The plaintext is
	// never persisted or logged.
	PasswordHash string `json:"passwordHash,omitempty"`

	// IsActive is cleared by explicit deactivation. Irreversible.
	IsActive bool `json:"isActive"`

	// LastAccessedAt records the most recent successful redemption. Advisory.
	LastAccessedAt *time.Time `json:"lastAccessedAt,omitempty"`
}

// Expired reports whether the share is past its expiration time.
// Redemption at exactly ExpirationTime is still allowed; only instants
// strictly after it are refused.
func (s *Share) Expired(now time.Time) bool {
	return now.After(s.ExpirationTime)
}

// AtAccessLimit reports whether the access cap has been reached.
func (s *Share) AtAccessLimit() bool {
	return s.MaxAccess != nil && s.AccessCount >= *s.MaxAccess
}

// FileUpdate describes a best-effort partial update of advisory file fields.
// Nil fields are left unchanged.
type FileUpdate struct {
	// ShareCountDelta is added to the file's ShareCount.
	ShareCountDelta int

	LastSharedAt   *time.Time
	LastModifiedAt *time.Time
}
