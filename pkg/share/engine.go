// Package share implements the share-link lifecycle and access-control
// engine: creating, validating, and redeeming time-bounded, access-limited,
// optionally password-protected capability tokens over stored files.
package share

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Anshuman-git-code/AWS-Drive-Storage/internal/logger"
	"github.com/Anshuman-git-code/AWS-Drive-Storage/pkg/auth"
	"github.com/Anshuman-git-code/AWS-Drive-Storage/pkg/blob"
	"github.com/Anshuman-git-code/AWS-Drive-Storage/pkg/metrics"
	"github.com/Anshuman-git-code/AWS-Drive-Storage/pkg/storage"
)

// Expiration bounds for share links, in hours. One hour to one week.
const (
	MinExpirationHours = 1
	MaxExpirationHours = 168
)

// DefaultExpirationHours applies when a creation request names no window.
const DefaultExpirationHours = 24

// downloadCapabilityTTL is the validity window of minted download URLs.
const downloadCapabilityTTL = time.Hour

// RedeemAction selects what a redemption returns.
type RedeemAction string

const (
	// ActionView returns file and share metadata, plus a download URL
	// when one can be minted.
	ActionView RedeemAction = "view"

	// ActionDownload returns the download URL and just enough metadata
	// to save the file. Refused when the share disallows downloads.
	ActionDownload RedeemAction = "download"
)

// Engine is the share lifecycle engine.
//
// Creation and deactivation are identity-based and consult the
// permission evaluator; redemption is capability-based and never sees an
// identity. The engine holds no state of its own: all shared mutable
// state lives in the metadata store, whose conditional access-counter
// update closes the check-then-act race at the access-limit boundary.
type Engine struct {
	meta  storage.MetadataStore
	blobs blob.Store
	clock Clock
	newID func() string
}

// EngineConfig contains the engine's collaborators. Meta and Blobs are
// required; Clock and NewID default to the system clock and UUIDv4.
type EngineConfig struct {
	Meta  storage.MetadataStore
	Blobs blob.Store
	Clock Clock
	NewID func() string
}

// NewEngine creates a share lifecycle engine.
func NewEngine(cfg EngineConfig) *Engine {
	clock := cfg.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	newID := cfg.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	return &Engine{
		meta:  cfg.Meta,
		blobs: cfg.Blobs,
		clock: clock,
		newID: newID,
	}
}

// CreateOptions are the caller-supplied share parameters.
type CreateOptions struct {
	// ExpirationHours is the validity window, 1-168. Zero means
	// DefaultExpirationHours.
	ExpirationHours int

	// Password, when non-empty, makes the share password-protected.
	// Only its digest is ever stored.
	Password string

	// AllowDownload gates the download action on redemption.
	AllowDownload bool

	// MaxAccess, when non-nil, caps successful redemptions. Must be >= 1.
	MaxAccess *int
}

// CreateResult is the public view of a newly created share. It never
// carries the password digest.
type CreateResult struct {
	ShareID         string     `json:"shareId"`
	FileID          string     `json:"fileId"`
	Filename        string     `json:"filename"`
	CreatedAt       time.Time  `json:"sharedAt"`
	ExpiresAt       time.Time  `json:"expiresAt"`
	ExpirationHours int        `json:"expirationHours"`
	AllowDownload   bool       `json:"allowDownload"`
	MaxAccess       *int       `json:"maxAccess,omitempty"`
	HasPassword     bool       `json:"hasPassword"`
}

// CreateShare creates a share link for an active file.
//
// Only the file's owner or an admin may create shares; editors and
// viewers can read a file but not share it. The share record write is
// primary (its failure aborts the operation); the bump of the file's
// ShareCount and LastSharedAt is best-effort and never fails the call.
func (e *Engine) CreateShare(ctx context.Context, fileID string, claims *auth.Claims, opts CreateOptions) (*CreateResult, error) {
	if claims == nil {
		return nil, &storage.StoreError{Code: storage.ErrUnauthenticated, Message: "identity required"}
	}

	hours := opts.ExpirationHours
	if hours == 0 {
		hours = DefaultExpirationHours
	}
	if hours < MinExpirationHours || hours > MaxExpirationHours {
		return nil, storage.InvalidArgument(fmt.Sprintf(
			"expiration hours must be between %d and %d", MinExpirationHours, MaxExpirationHours))
	}
	if opts.MaxAccess != nil && *opts.MaxAccess < 1 {
		return nil, storage.InvalidArgument("max access must be at least 1")
	}

	file, err := e.meta.GetFile(ctx, fileID)
	if err != nil {
		if storage.CodeOf(err) == storage.ErrNotFound {
			return nil, storage.NotFound("file not found")
		}
		return nil, fmt.Errorf("failed to load file for sharing: %w", err)
	}
	if !file.Active() {
		return nil, storage.NotFound("file not found")
	}

	if !auth.CanPerform(claims.Role, auth.OperationShare, file.OwnerID, claims.UserID) {
		return nil, storage.Forbidden("insufficient permissions to share this file")
	}

	now := e.clock.Now()
	record := &storage.Share{
		ID:              e.newID(),
		FileID:          fileID,
		SharedBy:        claims.UserID,
		CreatedAt:       now,
		ExpirationTime:  now.Add(time.Duration(hours) * time.Hour),
		ExpirationHours: hours,
		AllowDownload:   opts.AllowDownload,
		IsActive:        true,
	}
	if opts.MaxAccess != nil {
		maxAccess := *opts.MaxAccess
		record.MaxAccess = &maxAccess
	}
	if opts.Password != "" {
		record.PasswordHash = HashPassword(opts.Password)
	}

	if err := e.meta.PutShare(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create share record: %w", err)
	}

	// Advisory bookkeeping on the file record. Never fails the operation.
	sharedAt := now
	if err := e.meta.UpdateFile(ctx, fileID, storage.FileUpdate{
		ShareCountDelta: 1,
		LastSharedAt:    &sharedAt,
	}); err != nil {
		metrics.BestEffortFailures.Inc()
		logger.Warn("failed to update share count for file %s: %v", fileID, err)
	}

	metrics.SharesCreated.Inc()
	logger.Info("share %s created for file %s by user %s", record.ID, fileID, claims.UserID)

	return &CreateResult{
		ShareID:         record.ID,
		FileID:          fileID,
		Filename:        file.Filename,
		CreatedAt:       record.CreatedAt,
		ExpiresAt:       record.ExpirationTime,
		ExpirationHours: record.ExpirationHours,
		AllowDownload:   record.AllowDownload,
		MaxAccess:       record.MaxAccess,
		HasPassword:     record.PasswordHash != "",
	}, nil
}

// RedeemedFile is the file metadata returned to a redeemer.
type RedeemedFile struct {
	Filename    string    `json:"filename"`
	SizeBytes   int64     `json:"fileSize"`
	ContentType string    `json:"contentType"`
	UploadedAt  time.Time `json:"uploadDate"`
	Description string    `json:"description,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
}

// RedeemedShare is the share metadata returned to a redeemer.
type RedeemedShare struct {
	SharedBy      string    `json:"sharedBy"`
	SharedAt      time.Time `json:"sharedAt"`
	ExpiresAt     time.Time `json:"expiresAt"`
	AllowDownload bool      `json:"allowDownload"`
	AccessCount   int       `json:"accessCount"`
	MaxAccess     *int      `json:"maxAccess,omitempty"`
}

// RedeemResult is a successful redemption.
//
// DownloadURL is always set for the download action. For the view action
// it is empty when the object store could not mint a capability; the
// redemption still succeeds.
type RedeemResult struct {
	Action            RedeemAction
	File              RedeemedFile
	Share             RedeemedShare
	DownloadURL       string
	DownloadExpiresIn int
}

// RedeemShare redeems a share link. The caller is unauthenticated; the
// share id is the capability.
//
// The validation sequence is fixed, and its order is observable because
// each step short-circuits with its own error code:
//
//  1. share exists            -> NotFound
//  2. share active            -> NotFound (revoked and missing are indistinguishable)
//  3. not expired             -> Expired
//  4. access cap not reached  -> AccessLimitReached
//  5. password, if set        -> PasswordRequired / InvalidPassword
//  6. file exists and active  -> NotFound (dangling-reference rule)
//  7. download allowed        -> Forbidden (download action only)
//
// On success the access counter is incremented through the store's
// conditional primitive: a concurrent redemption that loses the race at
// the cap boundary gets AccessLimitReached here even though step 4
// passed. Infrastructure failures of the increment are logged and
// swallowed; the redemption still succeeds.
func (e *Engine) RedeemShare(ctx context.Context, shareID, suppliedPassword string, action RedeemAction) (*RedeemResult, error) {
	if action == "" {
		action = ActionView
	}
	if action != ActionView && action != ActionDownload {
		return nil, storage.InvalidArgument(fmt.Sprintf("unknown action %q", action))
	}

	record, err := e.meta.GetShare(ctx, shareID)
	if err != nil {
		if storage.CodeOf(err) == storage.ErrNotFound {
			return nil, storage.NotFound("share link not found")
		}
		return nil, fmt.Errorf("failed to load share: %w", err)
	}

	if !record.IsActive {
		// Deliberately the same error as a missing share: callers must
		// not be able to probe which ids exist.
		return nil, storage.NotFound("share link not found")
	}

	now := e.clock.Now()
	if record.Expired(now) {
		return nil, &storage.StoreError{Code: storage.ErrExpired, Message: "share link has expired"}
	}

	if record.AtAccessLimit() {
		return nil, &storage.StoreError{
			Code:    storage.ErrAccessLimitReached,
			Message: "share link has reached its access limit",
		}
	}

	if record.PasswordHash != "" {
		if suppliedPassword == "" {
			return nil, &storage.StoreError{Code: storage.ErrPasswordRequired, Message: "password required"}
		}
		if !VerifyPassword(suppliedPassword, record.PasswordHash) {
			return nil, &storage.StoreError{Code: storage.ErrInvalidPassword, Message: "invalid password"}
		}
	}

	file, err := e.meta.GetFile(ctx, record.FileID)
	if err != nil {
		if storage.CodeOf(err) == storage.ErrNotFound {
			return nil, storage.NotFound("original file not found")
		}
		return nil, fmt.Errorf("failed to load shared file: %w", err)
	}
	if !file.Active() {
		return nil, storage.NotFound("original file not found")
	}

	if action == ActionDownload && !record.AllowDownload {
		return nil, storage.Forbidden("download not allowed for this share")
	}

	// Conditional increment: this is where a race at the cap boundary is
	// decided. Guard failure refuses the redemption; infrastructure
	// failure does not.
	accessCount := record.AccessCount + 1
	count, err := e.meta.RecordShareAccess(ctx, shareID, now)
	switch {
	case err == nil:
		accessCount = count
	case storage.CodeOf(err) == storage.ErrAccessLimitReached:
		return nil, &storage.StoreError{
			Code:    storage.ErrAccessLimitReached,
			Message: "share link has reached its access limit",
		}
	default:
		metrics.BestEffortFailures.Inc()
		logger.Warn("failed to record access for share %s: %v", shareID, err)
	}

	result := &RedeemResult{
		Action: action,
		File: RedeemedFile{
			Filename:    file.Filename,
			SizeBytes:   file.SizeBytes,
			ContentType: file.ContentType,
			UploadedAt:  file.CreatedAt,
			Description: file.Description,
			Tags:        file.Tags,
		},
		Share: RedeemedShare{
			SharedBy:      record.SharedBy,
			SharedAt:      record.CreatedAt,
			ExpiresAt:     record.ExpirationTime,
			AllowDownload: record.AllowDownload,
			AccessCount:   accessCount,
			MaxAccess:     record.MaxAccess,
		},
	}

	url, err := e.blobs.PresignDownload(ctx, file.StorageKey, downloadCapabilityTTL)
	if err != nil {
		if action == ActionDownload {
			return nil, fmt.Errorf("failed to mint download capability: %w", err)
		}
		// View degrades gracefully: metadata without a download URL.
		logger.Warn("failed to mint download capability for share %s: %v", shareID, err)
	} else {
		result.DownloadURL = url
		result.DownloadExpiresIn = int(downloadCapabilityTTL.Seconds())
	}

	return result, nil
}

// DeactivateShare turns off a share link. Only the user that created the
// share, or an admin, may deactivate it. Idempotent, and irreversible:
// there is no reactivation operation.
func (e *Engine) DeactivateShare(ctx context.Context, shareID string, claims *auth.Claims) error {
	if claims == nil {
		return &storage.StoreError{Code: storage.ErrUnauthenticated, Message: "identity required"}
	}

	record, err := e.meta.GetShare(ctx, shareID)
	if err != nil {
		if storage.CodeOf(err) == storage.ErrNotFound {
			return storage.NotFound("share link not found")
		}
		return fmt.Errorf("failed to load share: %w", err)
	}

	if claims.Role != auth.RoleAdmin && claims.UserID != record.SharedBy {
		return storage.Forbidden("insufficient permissions to deactivate this share")
	}

	if err := e.meta.DeactivateShare(ctx, shareID); err != nil {
		if storage.CodeOf(err) == storage.ErrNotFound {
			return storage.NotFound("share link not found")
		}
		return fmt.Errorf("failed to deactivate share: %w", err)
	}

	logger.Info("share %s deactivated by user %s", shareID, claims.UserID)
	return nil
}
