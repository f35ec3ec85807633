// Package files implements the file lifecycle: upload, listing, download
// and deletion. These handlers are the producers of the File records the
// share engine (pkg/share) consumes; the real invariants live there.
package files

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/Anshuman-git-code/AWS-Drive-Storage/internal/logger"
	"github.com/Anshuman-git-code/AWS-Drive-Storage/pkg/auth"
	"github.com/Anshuman-git-code/AWS-Drive-Storage/pkg/blob"
	"github.com/Anshuman-git-code/AWS-Drive-Storage/pkg/share"
	"github.com/Anshuman-git-code/AWS-Drive-Storage/pkg/storage"
)

// DefaultMaxUploadBytes caps uploads at 5 GiB unless configured otherwise.
const DefaultMaxUploadBytes = 5 << 30

// presignTTL is the validity window of direct-download URLs.
const presignTTL = time.Hour

// Listing page bounds.
const (
	defaultListLimit = 50
	maxListLimit     = 100
)

// Service implements the file lifecycle operations.
type Service struct {
	meta           storage.MetadataStore
	blobs          blob.Store
	clock          share.Clock
	newID          func() string
	maxUploadBytes int64
}

// ServiceConfig contains the service's collaborators. Meta and Blobs are
// required; the rest default sensibly.
type ServiceConfig struct {
	Meta           storage.MetadataStore
	Blobs          blob.Store
	Clock          share.Clock
	NewID          func() string
	MaxUploadBytes int64
}

// NewService creates a file lifecycle service.
func NewService(cfg ServiceConfig) *Service {
	clock := cfg.Clock
	if clock == nil {
		clock = share.SystemClock{}
	}
	newID := cfg.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	maxUpload := cfg.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUploadBytes
	}
	return &Service{
		meta:           cfg.Meta,
		blobs:          cfg.Blobs,
		clock:          clock,
		newID:          newID,
		maxUploadBytes: maxUpload,
	}
}

// UploadInput describes one upload request.
type UploadInput struct {
	Filename string
	Content  io.Reader

	// SizeBytes is the declared content length. Must be known up front
	// so the size cap is enforced before bytes move.
	SizeBytes int64

	// ContentType, when empty, is sniffed from the leading bytes and
	// falls back to the filename extension.
	ContentType string

	Tags        []string
	Description string
	IsPublic    bool
}

// Upload stores the blob and its metadata record. The blob write and the
// record write are both primary: if the record write fails the blob is
// removed again so no unreachable objects accumulate.
func (s *Service) Upload(ctx context.Context, claims *auth.Claims, in UploadInput) (*storage.File, error) {
	if claims == nil {
		return nil, &storage.StoreError{Code: storage.ErrUnauthenticated, Message: "identity required"}
	}
	if strings.TrimSpace(in.Filename) == "" {
		return nil, storage.InvalidArgument("filename is required")
	}
	if in.Content == nil {
		return nil, storage.InvalidArgument("file content is required")
	}
	if in.SizeBytes < 0 {
		return nil, storage.InvalidArgument("content size is required")
	}
	if in.SizeBytes > s.maxUploadBytes {
		return nil, storage.InvalidArgument(fmt.Sprintf(
			"file size %d exceeds the maximum of %d bytes", in.SizeBytes, s.maxUploadBytes))
	}

	filename := SanitizeFilename(in.Filename)

	contentType := in.ContentType
	body := in.Content
	if contentType == "" {
		sniffed, rest, err := sniffContentType(in.Content)
		if err != nil {
			return nil, fmt.Errorf("failed to read upload content: %w", err)
		}
		contentType = sniffed
		body = rest
		if contentType == "application/octet-stream" {
			contentType = ContentTypeForFilename(filename)
		}
	}

	now := s.clock.Now()
	file := &storage.File{
		ID:             s.newID(),
		OwnerID:        claims.UserID,
		Filename:       filename,
		ContentType:    contentType,
		SizeBytes:      in.SizeBytes,
		CreatedAt:      now,
		LastModifiedAt: now,
		Status:         storage.FileStatusActive,
		IsPublic:       in.IsPublic,
		Tags:           in.Tags,
		Description:    in.Description,
		Version:        1,
	}
	file.StorageKey = fmt.Sprintf("users/%s/files/%s/%s", claims.UserID, file.ID, filename)

	if err := s.blobs.Put(ctx, file.StorageKey, body, in.SizeBytes, contentType); err != nil {
		return nil, fmt.Errorf("failed to store file content: %w", err)
	}

	if err := s.meta.PutFile(ctx, file); err != nil {
		// Roll the blob back so a failed upload leaves nothing behind.
		if delErr := s.blobs.Delete(ctx, file.StorageKey); delErr != nil {
			logger.Warn("failed to remove blob after metadata failure for file %s: %v", file.ID, delErr)
		}
		return nil, fmt.Errorf("failed to store file metadata: %w", err)
	}

	logger.Info("file %s (%s, %d bytes) uploaded by user %s", file.ID, filename, in.SizeBytes, claims.UserID)
	return file, nil
}

// ListOptions narrows and pages a listing request.
type ListOptions struct {
	// Limit is the page size, defaulted to 50 and capped at 100.
	Limit int

	// Cursor is the opaque token from a previous page.
	Cursor string

	// Search filters by case-insensitive substring over filename,
	// description and tags.
	Search string

	// TypePrefix filters by content-type prefix, e.g. "image/".
	TypePrefix string
}

// List returns the caller's own active files, newest first.
//
// Search and type filters are applied after pagination, so a filtered
// page may hold fewer than Limit entries while more pages remain. The
// returned cursor walks the unfiltered listing.
func (s *Service) List(ctx context.Context, claims *auth.Claims, opts ListOptions) ([]*storage.File, string, error) {
	if claims == nil {
		return nil, "", &storage.StoreError{Code: storage.ErrUnauthenticated, Message: "identity required"}
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	page, next, err := s.meta.ListFilesByOwner(ctx, claims.UserID, limit, opts.Cursor)
	if err != nil {
		if se, ok := errOf(err); ok {
			return nil, "", se
		}
		return nil, "", fmt.Errorf("failed to list files: %w", err)
	}

	if opts.Search == "" && opts.TypePrefix == "" {
		return page, next, nil
	}

	filtered := make([]*storage.File, 0, len(page))
	search := strings.ToLower(opts.Search)
	for _, f := range page {
		if search != "" && !matchesSearch(f, search) {
			continue
		}
		if opts.TypePrefix != "" && !strings.HasPrefix(f.ContentType, opts.TypePrefix) {
			continue
		}
		filtered = append(filtered, f)
	}
	return filtered, next, nil
}

// DownloadResult is a minted direct-download capability.
type DownloadResult struct {
	FileID      string `json:"fileId"`
	Filename    string `json:"filename"`
	SizeBytes   int64  `json:"fileSize"`
	ContentType string `json:"contentType"`
	DownloadURL string `json:"downloadUrl"`
	ExpiresIn   int    `json:"expiresIn"`
}

// Download mints a presigned URL for an active file the caller may read.
func (s *Service) Download(ctx context.Context, claims *auth.Claims, fileID string) (*DownloadResult, error) {
	if claims == nil {
		return nil, &storage.StoreError{Code: storage.ErrUnauthenticated, Message: "identity required"}
	}

	file, err := s.meta.GetFile(ctx, fileID)
	if err != nil {
		if storage.CodeOf(err) == storage.ErrNotFound {
			return nil, storage.NotFound("file not found")
		}
		return nil, fmt.Errorf("failed to load file: %w", err)
	}
	if !file.Active() {
		return nil, storage.NotFound("file not found")
	}

	if !auth.CanPerform(claims.Role, auth.OperationDownload, file.OwnerID, claims.UserID) {
		return nil, storage.Forbidden("insufficient permissions to download this file")
	}

	url, err := s.blobs.PresignDownload(ctx, file.StorageKey, presignTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to mint download capability: %w", err)
	}

	return &DownloadResult{
		FileID:      file.ID,
		Filename:    file.Filename,
		SizeBytes:   file.SizeBytes,
		ContentType: file.ContentType,
		DownloadURL: url,
		ExpiresIn:   int(presignTTL.Seconds()),
	}, nil
}

// DeleteResult reports a completed deletion.
type DeleteResult struct {
	FileID    string    `json:"fileId"`
	Filename  string    `json:"filename"`
	DeletedAt time.Time `json:"deletedAt"`
	Permanent bool      `json:"permanent"`
}

// Delete removes a file. The default is a soft delete: the record stays,
// marked deleted, and every read path stops returning it. Permanent
// deletion is admin-only and removes both the blob and the record;
// share records referencing the file are deliberately left behind and
// die at redemption time under the dangling-reference rule.
func (s *Service) Delete(ctx context.Context, claims *auth.Claims, fileID string, permanent bool) (*DeleteResult, error) {
	if claims == nil {
		return nil, &storage.StoreError{Code: storage.ErrUnauthenticated, Message: "identity required"}
	}

	file, err := s.meta.GetFile(ctx, fileID)
	if err != nil {
		if storage.CodeOf(err) == storage.ErrNotFound {
			return nil, storage.NotFound("file not found")
		}
		return nil, fmt.Errorf("failed to load file: %w", err)
	}
	if !file.Active() {
		return nil, storage.NotFound("file not found")
	}

	if !auth.CanPerform(claims.Role, auth.OperationDelete, file.OwnerID, claims.UserID) {
		return nil, storage.Forbidden("insufficient permissions to delete this file")
	}
	if permanent && claims.Role != auth.RoleAdmin {
		return nil, storage.Forbidden("only administrators can permanently delete files")
	}

	now := s.clock.Now()

	if permanent {
		if err := s.blobs.Delete(ctx, file.StorageKey); err != nil {
			return nil, fmt.Errorf("failed to delete file content: %w", err)
		}
		if err := s.meta.DeleteFile(ctx, fileID); err != nil {
			return nil, fmt.Errorf("failed to delete file metadata: %w", err)
		}
		logger.Info("file %s permanently deleted by user %s", fileID, claims.UserID)
	} else {
		if err := s.meta.SetFileStatus(ctx, fileID, storage.FileStatusDeleted, now); err != nil {
			return nil, fmt.Errorf("failed to mark file as deleted: %w", err)
		}
		logger.Info("file %s soft-deleted by user %s", fileID, claims.UserID)
	}

	return &DeleteResult{
		FileID:    fileID,
		Filename:  file.Filename,
		DeletedAt: now,
		Permanent: permanent,
	}, nil
}

func matchesSearch(f *storage.File, search string) bool {
	if strings.Contains(strings.ToLower(f.Filename), search) {
		return true
	}
	if strings.Contains(strings.ToLower(f.Description), search) {
		return true
	}
	for _, tag := range f.Tags {
		if strings.Contains(strings.ToLower(tag), search) {
			return true
		}
	}
	return false
}

// sniffContentType detects the MIME type from the stream's leading bytes
// and returns a reader that replays them.
func sniffContentType(r io.Reader) (string, io.Reader, error) {
	header := make([]byte, 3072)
	n, err := io.ReadFull(r, header)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", nil, err
	}
	header = header[:n]

	mt := mimetype.Detect(header)
	return mt.String(), io.MultiReader(bytes.NewReader(header), r), nil
}

func errOf(err error) (*storage.StoreError, bool) {
	var se *storage.StoreError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
