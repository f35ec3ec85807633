// Package memory provides an in-memory MetadataStore implementation.
//
// Suitable for tests and local development. All records live in maps
// protected by a single read-write mutex; clones are returned so callers
// can never mutate store state through a leaked pointer.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Anshuman-git-code/AWS-Drive-Storage/pkg/storage"
)

// MemoryMetadataStore implements storage.MetadataStore with mutex-protected maps.
//
// Thread Safety: the single RWMutex makes every operation atomic with
// respect to every other, which trivially satisfies the conditional
// access-counter contract of RecordShareAccess.
type MemoryMetadataStore struct {
	mu     sync.RWMutex
	files  map[string]*storage.File
	shares map[string]*storage.Share
}

// NewMemoryMetadataStore creates an empty in-memory store.
func NewMemoryMetadataStore() *MemoryMetadataStore {
	return &MemoryMetadataStore{
		files:  make(map[string]*storage.File),
		shares: make(map[string]*storage.Share),
	}
}

// GetFile implements storage.MetadataStore.
func (s *MemoryMetadataStore) GetFile(ctx context.Context, id string) (*storage.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	file, ok := s.files[id]
	if !ok {
		return nil, storage.NotFound("file not found")
	}
	return cloneFile(file), nil
}

// PutFile implements storage.MetadataStore.
func (s *MemoryMetadataStore) PutFile(ctx context.Context, file *storage.File) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.files[file.ID] = cloneFile(file)
	return nil
}

// UpdateFile implements storage.MetadataStore.
func (s *MemoryMetadataStore) UpdateFile(ctx context.Context, id string, update storage.FileUpdate) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, ok := s.files[id]
	if !ok {
		return storage.NotFound("file not found")
	}

	file.ShareCount += update.ShareCountDelta
	if update.LastSharedAt != nil {
		file.LastSharedAt = update.LastSharedAt
	}
	if update.LastModifiedAt != nil {
		file.LastModifiedAt = *update.LastModifiedAt
	}
	return nil
}

// SetFileStatus implements storage.MetadataStore.
func (s *MemoryMetadataStore) SetFileStatus(ctx context.Context, id string, status storage.FileStatus, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, ok := s.files[id]
	if !ok {
		return storage.NotFound("file not found")
	}

	file.Status = status
	file.LastModifiedAt = now
	if status == storage.FileStatusDeleted {
		deletedAt := now
		file.DeletedAt = &deletedAt
	}
	return nil
}

// DeleteFile implements storage.MetadataStore.
func (s *MemoryMetadataStore) DeleteFile(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.files[id]; !ok {
		return storage.NotFound("file not found")
	}
	delete(s.files, id)
	return nil
}

// ListFilesByOwner implements storage.MetadataStore.
func (s *MemoryMetadataStore) ListFilesByOwner(ctx context.Context, ownerID string, limit int, cursor string) ([]*storage.File, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	var cursorAt time.Time
	var cursorID string
	if cursor != "" {
		var err error
		cursorAt, cursorID, err = storage.DecodeCursor(cursor)
		if err != nil {
			return nil, "", err
		}
	}

	s.mu.RLock()
	owned := make([]*storage.File, 0)
	for _, file := range s.files {
		if file.OwnerID != ownerID || file.Status != storage.FileStatusActive {
			continue
		}
		if cursor != "" && !storage.After(cursorAt, cursorID, file) {
			continue
		}
		owned = append(owned, cloneFile(file))
	}
	s.mu.RUnlock()

	// Newest first, id as tiebreaker to keep pagination stable.
	sort.Slice(owned, func(i, j int) bool {
		if owned[i].CreatedAt.Equal(owned[j].CreatedAt) {
			return owned[i].ID < owned[j].ID
		}
		return owned[i].CreatedAt.After(owned[j].CreatedAt)
	})

	next := ""
	if limit > 0 && len(owned) > limit {
		owned = owned[:limit]
		next = storage.EncodeCursor(owned[limit-1])
	}
	return owned, next, nil
}

// GetShare implements storage.MetadataStore.
func (s *MemoryMetadataStore) GetShare(ctx context.Context, id string) (*storage.Share, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	share, ok := s.shares[id]
	if !ok {
		return nil, storage.NotFound("share not found")
	}
	return cloneShare(share), nil
}

// PutShare implements storage.MetadataStore.
func (s *MemoryMetadataStore) PutShare(ctx context.Context, share *storage.Share) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.shares[share.ID] = cloneShare(share)
	return nil
}

// DeactivateShare implements storage.MetadataStore.
func (s *MemoryMetadataStore) DeactivateShare(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	share, ok := s.shares[id]
	if !ok {
		return storage.NotFound("share not found")
	}
	share.IsActive = false
	return nil
}

// RecordShareAccess implements storage.MetadataStore.
//
// The access-limit check and the increment happen under the write lock,
// so concurrent redemptions at the boundary serialize here.
func (s *MemoryMetadataStore) RecordShareAccess(ctx context.Context, id string, now time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	share, ok := s.shares[id]
	if !ok {
		return 0, storage.NotFound("share not found")
	}

	if share.AtAccessLimit() {
		return share.AccessCount, &storage.StoreError{
			Code:    storage.ErrAccessLimitReached,
			Message: "share has reached its access limit",
		}
	}

	share.AccessCount++
	accessedAt := now
	share.LastAccessedAt = &accessedAt
	return share.AccessCount, nil
}

// Close implements storage.MetadataStore. No resources to release.
func (s *MemoryMetadataStore) Close() error {
	return nil
}

func cloneFile(f *storage.File) *storage.File {
	c := *f
	if f.Tags != nil {
		c.Tags = append([]string(nil), f.Tags...)
	}
	if f.DeletedAt != nil {
		t := *f.DeletedAt
		c.DeletedAt = &t
	}
	if f.LastSharedAt != nil {
		t := *f.LastSharedAt
		c.LastSharedAt = &t
	}
	return &c
}

func cloneShare(sh *storage.Share) *storage.Share {
	c := *sh
	if sh.MaxAccess != nil {
		m := *sh.MaxAccess
		c.MaxAccess = &m
	}
	if sh.LastAccessedAt != nil {
		t := *sh.LastAccessedAt
		c.LastAccessedAt = &t
	}
	return &c
}
