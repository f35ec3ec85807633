// Package testing provides a conformance test suite for MetadataStore
// implementations. Both the memory and badger stores run the same suite,
// which keeps their observable behavior aligned.
package testing

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Anshuman-git-code/AWS-Drive-Storage/pkg/storage"
)

// StoreTestSuite runs the complete MetadataStore conformance suite.
type StoreTestSuite struct {
	// NewStore returns a fresh, empty store for each test.
	NewStore func(t *testing.T) storage.MetadataStore
}

// Run executes all suite tests.
func (s *StoreTestSuite) Run(t *testing.T) {
	t.Run("FileCRUD", s.testFileCRUD)
	t.Run("FileUpdate", s.testFileUpdate)
	t.Run("FileStatusTransition", s.testFileStatusTransition)
	t.Run("ListFilesByOwner", s.testListFilesByOwner)
	t.Run("ListPagination", s.testListPagination)
	t.Run("ShareCRUD", s.testShareCRUD)
	t.Run("DeactivateShare", s.testDeactivateShare)
	t.Run("RecordShareAccess", s.testRecordShareAccess)
	t.Run("RecordShareAccessUnlimited", s.testRecordShareAccessUnlimited)
	t.Run("RecordShareAccessConcurrent", s.testRecordShareAccessConcurrent)
}

func newTestFile(id, ownerID string, createdAt time.Time) *storage.File {
	return &storage.File{
		ID:             id,
		OwnerID:        ownerID,
		Filename:       id + ".txt",
		StorageKey:     "users/" + ownerID + "/files/" + id + "/" + id + ".txt",
		ContentType:    "text/plain",
		SizeBytes:      42,
		CreatedAt:      createdAt,
		LastModifiedAt: createdAt,
		Status:         storage.FileStatusActive,
		Version:        1,
	}
}

func newTestShare(id, fileID, sharedBy string, createdAt time.Time) *storage.Share {
	return &storage.Share{
		ID:              id,
		FileID:          fileID,
		SharedBy:        sharedBy,
		CreatedAt:       createdAt,
		ExpirationTime:  createdAt.Add(24 * time.Hour),
		ExpirationHours: 24,
		AllowDownload:   true,
		IsActive:        true,
	}
}

func (s *StoreTestSuite) testFileCRUD(t *testing.T) {
	store := s.NewStore(t)
	defer store.Close()
	ctx := context.Background()

	_, err := store.GetFile(ctx, "missing")
	require.Error(t, err)
	assert.Equal(t, storage.ErrNotFound, storage.CodeOf(err))

	now := time.Now().UTC().Truncate(time.Millisecond)
	file := newTestFile("file-1", "user-1", now)
	file.Tags = []string{"docs", "2026"}
	require.NoError(t, store.PutFile(ctx, file))

	got, err := store.GetFile(ctx, "file-1")
	require.NoError(t, err)
	assert.Equal(t, file.OwnerID, got.OwnerID)
	assert.Equal(t, file.Filename, got.Filename)
	assert.Equal(t, file.Tags, got.Tags)
	assert.True(t, got.Active())

	// Mutating the returned record must not change stored state.
	got.Filename = "mutated"
	again, err := store.GetFile(ctx, "file-1")
	require.NoError(t, err)
	assert.Equal(t, "file-1.txt", again.Filename)

	require.NoError(t, store.DeleteFile(ctx, "file-1"))
	_, err = store.GetFile(ctx, "file-1")
	assert.Equal(t, storage.ErrNotFound, storage.CodeOf(err))

	err = store.DeleteFile(ctx, "file-1")
	assert.Equal(t, storage.ErrNotFound, storage.CodeOf(err))
}

func (s *StoreTestSuite) testFileUpdate(t *testing.T) {
	store := s.NewStore(t)
	defer store.Close()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, store.PutFile(ctx, newTestFile("file-1", "user-1", now)))

	sharedAt := now.Add(time.Minute)
	err := store.UpdateFile(ctx, "file-1", storage.FileUpdate{
		ShareCountDelta: 1,
		LastSharedAt:    &sharedAt,
	})
	require.NoError(t, err)

	got, err := store.GetFile(ctx, "file-1")
	require.NoError(t, err)
	assert.Equal(t, 1, got.ShareCount)
	require.NotNil(t, got.LastSharedAt)
	assert.True(t, got.LastSharedAt.Equal(sharedAt))

	err = store.UpdateFile(ctx, "missing", storage.FileUpdate{ShareCountDelta: 1})
	assert.Equal(t, storage.ErrNotFound, storage.CodeOf(err))
}

func (s *StoreTestSuite) testFileStatusTransition(t *testing.T) {
	store := s.NewStore(t)
	defer store.Close()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, store.PutFile(ctx, newTestFile("file-1", "user-1", now)))

	deletedAt := now.Add(time.Hour)
	require.NoError(t, store.SetFileStatus(ctx, "file-1", storage.FileStatusDeleted, deletedAt))

	got, err := store.GetFile(ctx, "file-1")
	require.NoError(t, err)
	assert.Equal(t, storage.FileStatusDeleted, got.Status)
	require.NotNil(t, got.DeletedAt)
	assert.True(t, got.DeletedAt.Equal(deletedAt))
	assert.True(t, got.LastModifiedAt.Equal(deletedAt))

	// Soft-deleted files disappear from listings.
	files, _, err := store.ListFilesByOwner(ctx, "user-1", 10, "")
	require.NoError(t, err)
	assert.Empty(t, files)
}

func (s *StoreTestSuite) testListFilesByOwner(t *testing.T) {
	store := s.NewStore(t)
	defer store.Close()
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Millisecond)
	for i := 0; i < 5; i++ {
		f := newTestFile(fmt.Sprintf("file-%d", i), "user-1", base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, store.PutFile(ctx, f))
	}
	require.NoError(t, store.PutFile(ctx, newTestFile("other", "user-2", base)))

	files, next, err := store.ListFilesByOwner(ctx, "user-1", 10, "")
	require.NoError(t, err)
	assert.Empty(t, next)
	require.Len(t, files, 5)

	// Newest first.
	for i := 0; i < 4; i++ {
		assert.True(t, files[i].CreatedAt.After(files[i+1].CreatedAt) ||
			files[i].CreatedAt.Equal(files[i+1].CreatedAt),
			"listing must be ordered newest first")
	}
	assert.Equal(t, "file-4", files[0].ID)
	assert.Equal(t, "file-0", files[4].ID)

	files, _, err = store.ListFilesByOwner(ctx, "nobody", 10, "")
	require.NoError(t, err)
	assert.Empty(t, files)
}

func (s *StoreTestSuite) testListPagination(t *testing.T) {
	store := s.NewStore(t)
	defer store.Close()
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Millisecond)
	for i := 0; i < 7; i++ {
		f := newTestFile(fmt.Sprintf("file-%d", i), "user-1", base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, store.PutFile(ctx, f))
	}

	var seen []string
	cursor := ""
	for {
		files, next, err := store.ListFilesByOwner(ctx, "user-1", 3, cursor)
		require.NoError(t, err)
		for _, f := range files {
			seen = append(seen, f.ID)
		}
		if next == "" {
			break
		}
		cursor = next
	}

	require.Len(t, seen, 7)
	assert.Equal(t, "file-6", seen[0])
	assert.Equal(t, "file-0", seen[6])

	_, _, err := store.ListFilesByOwner(ctx, "user-1", 3, "not-a-cursor")
	assert.Equal(t, storage.ErrInvalidArgument, storage.CodeOf(err))
}

func (s *StoreTestSuite) testShareCRUD(t *testing.T) {
	store := s.NewStore(t)
	defer store.Close()
	ctx := context.Background()

	_, err := store.GetShare(ctx, "missing")
	assert.Equal(t, storage.ErrNotFound, storage.CodeOf(err))

	now := time.Now().UTC().Truncate(time.Millisecond)
	share := newTestShare("share-1", "file-1", "user-1", now)
	maxAccess := 3
	share.MaxAccess = &maxAccess
	share.PasswordHash = "adc83b19e793491b1c6ea0fd8b46cd9f32e592fc"
	require.NoError(t, store.PutShare(ctx, share))

	got, err := store.GetShare(ctx, "share-1")
	require.NoError(t, err)
	assert.Equal(t, "file-1", got.FileID)
	assert.Equal(t, "user-1", got.SharedBy)
	assert.True(t, got.ExpirationTime.Equal(now.Add(24*time.Hour)))
	require.NotNil(t, got.MaxAccess)
	assert.Equal(t, 3, *got.MaxAccess)
	assert.True(t, got.IsActive)
	assert.Zero(t, got.AccessCount)
}

func (s *StoreTestSuite) testDeactivateShare(t *testing.T) {
	store := s.NewStore(t)
	defer store.Close()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, store.PutShare(ctx, newTestShare("share-1", "file-1", "user-1", now)))

	require.NoError(t, store.DeactivateShare(ctx, "share-1"))
	got, err := store.GetShare(ctx, "share-1")
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	// Repeated deactivation is a no-op, never a reactivation.
	require.NoError(t, store.DeactivateShare(ctx, "share-1"))
	got, err = store.GetShare(ctx, "share-1")
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	err = store.DeactivateShare(ctx, "missing")
	assert.Equal(t, storage.ErrNotFound, storage.CodeOf(err))
}

func (s *StoreTestSuite) testRecordShareAccess(t *testing.T) {
	store := s.NewStore(t)
	defer store.Close()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Millisecond)
	share := newTestShare("share-1", "file-1", "user-1", now)
	maxAccess := 2
	share.MaxAccess = &maxAccess
	require.NoError(t, store.PutShare(ctx, share))

	count, err := store.RecordShareAccess(ctx, "share-1", now)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = store.RecordShareAccess(ctx, "share-1", now.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	_, err = store.RecordShareAccess(ctx, "share-1", now.Add(2*time.Second))
	require.Error(t, err)
	assert.Equal(t, storage.ErrAccessLimitReached, storage.CodeOf(err))

	got, err := store.GetShare(ctx, "share-1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.AccessCount)
	require.NotNil(t, got.LastAccessedAt)

	_, err = store.RecordShareAccess(ctx, "missing", now)
	assert.Equal(t, storage.ErrNotFound, storage.CodeOf(err))
}

func (s *StoreTestSuite) testRecordShareAccessUnlimited(t *testing.T) {
	store := s.NewStore(t)
	defer store.Close()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, store.PutShare(ctx, newTestShare("share-1", "file-1", "user-1", now)))

	for i := 1; i <= 10; i++ {
		count, err := store.RecordShareAccess(ctx, "share-1", now)
		require.NoError(t, err)
		assert.Equal(t, i, count)
	}
}

// testRecordShareAccessConcurrent races many redemptions against a capped
// share: exactly MaxAccess increments may succeed, no matter the interleaving.
func (s *StoreTestSuite) testRecordShareAccessConcurrent(t *testing.T) {
	store := s.NewStore(t)
	defer store.Close()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Millisecond)
	share := newTestShare("share-1", "file-1", "user-1", now)
	maxAccess := 5
	share.MaxAccess = &maxAccess
	require.NoError(t, store.PutShare(ctx, share))

	const attempts = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0
	limited := 0

	for n := 0; n < attempts; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.RecordShareAccess(ctx, "share-1", now)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case storage.CodeOf(err) == storage.ErrAccessLimitReached:
				limited++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, maxAccess, successes, "exactly MaxAccess redemptions may succeed")
	assert.Equal(t, attempts-maxAccess, limited)

	got, err := store.GetShare(ctx, "share-1")
	require.NoError(t, err)
	assert.Equal(t, maxAccess, got.AccessCount)
}
