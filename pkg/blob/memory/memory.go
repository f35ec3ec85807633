// Package memory implements blob.Store in process memory, for tests and
// local development.
package memory

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

// MemoryBlobStore implements blob.Store with a mutex-protected map.
//
// PresignDownload returns deterministic fake URLs. FailPresigns can be
// set by tests to exercise callers' graceful-degradation paths.
type MemoryBlobStore struct {
	mu      sync.RWMutex
	objects map[string]object

	// FailPresigns makes every PresignDownload call fail. Test hook.
	FailPresigns bool
}

type object struct {
	data        []byte
	contentType string
}

// NewMemoryBlobStore creates an empty in-memory blob store.
func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{objects: make(map[string]object)}
}

// Put implements blob.Store.
func (s *MemoryBlobStore) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("failed to read object body: %w", err)
	}
	if size >= 0 && int64(len(data)) != size {
		return fmt.Errorf("object size mismatch: declared %d, read %d", size, len(data))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = object{data: data, contentType: contentType}
	return nil
}

// Delete implements blob.Store.
func (s *MemoryBlobStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

// PresignDownload implements blob.Store.
func (s *MemoryBlobStore) PresignDownload(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.FailPresigns {
		return "", fmt.Errorf("presigning disabled")
	}
	if _, ok := s.objects[key]; !ok {
		return "", fmt.Errorf("object %q not found", key)
	}
	return fmt.Sprintf("memory://%s?expires=%d", key, int64(ttl.Seconds())), nil
}

// Get returns the stored object bytes. Test helper.
func (s *MemoryBlobStore) Get(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[key]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), obj.data...), true
}

// Len returns the number of stored objects. Test helper.
func (s *MemoryBlobStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
