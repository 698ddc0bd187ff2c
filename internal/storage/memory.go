package storage

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// MemoryStore keeps objects in process memory. It backs local development
// without an object store and tests.
type MemoryStore struct {
	mu        sync.RWMutex
	objects   map[string][]byte
	publicURL string
	failPut   error
}

func NewMemory(publicURL string) *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte), publicURL: publicURL}
}

// FailUploads makes every subsequent Upload return err.
func (s *MemoryStore) FailUploads(err error) {
	s.mu.Lock()
	s.failPut = err
	s.mu.Unlock()
}

func (s *MemoryStore) Upload(ctx context.Context, prefix, filename string, r io.Reader, size int64, contentType string) (*Object, error) {
	s.mu.RLock()
	failPut := s.failPut
	s.mu.RUnlock()
	if failPut != nil {
		return nil, failPut
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}

	key := ObjectKey(prefix, filename)
	s.mu.Lock()
	s.objects[key] = data
	s.mu.Unlock()

	return &Object{Key: key, URL: PublicURL(s.publicURL, key)}, nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	delete(s.objects, key)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) EnsureBucket(ctx context.Context) error { return nil }

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

// Has reports whether key is stored.
func (s *MemoryStore) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[key]
	return ok
}

// Len returns the number of stored objects.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
