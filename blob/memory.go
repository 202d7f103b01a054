package blob

import (
	"context"
	"sync"
	"time"

	wastebot "github.com/greenloop/wastebot"
)

// MemoryStorage implements Storage in memory for tests and local runs.
type MemoryStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

// NewMemory creates an empty in-memory storage.
func NewMemory() *MemoryStorage {
	return &MemoryStorage{objects: make(map[string][]byte)}
}

func (s *MemoryStorage) Put(ctx context.Context, img wastebot.ImageAsset) (string, error) {
	ref := RefForHash(img.Hash)
	data := make([]byte, len(img.Bytes))
	copy(data, img.Bytes)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[ref] = data
	return ref, nil
}

func (s *MemoryStorage) Get(ctx context.Context, ref string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[ref]
	if !ok {
		return nil, wastebot.ErrReportNotFound
	}
	copied := make([]byte, len(data))
	copy(copied, data)
	return copied, nil
}

func (s *MemoryStorage) Delete(ctx context.Context, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, ref)
	return nil
}

func (s *MemoryStorage) URL(ctx context.Context, ref string, expiry time.Duration) (string, error) {
	return "memory://" + ref, nil
}

// Len returns the number of stored objects.
func (s *MemoryStorage) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}
