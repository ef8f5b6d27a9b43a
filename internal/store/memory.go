package store

import (
	"context"
	"sync"
	"time"
)

type MemoryStore struct {
	mu     sync.RWMutex
	values map[string][]byte
	lists  map[string][][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values: make(map[string][]byte),
		lists:  make(map[string][][]byte),
	}
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.values[key]
	return value, ok, nil
}

func (s *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = append([]byte(nil), value...)
	return nil
}

func (s *MemoryStore) Append(ctx context.Context, key string, value []byte, limit int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lists[key] = trimList(append(s.lists[key], append([]byte(nil), value...)), limit)
	return nil
}

func (s *MemoryStore) List(ctx context.Context, key string) ([][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([][]byte, len(s.lists[key]))
	copy(items, s.lists[key])
	return items, nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)
	delete(s.lists, key)
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
