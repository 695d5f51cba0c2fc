package cache

import (
	"context"
	"sync"
)

// MemoryStore keeps entries in process memory. Entries are stored
// serialized so callers cannot mutate cached records.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

// NewMemoryStore creates an empty in-memory cache
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string][]byte)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (*Entry, error) {
	s.mu.RLock()
	data, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	return decodeEntry(data)
}

func (s *MemoryStore) Set(_ context.Context, key string, entry *Entry) error {
	data, err := encodeEntry(entry)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.entries[key] = data
	s.mu.Unlock()
	return nil
}

// Len returns the number of cached entries
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *MemoryStore) Close() error {
	return nil
}
