package rdapbootstrap

import (
	"context"
	"sync"
	"time"
)

type memoryStore struct {
	mu      sync.RWMutex
	entries map[string]Record
}

// NewMemoryStore returns a process-local Store.
func NewMemoryStore() Store {
	return &memoryStore{entries: make(map[string]Record)}
}

func (s *memoryStore) Get(_ context.Context, key string) (Record, bool, error) {
	s.mu.RLock()
	rec, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return Record{}, false, nil
	}
	rec.Value = append([]byte(nil), rec.Value...)
	return rec, true, nil
}

func (s *memoryStore) Set(_ context.Context, key string, rec Record) error {
	rec.Value = append([]byte(nil), rec.Value...)
	s.mu.Lock()
	s.entries[key] = rec
	s.mu.Unlock()
	return nil
}

func (s *memoryStore) Touch(_ context.Context, key string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.entries[key]; ok {
		rec.Modified = at
		s.entries[key] = rec
	}
	return nil
}

func (s *memoryStore) Close() error { return nil }
