package store

import (
	"context"
	"encoding/json"
	"sync"
)

// MemoryStore is a process-local namespace. Values are kept encoded so that
// callers never share mutable state with the store.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]json.RawMessage
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]json.RawMessage)}
}

func (s *MemoryStore) Get(_ context.Context, key string, dst any) (bool, error) {
	s.mu.RLock()
	raw, ok := s.values[key]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := decode(raw, key, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value any) error {
	raw, err := encode(value)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.values[key] = raw
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.values, key)
	s.mu.Unlock()
	return nil
}
