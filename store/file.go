package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/errors"
)

// FileStore keeps a namespace as a single JSON object on disk.
type FileStore struct {
	mu       sync.RWMutex
	filePath string
	values   map[string]json.RawMessage
}

var _ Store = (*FileStore)(nil)

// NewFileStore loads the namespace from filePath, or starts empty if the file
// does not exist. Returns an error only on unexpected I/O or decode failures.
func NewFileStore(filePath string) (*FileStore, error) {
	s := &FileStore{
		filePath: filePath,
		values:   make(map[string]json.RawMessage),
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, errors.Wrapf(err, "read %s", filePath)
	}
	if len(data) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s.values); err != nil {
		return nil, errors.Wrapf(err, "parse %s", filePath)
	}
	if s.values == nil {
		s.values = make(map[string]json.RawMessage)
	}
	return s, nil
}

// Path returns the backing file.
func (s *FileStore) Path() string {
	return s.filePath
}

func (s *FileStore) Get(_ context.Context, key string, dst any) (bool, error) {
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

func (s *FileStore) Set(_ context.Context, key string, value any) error {
	raw, err := encode(value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	prev, had := s.values[key]
	s.values[key] = raw
	if err := s.writeAtomic(); err != nil {
		// Keep memory consistent with disk.
		if had {
			s.values[key] = prev
		} else {
			delete(s.values, key)
		}
		return err
	}
	return nil
}

func (s *FileStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, had := s.values[key]
	if !had {
		return nil
	}
	delete(s.values, key)
	if err := s.writeAtomic(); err != nil {
		s.values[key] = prev
		return err
	}
	return nil
}

// Keys returns a snapshot of the stored keys.
func (s *FileStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	return keys
}

// writeAtomic writes to a temp file then renames it over filePath.
// Caller must hold s.mu.
func (s *FileStore) writeAtomic() error {
	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, "create %s", dir)
	}

	tmp := s.filePath + ".tmp"
	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal store")
	}
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return errors.Wrapf(err, "write %s", tmp)
	}
	return errors.Wrapf(os.Rename(tmp, s.filePath), "rename %s", tmp)
}
