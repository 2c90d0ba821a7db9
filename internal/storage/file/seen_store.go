// Package file provides JSON file-backed store implementations for
// single-process deployments without a database.
package file

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"auction-sniper/internal/storage"
)

// SeenStore is a file-backed implementation of storage.SeenStore.
// The set lives in memory; Load/Save round-trip it through a JSON file.
type SeenStore struct {
	mu   sync.RWMutex
	path string
	ids  map[string]struct{}
}

// NewSeenStore creates a seen-ID store backed by the given file path.
func NewSeenStore(path string) *SeenStore {
	return &SeenStore{
		path: path,
		ids:  make(map[string]struct{}),
	}
}

// Contains reports whether the ID was already seen this epoch.
func (s *SeenStore) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ids[id]
	return ok
}

// Add marks an ID as seen and reports whether it was newly added.
// Adding an empty ID is a no-op.
func (s *SeenStore) Add(id string) bool {
	if id == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[id]; ok {
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

// Len returns the current epoch's set size.
func (s *SeenStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

// Clear wipes the epoch, allowing rediscovery of long-lived listings.
func (s *SeenStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = make(map[string]struct{})
}

// Load restores the set from the backing file. A missing file is treated
// as an empty set, not an error.
func (s *SeenStore) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read seen file: %w", err)
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return fmt.Errorf("parse seen file: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	return nil
}

// Save persists the set to the backing file.
func (s *SeenStore) Save() error {
	s.mu.RLock()
	ids := make([]string, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("marshal seen set: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create seen dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("write seen file: %w", err)
	}
	return nil
}

// Verify interface compliance at compile time.
var _ storage.SeenStore = (*SeenStore)(nil)
