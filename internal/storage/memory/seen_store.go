package memory

import (
	"sync"

	"auction-sniper/internal/storage"
)

// SeenStore is an in-memory implementation of storage.SeenStore.
type SeenStore struct {
	mu  sync.RWMutex
	ids map[string]struct{}
}

// NewSeenStore creates a new in-memory seen-ID store.
func NewSeenStore() *SeenStore {
	return &SeenStore{ids: make(map[string]struct{})}
}

// Contains reports whether the ID was already seen this epoch.
func (s *SeenStore) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ids[id]
	return ok
}

// Add marks an ID as seen and reports whether it was newly added.
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

// Clear wipes the epoch.
func (s *SeenStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = make(map[string]struct{})
}

// Load is a no-op for the in-memory store.
func (s *SeenStore) Load() error { return nil }

// Save is a no-op for the in-memory store.
func (s *SeenStore) Save() error { return nil }

// Verify interface compliance at compile time.
var _ storage.SeenStore = (*SeenStore)(nil)
