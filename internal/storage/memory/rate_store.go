package memory

import (
	"sync"

	"auction-sniper/internal/storage"
)

// RateStore is an in-memory implementation of storage.RateStore.
type RateStore struct {
	mu          sync.Mutex
	rate        float64
	refreshedAt int64
	set         bool
}

// NewRateStore creates a new in-memory rate store.
func NewRateStore() *RateStore {
	return &RateStore{}
}

// Load returns the cached rate. Returns ErrNotFound on a cold cache.
func (s *RateStore) Load() (float64, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.set {
		return 0, 0, storage.ErrNotFound
	}
	return s.rate, s.refreshedAt, nil
}

// Save persists the cached rate.
func (s *RateStore) Save(rate float64, refreshedAt int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rate = rate
	s.refreshedAt = refreshedAt
	s.set = true
	return nil
}

// Verify interface compliance at compile time.
var _ storage.RateStore = (*RateStore)(nil)
