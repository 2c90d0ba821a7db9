package memory

import (
	"context"
	"sync"

	"auction-sniper/internal/storage"
)

// ProcessedStore is an in-memory implementation of storage.ProcessedStore.
type ProcessedStore struct {
	mu  sync.RWMutex
	ids map[string]struct{}
}

// NewProcessedStore creates a new in-memory processed-ID store.
func NewProcessedStore() *ProcessedStore {
	return &ProcessedStore{ids: make(map[string]struct{})}
}

// Exists reports whether the auction ID was ever processed.
func (s *ProcessedStore) Exists(_ context.Context, auctionID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ids[auctionID]
	return ok, nil
}

// Insert records an auction ID. Returns ErrDuplicateKey if already present.
func (s *ProcessedStore) Insert(_ context.Context, auctionID string) error {
	if auctionID == "" {
		return storage.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[auctionID]; ok {
		return storage.ErrDuplicateKey
	}
	s.ids[auctionID] = struct{}{}
	return nil
}

// Verify interface compliance at compile time.
var _ storage.ProcessedStore = (*ProcessedStore)(nil)
