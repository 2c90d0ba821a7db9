package memory

import (
	"context"
	"sort"
	"sync"

	"auction-sniper/internal/domain"
	"auction-sniper/internal/storage"
)

// CycleStatStore is an in-memory implementation of storage.CycleStatStore.
type CycleStatStore struct {
	mu   sync.RWMutex
	rows []*domain.CycleStats
}

// NewCycleStatStore creates a new in-memory cycle statistics store.
func NewCycleStatStore() *CycleStatStore {
	return &CycleStatStore{}
}

// Insert appends one cycle summary.
func (s *CycleStatStore) Insert(_ context.Context, stats *domain.CycleStats) error {
	if stats == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Store a copy to prevent external mutation
	row := *stats
	s.rows = append(s.rows, &row)
	return nil
}

// GetRecent returns the most recent rows, newest first.
func (s *CycleStatStore) GetRecent(_ context.Context, limit int) ([]*domain.CycleStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.CycleStats, 0, len(s.rows))
	for _, row := range s.rows {
		rowCopy := *row
		result = append(result, &rowCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].TimestampMs > result[j].TimestampMs
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.CycleStatStore = (*CycleStatStore)(nil)
