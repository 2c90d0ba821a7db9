package memory

import (
	"encoding/json"
	"sync"

	"auction-sniper/internal/domain"
	"auction-sniper/internal/storage"
)

// StateStore is an in-memory implementation of storage.StateStore.
// It round-trips through JSON so tests exercise the same serialization
// behavior as the file-backed store.
type StateStore struct {
	mu   sync.Mutex
	data []byte
}

// NewStateStore creates a new in-memory state store.
func NewStateStore() *StateStore {
	return &StateStore{}
}

// Load reads the persisted state. Returns ErrNotFound on a cold start.
func (s *StateStore) Load() (*domain.TrackerState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		return nil, storage.ErrNotFound
	}

	state := domain.NewTrackerState()
	if err := json.Unmarshal(s.data, state); err != nil {
		return nil, err
	}
	return state, nil
}

// Save writes the full state document.
func (s *StateStore) Save(state *domain.TrackerState) error {
	if state == nil {
		return storage.ErrInvalidInput
	}

	data, err := json.Marshal(state)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = data
	return nil
}

// Verify interface compliance at compile time.
var _ storage.StateStore = (*StateStore)(nil)
