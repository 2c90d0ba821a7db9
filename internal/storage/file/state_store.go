package file

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"auction-sniper/internal/domain"
	"auction-sniper/internal/storage"
)

// StateStore is a file-backed implementation of storage.StateStore.
// The tracker state is written as indented JSON so it stays inspectable.
type StateStore struct {
	mu   sync.Mutex
	path string
}

// NewStateStore creates a tracker-state store backed by the given file path.
func NewStateStore(path string) *StateStore {
	return &StateStore{path: path}
}

// Load reads the persisted state. Returns ErrNotFound if the file does
// not exist yet.
func (s *StateStore) Load() (*domain.TrackerState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("read state file: %w", err)
	}

	state := domain.NewTrackerState()
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("parse state file: %w", err)
	}

	// Guard against hand-edited files missing map fields.
	if state.Keywords == nil {
		state.Keywords = make(map[string]*domain.KeywordStat)
	}
	if state.Brands == nil {
		state.Brands = make(map[string]*domain.BrandPerformance)
	}
	if state.TierOverrides == nil {
		state.TierOverrides = make(map[string]domain.Tier)
	}
	return state, nil
}

// Save writes the full state document.
func (s *StateStore) Save(state *domain.TrackerState) error {
	if state == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	return nil
}

// Verify interface compliance at compile time.
var _ storage.StateStore = (*StateStore)(nil)
