package file

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"auction-sniper/internal/storage"
)

type rateDocument struct {
	Rate        float64 `json:"rate"`
	RefreshedAt int64   `json:"refreshed_at"`
}

// RateStore is a file-backed implementation of storage.RateStore.
type RateStore struct {
	mu   sync.Mutex
	path string
}

// NewRateStore creates an exchange-rate cache backed by the given file path.
func NewRateStore(path string) *RateStore {
	return &RateStore{path: path}
}

// Load returns the cached rate and its refresh timestamp. Returns
// ErrNotFound if the file does not exist yet.
func (s *RateStore) Load() (float64, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, 0, storage.ErrNotFound
		}
		return 0, 0, fmt.Errorf("read rate file: %w", err)
	}

	var doc rateDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return 0, 0, fmt.Errorf("parse rate file: %w", err)
	}
	if doc.Rate <= 0 {
		return 0, 0, storage.ErrNotFound
	}
	return doc.Rate, doc.RefreshedAt, nil
}

// Save persists the cached rate and its refresh timestamp.
func (s *RateStore) Save(rate float64, refreshedAt int64) error {
	if rate <= 0 {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(rateDocument{Rate: rate, RefreshedAt: refreshedAt})
	if err != nil {
		return fmt.Errorf("marshal rate: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create rate dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("write rate file: %w", err)
	}
	return nil
}

// Verify interface compliance at compile time.
var _ storage.RateStore = (*RateStore)(nil)
