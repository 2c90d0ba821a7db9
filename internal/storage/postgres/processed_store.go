package postgres

import (
	"context"
	"fmt"

	"auction-sniper/internal/storage"
)

// ProcessedStore implements storage.ProcessedStore using PostgreSQL.
// Rows are never deleted; the table is the permanent record of every
// auction ever accepted for delivery.
type ProcessedStore struct {
	pool *Pool
}

// NewProcessedStore creates a new ProcessedStore.
func NewProcessedStore(pool *Pool) *ProcessedStore {
	return &ProcessedStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ProcessedStore = (*ProcessedStore)(nil)

// Exists reports whether the auction ID was ever processed.
func (s *ProcessedStore) Exists(ctx context.Context, auctionID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM processed_listings WHERE auction_id = $1)`

	var exists bool
	if err := s.pool.QueryRow(ctx, query, auctionID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check processed listing: %w", err)
	}
	return exists, nil
}

// Insert records an auction ID. Returns ErrDuplicateKey if already recorded.
func (s *ProcessedStore) Insert(ctx context.Context, auctionID string) error {
	if auctionID == "" {
		return storage.ErrInvalidInput
	}

	query := `INSERT INTO processed_listings (auction_id) VALUES ($1)`

	if _, err := s.pool.Exec(ctx, query, auctionID); err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert processed listing: %w", err)
	}
	return nil
}

// Count returns the total number of processed listings.
func (s *ProcessedStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM processed_listings`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count processed listings: %w", err)
	}
	return n, nil
}
