package storage

import (
	"context"

	"auction-sniper/internal/domain"
)

// SeenStore holds the current epoch's seen auction IDs. An ID present here is
// never re-delivered until the epoch is cleared.
type SeenStore interface {
	// Contains reports whether the ID was already seen this epoch.
	Contains(id string) bool

	// Add marks an ID as seen and reports whether the ID was newly
	// added. Concurrent adders race for the same ID; exactly one wins.
	Add(id string) bool

	// Len returns the current epoch's set size.
	Len() int

	// Clear wipes the epoch, allowing rediscovery of long-lived listings.
	Clear()

	// Load restores the set from durable storage at startup.
	Load() error

	// Save persists the set at cycle boundaries. Best effort.
	Save() error
}

// StateStore persists the tracker/scheduler learning document.
type StateStore interface {
	// Load reads the persisted state. Returns ErrNotFound on a cold start.
	Load() (*domain.TrackerState, error)

	// Save writes the full state document.
	Save(state *domain.TrackerState) error
}

// RateStore persists the exchange-rate cache across restarts.
type RateStore interface {
	// Load returns (rate, unix timestamp of last refresh).
	// Returns ErrNotFound on a cold cache.
	Load() (float64, int64, error)

	// Save persists the cached rate and its refresh timestamp.
	Save(rate float64, refreshedAt int64) error
}

// ProcessedStore is the durable ledger of auction IDs ever accepted for
// delivery. Unlike SeenStore it survives epoch clears.
type ProcessedStore interface {
	// Exists reports whether the auction ID was ever processed.
	Exists(ctx context.Context, auctionID string) (bool, error)

	// Insert records an auction ID. Returns ErrDuplicateKey if the ID
	// was already recorded.
	Insert(ctx context.Context, auctionID string) error
}

// CycleStatStore is an append-only ledger of per-cycle summary rows.
type CycleStatStore interface {
	// Insert appends one cycle summary.
	Insert(ctx context.Context, stats *domain.CycleStats) error

	// GetRecent returns the most recent rows, newest first.
	GetRecent(ctx context.Context, limit int) ([]*domain.CycleStats, error)
}
