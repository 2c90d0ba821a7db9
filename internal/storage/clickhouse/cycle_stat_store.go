package clickhouse

import (
	"context"
	"fmt"

	"auction-sniper/internal/domain"
	"auction-sniper/internal/storage"
)

// CycleStatStore implements storage.CycleStatStore using ClickHouse.
type CycleStatStore struct {
	conn *Conn
}

// NewCycleStatStore creates a new CycleStatStore.
func NewCycleStatStore(conn *Conn) *CycleStatStore {
	return &CycleStatStore{conn: conn}
}

// Compile-time interface check.
var _ storage.CycleStatStore = (*CycleStatStore)(nil)

// Insert appends one cycle summary.
func (s *CycleStatStore) Insert(ctx context.Context, stats *domain.CycleStats) error {
	if stats == nil {
		return storage.ErrInvalidInput
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO cycle_stats (
			cycle, timestamp_ms, searches, found, delivered, errors,
			duration_sec, efficiency, low_volume, seen_set_size, exchange_rate
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	err = batch.Append(
		uint32(stats.Cycle), stats.TimestampMs,
		uint32(stats.Searches), uint32(stats.Found), uint32(stats.Delivered), uint32(stats.Errors),
		stats.DurationSec, stats.Efficiency, stats.LowVolume,
		uint32(stats.SeenSetSize), stats.ExchangeRate,
	)
	if err != nil {
		return fmt.Errorf("append to batch: %w", err)
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetRecent returns the most recent rows, newest first.
func (s *CycleStatStore) GetRecent(ctx context.Context, limit int) ([]*domain.CycleStats, error) {
	query := `
		SELECT cycle, timestamp_ms, searches, found, delivered, errors,
		       duration_sec, efficiency, low_volume, seen_set_size, exchange_rate
		FROM cycle_stats
		ORDER BY timestamp_ms DESC
		LIMIT ?
	`

	rows, err := s.conn.Query(ctx, query, uint64(limit))
	if err != nil {
		return nil, fmt.Errorf("query recent cycle stats: %w", err)
	}
	defer rows.Close()

	var out []*domain.CycleStats
	for rows.Next() {
		var row domain.CycleStats
		var cycle, searches, found, delivered, errCount, seenSize uint32

		err := rows.Scan(
			&cycle, &row.TimestampMs, &searches, &found, &delivered, &errCount,
			&row.DurationSec, &row.Efficiency, &row.LowVolume, &seenSize, &row.ExchangeRate,
		)
		if err != nil {
			return nil, fmt.Errorf("scan cycle stats row: %w", err)
		}

		row.Cycle = int(cycle)
		row.Searches = int(searches)
		row.Found = int(found)
		row.Delivered = int(delivered)
		row.Errors = int(errCount)
		row.SeenSetSize = int(seenSize)
		out = append(out, &row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cycle stats rows: %w", err)
	}

	return out, nil
}
