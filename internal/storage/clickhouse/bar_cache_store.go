package clickhouse

import (
	"context"
	"fmt"
	"time"

	"signal-replay-lab/internal/domain"
	"signal-replay-lab/internal/storage"
	"signal-replay-lab/internal/timeutil"
)

// BarCacheStore implements storage.BarCacheStore using two ReplacingMergeTree
// tables: bar_cache holds the bars, bar_cache_keys marks which keys exist so
// that empty sequences can be cached.
type BarCacheStore struct {
	conn *Conn
	now  func() time.Time
}

// NewBarCacheStore creates a new BarCacheStore.
func NewBarCacheStore(conn *Conn) *BarCacheStore {
	return &BarCacheStore{conn: conn, now: time.Now}
}

// Compile-time interface check.
var _ storage.BarCacheStore = (*BarCacheStore)(nil)

// Get returns the cached bars ordered by open time. Returns ErrNotFound when
// no marker row exists for key.
func (s *BarCacheStore) Get(ctx context.Context, key domain.BarKey) ([]domain.Bar, error) {
	var (
		count   uint32
		version uint64
	)
	err := s.conn.QueryRow(ctx, `
		SELECT bar_count, version
		FROM bar_cache_keys FINAL
		WHERE symbol = ? AND interval_code = ? AND start_ms = ? AND end_ms = ?
	`, key.Symbol, key.Interval, key.StartMs, key.EndMs).Scan(&count, &version)
	if err != nil {
		if isNoRows(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("query bar cache key: %w", err)
	}

	if count == 0 {
		return []domain.Bar{}, nil
	}

	rows, err := s.conn.Query(ctx, `
		SELECT open_time_ms, open, high, low, close, volume, close_time_ms
		FROM bar_cache FINAL
		WHERE symbol = ? AND interval_code = ? AND start_ms = ? AND end_ms = ? AND version = ?
		ORDER BY open_time_ms ASC
	`, key.Symbol, key.Interval, key.StartMs, key.EndMs, version)
	if err != nil {
		return nil, fmt.Errorf("query bar cache: %w", err)
	}
	defer rows.Close()

	bars := make([]domain.Bar, 0, count)
	for rows.Next() {
		var (
			b               domain.Bar
			openMs, closeMs int64
		)
		if err := rows.Scan(&openMs, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume, &closeMs); err != nil {
			return nil, fmt.Errorf("scan bar row: %w", err)
		}
		b.OpenTime = timeutil.FromMillis(openMs)
		b.CloseTime = timeutil.FromMillis(closeMs)
		bars = append(bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bar rows: %w", err)
	}

	// A marker without its bars means a partial write; treat as a miss.
	if len(bars) != int(count) {
		return nil, storage.ErrNotFound
	}
	return bars, nil
}

// Put writes bars then the key marker. The marker is written last so a
// failed bar batch is never visible as a hit.
func (s *BarCacheStore) Put(ctx context.Context, key domain.BarKey, bars []domain.Bar) error {
	if key.Symbol == "" || key.Interval == "" {
		return storage.ErrInvalidInput
	}

	version := uint64(s.now().UnixNano())

	if len(bars) > 0 {
		batch, err := s.conn.PrepareBatch(ctx, `
			INSERT INTO bar_cache (
				symbol, interval_code, start_ms, end_ms, open_time_ms,
				open, high, low, close, volume, close_time_ms, version
			)
		`)
		if err != nil {
			return fmt.Errorf("prepare batch: %w", err)
		}

		for _, b := range bars {
			err = batch.Append(
				key.Symbol, key.Interval, key.StartMs, key.EndMs, timeutil.ToMillis(b.OpenTime),
				b.Open, b.High, b.Low, b.Close, b.Volume, timeutil.ToMillis(b.CloseTime), version,
			)
			if err != nil {
				return fmt.Errorf("append to batch: %w", err)
			}
		}

		if err := batch.Send(); err != nil {
			return fmt.Errorf("send batch: %w", err)
		}
	}

	err := s.conn.Exec(ctx, `
		INSERT INTO bar_cache_keys (symbol, interval_code, start_ms, end_ms, bar_count, version)
		VALUES (?, ?, ?, ?, ?, ?)
	`, key.Symbol, key.Interval, key.StartMs, key.EndMs, uint32(len(bars)), version)
	if err != nil {
		return fmt.Errorf("insert bar cache key: %w", err)
	}

	return nil
}
