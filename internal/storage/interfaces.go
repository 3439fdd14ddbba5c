package storage

import (
	"context"

	"signal-replay-lab/internal/domain"
)

// SignalStore provides read-only access to recorded trading signals.
type SignalStore interface {
	// ListRecent returns up to limit openable signals (BUY, SHORT), newest
	// first by (created_at DESC, id DESC). CreatedAt is normalized to UTC.
	ListRecent(ctx context.Context, limit int) ([]domain.Signal, error)

	// Close releases underlying resources.
	Close() error
}

// BarCacheStore persists bar sequences keyed by (symbol, interval, start, end).
// Empty sequences are valid values and must round-trip as empty.
type BarCacheStore interface {
	// Get returns the cached sequence. Returns ErrNotFound on a miss.
	Get(ctx context.Context, key domain.BarKey) ([]domain.Bar, error)

	// Put stores bars under key, replacing any previous value.
	Put(ctx context.Context, key domain.BarKey, bars []domain.Bar) error
}
