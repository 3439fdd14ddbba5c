package memory

import (
	"context"
	"sort"
	"sync"

	"signal-replay-lab/internal/domain"
	"signal-replay-lab/internal/storage"
)

// SignalStore is an in-memory implementation of storage.SignalStore.
type SignalStore struct {
	mu      sync.RWMutex
	signals []domain.Signal
}

// NewSignalStore creates a new in-memory signal store seeded with signals.
func NewSignalStore(signals ...domain.Signal) *SignalStore {
	s := &SignalStore{}
	s.Add(signals...)
	return s
}

// Add appends signals. Stored values are copies.
func (s *SignalStore) Add(signals ...domain.Signal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sig := range signals {
		sig.CreatedAt = sig.CreatedAt.UTC()
		s.signals = append(s.signals, sig)
	}
}

// ListRecent returns up to limit openable signals ordered by (created_at DESC, id DESC).
func (s *SignalStore) ListRecent(_ context.Context, limit int) ([]domain.Signal, error) {
	if limit < 0 {
		return nil, storage.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Signal, 0, len(s.signals))
	for _, sig := range s.signals {
		if sig.Action.Openable() {
			result = append(result, sig)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})

	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// Close is a no-op.
func (s *SignalStore) Close() error {
	return nil
}

var _ storage.SignalStore = (*SignalStore)(nil)
