package memory

import (
	"context"
	"sync"

	"signal-replay-lab/internal/domain"
	"signal-replay-lab/internal/storage"
)

// BarCacheStore is an in-memory implementation of storage.BarCacheStore.
type BarCacheStore struct {
	mu   sync.RWMutex
	data map[domain.BarKey][]domain.Bar

	gets int
	puts int
}

// NewBarCacheStore creates a new in-memory bar cache.
func NewBarCacheStore() *BarCacheStore {
	return &BarCacheStore{
		data: make(map[domain.BarKey][]domain.Bar),
	}
}

// Get returns a copy of the cached sequence. Returns ErrNotFound on a miss.
func (s *BarCacheStore) Get(_ context.Context, key domain.BarKey) ([]domain.Bar, error) {
	s.mu.Lock()
	s.gets++
	bars, exists := s.data[key]
	s.mu.Unlock()

	if !exists {
		return nil, storage.ErrNotFound
	}

	out := make([]domain.Bar, len(bars))
	copy(out, bars)
	return out, nil
}

// Put stores a copy of bars under key. A nil slice is stored as empty.
func (s *BarCacheStore) Put(_ context.Context, key domain.BarKey, bars []domain.Bar) error {
	if key.Symbol == "" || key.Interval == "" {
		return storage.ErrInvalidInput
	}

	stored := make([]domain.Bar, len(bars))
	copy(stored, bars)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.puts++
	s.data[key] = stored
	return nil
}

// Len returns the number of cached keys.
func (s *BarCacheStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Stats returns the number of Get and Put calls served.
func (s *BarCacheStore) Stats() (gets, puts int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gets, s.puts
}

var _ storage.BarCacheStore = (*BarCacheStore)(nil)
