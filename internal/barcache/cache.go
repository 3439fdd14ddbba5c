// Package barcache serves historical bars from a durable cache, fetching and
// writing through on a miss.
package barcache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"signal-replay-lab/internal/domain"
	"signal-replay-lab/internal/marketdata"
	"signal-replay-lab/internal/observability"
	"signal-replay-lab/internal/retry"
	"signal-replay-lab/internal/storage"
	"signal-replay-lab/internal/timeutil"
)

// ErrFetchFailed wraps the last provider error once the retry policy is exhausted.
var ErrFetchFailed = errors.New("bar fetch failed")

// Cache implements read-through, write-through bar retrieval.
// Safe for concurrent use with distinct keys.
type Cache struct {
	store     storage.BarCacheStore
	provider  marketdata.Provider
	policy    retry.Policy
	pageLimit int
	logger    zerolog.Logger
	metrics   *observability.Metrics
}

// Option configures Cache.
type Option func(*Cache)

// WithPolicy sets the retry policy for provider calls.
func WithPolicy(p retry.Policy) Option {
	return func(c *Cache) {
		c.policy = p
	}
}

// WithPageLimit sets the provider page size.
func WithPageLimit(n int) Option {
	return func(c *Cache) {
		c.pageLimit = n
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Cache) {
		c.logger = l
	}
}

// WithMetrics enables metrics recording.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Cache) {
		c.metrics = m
	}
}

// New creates a Cache over store and provider.
func New(store storage.BarCacheStore, provider marketdata.Provider, opts ...Option) *Cache {
	c := &Cache{
		store:     store,
		provider:  provider,
		policy:    retry.Default(),
		pageLimit: marketdata.DefaultPageLimit,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetBars returns bars for symbol at interval with open time in [start, end].
// A cached entry is returned verbatim. On a miss the provider is called under
// the retry policy and the result, including an empty one, is written back.
func (c *Cache) GetBars(ctx context.Context, symbol string, interval time.Duration, start, end time.Time) ([]domain.Bar, error) {
	code, err := timeutil.ProviderCode(interval)
	if err != nil {
		return nil, err
	}

	key := domain.BarKey{
		Symbol:   symbol,
		Interval: code,
		StartMs:  timeutil.ToMillis(start),
		EndMs:    timeutil.ToMillis(end),
	}
	log := c.logger.With().Str("key", key.String()).Logger()

	bars, err := c.store.Get(ctx, key)
	switch {
	case err == nil:
		c.metrics.RecordCacheLookup(observability.CacheHit)
		log.Debug().Int("bars", len(bars)).Msg("bar cache hit")
		return bars, nil
	case errors.Is(err, storage.ErrNotFound):
		c.metrics.RecordCacheLookup(observability.CacheMiss)
	default:
		c.metrics.RecordCacheLookup(observability.CacheError)
		log.Warn().Err(err).Msg("bar cache read failed, treating as miss")
	}

	bars, err = c.fetch(ctx, key, start, end, log)
	if err != nil {
		return nil, err
	}

	if err := c.store.Put(ctx, key, bars); err != nil {
		c.metrics.RecordCacheWriteError()
		log.Warn().Err(err).Msg("bar cache write failed")
	}

	return bars, nil
}

func (c *Cache) fetch(ctx context.Context, key domain.BarKey, start, end time.Time, log zerolog.Logger) ([]domain.Bar, error) {
	req := marketdata.BarsRequest{
		Symbol:   key.Symbol,
		Interval: key.Interval,
		Start:    start,
		End:      end,
		Limit:    c.pageLimit,
	}

	var bars []domain.Bar
	err := c.policy.Do(ctx, func(attempt int) error {
		began := time.Now()
		got, err := c.provider.FetchBars(ctx, req)
		c.metrics.RecordFetch(time.Since(began).Seconds(), err)
		if err != nil {
			log.Warn().Err(err).Int("attempt", attempt).Msg("bar fetch attempt failed")
			return err
		}
		bars = got
		return nil
	})
	if err != nil {
		c.metrics.RecordFetchFailure()
		return nil, fmt.Errorf("%w: %s: %w", ErrFetchFailed, key, err)
	}

	if bars == nil {
		bars = []domain.Bar{}
	}
	log.Debug().Int("bars", len(bars)).Msg("bars fetched")
	return bars, nil
}
