// Package redis implements the bar cache on Redis. Each key holds one JSON
// blob without expiry; cached bars are historical and never revalidated.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"signal-replay-lab/internal/domain"
	"signal-replay-lab/internal/storage"
	"signal-replay-lab/internal/timeutil"
)

// DefaultPrefix namespaces cache keys.
const DefaultPrefix = "barcache"

// Config holds connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// BarCacheStore implements storage.BarCacheStore using Redis strings.
type BarCacheStore struct {
	client redis.Cmdable
	closer func() error
	prefix string
}

// Compile-time interface check.
var _ storage.BarCacheStore = (*BarCacheStore)(nil)

// NewBarCacheStore connects to Redis and verifies the connection.
func NewBarCacheStore(ctx context.Context, cfg Config) (*BarCacheStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	s := NewBarCacheStoreWithClient(client, cfg.Prefix)
	s.closer = client.Close
	return s, nil
}

// NewBarCacheStoreWithClient wraps an existing client. The caller owns it.
func NewBarCacheStoreWithClient(client redis.Cmdable, prefix string) *BarCacheStore {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &BarCacheStore{client: client, prefix: prefix}
}

// Get returns the cached bars. Returns ErrNotFound on a miss.
func (s *BarCacheStore) Get(ctx context.Context, key domain.BarKey) ([]domain.Bar, error) {
	data, err := s.client.Get(ctx, s.wrapKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return decodeBars(data)
}

// Put stores bars under key without expiry.
func (s *BarCacheStore) Put(ctx context.Context, key domain.BarKey, bars []domain.Bar) error {
	if key.Symbol == "" || key.Interval == "" {
		return storage.ErrInvalidInput
	}

	data, err := encodeBars(bars)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.wrapKey(key), data, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Close closes the client if this store opened it.
func (s *BarCacheStore) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}

func (s *BarCacheStore) wrapKey(key domain.BarKey) string {
	return fmt.Sprintf("%s:%s", s.prefix, key.String())
}

// barRecord is the compact wire form of one bar.
type barRecord struct {
	OpenTime  int64   `json:"t"`
	Open      float64 `json:"o"`
	High      float64 `json:"h"`
	Low       float64 `json:"l"`
	Close     float64 `json:"c"`
	Volume    float64 `json:"v"`
	CloseTime int64   `json:"ct"`
}

func encodeBars(bars []domain.Bar) ([]byte, error) {
	records := make([]barRecord, len(bars))
	for i, b := range bars {
		records[i] = barRecord{
			OpenTime:  timeutil.ToMillis(b.OpenTime),
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    b.Volume,
			CloseTime: timeutil.ToMillis(b.CloseTime),
		}
	}
	data, err := sonic.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("encode bars: %w", err)
	}
	return data, nil
}

func decodeBars(data []byte) ([]domain.Bar, error) {
	var records []barRecord
	if err := sonic.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode bars: %w", err)
	}
	bars := make([]domain.Bar, len(records))
	for i, r := range records {
		bars[i] = domain.Bar{
			OpenTime:  timeutil.FromMillis(r.OpenTime),
			Open:      r.Open,
			High:      r.High,
			Low:       r.Low,
			Close:     r.Close,
			Volume:    r.Volume,
			CloseTime: timeutil.FromMillis(r.CloseTime),
		}
	}
	return bars, nil
}
