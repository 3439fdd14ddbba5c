package parquetfs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signal-replay-lab/internal/domain"
	"signal-replay-lab/internal/storage"
)

func makeBars(start time.Time, n int) []domain.Bar {
	bars := make([]domain.Bar, n)
	for i := range bars {
		open := start.Add(time.Duration(i) * time.Hour)
		bars[i] = domain.Bar{
			OpenTime:  open,
			Open:      50 + float64(i),
			High:      51 + float64(i),
			Low:       49 + float64(i),
			Close:     50.5 + float64(i),
			Volume:    float64(100 * (i + 1)),
			CloseTime: open.Add(time.Hour - time.Millisecond),
		}
	}
	return bars
}

func TestBarCacheStore_PutAndGet(t *testing.T) {
	store := NewBarCacheStore(t.TempDir())
	ctx := context.Background()

	start := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	key := domain.BarKey{Symbol: "BTCUSDT", Interval: "1h", StartMs: start.UnixMilli(), EndMs: start.Add(24 * time.Hour).UnixMilli()}

	_, err := store.Get(ctx, key)
	require.ErrorIs(t, err, storage.ErrNotFound)

	bars := makeBars(start, 24)
	require.NoError(t, store.Put(ctx, key, bars))

	got, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, bars, got)
}

func TestBarCacheStore_Layout(t *testing.T) {
	dir := t.TempDir()
	store := NewBarCacheStore(dir)

	key := domain.BarKey{Symbol: "ethusdt", Interval: "5m", StartMs: 1000, EndMs: 2000}
	require.NoError(t, store.Put(context.Background(), key, nil))

	_, err := os.Stat(filepath.Join(dir, "ETHUSDT", "5m", "1000_2000.parquet"))
	assert.NoError(t, err)

	entries, err := os.ReadDir(filepath.Join(dir, "ETHUSDT", "5m"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestBarCacheStore_EmptySequence(t *testing.T) {
	store := NewBarCacheStore(t.TempDir())
	ctx := context.Background()
	key := domain.BarKey{Symbol: "DELISTEDUSDT", Interval: "1m", StartMs: 0, EndMs: 60000}

	require.NoError(t, store.Put(ctx, key, []domain.Bar{}))

	got, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestBarCacheStore_Overwrite(t *testing.T) {
	store := NewBarCacheStore(t.TempDir())
	ctx := context.Background()

	start := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	key := domain.BarKey{Symbol: "SOLUSDT", Interval: "1h", StartMs: 1, EndMs: 2}

	require.NoError(t, store.Put(ctx, key, makeBars(start, 5)))
	require.NoError(t, store.Put(ctx, key, makeBars(start, 2)))

	got, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestBarCacheStore_ConcurrentDistinctKeys(t *testing.T) {
	store := NewBarCacheStore(t.TempDir())
	ctx := context.Background()
	start := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	errs := make([]error, 16)
	for i := 0; i < len(errs); i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := domain.BarKey{Symbol: fmt.Sprintf("S%dUSDT", i), Interval: "1h", StartMs: int64(i), EndMs: int64(i) + 1}
			errs[i] = store.Put(ctx, key, makeBars(start, i))
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err)
		key := domain.BarKey{Symbol: fmt.Sprintf("S%dUSDT", i), Interval: "1h", StartMs: int64(i), EndMs: int64(i) + 1}
		got, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.Len(t, got, i)
	}
}

func TestSafeSegment(t *testing.T) {
	assert.Equal(t, "BTC_USDT", safeSegment("BTC/USDT"))
	assert.Equal(t, "__", safeSegment(".."))
	assert.Equal(t, "5m", safeSegment("5m"))
}
