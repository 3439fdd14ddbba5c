// Package parquetfs implements the bar cache as one Parquet file per key.
package parquetfs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/parquet-go/parquet-go"

	"signal-replay-lab/internal/domain"
	"signal-replay-lab/internal/storage"
	"signal-replay-lab/internal/timeutil"
)

// BarRecord is the Parquet schema for one cached bar.
type BarRecord struct {
	OpenTime  int64   `parquet:"open_time,timestamp(millisecond)"` // Unix ms
	Open      float64 `parquet:"open"`
	High      float64 `parquet:"high"`
	Low       float64 `parquet:"low"`
	Close     float64 `parquet:"close"`
	Volume    float64 `parquet:"volume"`
	CloseTime int64   `parquet:"close_time,timestamp(millisecond)"` // Unix ms
}

// BarCacheStore implements storage.BarCacheStore on the local filesystem.
type BarCacheStore struct {
	Dir string
}

// Compile-time interface check.
var _ storage.BarCacheStore = (*BarCacheStore)(nil)

// NewBarCacheStore creates a store rooted at dir. The directory is created on
// first write.
func NewBarCacheStore(dir string) *BarCacheStore {
	return &BarCacheStore{Dir: dir}
}

// Get reads the file for key. Returns ErrNotFound if it does not exist.
func (s *BarCacheStore) Get(_ context.Context, key domain.BarKey) ([]domain.Bar, error) {
	path := s.path(key)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	records, err := parquet.ReadFile[BarRecord](path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
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

// Put writes bars to a temp file in the target directory and renames it into
// place, so readers never observe a partial file.
func (s *BarCacheStore) Put(_ context.Context, key domain.BarKey, bars []domain.Bar) error {
	if key.Symbol == "" || key.Interval == "" {
		return storage.ErrInvalidInput
	}

	records := make([]BarRecord, len(bars))
	for i, b := range bars {
		records[i] = BarRecord{
			OpenTime:  timeutil.ToMillis(b.OpenTime),
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    b.Volume,
			CloseTime: timeutil.ToMillis(b.CloseTime),
		}
	}

	path := s.path(key)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*.parquet")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if err := parquet.Write(tmp, records); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write parquet: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename cache file: %w", err)
	}
	return nil
}

// path returns the file for key.
// Layout: <dir>/<SYMBOL>/<interval>/<startMs>_<endMs>.parquet
func (s *BarCacheStore) path(key domain.BarKey) string {
	name := strconv.FormatInt(key.StartMs, 10) + "_" + strconv.FormatInt(key.EndMs, 10) + ".parquet"
	return filepath.Join(s.Dir, safeSegment(strings.ToUpper(key.Symbol)), safeSegment(key.Interval), name)
}

// safeSegment replaces characters that are unsafe in a single path element.
func safeSegment(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}
