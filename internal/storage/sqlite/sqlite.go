// Package sqlite reads recorded signals from a SQLite database file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"signal-replay-lab/internal/domain"
	"signal-replay-lab/internal/storage"
)

// DefaultTable is the signal table read when none is configured.
const DefaultTable = "signals"

// SignalStore implements storage.SignalStore backed by a SQLite file.
type SignalStore struct {
	db    *sql.DB
	table string
}

// Compile-time interface check.
var _ storage.SignalStore = (*SignalStore)(nil)

// Open opens an existing SQLite database at path. A missing file is reported
// as storage.ErrStoreMissing rather than silently creating an empty database.
func Open(path, table string) (*SignalStore, error) {
	if table == "" {
		table = DefaultTable
	}
	if err := storage.ValidateTableName(table); err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: sqlite file %s", storage.ErrStoreMissing, path)
		}
		return nil, fmt.Errorf("stat sqlite file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", storage.ErrStoreMissing, path)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return &SignalStore{db: db, table: table}, nil
}

// Close closes the underlying database connection.
func (s *SignalStore) Close() error {
	return s.db.Close()
}

// ListRecent returns up to limit BUY/SHORT signals, newest first.
func (s *SignalStore) ListRecent(ctx context.Context, limit int) ([]domain.Signal, error) {
	if limit < 0 {
		return nil, storage.ErrInvalidInput
	}

	query := fmt.Sprintf(`
		SELECT id, symbol, action, confidence, price, stop_loss_pct, take_profit_pct, created_at
		FROM %s
		WHERE upper(action) IN ('BUY', 'SHORT')
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, s.table)

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query signals: %w", err)
	}
	defer rows.Close()

	var signals []domain.Signal
	for rows.Next() {
		var (
			sig                  domain.Signal
			action               string
			confidence, price    sql.NullFloat64
			stopLoss, takeProfit sql.NullFloat64
			createdAt            any
		)
		if err := rows.Scan(&sig.ID, &sig.Symbol, &action, &confidence, &price, &stopLoss, &takeProfit, &createdAt); err != nil {
			return nil, fmt.Errorf("scan signal row: %w", err)
		}

		ts, err := parseTimestamp(createdAt)
		if err != nil {
			return nil, fmt.Errorf("signal %d created_at: %w", sig.ID, err)
		}

		sig.Symbol = strings.ToUpper(strings.TrimSpace(sig.Symbol))
		sig.Action = domain.Action(strings.ToUpper(strings.TrimSpace(action)))
		sig.Confidence = confidence.Float64
		sig.ReferencePrice = price.Float64
		sig.StopLossPct = stopLoss.Float64
		sig.TakeProfitPct = takeProfit.Float64
		sig.CreatedAt = ts
		signals = append(signals, sig)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate signal rows: %w", err)
	}

	return signals, nil
}

// Accepted text layouts for created_at. Layouts without a zone are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
}

// parseTimestamp converts a driver value into a UTC time. Integers are unix
// seconds, or milliseconds when the magnitude says so.
func parseTimestamp(v any) (time.Time, error) {
	switch x := v.(type) {
	case time.Time:
		return x.UTC(), nil
	case int64:
		return fromEpoch(x), nil
	case float64:
		return fromEpoch(int64(x)), nil
	case []byte:
		return parseTimestampString(string(x))
	case string:
		return parseTimestampString(x)
	case nil:
		return time.Time{}, errors.New("null timestamp")
	default:
		return time.Time{}, fmt.Errorf("unsupported timestamp type %T", v)
	}
}

func parseTimestampString(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return fromEpoch(n), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func fromEpoch(n int64) time.Time {
	if n > 1e12 || n < -1e12 {
		return time.UnixMilli(n).UTC()
	}
	return time.Unix(n, 0).UTC()
}
