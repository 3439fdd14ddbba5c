package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"signal-replay-lab/internal/domain"
	"signal-replay-lab/internal/storage"
)

// DefaultTable is the signal table read when none is configured.
const DefaultTable = "signals"

// SignalStore implements storage.SignalStore using PostgreSQL.
type SignalStore struct {
	pool  *Pool
	table string
}

// NewSignalStore creates a new SignalStore reading from table.
func NewSignalStore(pool *Pool, table string) (*SignalStore, error) {
	if table == "" {
		table = DefaultTable
	}
	if err := storage.ValidateTableName(table); err != nil {
		return nil, err
	}
	return &SignalStore{pool: pool, table: table}, nil
}

// Compile-time interface check.
var _ storage.SignalStore = (*SignalStore)(nil)

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
		LIMIT $1
	`, s.table)

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query signals: %w", err)
	}
	defer rows.Close()

	var signals []domain.Signal
	for rows.Next() {
		var (
			sig                  domain.Signal
			action               string
			confidence, price    *float64
			stopLoss, takeProfit *float64
			createdAt            time.Time
		)
		if err := rows.Scan(&sig.ID, &sig.Symbol, &action, &confidence, &price, &stopLoss, &takeProfit, &createdAt); err != nil {
			return nil, fmt.Errorf("scan signal row: %w", err)
		}

		sig.Symbol = strings.ToUpper(strings.TrimSpace(sig.Symbol))
		sig.Action = domain.Action(strings.ToUpper(strings.TrimSpace(action)))
		sig.Confidence = deref(confidence)
		sig.ReferencePrice = deref(price)
		sig.StopLossPct = deref(stopLoss)
		sig.TakeProfitPct = deref(takeProfit)
		sig.CreatedAt = createdAt.UTC()
		signals = append(signals, sig)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate signal rows: %w", err)
	}

	return signals, nil
}

// Close closes the pool.
func (s *SignalStore) Close() error {
	s.pool.Close()
	return nil
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
