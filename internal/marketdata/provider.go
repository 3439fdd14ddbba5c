// Package marketdata fetches historical OHLC bars from a Binance-compatible
// klines endpoint.
package marketdata

import (
	"context"
	"errors"
	"time"

	"signal-replay-lab/internal/domain"
)

// Errors returned by providers. Both are treated as transient by the bar cache.
var (
	ErrBadStatus = errors.New("market data: unexpected status")
	ErrMalformed = errors.New("market data: malformed response")
)

// Provider returns one page of bars for a symbol, interval code and range.
// A single call makes a single request; retries are the caller's policy.
type Provider interface {
	FetchBars(ctx context.Context, req BarsRequest) ([]domain.Bar, error)
}

// BarsRequest describes one klines page.
type BarsRequest struct {
	Symbol   string
	Interval string // provider code, e.g. "5m"
	Start    time.Time
	End      time.Time
	Limit    int
}
