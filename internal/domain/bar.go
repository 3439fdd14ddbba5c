package domain

import (
	"fmt"
	"time"
)

// Bar is one OHLC candle returned by the market-data provider.
// Sequences are ordered by OpenTime ascending and never overlap.
type Bar struct {
	OpenTime  time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	CloseTime time.Time
}

// BarKey identifies one cached bar sequence.
// The tuple is used verbatim: two requests share an entry only if all four fields match.
type BarKey struct {
	Symbol   string
	Interval string // provider interval code, e.g. "5m"
	StartMs  int64
	EndMs    int64
}

// String renders the canonical composite key.
func (k BarKey) String() string {
	return fmt.Sprintf("%s|%s|%d|%d", k.Symbol, k.Interval, k.StartMs, k.EndMs)
}
