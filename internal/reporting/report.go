package reporting

import (
	"time"

	"signal-replay-lab/internal/domain"
)

// Report is the full artifact of one backtest run.
type Report struct {
	Meta    Meta                  `json:"meta"`
	Summary domain.RunSummary     `json:"summary"`
	Trades  []domain.TradeOutcome `json:"trades"`
}

// Meta identifies a run.
type Meta struct {
	RunID       string    `json:"run_id"`
	Fingerprint string    `json:"fingerprint"`
	GeneratedAt time.Time `json:"generated_at"`
	SignalCount int       `json:"signal_count"`
	// Config is the effective run configuration snapshot.
	Config any `json:"config,omitempty"`
}

// New builds a report. A nil trades slice is stored as empty.
func New(meta Meta, summary domain.RunSummary, trades []domain.TradeOutcome) *Report {
	if trades == nil {
		trades = []domain.TradeOutcome{}
	}
	return &Report{Meta: meta, Summary: summary, Trades: trades}
}
