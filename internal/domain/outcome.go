package domain

import "time"

// Side is the simulated position direction.
type Side string

// Side values.
const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
	SideSkip  Side = "SKIP"
)

// ExitReason is how a simulated trade closed.
type ExitReason string

// Exit reason codes.
const (
	ExitReasonTP      ExitReason = "TP"
	ExitReasonSL      ExitReason = "SL"
	ExitReasonTimeout ExitReason = "TIMEOUT"
	ExitReasonSkip    ExitReason = "SKIP"
)

// OutcomeKind tags a TradeOutcome as simulated or skipped.
type OutcomeKind string

// Outcome kinds.
const (
	OutcomeSimulated OutcomeKind = "SIMULATED"
	OutcomeSkipped   OutcomeKind = "SKIPPED"
)

// SkipReason classifies why a signal produced no simulated trade.
type SkipReason string

// Skip reasons. SkipReasonNone is set on every simulated outcome.
const (
	SkipReasonNone         SkipReason = "NONE"
	SkipReasonNoBars       SkipReason = "NO_BARS"
	SkipReasonFetchFailed  SkipReason = "FETCH_FAILED"
	SkipReasonInvalidEntry SkipReason = "INVALID_ENTRY"
)

// SkipReasons lists every non-empty skip reason in report order.
var SkipReasons = []SkipReason{SkipReasonNoBars, SkipReasonFetchFailed, SkipReasonInvalidEntry}

// TradeOutcome is the result of replaying one signal.
// Built exactly once per signal and never mutated afterwards.
type TradeOutcome struct {
	SignalID        int64     `json:"signal_id"`
	Symbol          string    `json:"symbol"`
	Side            Side      `json:"side"`
	Confidence      float64   `json:"confidence"`
	SignalCreatedAt time.Time `json:"signal_created_at"`

	// Entry
	EntryTime       time.Time `json:"entry_time"`
	EntryPrice      float64   `json:"entry_price"`
	TakeProfitPct   float64   `json:"tp_pct"`
	StopLossPct     float64   `json:"sl_pct"`
	TakeProfitPrice float64   `json:"tp_price"` // 0 when unreachable
	StopLossPrice   float64   `json:"sl_price"` // 0 when unreachable

	// Exit
	ExitReason      ExitReason `json:"exit_reason"`
	ExitPrice       float64    `json:"exit_price"`
	ExitTime        time.Time  `json:"exit_time"`
	DurationMinutes int64      `json:"duration_min"`

	// Returns, in percent
	GrossPnlPct float64 `json:"gross_pnl_pct"`
	NetPnlPct   float64 `json:"net_pnl_pct"`
	FeeBps      float64 `json:"fee_bps"`
	SlippageBps float64 `json:"slippage_bps"`

	BothHitSameCandle bool `json:"both_hit_same_candle"`
	BarsEvaluated     int  `json:"bars_evaluated"`

	Kind       OutcomeKind `json:"kind"`
	SkipReason SkipReason  `json:"skip_reason"`
	Note       string      `json:"notes,omitempty"`
}

// Simulated reports whether the outcome went through the bar walk.
func (o TradeOutcome) Simulated() bool {
	return o.Kind == OutcomeSimulated
}

// Win reports whether the outcome is a simulated trade with positive net return.
func (o TradeOutcome) Win() bool {
	return o.Simulated() && o.NetPnlPct > 0
}
