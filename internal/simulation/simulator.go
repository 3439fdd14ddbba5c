// Package simulation replays a signal against historical bars and decides
// whether take-profit or stop-loss was reached first.
package simulation

import (
	"fmt"
	"math"
	"time"

	"signal-replay-lab/internal/domain"
	"signal-replay-lab/internal/lookup"
)

// Simulator is a pure trade simulator configured with trading costs.
type Simulator struct {
	FeeBps   float64
	Slippage SlippageModel
}

// New creates a Simulator.
func New(feeBps float64, slippage SlippageModel) *Simulator {
	return &Simulator{FeeBps: feeBps, Slippage: slippage}
}

// RoundTripCostPct is the percent charged for one entry and one exit.
func RoundTripCostPct(feeBps, slippageBps float64) float64 {
	return 2 * (feeBps + slippageBps) / 100
}

// Simulate walks bars from entryBoundary to windowEnd and returns exactly one
// outcome. It never fails; unusable inputs produce a SKIP outcome.
//
// When one bar touches both thresholds the exit is SL and
// BothHitSameCandle is set, since the intrabar order is unknown.
func (s *Simulator) Simulate(sig domain.Signal, bars []domain.Bar, entryBoundary, windowEnd time.Time) domain.TradeOutcome {
	if len(bars) == 0 {
		if sig.ReferencePrice > 0 {
			out := SkipOutcome(sig, domain.SkipReasonNoBars, "no bar data returned for window, entry from reference price")
			out.EntryTime = entryBoundary
			out.EntryPrice = sig.ReferencePrice
			return out
		}
		return SkipOutcome(sig, domain.SkipReasonInvalidEntry, "no bar data returned for window and no reference price")
	}

	// 1. Entry price
	entryPrice := sig.ReferencePrice
	if i := lookup.FirstAtOrAfter(bars, entryBoundary); i >= 0 {
		entryPrice = bars[i].Open
	}
	if entryPrice <= 0 || math.IsNaN(entryPrice) || math.IsInf(entryPrice, 0) {
		return SkipOutcome(sig, domain.SkipReasonInvalidEntry, fmt.Sprintf("invalid entry price %g", entryPrice))
	}

	// 2. Side
	side := domain.SideShort
	if sig.Action == domain.ActionBuy {
		side = domain.SideLong
	}

	// 3. Thresholds
	tpPrice, slPrice := thresholds(side, entryPrice, sig.TakeProfitPct, sig.StopLossPct)

	out := domain.TradeOutcome{
		SignalID:        sig.ID,
		Symbol:          sig.Symbol,
		Side:            side,
		Confidence:      sig.Confidence,
		SignalCreatedAt: sig.CreatedAt,
		EntryTime:       entryBoundary,
		EntryPrice:      entryPrice,
		TakeProfitPct:   sig.TakeProfitPct,
		StopLossPct:     sig.StopLossPct,
		TakeProfitPrice: finiteOrZero(tpPrice),
		StopLossPrice:   finiteOrZero(slPrice),
		FeeBps:          s.FeeBps,
		SlippageBps:     s.Slippage.Bps(sig.Symbol),
		Kind:            domain.OutcomeSimulated,
		SkipReason:      domain.SkipReasonNone,
	}

	// 4. Bar walk
	window := lookup.Window(bars, entryBoundary, windowEnd)
	exited := false
	for _, b := range window {
		out.BarsEvaluated++

		tpHit, slHit := touched(side, b, tpPrice, slPrice)
		switch {
		case tpHit && slHit:
			out.ExitReason = domain.ExitReasonSL
			out.ExitPrice = slPrice
			out.BothHitSameCandle = true
		case slHit:
			out.ExitReason = domain.ExitReasonSL
			out.ExitPrice = slPrice
		case tpHit:
			out.ExitReason = domain.ExitReasonTP
			out.ExitPrice = tpPrice
		default:
			continue
		}
		out.ExitTime = b.CloseTime
		exited = true
		break
	}

	// 5. Timeout
	if !exited {
		out.ExitReason = domain.ExitReasonTimeout
		if n := len(window); n > 0 {
			out.ExitPrice = window[n-1].Close
			out.ExitTime = window[n-1].CloseTime
		} else {
			out.ExitPrice = entryPrice
			out.ExitTime = windowEnd
			out.Note = "no bars inside window, timed out at entry price"
		}
	}

	// 6. Returns
	if side == domain.SideLong {
		out.GrossPnlPct = (out.ExitPrice - entryPrice) / entryPrice * 100
	} else {
		out.GrossPnlPct = (entryPrice - out.ExitPrice) / entryPrice * 100
	}
	out.NetPnlPct = out.GrossPnlPct - RoundTripCostPct(out.FeeBps, out.SlippageBps)

	// 7. Duration
	out.DurationMinutes = durationMinutes(sig.CreatedAt, out.ExitTime)

	return out
}

// SkipOutcome builds the SKIP row for a signal that could not be simulated.
func SkipOutcome(sig domain.Signal, reason domain.SkipReason, note string) domain.TradeOutcome {
	return domain.TradeOutcome{
		SignalID:        sig.ID,
		Symbol:          sig.Symbol,
		Side:            domain.SideSkip,
		Confidence:      sig.Confidence,
		SignalCreatedAt: sig.CreatedAt,
		TakeProfitPct:   sig.TakeProfitPct,
		StopLossPct:     sig.StopLossPct,
		ExitReason:      domain.ExitReasonSkip,
		Kind:            domain.OutcomeSkipped,
		SkipReason:      reason,
		Note:            note,
	}
}

// thresholds returns TP and SL prices; an unset level is +Inf/-Inf in the
// direction it can never be reached.
func thresholds(side domain.Side, entry, tpPct, slPct float64) (tp, sl float64) {
	if side == domain.SideLong {
		tp, sl = math.Inf(1), math.Inf(-1)
		if tpPct > 0 {
			tp = entry * (1 + tpPct/100)
		}
		if slPct > 0 {
			sl = entry * (1 - slPct/100)
		}
		return tp, sl
	}

	tp, sl = math.Inf(-1), math.Inf(1)
	if tpPct > 0 {
		tp = entry * (1 - tpPct/100)
	}
	if slPct > 0 {
		sl = entry * (1 + slPct/100)
	}
	return tp, sl
}

func touched(side domain.Side, b domain.Bar, tp, sl float64) (tpHit, slHit bool) {
	if side == domain.SideLong {
		return b.High >= tp, b.Low <= sl
	}
	return b.Low <= tp, b.High >= sl
}

func finiteOrZero(v float64) float64 {
	if math.IsInf(v, 0) {
		return 0
	}
	return v
}

func durationMinutes(from, to time.Time) int64 {
	m := math.Round(to.Sub(from).Minutes())
	if m < 0 {
		return 0
	}
	return int64(m)
}
