package reporting

import (
	"encoding/csv"
	"strconv"
	"strings"
	"time"

	"signal-replay-lab/internal/domain"
)

var tradeColumns = []string{
	"signal_id", "symbol", "side", "confidence", "signal_created_at",
	"entry_time", "entry_price", "tp_pct", "sl_pct", "tp_price", "sl_price",
	"exit_reason", "exit_price", "exit_time", "duration_min",
	"gross_pnl_pct", "net_pnl_pct", "fee_bps", "slippage_bps",
	"both_hit_same_candle", "bars_evaluated", "kind", "skip_reason", "notes",
}

// RenderTradesCSV renders one row per outcome, in input order.
func RenderTradesCSV(trades []domain.TradeOutcome) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	if err := w.Write(tradeColumns); err != nil {
		return "", err
	}
	for _, t := range trades {
		row := []string{
			strconv.FormatInt(t.SignalID, 10),
			t.Symbol,
			string(t.Side),
			formatFloat(t.Confidence),
			formatTime(t.SignalCreatedAt),
			formatTime(t.EntryTime),
			formatFloat(t.EntryPrice),
			formatFloat(t.TakeProfitPct),
			formatFloat(t.StopLossPct),
			formatFloat(t.TakeProfitPrice),
			formatFloat(t.StopLossPrice),
			string(t.ExitReason),
			formatFloat(t.ExitPrice),
			formatTime(t.ExitTime),
			strconv.FormatInt(t.DurationMinutes, 10),
			formatFloat(t.GrossPnlPct),
			formatFloat(t.NetPnlPct),
			formatFloat(t.FeeBps),
			formatFloat(t.SlippageBps),
			strconv.FormatBool(t.BothHitSameCandle),
			strconv.Itoa(t.BarsEvaluated),
			string(t.Kind),
			string(t.SkipReason),
			t.Note,
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
