package reporting

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"signal-replay-lab/internal/domain"
)

// topTradesLimit bounds the trade detail table.
const topTradesLimit = 10

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder
	s := r.Summary

	// Header
	sb.WriteString("# Signal Backtest Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.Meta.GeneratedAt.UTC().Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Run: `%s` | Fingerprint: `%s` | Signals: %d\n\n", r.Meta.RunID, r.Meta.Fingerprint, r.Meta.SignalCount))

	// Overview
	sb.WriteString("## Overview\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Trades | %d |\n", s.TradesTotal))
	sb.WriteString(fmt.Sprintf("| Simulated | %d |\n", s.TradesSimulated))
	sb.WriteString(fmt.Sprintf("| Skipped | %d |\n", s.TradesSkipped))
	sb.WriteString(fmt.Sprintf("| Wins / Losses | %d / %d |\n", s.Wins, s.Losses))
	sb.WriteString(fmt.Sprintf("| Win Rate | %.2f%% |\n", s.WinRate))
	sb.WriteString(fmt.Sprintf("| Mean Net | %.4f%% |\n", s.MeanNetPct))
	sb.WriteString(fmt.Sprintf("| Median Net | %.4f%% |\n", s.MedianNetPct))
	sb.WriteString(fmt.Sprintf("| Best / Worst | %.4f%% / %.4f%% |\n", s.BestNetPct, s.WorstNetPct))
	sb.WriteString(fmt.Sprintf("| Stddev Net | %.4f |\n", s.StddevNetPct))
	sb.WriteString(fmt.Sprintf("| Max Drawdown | %.4f%% |\n", s.MaxDrawdownPct))
	sb.WriteString(fmt.Sprintf("| Mean Gross | %.4f%% |\n", s.MeanGrossPct))
	sb.WriteString(fmt.Sprintf("| Ambiguous Exits | %d |\n", s.AmbiguousExits))
	sb.WriteString("\n")

	// Exit reasons
	sb.WriteString("## Exit Reasons\n\n")
	sb.WriteString("| Reason | Count |\n")
	sb.WriteString("|--------|-------|\n")
	for _, reason := range []domain.ExitReason{domain.ExitReasonTP, domain.ExitReasonSL, domain.ExitReasonTimeout, domain.ExitReasonSkip} {
		sb.WriteString(fmt.Sprintf("| %s | %d |\n", reason, s.ExitReasons[reason]))
	}
	sb.WriteString("\n")

	// Skip reasons
	sb.WriteString("## Skip Reasons\n\n")
	if s.TradesSkipped > 0 {
		sb.WriteString("| Reason | Count |\n")
		sb.WriteString("|--------|-------|\n")
		for _, reason := range domain.SkipReasons {
			if n := s.SkipReasons[reason]; n > 0 {
				sb.WriteString(fmt.Sprintf("| %s | %d |\n", reason, n))
			}
		}
	} else {
		sb.WriteString("No skipped signals.\n")
	}
	sb.WriteString("\n")

	writeGroups(&sb, "By Symbol", "Symbol", s.BySymbol)
	writeGroups(&sb, "By Confidence", "Bucket", s.ByConfidence)
	writeGroups(&sb, "By Side", "Side", s.BySide)

	// Monthly
	if s.Monthly != nil {
		sb.WriteString("## Monthly\n\n")
		if len(s.Monthly) > 0 {
			sb.WriteString("| Month | Trades | WinRate | Mean |\n")
			sb.WriteString("|-------|--------|---------|------|\n")
			for _, m := range s.Monthly {
				sb.WriteString(fmt.Sprintf("| %s | %d | %.2f | %.4f |\n", m.Month, m.Trades, m.WinRate, m.MeanNetPct))
			}
		} else {
			sb.WriteString("No simulated trades.\n")
		}
		sb.WriteString("\n")
	}

	// Top trades
	sb.WriteString("## Top Trades\n\n")
	top := topTrades(r.Trades, topTradesLimit)
	if len(top) > 0 {
		sb.WriteString("| Signal | Symbol | Side | Conf | Entry | Exit | Reason | Net% | Minutes |\n")
		sb.WriteString("|--------|--------|------|------|-------|------|--------|------|---------|\n")
		for _, t := range top {
			sb.WriteString(fmt.Sprintf("| %d | %s | %s | %.1f | %.6g | %.6g | %s | %.4f | %d |\n",
				t.SignalID, t.Symbol, t.Side, t.Confidence,
				t.EntryPrice, t.ExitPrice, t.ExitReason, t.NetPnlPct, t.DurationMinutes))
		}
	} else {
		sb.WriteString("No simulated trades.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}

func writeGroups(sb *strings.Builder, title, keyHeader string, groups []domain.GroupStats) {
	sb.WriteString(fmt.Sprintf("## %s\n\n", title))
	if len(groups) == 0 {
		sb.WriteString("No simulated trades.\n\n")
		return
	}
	sb.WriteString(fmt.Sprintf("| %s | Trades | Wins | WinRate | Mean | Median |\n", keyHeader))
	sb.WriteString("|------|--------|------|---------|------|--------|\n")
	for _, g := range groups {
		sb.WriteString(fmt.Sprintf("| %s | %d | %d | %.2f | %.4f | %.4f |\n",
			g.Key, g.Trades, g.Wins, g.WinRate, g.MeanNetPct, g.MedianNetPct))
	}
	sb.WriteString("\n")
}

// topTrades returns up to n simulated trades by net return DESC, signal id ASC.
func topTrades(trades []domain.TradeOutcome, n int) []domain.TradeOutcome {
	out := make([]domain.TradeOutcome, 0, len(trades))
	for _, t := range trades {
		if t.Simulated() {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].NetPnlPct != out[j].NetPnlPct {
			return out[i].NetPnlPct > out[j].NetPnlPct
		}
		return out[i].SignalID < out[j].SignalID
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
