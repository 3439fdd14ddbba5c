// Package metrics aggregates trade outcomes into run statistics.
package metrics

import (
	"sort"

	"signal-replay-lab/internal/domain"
	"signal-replay-lab/internal/timeutil"
)

// Options controls optional views.
type Options struct {
	// WalkForward adds the per-month breakdown.
	WalkForward bool
}

// Summarize computes the run summary. Statistics cover simulated outcomes
// only; skipped outcomes are counted but never enter a mean or rate.
// The result is identical for any permutation of outcomes.
func Summarize(outcomes []domain.TradeOutcome, opts Options) domain.RunSummary {
	s := domain.RunSummary{
		TradesTotal: len(outcomes),
		ExitReasons: make(map[domain.ExitReason]int),
		SkipReasons: make(map[domain.SkipReason]int),
	}

	simulated := make([]domain.TradeOutcome, 0, len(outcomes))
	for _, o := range outcomes {
		s.ExitReasons[o.ExitReason]++
		if !o.Simulated() {
			s.TradesSkipped++
			s.SkipReasons[o.SkipReason]++
			continue
		}
		simulated = append(simulated, o)
		if o.BothHitSameCandle {
			s.AmbiguousExits++
		}
		if o.Win() {
			s.Wins++
		}
	}
	s.TradesSimulated = len(simulated)
	s.Losses = s.TradesSimulated - s.Wins

	if len(simulated) == 0 {
		s.BySymbol = []domain.GroupStats{}
		s.ByConfidence = []domain.GroupStats{}
		s.BySide = []domain.GroupStats{}
		if opts.WalkForward {
			s.Monthly = []domain.MonthStats{}
		}
		return s
	}

	nets := make([]float64, len(simulated))
	gross := make([]float64, len(simulated))
	for i, o := range simulated {
		nets[i] = o.NetPnlPct
		gross[i] = o.GrossPnlPct
	}
	sortedNets := sortedCopy(nets)
	sortedGross := sortedCopy(gross)

	s.WinRate = computeWinRate(s.Wins, s.TradesSimulated)
	s.MeanNetPct = computeMean(sortedNets)
	s.MedianNetPct = computePercentile(sortedNets, 0.50)
	s.BestNetPct = sortedNets[len(sortedNets)-1]
	s.WorstNetPct = sortedNets[0]
	s.StddevNetPct = computeStddev(sortedNets, s.MeanNetPct)
	s.MeanGrossPct = computeMean(sortedGross)
	s.MaxDrawdownPct = computeMaxDrawdown(chronologicalNets(simulated))

	s.BySymbol = groupBy(simulated, func(o domain.TradeOutcome) string { return o.Symbol }, nil)
	s.ByConfidence = groupBy(simulated, func(o domain.TradeOutcome) string { return ConfidenceBucket(o.Confidence) }, BucketOrder)
	s.BySide = groupBy(simulated, func(o domain.TradeOutcome) string { return string(o.Side) }, []string{string(domain.SideLong), string(domain.SideShort)})

	if opts.WalkForward {
		s.Monthly = monthly(simulated)
	}

	return s
}

// chronologicalNets orders nets by (SignalCreatedAt, SignalID).
func chronologicalNets(outcomes []domain.TradeOutcome) []float64 {
	ordered := make([]domain.TradeOutcome, len(outcomes))
	copy(ordered, outcomes)
	sort.Slice(ordered, func(i, j int) bool {
		if !ordered[i].SignalCreatedAt.Equal(ordered[j].SignalCreatedAt) {
			return ordered[i].SignalCreatedAt.Before(ordered[j].SignalCreatedAt)
		}
		return ordered[i].SignalID < ordered[j].SignalID
	})

	nets := make([]float64, len(ordered))
	for i, o := range ordered {
		nets[i] = o.NetPnlPct
	}
	return nets
}

// groupBy splits outcomes by key. With order set, groups follow it and keys
// outside it are dropped; otherwise groups are sorted by key.
func groupBy(outcomes []domain.TradeOutcome, key func(domain.TradeOutcome) string, order []string) []domain.GroupStats {
	nets := make(map[string][]float64)
	for _, o := range outcomes {
		k := key(o)
		nets[k] = append(nets[k], o.NetPnlPct)
	}

	keys := order
	if keys == nil {
		keys = make([]string, 0, len(nets))
		for k := range nets {
			keys = append(keys, k)
		}
		sort.Strings(keys)
	}

	groups := make([]domain.GroupStats, 0, len(nets))
	for _, k := range keys {
		values, ok := nets[k]
		if !ok {
			continue
		}
		sorted := sortedCopy(values)
		wins := countPositive(sorted)
		groups = append(groups, domain.GroupStats{
			Key:          k,
			Trades:       len(sorted),
			Wins:         wins,
			WinRate:      computeWinRate(wins, len(sorted)),
			MeanNetPct:   computeMean(sorted),
			MedianNetPct: computePercentile(sorted, 0.50),
		})
	}
	return groups
}

// monthly partitions outcomes by UTC month of signal creation.
func monthly(outcomes []domain.TradeOutcome) []domain.MonthStats {
	nets := make(map[string][]float64)
	for _, o := range outcomes {
		m := timeutil.MonthKey(o.SignalCreatedAt)
		nets[m] = append(nets[m], o.NetPnlPct)
	}

	months := make([]string, 0, len(nets))
	for m := range nets {
		months = append(months, m)
	}
	sort.Strings(months)

	out := make([]domain.MonthStats, 0, len(months))
	for _, m := range months {
		sorted := sortedCopy(nets[m])
		out = append(out, domain.MonthStats{
			Month:      m,
			Trades:     len(sorted),
			WinRate:    computeWinRate(countPositive(sorted), len(sorted)),
			MeanNetPct: computeMean(sorted),
		})
	}
	return out
}

func countPositive(values []float64) int {
	n := 0
	for _, v := range values {
		if v > 0 {
			n++
		}
	}
	return n
}
