package metrics

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signal-replay-lab/internal/domain"
)

func simulated(id int64, symbol string, side domain.Side, conf, net float64, created time.Time, reason domain.ExitReason) domain.TradeOutcome {
	return domain.TradeOutcome{
		SignalID:        id,
		Symbol:          symbol,
		Side:            side,
		Confidence:      conf,
		SignalCreatedAt: created,
		ExitReason:      reason,
		GrossPnlPct:     net + 0.1,
		NetPnlPct:       net,
		Kind:            domain.OutcomeSimulated,
		SkipReason:      domain.SkipReasonNone,
	}
}

func skipped(id int64, symbol string, reason domain.SkipReason, created time.Time) domain.TradeOutcome {
	return domain.TradeOutcome{
		SignalID:        id,
		Symbol:          symbol,
		Side:            domain.SideSkip,
		SignalCreatedAt: created,
		ExitReason:      domain.ExitReasonSkip,
		Kind:            domain.OutcomeSkipped,
		SkipReason:      reason,
	}
}

func fixtureOutcomes() []domain.TradeOutcome {
	jan := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC)
	return []domain.TradeOutcome{
		simulated(1, "BTCUSDT", domain.SideLong, 92, 2.5, jan, domain.ExitReasonTP),
		simulated(2, "ETHUSDT", domain.SideShort, 65, -1.2, jan.Add(time.Hour), domain.ExitReasonSL),
		simulated(3, "BTCUSDT", domain.SideLong, 75, 0.4, feb, domain.ExitReasonTimeout),
		simulated(4, "SOLUSDT", domain.SideShort, 55, -0.7, feb.Add(time.Hour), domain.ExitReasonSL),
		skipped(5, "XRPUSDT", domain.SkipReasonFetchFailed, feb.Add(2*time.Hour)),
		skipped(6, "XRPUSDT", domain.SkipReasonInvalidEntry, feb.Add(3*time.Hour)),
	}
}

func TestSummarize_Counts(t *testing.T) {
	s := Summarize(fixtureOutcomes(), Options{})

	assert.Equal(t, 6, s.TradesTotal)
	assert.Equal(t, 4, s.TradesSimulated)
	assert.Equal(t, 2, s.TradesSkipped)
	assert.Equal(t, 2, s.Wins)
	assert.Equal(t, 2, s.Losses)
	assert.InDelta(t, 50, s.WinRate, epsilon)
	assert.InDelta(t, 0.25, s.MeanNetPct, epsilon)
	assert.InDelta(t, -0.15, s.MedianNetPct, epsilon)
	assert.InDelta(t, 2.5, s.BestNetPct, epsilon)
	assert.InDelta(t, -1.2, s.WorstNetPct, epsilon)
	assert.InDelta(t, 0.35, s.MeanGrossPct, epsilon)

	assert.Equal(t, 1, s.ExitReasons[domain.ExitReasonTP])
	assert.Equal(t, 2, s.ExitReasons[domain.ExitReasonSL])
	assert.Equal(t, 1, s.ExitReasons[domain.ExitReasonTimeout])
	assert.Equal(t, 2, s.ExitReasons[domain.ExitReasonSkip])
	assert.Equal(t, 1, s.SkipReasons[domain.SkipReasonFetchFailed])
	assert.Equal(t, 1, s.SkipReasons[domain.SkipReasonInvalidEntry])
	assert.Nil(t, s.Monthly)
}

func TestSummarize_Breakdowns(t *testing.T) {
	s := Summarize(fixtureOutcomes(), Options{})

	require.Len(t, s.BySymbol, 3)
	assert.Equal(t, "BTCUSDT", s.BySymbol[0].Key)
	assert.Equal(t, 2, s.BySymbol[0].Trades)
	assert.InDelta(t, 100, s.BySymbol[0].WinRate, epsilon)
	assert.InDelta(t, 1.45, s.BySymbol[0].MeanNetPct, epsilon)
	assert.Equal(t, "ETHUSDT", s.BySymbol[1].Key)
	assert.Equal(t, "SOLUSDT", s.BySymbol[2].Key)

	keys := make([]string, 0, len(s.ByConfidence))
	for _, g := range s.ByConfidence {
		keys = append(keys, g.Key)
	}
	assert.Equal(t, []string{"<60", "60-69", "70-79", "90+"}, keys)

	require.Len(t, s.BySide, 2)
	assert.Equal(t, "LONG", s.BySide[0].Key)
	assert.Equal(t, 2, s.BySide[0].Wins)
	assert.Equal(t, "SHORT", s.BySide[1].Key)
	assert.Equal(t, 0, s.BySide[1].Wins)
}

func TestSummarize_WalkForward(t *testing.T) {
	s := Summarize(fixtureOutcomes(), Options{WalkForward: true})

	require.Len(t, s.Monthly, 2)
	assert.Equal(t, "2024-01", s.Monthly[0].Month)
	assert.Equal(t, 2, s.Monthly[0].Trades)
	assert.InDelta(t, 50, s.Monthly[0].WinRate, epsilon)
	assert.InDelta(t, 0.65, s.Monthly[0].MeanNetPct, epsilon)
	assert.Equal(t, "2024-02", s.Monthly[1].Month)
	assert.Equal(t, 2, s.Monthly[1].Trades)
}

func TestSummarize_MaxDrawdownChronological(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	outcomes := []domain.TradeOutcome{
		simulated(3, "BTCUSDT", domain.SideLong, 80, -4, base.Add(2*time.Hour), domain.ExitReasonSL),
		simulated(1, "BTCUSDT", domain.SideLong, 80, 3, base, domain.ExitReasonTP),
		simulated(2, "BTCUSDT", domain.SideLong, 80, -1, base.Add(time.Hour), domain.ExitReasonSL),
		simulated(4, "BTCUSDT", domain.SideLong, 80, 2, base.Add(3*time.Hour), domain.ExitReasonTP),
	}
	s := Summarize(outcomes, Options{})
	// cumulative: 3, 2, -2, 0; peak 3, trough -2
	assert.InDelta(t, 5, s.MaxDrawdownPct, epsilon)
}

func TestSummarize_OrderIndependent(t *testing.T) {
	outcomes := fixtureOutcomes()
	want := Summarize(outcomes, Options{WalkForward: true})

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		shuffled := make([]domain.TradeOutcome, len(outcomes))
		copy(shuffled, outcomes)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		assert.Equal(t, want, Summarize(shuffled, Options{WalkForward: true}))
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil, Options{WalkForward: true})

	assert.Equal(t, 0, s.TradesTotal)
	assert.Equal(t, 0.0, s.WinRate)
	assert.Equal(t, 0.0, s.MeanNetPct)
	assert.Equal(t, 0.0, s.MaxDrawdownPct)
	assert.NotNil(t, s.ExitReasons)
	assert.NotNil(t, s.SkipReasons)
	assert.Empty(t, s.BySymbol)
	assert.NotNil(t, s.BySymbol)
	assert.NotNil(t, s.Monthly)
}

func TestSummarize_AllSkipped(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := Summarize([]domain.TradeOutcome{
		skipped(1, "BTCUSDT", domain.SkipReasonFetchFailed, created),
		skipped(2, "BTCUSDT", domain.SkipReasonFetchFailed, created),
	}, Options{})

	assert.Equal(t, 2, s.TradesSkipped)
	assert.Equal(t, 0, s.TradesSimulated)
	assert.Equal(t, 0.0, s.WinRate)
	assert.Equal(t, 2, s.SkipReasons[domain.SkipReasonFetchFailed])
}

func TestSummarize_AmbiguousExits(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	o := simulated(1, "BTCUSDT", domain.SideLong, 70, -1, created, domain.ExitReasonSL)
	o.BothHitSameCandle = true
	s := Summarize([]domain.TradeOutcome{o}, Options{})
	assert.Equal(t, 1, s.AmbiguousExits)
}

func TestSummarize_ZeroNetIsLoss(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := Summarize([]domain.TradeOutcome{
		simulated(1, "BTCUSDT", domain.SideLong, 70, 0, created, domain.ExitReasonTimeout),
	}, Options{})
	assert.Equal(t, 0, s.Wins)
	assert.Equal(t, 1, s.Losses)
}

func TestConfidenceBucket(t *testing.T) {
	tests := []struct {
		confidence float64
		want       string
	}{
		{0, "<60"},
		{59.9, "<60"},
		{60, "60-69"},
		{69.99, "60-69"},
		{70, "70-79"},
		{80, "80-89"},
		{89.9, "80-89"},
		{90, "90+"},
		{100, "90+"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ConfidenceBucket(tt.confidence), "confidence %v", tt.confidence)
	}
}
