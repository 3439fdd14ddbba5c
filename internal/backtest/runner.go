// Package backtest orchestrates one replay run: load signals, replay each
// against its bar window, then aggregate.
package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"signal-replay-lab/internal/domain"
	"signal-replay-lab/internal/idhash"
	"signal-replay-lab/internal/metrics"
	"signal-replay-lab/internal/observability"
	"signal-replay-lab/internal/simulation"
	"signal-replay-lab/internal/storage"
	"signal-replay-lab/internal/timeutil"
)

// Run statuses recorded in metrics.
const (
	StatusSuccess  = "success"
	StatusError    = "error"
	StatusCanceled = "canceled"
)

// BarSource returns the bars of one window. *barcache.Cache implements it.
type BarSource interface {
	GetBars(ctx context.Context, symbol string, interval time.Duration, start, end time.Time) ([]domain.Bar, error)
}

// Settings shape a run.
type Settings struct {
	MaxSignals  int
	Interval    time.Duration
	Window      time.Duration
	Workers     int // <= 1 runs sequentially
	WalkForward bool
	FeeBps      float64
	Slippage    simulation.SlippageModel
}

// Result is the outcome of one run.
type Result struct {
	RunID       string
	Fingerprint string
	StartedAt   time.Time
	FinishedAt  time.Time
	Signals     []domain.Signal
	Outcomes    []domain.TradeOutcome // same order as Signals
	Summary     domain.RunSummary
}

// Runner replays signals against historical bars.
type Runner struct {
	signals  storage.SignalStore
	bars     BarSource
	settings Settings
	sim      *simulation.Simulator

	logger  zerolog.Logger
	metrics *observability.Metrics
	now     func() time.Time
	newID   func() string
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Runner) {
		r.logger = l
	}
}

// WithMetrics records run metrics into m.
func WithMetrics(m *observability.Metrics) Option {
	return func(r *Runner) {
		r.metrics = m
	}
}

// WithClock sets a custom clock function for deterministic output.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		r.now = now
	}
}

// WithRunID overrides run id generation.
func WithRunID(newID func() string) Option {
	return func(r *Runner) {
		r.newID = newID
	}
}

// NewRunner creates a Runner.
func NewRunner(signals storage.SignalStore, bars BarSource, settings Settings, opts ...Option) *Runner {
	r := &Runner{
		signals:  signals,
		bars:     bars,
		settings: settings,
		sim:      simulation.New(settings.FeeBps, settings.Slippage),
		logger:   zerolog.Nop(),
		now:      func() time.Time { return time.Now().UTC() },
		newID:    func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes one backtest. Per-signal failures become SKIP outcomes; only a
// signal store error or ctx cancellation aborts the run.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	started := r.now()
	res := &Result{RunID: r.newID(), StartedAt: started}
	log := r.logger.With().Str("run_id", res.RunID).Logger()

	intervalCode, err := timeutil.ProviderCode(r.settings.Interval)
	if err != nil {
		r.finish(StatusError, started, nil)
		return nil, err
	}

	signals, err := r.signals.ListRecent(ctx, r.settings.MaxSignals)
	if err != nil {
		r.finish(StatusError, started, nil)
		return nil, fmt.Errorf("load signals: %w", err)
	}
	r.metrics.RecordSignalsLoaded(len(signals))
	log.Info().Int("signals", len(signals)).Str("interval", intervalCode).Msg("signals loaded")

	outcomes, err := r.replayAll(ctx, signals, log)
	if err != nil {
		r.finish(StatusCanceled, started, nil)
		return nil, err
	}

	res.Signals = signals
	res.Outcomes = outcomes
	res.Summary = metrics.Summarize(outcomes, metrics.Options{WalkForward: r.settings.WalkForward})
	res.Fingerprint = idhash.ComputeRunFingerprint(idhash.RunInputs{
		Interval:           intervalCode,
		WindowHours:        int(r.settings.Window / time.Hour),
		FeeBps:             r.settings.FeeBps,
		SlippageBps:        r.settings.Slippage.BaseBps,
		DynamicSlippage:    r.settings.Slippage.Dynamic,
		Tier1Coefficient:   r.settings.Slippage.Tier1Coefficient,
		DefaultCoefficient: r.settings.Slippage.DefaultCoefficient,
		Tier1Symbols:       r.settings.Slippage.Tier1Symbols,
		SignalIDs:          signalIDs(signals),
	})

	for _, o := range outcomes {
		skip := ""
		if !o.Simulated() {
			skip = string(o.SkipReason)
		}
		r.metrics.RecordOutcome(string(o.Kind), string(o.ExitReason), skip, o.BothHitSameCandle)
	}
	res.FinishedAt = r.finish(StatusSuccess, started, &res.Summary)

	log.Info().
		Str("fingerprint", res.Fingerprint).
		Int("simulated", res.Summary.TradesSimulated).
		Int("skipped", res.Summary.TradesSkipped).
		Float64("win_rate", res.Summary.WinRate).
		Float64("mean_net_pct", res.Summary.MeanNetPct).
		Msg("run complete")

	return res, nil
}

// replayAll fills one slot per signal. With more than one worker the
// per-signal stage runs on a bounded errgroup; Wait is the barrier before
// aggregation.
func (r *Runner) replayAll(ctx context.Context, signals []domain.Signal, log zerolog.Logger) ([]domain.TradeOutcome, error) {
	outcomes := make([]domain.TradeOutcome, len(signals))

	if r.settings.Workers <= 1 {
		for i, sig := range signals {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("run canceled: %w", err)
			}
			outcomes[i] = r.replayOne(ctx, sig, log)
		}
		return outcomes, nil
	}

	var g errgroup.Group
	g.SetLimit(r.settings.Workers)
	for i, sig := range signals {
		if ctx.Err() != nil {
			break
		}
		i, sig := i, sig
		g.Go(func() error {
			outcomes[i] = r.replayOne(ctx, sig, log)
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("run canceled: %w", err)
	}
	return outcomes, nil
}

// replayOne never fails: a bar fetch error becomes a FETCH_FAILED skip.
func (r *Runner) replayOne(ctx context.Context, sig domain.Signal, log zerolog.Logger) domain.TradeOutcome {
	entryBoundary := timeutil.AlignUp(sig.CreatedAt, r.settings.Interval)
	windowEnd := entryBoundary.Add(r.settings.Window)

	bars, err := r.bars.GetBars(ctx, domain.NormalizeSymbol(sig.Symbol), r.settings.Interval, entryBoundary, windowEnd)
	if err != nil {
		log.Warn().Err(err).Int64("signal_id", sig.ID).Str("symbol", sig.Symbol).Msg("bar fetch failed, skipping signal")
		return simulation.SkipOutcome(sig, domain.SkipReasonFetchFailed, err.Error())
	}

	out := r.sim.Simulate(sig, bars, entryBoundary, windowEnd)
	log.Debug().
		Int64("signal_id", sig.ID).
		Str("symbol", sig.Symbol).
		Str("exit_reason", string(out.ExitReason)).
		Float64("net_pnl_pct", out.NetPnlPct).
		Msg("signal replayed")
	return out
}

func (r *Runner) finish(status string, started time.Time, summary *domain.RunSummary) time.Time {
	finished := r.now()
	var winRate, meanNet float64
	if summary != nil {
		winRate, meanNet = summary.WinRate, summary.MeanNetPct
	}
	r.metrics.RecordRun(status, finished.Sub(started).Seconds(), finished.Unix(), winRate, meanNet)
	return finished
}

func signalIDs(signals []domain.Signal) []int64 {
	ids := make([]int64, len(signals))
	for i, s := range signals {
		ids[i] = s.ID
	}
	return ids
}
