// Command backtest replays recorded trading signals against historical bars
// and writes JSON, Markdown and CSV reports.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"signal-replay-lab/internal/backtest"
	"signal-replay-lab/internal/barcache"
	"signal-replay-lab/internal/config"
	"signal-replay-lab/internal/logging"
	"signal-replay-lab/internal/marketdata"
	"signal-replay-lab/internal/observability"
	"signal-replay-lab/internal/reporting"
	"signal-replay-lab/internal/retry"
	"signal-replay-lab/internal/simulation"
)

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(os.Stderr, "received signal %v, stopping run\n", sig)
		cancel()
	}()

	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

// run executes one backtest and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("backtest", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "YAML config file")
	envFile := fs.String("env-file", "", "env file (default .env when present)")
	overrides := registerOverrides(fs)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	cfg, err := config.Load(*configPath, *envFile)
	if err != nil {
		fmt.Fprintf(stderr, "load config: %v\n", err)
		return exitError
	}
	if err := overrides.apply(fs, cfg); err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return exitUsage
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return exitError
	}

	logger, logCloser, err := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return exitError
	}
	defer logCloser.Close()

	if err := execute(ctx, cfg, logger, stdout); err != nil {
		logger.Error().Err(err).Msg("backtest failed")
		return exitError
	}
	return exitOK
}

func execute(ctx context.Context, cfg *config.Config, logger zerolog.Logger, stdout io.Writer) error {
	interval, err := cfg.IntervalDuration()
	if err != nil {
		return err
	}

	var m *observability.Metrics
	if cfg.Metrics.Enabled {
		m = observability.NewMetrics(observability.DefaultNamespace)
		if cfg.Metrics.Listen != "" {
			stop := serveMetrics(cfg.Metrics.Listen, m, logger)
			defer stop()
		}
	}

	signals, err := openSignalStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer signals.Close()

	barStore, closeBars, err := openBarStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeBars()

	provider := marketdata.NewHTTPClient(cfg.MarketData.BaseURL,
		marketdata.WithTimeout(cfg.MarketData.Timeout),
		marketdata.WithKlinesPath(cfg.MarketData.KlinesPath),
	)
	cache := barcache.New(barStore, provider,
		barcache.WithPolicy(retry.NewLinear(cfg.MarketData.RetryAttempts, cfg.MarketData.RetryBaseDelay)),
		barcache.WithPageLimit(cfg.MarketData.PageLimit),
		barcache.WithLogger(logger),
		barcache.WithMetrics(m),
	)

	runner := backtest.NewRunner(signals, cache, backtest.Settings{
		MaxSignals:  cfg.Run.MaxSignals,
		Interval:    interval,
		Window:      cfg.Window(),
		Workers:     cfg.Run.Workers,
		WalkForward: cfg.Run.WalkForward,
		FeeBps:      cfg.Costs.FeeBps,
		Slippage: simulation.SlippageModel{
			BaseBps:            cfg.Costs.SlippageBps,
			Dynamic:            cfg.Costs.DynamicSlippage,
			Tier1Coefficient:   cfg.Costs.Tier1Coefficient,
			DefaultCoefficient: cfg.Costs.DefaultCoefficient,
			Tier1Symbols:       cfg.Costs.Tier1Symbols,
		},
	}, backtest.WithLogger(logger), backtest.WithMetrics(m))

	res, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	report := reporting.New(reporting.Meta{
		RunID:       res.RunID,
		Fingerprint: res.Fingerprint,
		GeneratedAt: res.FinishedAt,
		SignalCount: len(res.Signals),
		Config:      cfg.Redacted(),
	}, res.Summary, res.Outcomes)

	artifacts, err := reporting.NewWriter(cfg.Output.Dir).Write(report)
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	m.RecordReportGenerated()

	if m != nil {
		prom := artifacts.Path(".prom")
		if err := m.WriteTextfile(prom); err != nil {
			logger.Warn().Err(err).Str("path", prom).Msg("metrics snapshot failed")
		}
	}

	s := res.Summary
	fmt.Fprintf(stdout, "run %s (%s)\n", res.RunID, res.Fingerprint)
	fmt.Fprintf(stdout, "signals=%d simulated=%d skipped=%d win_rate=%.2f%% mean_net=%.4f%%\n",
		len(res.Signals), s.TradesSimulated, s.TradesSkipped, s.WinRate, s.MeanNetPct)
	fmt.Fprintf(stdout, "%s\n%s\n%s\n", artifacts.JSON, artifacts.Markdown, artifacts.CSV)
	return nil
}

// serveMetrics exposes /metrics until the returned stop function is called.
func serveMetrics(addr string, m *observability.Metrics, logger zerolog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logger.Info().Str("addr", addr).Msg("metrics listener started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics listener failed")
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
