// Package observability provides Prometheus metrics for backtest runs.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "signal_replay"

// Cache lookup results.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

// Metrics holds all Prometheus metrics for one process. All methods are safe
// on a nil receiver so components can run without metrics.
type Metrics struct {
	Registry *prometheus.Registry

	// Bar cache metrics
	CacheLookups     *prometheus.CounterVec
	CacheWriteErrors prometheus.Counter

	// Provider metrics
	FetchAttempts *prometheus.CounterVec
	FetchLatency  prometheus.Histogram
	FetchFailures prometheus.Counter

	// Run metrics
	SignalsLoaded    prometheus.Counter
	Outcomes         *prometheus.CounterVec
	Skips            *prometheus.CounterVec
	AmbiguousExits   prometheus.Counter
	RunsTotal        *prometheus.CounterVec
	RunDuration      prometheus.Histogram
	ReportsGenerated prometheus.Counter

	// Result gauges for the last run
	LastRunTimestamp prometheus.Gauge
	LastWinRate      prometheus.Gauge
	LastMeanNetPct   prometheus.Gauge
}

// NewMetrics creates a Metrics instance registered on its own registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		// Bar cache metrics
		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "barcache",
			Name:      "lookups_total",
			Help:      "Bar cache lookups by result",
		}, []string{"result"}),
		CacheWriteErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "barcache",
			Name:      "write_errors_total",
			Help:      "Bar cache writes that failed and were ignored",
		}),

		// Provider metrics
		FetchAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "fetch_attempts_total",
			Help:      "Market data requests by status",
		}, []string{"status"}),
		FetchLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "fetch_latency_seconds",
			Help:      "Market data request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		FetchFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "fetch_failures_total",
			Help:      "Fetches that failed after all retry attempts",
		}),

		// Run metrics
		SignalsLoaded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "signals_loaded_total",
			Help:      "Signals read from the signal store",
		}),
		Outcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "outcomes_total",
			Help:      "Trade outcomes by kind and exit reason",
		}, []string{"kind", "exit_reason"}),
		Skips: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "skips_total",
			Help:      "Skipped signals by reason",
		}, []string{"reason"}),
		AmbiguousExits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "ambiguous_exits_total",
			Help:      "Exits where TP and SL were touched by the same bar",
		}),
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "runs_total",
			Help:      "Backtest runs by status",
		}, []string{"status"}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "duration_seconds",
			Help:      "Backtest run duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800},
		}),
		ReportsGenerated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "reports_generated_total",
			Help:      "Report sets written",
		}),

		LastRunTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "last_run_timestamp",
			Help:      "Unix timestamp of the last completed run",
		}),
		LastWinRate: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "last_win_rate_percent",
			Help:      "Win rate of the last completed run",
		}),
		LastMeanNetPct: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "last_mean_net_pnl_percent",
			Help:      "Mean net PnL of the last completed run",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// WriteTextfile writes a snapshot in the node-exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}

// RecordCacheLookup counts one cache lookup.
func (m *Metrics) RecordCacheLookup(result string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

// RecordCacheWriteError counts one swallowed cache write failure.
func (m *Metrics) RecordCacheWriteError() {
	if m == nil {
		return
	}
	m.CacheWriteErrors.Inc()
}

// RecordFetch records one provider request.
func (m *Metrics) RecordFetch(seconds float64, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.FetchAttempts.WithLabelValues(status).Inc()
	m.FetchLatency.Observe(seconds)
}

// RecordFetchFailure counts a fetch that exhausted its retries.
func (m *Metrics) RecordFetchFailure() {
	if m == nil {
		return
	}
	m.FetchFailures.Inc()
}

// RecordSignalsLoaded adds n loaded signals.
func (m *Metrics) RecordSignalsLoaded(n int) {
	if m == nil {
		return
	}
	m.SignalsLoaded.Add(float64(n))
}

// RecordOutcome counts one trade outcome.
func (m *Metrics) RecordOutcome(kind, exitReason, skipReason string, ambiguous bool) {
	if m == nil {
		return
	}
	m.Outcomes.WithLabelValues(kind, exitReason).Inc()
	if skipReason != "" {
		m.Skips.WithLabelValues(skipReason).Inc()
	}
	if ambiguous {
		m.AmbiguousExits.Inc()
	}
}

// RecordRun records a finished run.
func (m *Metrics) RecordRun(status string, durationSeconds float64, finishedUnix int64, winRate, meanNetPct float64) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(status).Inc()
	m.RunDuration.Observe(durationSeconds)
	if status == "success" {
		m.LastRunTimestamp.Set(float64(finishedUnix))
		m.LastWinRate.Set(winRate)
		m.LastMeanNetPct.Set(meanNetPct)
	}
}

// RecordReportGenerated counts one written report set.
func (m *Metrics) RecordReportGenerated() {
	if m == nil {
		return
	}
	m.ReportsGenerated.Inc()
}
