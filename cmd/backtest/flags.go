package main

import (
	"flag"

	"signal-replay-lab/internal/config"
)

// override maps a CLI flag onto a config setting.
type override struct {
	flag    string
	setting string // config.Override name
	usage   string
	isBool  bool
}

var overrideFlags = []override{
	{"signal-driver", "SIGNAL_DRIVER", "signal store driver: sqlite or postgres", false},
	{"db", "SIGNAL_DB_PATH", "SQLite signal database path", false},
	{"signal-dsn", "SIGNAL_DSN", "PostgreSQL signal store DSN", false},
	{"signal-table", "SIGNAL_TABLE", "signal table name", false},
	{"base-url", "MARKET_BASE_URL", "market data base URL", false},
	{"http-timeout", "MARKET_TIMEOUT", "per-request timeout, e.g. 15s", false},
	{"retry-attempts", "RETRY_ATTEMPTS", "fetch attempts per window", false},
	{"cache-backend", "CACHE_BACKEND", "bar cache: parquet, memory, redis or clickhouse", false},
	{"cache-dir", "CACHE_DIR", "parquet bar cache directory", false},
	{"redis-addr", "REDIS_ADDR", "Redis address for the bar cache", false},
	{"clickhouse-dsn", "CLICKHOUSE_DSN", "ClickHouse DSN for the bar cache", false},
	{"max-signals", "MAX_SIGNALS", "most recent signals to replay", false},
	{"interval", "INTERVAL", "bar interval, e.g. 15m or \"5 minutes\"", false},
	{"window-hours", "WINDOW_HOURS", "simulation window length in hours", false},
	{"workers", "WORKERS", "parallel fetch workers", false},
	{"walk-forward", "WALK_FORWARD", "add the monthly breakdown", true},
	{"fee-bps", "FEE_BPS", "fee per side in basis points", false},
	{"slippage-bps", "SLIPPAGE_BPS", "base slippage per side in basis points", false},
	{"dynamic-slippage", "DYNAMIC_SLIPPAGE", "scale slippage by liquidity tier", true},
	{"tier1-coefficient", "TIER1_COEFFICIENT", "slippage coefficient for tier-1 symbols", false},
	{"default-coefficient", "DEFAULT_COEFFICIENT", "slippage coefficient for other symbols", false},
	{"tier1-symbols", "TIER1_SYMBOLS", "comma separated tier-1 symbols", false},
	{"output-dir", "OUTPUT_DIR", "report output directory", false},
	{"log-level", "LOG_LEVEL", "debug, info, warn or error", false},
	{"log-format", "LOG_FORMAT", "json or console", false},
	{"metrics", "METRICS_ENABLED", "write a Prometheus snapshot next to the report", true},
	{"metrics-listen", "METRICS_LISTEN", "serve /metrics on this address during the run", false},
}

type overrideSet map[string]string

// registerOverrides defines one flag per override. Only flags given on the
// command line are applied, so unset flags never mask file or env values.
func registerOverrides(fs *flag.FlagSet) overrideSet {
	set := make(overrideSet, len(overrideFlags))
	for _, o := range overrideFlags {
		if o.isBool {
			fs.Bool(o.flag, false, o.usage)
		} else {
			fs.String(o.flag, "", o.usage)
		}
		set[o.flag] = o.setting
	}
	return set
}

func (s overrideSet) apply(fs *flag.FlagSet, cfg *config.Config) error {
	var err error
	fs.Visit(func(f *flag.Flag) {
		setting, ok := s[f.Name]
		if !ok || err != nil {
			return
		}
		err = config.Override(cfg, setting, f.Value.String())
	})
	return err
}
