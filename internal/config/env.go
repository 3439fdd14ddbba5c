package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "BACKTEST_"

type envBinding struct {
	name  string
	apply func(c *Config, v string) error
}

func stringVar(p func(*Config) *string) func(*Config, string) error {
	return func(c *Config, v string) error {
		*p(c) = v
		return nil
	}
}

func intVar(p func(*Config) *int) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*p(c) = n
		return nil
	}
}

func floatVar(p func(*Config) *float64) func(*Config, string) error {
	return func(c *Config, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		*p(c) = f
		return nil
	}
}

func boolVar(p func(*Config) *bool) func(*Config, string) error {
	return func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		*p(c) = b
		return nil
	}
}

func durationVar(p func(*Config) *time.Duration) func(*Config, string) error {
	return func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*p(c) = d
		return nil
	}
}

var envBindings = []envBinding{
	{"SIGNAL_DRIVER", stringVar(func(c *Config) *string { return &c.SignalStore.Driver })},
	{"SIGNAL_DB_PATH", stringVar(func(c *Config) *string { return &c.SignalStore.Path })},
	{"SIGNAL_DSN", stringVar(func(c *Config) *string { return &c.SignalStore.DSN })},
	{"SIGNAL_TABLE", stringVar(func(c *Config) *string { return &c.SignalStore.Table })},

	{"MARKET_BASE_URL", stringVar(func(c *Config) *string { return &c.MarketData.BaseURL })},
	{"MARKET_KLINES_PATH", stringVar(func(c *Config) *string { return &c.MarketData.KlinesPath })},
	{"MARKET_TIMEOUT", durationVar(func(c *Config) *time.Duration { return &c.MarketData.Timeout })},
	{"MARKET_PAGE_LIMIT", intVar(func(c *Config) *int { return &c.MarketData.PageLimit })},
	{"RETRY_ATTEMPTS", intVar(func(c *Config) *int { return &c.MarketData.RetryAttempts })},
	{"RETRY_BASE_DELAY", durationVar(func(c *Config) *time.Duration { return &c.MarketData.RetryBaseDelay })},

	{"CACHE_BACKEND", stringVar(func(c *Config) *string { return &c.BarCache.Backend })},
	{"CACHE_DIR", stringVar(func(c *Config) *string { return &c.BarCache.Dir })},
	{"REDIS_ADDR", stringVar(func(c *Config) *string { return &c.BarCache.RedisAddr })},
	{"REDIS_PASSWORD", stringVar(func(c *Config) *string { return &c.BarCache.RedisPassword })},
	{"REDIS_DB", intVar(func(c *Config) *int { return &c.BarCache.RedisDB })},
	{"REDIS_PREFIX", stringVar(func(c *Config) *string { return &c.BarCache.RedisPrefix })},
	{"CLICKHOUSE_DSN", stringVar(func(c *Config) *string { return &c.BarCache.ClickHouseDSN })},

	{"MAX_SIGNALS", intVar(func(c *Config) *int { return &c.Run.MaxSignals })},
	{"INTERVAL", stringVar(func(c *Config) *string { return &c.Run.Interval })},
	{"WINDOW_HOURS", intVar(func(c *Config) *int { return &c.Run.WindowHours })},
	{"WORKERS", intVar(func(c *Config) *int { return &c.Run.Workers })},
	{"WALK_FORWARD", boolVar(func(c *Config) *bool { return &c.Run.WalkForward })},

	{"FEE_BPS", floatVar(func(c *Config) *float64 { return &c.Costs.FeeBps })},
	{"SLIPPAGE_BPS", floatVar(func(c *Config) *float64 { return &c.Costs.SlippageBps })},
	{"DYNAMIC_SLIPPAGE", boolVar(func(c *Config) *bool { return &c.Costs.DynamicSlippage })},
	{"TIER1_COEFFICIENT", floatVar(func(c *Config) *float64 { return &c.Costs.Tier1Coefficient })},
	{"DEFAULT_COEFFICIENT", floatVar(func(c *Config) *float64 { return &c.Costs.DefaultCoefficient })},
	{"TIER1_SYMBOLS", func(c *Config, v string) error {
		c.Costs.Tier1Symbols = SplitList(v)
		return nil
	}},

	{"OUTPUT_DIR", stringVar(func(c *Config) *string { return &c.Output.Dir })},
	{"LOG_LEVEL", stringVar(func(c *Config) *string { return &c.Logging.Level })},
	{"LOG_FORMAT", stringVar(func(c *Config) *string { return &c.Logging.Format })},
	{"LOG_OUTPUT", stringVar(func(c *Config) *string { return &c.Logging.Output })},
	{"METRICS_ENABLED", boolVar(func(c *Config) *bool { return &c.Metrics.Enabled })},
	{"METRICS_LISTEN", stringVar(func(c *Config) *string { return &c.Metrics.Listen })},
}

// applyEnv overrides cfg from BACKTEST_* variables. Empty values are ignored.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	for _, b := range envBindings {
		v, ok := lookup(EnvPrefix + b.name)
		if !ok {
			continue
		}
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if err := b.apply(cfg, v); err != nil {
			return fmt.Errorf("%w: %s%s=%q: %v", ErrInvalid, EnvPrefix, b.name, v, err)
		}
	}
	return nil
}

// SplitList splits a comma separated list, dropping blanks.
func SplitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, strings.ToUpper(p))
		}
	}
	return out
}

// Override sets one setting by its environment name without the prefix,
// e.g. "WORKERS". Used for CLI flag overrides.
func Override(cfg *Config, name, value string) error {
	for _, b := range envBindings {
		if b.name != name {
			continue
		}
		if err := b.apply(cfg, strings.TrimSpace(value)); err != nil {
			return fmt.Errorf("%w: %s=%q: %v", ErrInvalid, strings.ToLower(name), value, err)
		}
		return nil
	}
	return fmt.Errorf("%w: unknown setting %s", ErrInvalid, name)
}
