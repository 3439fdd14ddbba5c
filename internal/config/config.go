// Package config loads the backtest run configuration.
//
// Load order: struct defaults, optional YAML file, .env file, BACKTEST_*
// environment variables. Callers apply CLI overrides afterwards and then call
// Validate.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/creasty/defaults"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"signal-replay-lab/internal/timeutil"
)

// ErrInvalid is returned for configuration that cannot run.
var ErrInvalid = errors.New("invalid config")

// Signal store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Bar cache backends.
const (
	BackendParquet    = "parquet"
	BackendMemory     = "memory"
	BackendRedis      = "redis"
	BackendClickHouse = "clickhouse"
)

// Config is the full run configuration.
type Config struct {
	SignalStore SignalStore `yaml:"signal_store" json:"signal_store"`
	MarketData  MarketData  `yaml:"market_data" json:"market_data"`
	BarCache    BarCache    `yaml:"bar_cache" json:"bar_cache"`
	Run         Run         `yaml:"run" json:"run"`
	Costs       Costs       `yaml:"costs" json:"costs"`
	Output      Output      `yaml:"output" json:"output"`
	Logging     Logging     `yaml:"logging" json:"logging"`
	Metrics     Metrics     `yaml:"metrics" json:"metrics"`
}

// SignalStore selects where signals are read from.
type SignalStore struct {
	Driver string `yaml:"driver" json:"driver" default:"sqlite" validate:"oneof=sqlite postgres"`
	Path   string `yaml:"path" json:"path,omitempty" default:"signals.db"`
	DSN    string `yaml:"dsn" json:"dsn,omitempty"`
	Table  string `yaml:"table" json:"table" default:"signals" validate:"required"`
}

// MarketData configures the kline provider and retry policy.
type MarketData struct {
	BaseURL        string        `yaml:"base_url" json:"base_url" default:"https://fapi.binance.com" validate:"required,url"`
	KlinesPath     string        `yaml:"klines_path" json:"klines_path" default:"/fapi/v1/klines" validate:"required,startswith=/"`
	Timeout        time.Duration `yaml:"timeout" json:"timeout" default:"15s" validate:"gt=0"`
	PageLimit      int           `yaml:"page_limit" json:"page_limit" default:"1500" validate:"min=1,max=1500"`
	RetryAttempts  int           `yaml:"retry_attempts" json:"retry_attempts" default:"3" validate:"min=1,max=10"`
	RetryBaseDelay time.Duration `yaml:"retry_base_delay" json:"retry_base_delay" default:"1s" validate:"gte=0"`
}

// BarCache selects the bar cache backend.
type BarCache struct {
	Backend       string `yaml:"backend" json:"backend" default:"parquet" validate:"oneof=parquet memory redis clickhouse"`
	Dir           string `yaml:"dir" json:"dir,omitempty" default:".cache/bars"`
	RedisAddr     string `yaml:"redis_addr" json:"redis_addr,omitempty"`
	RedisPassword string `yaml:"redis_password" json:"redis_password,omitempty"`
	RedisDB       int    `yaml:"redis_db" json:"redis_db" validate:"gte=0"`
	RedisPrefix   string `yaml:"redis_prefix" json:"redis_prefix,omitempty" default:"barcache"`
	ClickHouseDSN string `yaml:"clickhouse_dsn" json:"clickhouse_dsn,omitempty"`
}

// Run shapes the replay itself.
type Run struct {
	MaxSignals  int    `yaml:"max_signals" json:"max_signals" default:"500" validate:"min=1"`
	Interval    string `yaml:"interval" json:"interval" default:"15m" validate:"required"`
	WindowHours int    `yaml:"window_hours" json:"window_hours" default:"24" validate:"min=1"`
	Workers     int    `yaml:"workers" json:"workers" default:"1" validate:"min=1,max=64"`
	WalkForward bool   `yaml:"walk_forward" json:"walk_forward"`
}

// Costs are the trading costs applied to every simulated trade.
type Costs struct {
	FeeBps             float64  `yaml:"fee_bps" json:"fee_bps" default:"4" validate:"gte=0"`
	SlippageBps        float64  `yaml:"slippage_bps" json:"slippage_bps" default:"2" validate:"gte=0"`
	DynamicSlippage    bool     `yaml:"dynamic_slippage" json:"dynamic_slippage" default:"true"`
	Tier1Coefficient   float64  `yaml:"tier1_coefficient" json:"tier1_coefficient" default:"0.08" validate:"gte=0"`
	DefaultCoefficient float64  `yaml:"default_coefficient" json:"default_coefficient" default:"0.18" validate:"gte=0"`
	Tier1Symbols       []string `yaml:"tier1_symbols" json:"tier1_symbols" default:"[\"BTCUSDT\",\"ETHUSDT\"]" validate:"dive,required"`
}

// Output is where report artifacts go.
type Output struct {
	Dir string `yaml:"dir" json:"dir" default:"reports" validate:"required"`
}

// Logging configures the zerolog logger.
type Logging struct {
	Level  string `yaml:"level" json:"level" default:"info" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" json:"format" default:"console" validate:"oneof=json console"`
	Output string `yaml:"output" json:"output" default:"stderr" validate:"required"`
}

// Metrics configures Prometheus output.
type Metrics struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Listen  string `yaml:"listen" json:"listen,omitempty"`
}

// Default returns a config with every default applied.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	return cfg, nil
}

// Load builds a config from defaults, the YAML file at path (skipped when
// empty), the .env file at envFile and BACKTEST_* variables.
// An empty envFile reads ".env" when present.
// The result is not validated.
func Load(path, envFile string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("%w: parse %s: %v", ErrInvalid, path, err)
		}
	}

	if err := loadDotEnv(envFile); err != nil {
		return nil, err
	}

	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadDotEnv never overrides variables already set in the process.
func loadDotEnv(envFile string) error {
	if envFile == "" {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		return fmt.Errorf("load env file %s: %w", envFile, err)
	}
	return nil
}

// IntervalDuration returns the parsed bar interval.
func (c *Config) IntervalDuration() (time.Duration, error) {
	return timeutil.ParseInterval(c.Run.Interval)
}

// Window returns the simulation window length.
func (c *Config) Window() time.Duration {
	return time.Duration(c.Run.WindowHours) * time.Hour
}

// Redacted returns a copy safe to embed in reports.
func (c *Config) Redacted() Config {
	out := *c
	out.Costs.Tier1Symbols = append([]string(nil), c.Costs.Tier1Symbols...)
	out.SignalStore.DSN = redactDSN(c.SignalStore.DSN)
	out.BarCache.ClickHouseDSN = redactDSN(c.BarCache.ClickHouseDSN)
	if out.BarCache.RedisPassword != "" {
		out.BarCache.RedisPassword = "xxxxx"
	}
	return out
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return ""
	}
	u, err := url.Parse(dsn)
	if err != nil {
		return "xxxxx"
	}
	return u.Redacted()
}
