package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"signal-replay-lab/internal/storage"
	"signal-replay-lab/internal/timeutil"
)

var validate = validator.New()

// Validate checks field constraints and cross-field rules.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, e := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %s", e.Namespace(), fieldRule(e)))
			}
			return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	interval, err := c.IntervalDuration()
	if err != nil {
		return fmt.Errorf("%w: run.interval: %v", ErrInvalid, err)
	}
	if _, err := timeutil.ProviderCode(interval); err != nil {
		return fmt.Errorf("%w: run.interval: %v", ErrInvalid, err)
	}
	if bars := timeutil.BarsInWindow(c.Window(), interval); bars > c.MarketData.PageLimit {
		return fmt.Errorf("%w: window of %dh holds %d %s bars, above page limit %d",
			ErrInvalid, c.Run.WindowHours, bars, c.Run.Interval, c.MarketData.PageLimit)
	}

	if err := storage.ValidateTableName(c.SignalStore.Table); err != nil {
		return fmt.Errorf("%w: signal_store.table: %v", ErrInvalid, err)
	}

	switch c.SignalStore.Driver {
	case DriverSQLite:
		if c.SignalStore.Path == "" {
			return fmt.Errorf("%w: signal_store.path is required for sqlite", ErrInvalid)
		}
	case DriverPostgres:
		if c.SignalStore.DSN == "" {
			return fmt.Errorf("%w: signal_store.dsn is required for postgres", ErrInvalid)
		}
	}

	switch c.BarCache.Backend {
	case BackendParquet:
		if c.BarCache.Dir == "" {
			return fmt.Errorf("%w: bar_cache.dir is required for parquet", ErrInvalid)
		}
	case BackendRedis:
		if c.BarCache.RedisAddr == "" {
			return fmt.Errorf("%w: bar_cache.redis_addr is required for redis", ErrInvalid)
		}
	case BackendClickHouse:
		if c.BarCache.ClickHouseDSN == "" {
			return fmt.Errorf("%w: bar_cache.clickhouse_dsn is required for clickhouse", ErrInvalid)
		}
	}

	return nil
}

func fieldRule(e validator.FieldError) string {
	if e.Param() == "" {
		return e.Tag()
	}
	return e.Tag() + "=" + e.Param()
}
