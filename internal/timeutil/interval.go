// Package timeutil converts between wall-clock instants, bar interval strings
// and aligned bar boundaries. All functions are pure and work in UTC.
package timeutil

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrUnknownInterval is returned for interval strings or durations that have
// no provider equivalent.
var ErrUnknownInterval = errors.New("unknown bar interval")

// Day and Week are not provided by package time.
const (
	Day  = 24 * time.Hour
	Week = 7 * Day
)

// providerCodes maps supported bar durations to provider interval codes.
var providerCodes = map[time.Duration]string{
	time.Minute:      "1m",
	3 * time.Minute:  "3m",
	5 * time.Minute:  "5m",
	15 * time.Minute: "15m",
	30 * time.Minute: "30m",
	time.Hour:        "1h",
	2 * time.Hour:    "2h",
	4 * time.Hour:    "4h",
	6 * time.Hour:    "6h",
	8 * time.Hour:    "8h",
	12 * time.Hour:   "12h",
	Day:              "1d",
	3 * Day:          "3d",
	Week:             "1w",
}

var unitWords = map[string]time.Duration{
	"m": time.Minute, "min": time.Minute, "mins": time.Minute, "minute": time.Minute, "minutes": time.Minute,
	"h": time.Hour, "hr": time.Hour, "hrs": time.Hour, "hour": time.Hour, "hours": time.Hour,
	"d": Day, "day": Day, "days": Day,
	"w": Week, "week": Week, "weeks": Week,
}

// ParseInterval parses "5 minutes", "1 hour", "4hours" or provider codes
// like "15m" into a duration.
func ParseInterval(s string) (time.Duration, error) {
	raw := strings.ToLower(strings.TrimSpace(s))
	if raw == "" {
		return 0, fmt.Errorf("%w: empty", ErrUnknownInterval)
	}

	// Split the leading count from the unit, tolerating missing whitespace.
	i := 0
	for i < len(raw) && raw[i] >= '0' && raw[i] <= '9' {
		i++
	}
	if i == 0 {
		return 0, fmt.Errorf("%w: %q", ErrUnknownInterval, s)
	}
	n, err := strconv.Atoi(raw[:i])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrUnknownInterval, s)
	}

	unit, ok := unitWords[strings.TrimSpace(raw[i:])]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownInterval, s)
	}
	return time.Duration(n) * unit, nil
}

// ProviderCode returns the provider interval code for d.
func ProviderCode(d time.Duration) (string, error) {
	code, ok := providerCodes[d]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownInterval, d)
	}
	return code, nil
}

// AlignUp returns the smallest epoch-aligned boundary of width d that is not
// before t. Boundaries are computed on UTC epoch milliseconds, so daily bars
// align to 00:00 UTC.
func AlignUp(t time.Time, d time.Duration) time.Time {
	if d <= 0 {
		return t.UTC()
	}
	step := d.Milliseconds()
	ms := t.UnixMilli()
	// Sub-millisecond remainders still push the boundary forward.
	if t.Sub(time.UnixMilli(ms)) > 0 {
		ms++
	}
	rem := ms % step
	if rem < 0 {
		rem += step
	}
	if rem != 0 {
		ms += step - rem
	}
	return FromMillis(ms)
}

// ToMillis returns t as Unix epoch milliseconds.
func ToMillis(t time.Time) int64 {
	return t.UnixMilli()
}

// FromMillis converts Unix epoch milliseconds to a UTC instant.
func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// MonthKey returns the UTC calendar month of t as "2006-01".
func MonthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// BarsInWindow returns how many bars of width d fit in window.
func BarsInWindow(window, d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(window / d)
}
