package logging

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewLevel(t *testing.T) {
	logger, closer, err := New(Config{Level: "debug"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer closer.Close()
	if logger.GetLevel() != zerolog.DebugLevel {
		t.Fatalf("expected debug level, got %s", logger.GetLevel())
	}

	logger, _, _ = New(Config{Level: "invalid"})
	if logger.GetLevel() != zerolog.InfoLevel {
		t.Fatalf("expected info fallback, got %s", logger.GetLevel())
	}
}

func TestNewFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	logger, closer, err := New(Config{Level: "info", Output: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info().Msg("hello")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "json", zerolog.InfoLevel)
	logger.Info().Int64("signal_id", 42).Msg("simulated")
	logger.Debug().Msg("hidden")

	out := buf.String()
	if !strings.Contains(out, `"signal_id":42`) {
		t.Errorf("expected structured field, got %s", out)
	}
	if strings.Contains(out, "hidden") {
		t.Errorf("debug line should be filtered: %s", out)
	}
}

func TestNewWithWriter_Console(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "console", zerolog.InfoLevel)
	logger.Info().Str("symbol", "BTCUSDT").Msg("fetched")

	if strings.HasPrefix(buf.String(), "{") {
		t.Errorf("console output should not be JSON: %s", buf.String())
	}
	if !strings.Contains(buf.String(), "BTCUSDT") {
		t.Errorf("expected field in output: %s", buf.String())
	}
}
