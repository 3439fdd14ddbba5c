package reporting

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// StampLayout formats the timestamp qualifier of artifact names.
const StampLayout = "20060102_150405"

// Artifacts lists the files written for one run.
type Artifacts struct {
	Stamp    string
	JSON     string
	Markdown string
	CSV      string
}

// Path returns the artifact path for suffix, e.g. ".prom".
func (a Artifacts) Path(suffix string) string {
	return filepath.Join(filepath.Dir(a.JSON), "backtest_"+a.Stamp+suffix)
}

// Writer writes report artifacts into Dir.
type Writer struct {
	Dir string
	Now func() time.Time // Injectable clock for deterministic names
}

// NewWriter creates a Writer with a UTC wall clock.
func NewWriter(dir string) *Writer {
	return &Writer{
		Dir: dir,
		Now: func() time.Time { return time.Now().UTC() },
	}
}

// Write renders and writes the JSON, Markdown and CSV artifacts.
func (w *Writer) Write(r *Report) (Artifacts, error) {
	if err := os.MkdirAll(w.Dir, 0755); err != nil {
		return Artifacts{}, fmt.Errorf("create output dir: %w", err)
	}

	now := time.Now().UTC()
	if w.Now != nil {
		now = w.Now().UTC()
	}
	stamp := now.Format(StampLayout)
	base := filepath.Join(w.Dir, "backtest_"+stamp)
	a := Artifacts{
		Stamp:    stamp,
		JSON:     base + ".json",
		Markdown: base + ".md",
		CSV:      base + "_trades.csv",
	}

	data, err := RenderJSON(r)
	if err != nil {
		return Artifacts{}, fmt.Errorf("encode json report: %w", err)
	}
	if err := os.WriteFile(a.JSON, data, 0644); err != nil {
		return Artifacts{}, err
	}

	if err := os.WriteFile(a.Markdown, []byte(RenderMarkdown(r)), 0644); err != nil {
		return Artifacts{}, err
	}

	tradesCSV, err := RenderTradesCSV(r.Trades)
	if err != nil {
		return Artifacts{}, fmt.Errorf("encode trades csv: %w", err)
	}
	if err := os.WriteFile(a.CSV, []byte(tradesCSV), 0644); err != nil {
		return Artifacts{}, err
	}

	return a, nil
}
