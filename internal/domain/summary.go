package domain

// GroupStats holds the statistics of one breakdown segment.
type GroupStats struct {
	Key          string  `json:"key"`
	Trades       int     `json:"trades"`
	Wins         int     `json:"wins"`
	WinRate      float64 `json:"win_rate"`
	MeanNetPct   float64 `json:"mean_net_pct"`
	MedianNetPct float64 `json:"median_net_pct"`
}

// MonthStats is one row of the walk-forward view.
type MonthStats struct {
	Month      string  `json:"month"` // "2006-01", UTC
	Trades     int     `json:"trades"`
	WinRate    float64 `json:"win_rate"`
	MeanNetPct float64 `json:"mean_net_pct"`
}

// RunSummary aggregates the outcomes of one run.
// Rates are in percent; every statistic covers simulated outcomes only.
type RunSummary struct {
	// Counts
	TradesTotal     int `json:"trades_total"`
	TradesSimulated int `json:"trades_simulated"`
	TradesSkipped   int `json:"trades_skipped"`
	Wins            int `json:"wins"`
	Losses          int `json:"losses"`

	// Net return distribution
	WinRate        float64 `json:"win_rate"`
	MeanNetPct     float64 `json:"mean_net_pct"`
	MedianNetPct   float64 `json:"median_net_pct"`
	BestNetPct     float64 `json:"best_net_pct"`
	WorstNetPct    float64 `json:"worst_net_pct"`
	StddevNetPct   float64 `json:"stddev_net_pct"`
	MaxDrawdownPct float64 `json:"max_drawdown_pct"`
	MeanGrossPct   float64 `json:"mean_gross_pct"`

	// Exit taxonomy
	ExitReasons    map[ExitReason]int `json:"exit_reasons"`
	SkipReasons    map[SkipReason]int `json:"skip_reasons"`
	AmbiguousExits int                `json:"ambiguous_exits"`

	// Breakdowns
	BySymbol     []GroupStats `json:"by_symbol"`
	ByConfidence []GroupStats `json:"by_confidence"`
	BySide       []GroupStats `json:"by_side"`
	Monthly      []MonthStats `json:"monthly,omitempty"`
}
