package domain

import "time"

// Action is the direction recorded by the upstream signal generator.
type Action string

// Openable actions. Every other action value is filtered out by the signal reader.
const (
	ActionBuy   Action = "BUY"
	ActionShort Action = "SHORT"
)

// OpenableActions lists the actions that open a position, in stable order.
var OpenableActions = []Action{ActionBuy, ActionShort}

// Openable reports whether the action opens a position.
func (a Action) Openable() bool {
	return a == ActionBuy || a == ActionShort
}

// Signal is one recorded candidate trade entry.
// Corresponds to a row of the signals table; read-only.
type Signal struct {
	ID             int64     // unique signal id
	Symbol         string    // uppercase instrument symbol
	Action         Action    // BUY | SHORT
	Confidence     float64   // 0..100
	ReferencePrice float64   // price at signal time, may be 0 (unset)
	StopLossPct    float64   // 0 = no stop, rely on timeout
	TakeProfitPct  float64   // 0 = no target, rely on timeout
	CreatedAt      time.Time // always UTC
}
