package simulation

import (
	"github.com/shopspring/decimal"

	"signal-replay-lab/internal/domain"
)

// DefaultTier1Symbols are the highest-liquidity instruments.
var DefaultTier1Symbols = []string{"BTCUSDT", "ETHUSDT"}

// SlippageModel scales a base slippage by instrument liquidity tier.
type SlippageModel struct {
	BaseBps            float64
	Dynamic            bool
	Tier1Coefficient   float64
	DefaultCoefficient float64
	Tier1Symbols       []string // nil uses DefaultTier1Symbols
}

// Bps returns the slippage in basis points for symbol, rounded to 2 decimals.
// With Dynamic off the base is returned unchanged.
func (m SlippageModel) Bps(symbol string) float64 {
	if !m.Dynamic {
		return m.BaseBps
	}

	k := m.DefaultCoefficient
	if m.IsTier1(symbol) {
		k = m.Tier1Coefficient
	}

	bps, _ := decimal.NewFromFloat(m.BaseBps).
		Mul(decimal.NewFromInt(1).Add(decimal.NewFromFloat(k))).
		Round(2).
		Float64()
	return bps
}

// IsTier1 reports whether the normalized symbol is in the tier-1 set.
func (m SlippageModel) IsTier1(symbol string) bool {
	set := m.Tier1Symbols
	if set == nil {
		set = DefaultTier1Symbols
	}

	norm := domain.NormalizeSymbol(symbol)
	for _, s := range set {
		if domain.NormalizeSymbol(s) == norm {
			return true
		}
	}
	return false
}
