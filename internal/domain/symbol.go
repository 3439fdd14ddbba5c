package domain

import "strings"

// perpetualSuffixes are checked in order before separators are removed; the
// first match is stripped.
var perpetualSuffixes = []string{":USDT", "-PERP", "_PERP", ".P", "PERP"}

// NormalizeSymbol uppercases a symbol and strips perpetual-contract
// decorations, so "btc/usdt:usdt", "BTC-USDT-PERP" and "BTCUSDT" all
// become "BTCUSDT".
func NormalizeSymbol(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	for _, suffix := range perpetualSuffixes {
		if strings.HasSuffix(s, suffix) && len(s) > len(suffix) {
			s = strings.TrimSuffix(s, suffix)
			break
		}
	}
	return strings.NewReplacer("/", "", "-", "", "_", "", ":", "").Replace(s)
}
