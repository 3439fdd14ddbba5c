// Package idhash computes deterministic identifiers.
package idhash

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/mr-tron/base58"
)

// RunInputs is everything that determines the outcomes of a run.
type RunInputs struct {
	Interval           string
	WindowHours        int
	FeeBps             float64
	SlippageBps        float64
	DynamicSlippage    bool
	Tier1Coefficient   float64
	DefaultCoefficient float64
	Tier1Symbols       []string
	SignalIDs          []int64
}

// ComputeRunFingerprint computes a deterministic run fingerprint using SHA256.
// Formula: SHA256(interval|window_hours|fee|slippage|dynamic|k1|k2|symbols|ids)
// with symbols and ids sorted, so input order never changes the result.
// Returns base58-encoded hash.
func ComputeRunFingerprint(in RunInputs) string {
	symbols := make([]string, len(in.Tier1Symbols))
	copy(symbols, in.Tier1Symbols)
	sort.Strings(symbols)

	ids := make([]int64, len(in.SignalIDs))
	copy(ids, in.SignalIDs)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	idParts := make([]string, len(ids))
	for i, id := range ids {
		idParts[i] = strconv.FormatInt(id, 10)
	}

	data := fmt.Sprintf("%s|%d|%s|%s|%t|%s|%s|%s|%s",
		in.Interval,
		in.WindowHours,
		formatFloat(in.FeeBps),
		formatFloat(in.SlippageBps),
		in.DynamicSlippage,
		formatFloat(in.Tier1Coefficient),
		formatFloat(in.DefaultCoefficient),
		strings.Join(symbols, ","),
		strings.Join(idParts, ","),
	)

	hash := sha256.Sum256([]byte(data))
	return base58.Encode(hash[:])
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
