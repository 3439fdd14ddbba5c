package idhash

import (
	"testing"

	"github.com/mr-tron/base58"
)

func baseInputs() RunInputs {
	return RunInputs{
		Interval:           "15m",
		WindowHours:        24,
		FeeBps:             4,
		SlippageBps:        2,
		DynamicSlippage:    true,
		Tier1Coefficient:   0.08,
		DefaultCoefficient: 0.18,
		Tier1Symbols:       []string{"BTCUSDT", "ETHUSDT"},
		SignalIDs:          []int64{3, 1, 2},
	}
}

func TestComputeRunFingerprint_Deterministic(t *testing.T) {
	a := ComputeRunFingerprint(baseInputs())
	b := ComputeRunFingerprint(baseInputs())
	if a != b {
		t.Errorf("same inputs gave different fingerprints: %s vs %s", a, b)
	}

	decoded, err := base58.Decode(a)
	if err != nil {
		t.Fatalf("fingerprint is not base58: %v", err)
	}
	if len(decoded) != 32 {
		t.Errorf("decoded length = %d, want 32", len(decoded))
	}
}

func TestComputeRunFingerprint_OrderIndependent(t *testing.T) {
	in := baseInputs()
	reordered := baseInputs()
	reordered.SignalIDs = []int64{2, 3, 1}
	reordered.Tier1Symbols = []string{"ETHUSDT", "BTCUSDT"}

	if ComputeRunFingerprint(in) != ComputeRunFingerprint(reordered) {
		t.Error("fingerprint depends on input order")
	}
}

func TestComputeRunFingerprint_DoesNotMutateInput(t *testing.T) {
	in := baseInputs()
	ComputeRunFingerprint(in)
	if in.SignalIDs[0] != 3 || in.Tier1Symbols[0] != "BTCUSDT" {
		t.Errorf("input mutated: %v %v", in.SignalIDs, in.Tier1Symbols)
	}
}

func TestComputeRunFingerprint_Sensitive(t *testing.T) {
	base := ComputeRunFingerprint(baseInputs())

	tests := []struct {
		name   string
		mutate func(*RunInputs)
	}{
		{"interval", func(in *RunInputs) { in.Interval = "1h" }},
		{"window", func(in *RunInputs) { in.WindowHours = 12 }},
		{"fee", func(in *RunInputs) { in.FeeBps = 5 }},
		{"slippage", func(in *RunInputs) { in.SlippageBps = 3 }},
		{"dynamic", func(in *RunInputs) { in.DynamicSlippage = false }},
		{"tier1 coefficient", func(in *RunInputs) { in.Tier1Coefficient = 0.1 }},
		{"default coefficient", func(in *RunInputs) { in.DefaultCoefficient = 0.2 }},
		{"symbols", func(in *RunInputs) { in.Tier1Symbols = []string{"BTCUSDT"} }},
		{"signals", func(in *RunInputs) { in.SignalIDs = []int64{1, 2} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := baseInputs()
			tt.mutate(&in)
			if got := ComputeRunFingerprint(in); got == base {
				t.Errorf("changing %s did not change the fingerprint", tt.name)
			}
		})
	}
}
