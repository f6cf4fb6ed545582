package dpos

import (
	"testing"

	"wicchain/config"
	"wicchain/core/types"
)

// chainOfSteps builds a synthetic index chain whose last `window` blocks each
// consumed the given run steps at the given rate.
func chainOfSteps(height uint32, window uint32, stepPerBlock uint64, rate uint64) *types.BlockIndex {
	var prev *types.BlockIndex
	for h := uint32(0); h <= height; h++ {
		idx := &types.BlockIndex{
			Height:   h,
			FuelRate: rate,
			Fuel:     stepPerBlock * rate / 100,
			Prev:     prev,
		}
		prev = idx
	}
	return prev
}

func TestFuelRateGenesisAndShortChain(t *testing.T) {
	if got := GetElementForBurn(nil, 50); got != config.InitFuelRate {
		t.Fatalf("nil tip rate = %d", got)
	}
	short := chainOfSteps(80, 50, 0, 100)
	if got := GetElementForBurn(short, 50); got != config.InitFuelRate {
		t.Fatalf("short chain rate = %d, want %d", got, config.InitFuelRate)
	}
}

func TestFuelRateGrowsWhenBusy(t *testing.T) {
	// Last 50 blocks each consumed 90% of the step budget: above the 85%
	// band, so the rate grows 10%.
	step := uint64(float64(config.MaxBlockRunStep) * 0.9)
	tip := chainOfSteps(200, 50, step, 100)
	if got := GetElementForBurn(tip, 50); got != 110 {
		t.Fatalf("busy rate = %d, want 110", got)
	}
}

func TestFuelRateDecaysWhenIdle(t *testing.T) {
	tip := chainOfSteps(200, 50, 0, 100)
	if got := GetElementForBurn(tip, 50); got != 90 {
		t.Fatalf("idle rate = %d, want 90", got)
	}
}

func TestFuelRateHoldsInBand(t *testing.T) {
	step := uint64(float64(config.MaxBlockRunStep) * 0.8)
	tip := chainOfSteps(200, 50, step, 100)
	if got := GetElementForBurn(tip, 50); got != 100 {
		t.Fatalf("steady rate = %d, want 100", got)
	}
}

func TestFuelRateClampsAtMinimum(t *testing.T) {
	tip := chainOfSteps(200, 50, 0, config.MinFuelRate)
	if got := GetElementForBurn(tip, 50); got < config.MinFuelRate {
		t.Fatalf("rate %d fell below minimum", got)
	}
}
