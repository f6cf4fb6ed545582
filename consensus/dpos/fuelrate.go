package dpos

import (
	"wicchain/config"
	"wicchain/core/types"
)

// GetElementForBurn derives the fuel rate for the next block from the
// trailing window of prior blocks. Each block contributes its run steps
// (fuel / rate x 100); the average decides whether the rate decays, grows or
// holds. Until the chain is twice the window deep the initial rate applies.
func GetElementForBurn(tip *types.BlockIndex, window uint32) uint64 {
	if tip == nil {
		return config.InitFuelRate
	}
	if window == 0 {
		window = config.DefaultBurnBlockWindow
	}
	if 2*window >= tip.Height-1 || tip.Height < 1 {
		return config.InitFuelRate
	}

	var totalStep uint64
	node := tip
	for i := uint32(0); i < window && node != nil; i++ {
		if node.FuelRate > 0 {
			totalStep += node.Fuel / node.FuelRate * 100
		}
		node = node.Prev
	}
	avgStep := totalStep / uint64(window)

	var newRate uint64
	switch {
	case float64(avgStep) < 0.75*float64(config.MaxBlockRunStep):
		newRate = uint64(float64(tip.FuelRate) * 0.9)
	case float64(avgStep) > 0.85*float64(config.MaxBlockRunStep):
		newRate = uint64(float64(tip.FuelRate) * 1.1)
	default:
		newRate = tip.FuelRate
	}

	if newRate < config.MinFuelRate {
		newRate = config.MinFuelRate
	}
	return newRate
}
