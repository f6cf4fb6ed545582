package params

import "wicchain/config"

// SysParamType enumerates the governed consensus parameters. The set is
// closed: governance can change values, never add entries.
type SysParamType uint8

const (
	NullSysParamType SysParamType = iota
	MedianPriceSlideWindowBlockCount
	PriceFeedBcoinStakeAmountMin
	PriceFeedContinuousDeviateTimesMax
	PriceFeedDeviateRatioMax
	PriceFeedDeviatePenalty
	ScoinReserveFeeRatio
	DexDealFeeRatio
	GlobalCollateralCeilingAmount
	GlobalCollateralRatioMin
	CdpStartCollateralRatio
	CdpStartLiquidateRatio
	CdpNonReturnLiquidateRatio
	CdpForceLiquidateRatio
	CdpLiquidateDiscountRatio
	CdpBcoinsToStakeAmountMinInScoin
	CdpInterestParamA
	CdpInterestParamB
	CdpSysOrderPenaltyFeeMin
	AssetIssueFee
	AssetUpdateFee
)

type paramDef struct {
	key     string // single-letter persistence key
	initial uint64
}

var paramTable = map[SysParamType]paramDef{
	MedianPriceSlideWindowBlockCount:   {"A", 11},
	PriceFeedBcoinStakeAmountMin:       {"B", 210_000},    // min bcoins staked to feed prices
	PriceFeedContinuousDeviateTimesMax: {"C", 10},         // deviations before full penalty
	PriceFeedDeviateRatioMax:           {"D", 3000},       // 30% x 10000
	PriceFeedDeviatePenalty:            {"E", 1000},       // staked bcoins deducted
	DexDealFeeRatio:                    {"F", 4},          // 0.04% x 10000
	ScoinReserveFeeRatio:               {"G", 0},          // friction fee to risk reserve
	GlobalCollateralCeilingAmount:      {"H", 52_500_000}, // 25% of total base coin
	GlobalCollateralRatioMin:           {"I", 8000},       // 80% x 10000
	CdpStartCollateralRatio:            {"J", 19000},      // 190%: open/mint floor
	CdpStartLiquidateRatio:             {"K", 15000},      // 113%..150%: common liquidation
	CdpNonReturnLiquidateRatio:         {"L", 11300},      // 104%..113%: no return to owner
	CdpForceLiquidateRatio:             {"M", 10400},      // below 104%: forced settle only
	CdpLiquidateDiscountRatio:          {"N", 9700},       // 97% discount
	CdpBcoinsToStakeAmountMinInScoin:   {"O", 90_000_000}, // 0.9 WUSD dust floor
	CdpInterestParamA:                  {"P", 2},
	CdpInterestParamB:                  {"Q", 1},
	CdpSysOrderPenaltyFeeMin:           {"R", 10},
	AssetIssueFee:                      {"S", 550 * config.COIN},
	AssetUpdateFee:                     {"T", 110 * config.COIN},
}

// PersistKey returns the single-letter persistence key of p.
func PersistKey(p SysParamType) (string, bool) {
	def, ok := paramTable[p]
	return def.key, ok
}

// Default returns the genesis value of p.
func Default(p SysParamType) (uint64, bool) {
	def, ok := paramTable[p]
	return def.initial, ok
}
