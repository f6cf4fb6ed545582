package config

// Token symbols recognised by the consensus layer.
const (
	SymbolWICC = "WICC" // base coin, governance + staking
	SymbolWUSD = "WUSD" // stable coin, USD pegged
	SymbolWGRT = "WGRT" // fund coin, fees and rewards
)

// COIN is the smallest-unit multiplier: 1e8 units per whole coin.
const COIN = 100_000_000

// CENT is 0.01 coin in smallest units.
const CENT = 1_000_000

// Fuel accounting limits. Fuel is the per-transaction compute cost; the fuel
// rate converts run steps into fee units per block.
const (
	MaxBlockRunStep        = 12_000_000
	InitFuelRate           = 100 // 100 units per 100 steps
	MinFuelRate            = 1
	DefaultBurnBlockWindow = 50 // trailing blocks consulted by the rate controller
)

// Block size limits in serialized bytes.
const (
	MaxBlockSize        = 4_000_000
	DefaultBlockMaxSize = 3_750_000
	MaxStandardTxSize   = 100_000
)

// Transaction priority bands. Most user transactions sit below the ceiling;
// system-injected transactions are pinned far above it so they always pack
// first.
const (
	PriorityCeiling       = 1000.0
	PriceMedianTxPriority = 10000.0
	PriceFeedTxPriority   = 20000.0
)

// Fixed-point boosts shared between the CDP engine and price feeds.
const (
	RatioBoost        = 10_000      // collateral ratios are percents x 100
	PriceBoost        = 100_000_000 // prices carry 8 decimals
	CdpBaseRatioBoost = 100_000_000 // staked/owed rationals carry 8 decimals
)

// ForceSettleCDPMaxPerBlock bounds forced liquidations selected per block.
const ForceSettleCDPMaxPerBlock = 1000

const (
	MaxSignatureSize   = 100
	MaxMinedBlockCount = 100
	InitTxVersion      = 1
)

// Subsidy schedule for vote-staking inflation: starts at the initial rate and
// decays one point per year until the fixed rate is reached.
const (
	InitialSubsidyRate = 5
	FixedSubsidyRate   = 1
)

// Stablecoin genesis fund-coin amounts, in whole coins.
const (
	FundCoinTotalReleaseAmount   = 20_160_000_000 // 96% of 21 billion
	FundCoinInitialReserveAmount = 1_000_000      // 1m WUSD bootstrap reserve
)
