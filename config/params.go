package config

import "fmt"

// NetworkID selects the chain parameter set.
type NetworkID uint8

const (
	MainNet NetworkID = iota
	TestNet
	RegTest
)

func (n NetworkID) String() string {
	switch n {
	case MainNet:
		return "main"
	case TestNet:
		return "test"
	case RegTest:
		return "regtest"
	}
	return fmt.Sprintf("network(%d)", uint8(n))
}

// ParseNetworkID maps a config string onto a NetworkID.
func ParseNetworkID(name string) (NetworkID, error) {
	switch name {
	case "main", "mainnet", "":
		return MainNet, nil
	case "test", "testnet":
		return TestNet, nil
	case "regtest":
		return RegTest, nil
	}
	return MainNet, fmt.Errorf("unknown network %q", name)
}

// ForkVersion tags which assembler/verifier variant applies at a height.
type ForkVersion uint8

const (
	MajorVerR1 ForkVersion = 1 // pre stablecoin release
	MajorVerR2 ForkVersion = 2 // stablecoin release
)

// ChainParams holds the per-network consensus constants. GenesisBlockHash is
// derived from the canonical genesis block when the node opens its chain
// store; every other field is fixed at construction.
type ChainParams struct {
	Network                 NetworkID
	TotalDelegateNum        uint32
	StableCoinGenesisHeight uint32
	FeatureForkHeight       uint32
	BlockIntervalPreStable  uint32 // seconds
	BlockIntervalStable     uint32 // seconds
	MaxBlockNonce           uint32
	GenesisBlockHash        [32]byte
	YearBlockCountPreStable uint32
	YearBlockCountStable    uint32
}

// BlockInterval returns the slot length in seconds in force at height.
func (p *ChainParams) BlockInterval(height uint32) uint32 {
	if p.FeatureForkVersion(height) >= MajorVerR2 {
		return p.BlockIntervalStable
	}
	return p.BlockIntervalPreStable
}

// FeatureForkVersion returns the fork tag in force at height.
func (p *ChainParams) FeatureForkVersion(height uint32) ForkVersion {
	if height >= p.FeatureForkHeight {
		return MajorVerR2
	}
	return MajorVerR1
}

// YearBlockCount returns the expected number of blocks per year at height,
// used by the inflation formula.
func (p *ChainParams) YearBlockCount(height uint32) uint32 {
	if p.FeatureForkVersion(height) >= MajorVerR2 {
		return p.YearBlockCountStable
	}
	return p.YearBlockCountPreStable
}

// SubsidyRate returns the vote-staking subsidy percent in force at height.
// The rate decays one point per elapsed year until it reaches the fixed rate.
func (p *ChainParams) SubsidyRate(height uint32) uint8 {
	rate := uint32(InitialSubsidyRate)
	year := p.YearBlockCount(height)
	elapsed := height / year
	if elapsed >= rate-FixedSubsidyRate {
		return FixedSubsidyRate
	}
	return uint8(rate - elapsed)
}

// Params returns the immutable parameter set for the selected network.
func Params(network NetworkID) *ChainParams {
	switch network {
	case TestNet:
		return &ChainParams{
			Network:                 TestNet,
			TotalDelegateNum:        11,
			StableCoinGenesisHeight: 800_000,
			FeatureForkHeight:       800_001,
			BlockIntervalPreStable:  10,
			BlockIntervalStable:     3,
			MaxBlockNonce:           1000,
			YearBlockCountPreStable: 3_153_600,
			YearBlockCountStable:    10_512_000,
		}
	case RegTest:
		return &ChainParams{
			Network:                 RegTest,
			TotalDelegateNum:        1,
			StableCoinGenesisHeight: 10,
			FeatureForkHeight:       11,
			BlockIntervalPreStable:  10,
			BlockIntervalStable:     3,
			MaxBlockNonce:           1000,
			YearBlockCountPreStable: 3_153_600,
			YearBlockCountStable:    10_512_000,
		}
	default:
		return &ChainParams{
			Network:                 MainNet,
			TotalDelegateNum:        11,
			StableCoinGenesisHeight: 4_109_388,
			FeatureForkHeight:       4_109_589,
			BlockIntervalPreStable:  10,
			BlockIntervalStable:     3,
			MaxBlockNonce:           1000,
			YearBlockCountPreStable: 3_153_600,
			YearBlockCountStable:    10_512_000,
		}
	}
}
