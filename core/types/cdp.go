package types

import (
	"fmt"
	"math"

	"github.com/ethereum/go-ethereum/common"
)

// UserCDP is one collateralized debt position: bcoins staked against scoins
// minted. Created when first minted, destroyed when fully repaid.
type UserCDP struct {
	CDPID             common.Hash // hash of the creating transaction
	OwnerRegID        RegID
	BlockHeight       uint32 // height of the last mutating operation
	BcoinSymbol       string
	ScoinSymbol       string
	TotalStakedBcoins uint64
	TotalOwedScoins   uint64
}

func NewUserCDP(owner RegID, cdpID common.Hash, height uint32, bcoinSymbol, scoinSymbol string) *UserCDP {
	return &UserCDP{
		CDPID:       cdpID,
		OwnerRegID:  owner,
		BlockHeight: height,
		BcoinSymbol: bcoinSymbol,
		ScoinSymbol: scoinSymbol,
	}
}

// CollateralRatioBase is the pre-price ratio staked/owed. A CDP holding
// collateral with zero debt reports the maximum ratio.
func (c *UserCDP) CollateralRatioBase() float64 {
	switch {
	case c.TotalStakedBcoins != 0 && c.TotalOwedScoins == 0:
		return math.MaxUint64
	case c.TotalStakedBcoins == 0 || c.TotalOwedScoins == 0:
		return 0
	default:
		return float64(c.TotalStakedBcoins) / float64(c.TotalOwedScoins)
	}
}

// CollateralRatio applies a live bcoin price (PriceBoost scale) to the base
// ratio, returning a RatioBoost-scaled percent.
func (c *UserCDP) CollateralRatio(bcoinPrice, priceBoost, ratioBoost uint64) uint64 {
	base := c.CollateralRatioBase()
	if base == math.MaxUint64 {
		return math.MaxUint64
	}
	ratio := float64(bcoinPrice) / float64(priceBoost) * base * float64(ratioBoost)
	if ratio >= math.MaxUint64 {
		return math.MaxUint64
	}
	return uint64(ratio)
}

// AddStake applies a stake/mint operation.
func (c *UserCDP) AddStake(height uint32, bcoinsToStake, mintedScoins uint64) {
	c.BlockHeight = height
	c.TotalStakedBcoins += bcoinsToStake
	c.TotalOwedScoins += mintedScoins
}

// Redeem applies a redeem/repay operation.
func (c *UserCDP) Redeem(height uint32, bcoinsToRedeem, scoinsToRepay uint64) error {
	if bcoinsToRedeem > c.TotalStakedBcoins {
		return fmt.Errorf("cdp %s: redeem %d exceeds staked %d", c.CDPID.Hex(), bcoinsToRedeem, c.TotalStakedBcoins)
	}
	if scoinsToRepay > c.TotalOwedScoins {
		return fmt.Errorf("cdp %s: repay %d exceeds owed %d", c.CDPID.Hex(), scoinsToRepay, c.TotalOwedScoins)
	}
	c.BlockHeight = height
	c.TotalStakedBcoins -= bcoinsToRedeem
	c.TotalOwedScoins -= scoinsToRepay
	return nil
}

// LiquidatePartial releases collateral against cancelled debt during a
// liquidation round.
func (c *UserCDP) LiquidatePartial(height uint32, bcoins, scoins uint64) error {
	return c.Redeem(height, bcoins, scoins)
}

// IsFinished reports whether the position is fully unwound.
func (c *UserCDP) IsFinished() bool {
	return c.TotalOwedScoins == 0 && c.TotalStakedBcoins == 0
}
