package cdp

import (
	"errors"
	"fmt"
	"math"

	"github.com/ethereum/go-ethereum/common"

	"wicchain/config"
	"wicchain/core/types"
	"wicchain/state"
)

var (
	errNilCache    = errors.New("cdp engine: cache not configured")
	errCDPExists   = errors.New("cdp engine: cdp already exists")
	errCDPNotFound = errors.New("cdp engine: cdp not found")
)

// Engine owns the CDP lifecycle over the layered cache: the primary store,
// the owner index, the ratio-sorted liquidation index and the two global
// aggregates. Every mutation keeps all five in step, so the usual layering
// rules (flush to commit, drop or undo to discard) apply to the whole group.
type Engine struct {
	cache *state.CdpCache
}

func NewEngine(cache *state.CdpCache) *Engine {
	return &Engine{cache: cache}
}

func (e *Engine) withCache() (*state.CdpCache, error) {
	if e == nil || e.cache == nil {
		return nil, errNilCache
	}
	return e.cache, nil
}

// RatioIndexKey is the 16-hex-digit prefix ordering the liquidation index:
// the pre-price collateral ratio captured at 1e8 scale, saturating at the
// uint64 ceiling.
func RatioIndexKey(cdp *types.UserCDP) string {
	base := cdp.CollateralRatioBase()
	boosted := base * config.CdpBaseRatioBoost
	ratio := uint64(math.MaxUint64)
	if boosted < math.MaxUint64 {
		ratio = uint64(boosted)
	}
	return fmt.Sprintf("%016x", ratio)
}

func ratioEntryKey(cdp *types.UserCDP) string {
	return RatioIndexKey(cdp) + string(cdp.CDPID.Bytes())
}

// NewCDP inserts a freshly minted position.
func (e *Engine) NewCDP(cdp *types.UserCDP) error {
	cache, err := e.withCache()
	if err != nil {
		return err
	}
	if _, ok, err := cache.Cdps.Get(string(cdp.CDPID.Bytes())); err != nil {
		return err
	} else if ok {
		return fmt.Errorf("%w: %s", errCDPExists, cdp.CDPID.Hex())
	}
	if err := e.saveCDP(cache, cdp); err != nil {
		return err
	}
	return e.addToRatioIndex(cache, cdp)
}

// UpdateCDP replaces old with new after a stake, redeem or partial
// liquidation. The ratio index entry moves; aggregates absorb the delta.
func (e *Engine) UpdateCDP(old, updated *types.UserCDP) error {
	cache, err := e.withCache()
	if err != nil {
		return err
	}
	if err := e.saveCDP(cache, updated); err != nil {
		return err
	}
	if err := e.removeFromRatioIndex(cache, old); err != nil {
		return err
	}
	return e.addToRatioIndex(cache, updated)
}

// EraseCDP removes a fully unwound position. old carries the aggregates
// still accounted for; current identifies the stored record.
func (e *Engine) EraseCDP(old, current *types.UserCDP) error {
	cache, err := e.withCache()
	if err != nil {
		return err
	}
	cache.Cdps.Erase(string(current.CDPID.Bytes()))

	ownerKey := current.OwnerRegID.RawKey()
	list, _, err := cache.Owners.Get(ownerKey)
	if err != nil {
		return err
	}
	list = list.Without(current.CDPID)
	if len(list) == 0 {
		cache.Owners.Erase(ownerKey)
	} else {
		cache.Owners.Set(ownerKey, list)
	}

	cache.Closed.Set(string(current.CDPID.Bytes()), current.BlockHeight)

	return e.removeFromRatioIndex(cache, old)
}

// saveCDP writes the primary record and keeps the owner index in step.
func (e *Engine) saveCDP(cache *state.CdpCache, cdp *types.UserCDP) error {
	list, _, err := cache.Owners.Get(cdp.OwnerRegID.RawKey())
	if err != nil {
		return err
	}
	if !list.Contains(cdp.CDPID) {
		list = append(list, cdp.CDPID)
		cache.Owners.Set(cdp.OwnerRegID.RawKey(), list)
	}
	cache.Cdps.Set(string(cdp.CDPID.Bytes()), *cdp)
	return nil
}

func (e *Engine) addToRatioIndex(cache *state.CdpCache, cdp *types.UserCDP) error {
	staked, err := cache.GetGlobalStakedBcoins()
	if err != nil {
		return err
	}
	owed, err := cache.GetGlobalOwedScoins()
	if err != nil {
		return err
	}
	cache.SetGlobalStakedBcoins(staked + cdp.TotalStakedBcoins)
	cache.SetGlobalOwedScoins(owed + cdp.TotalOwedScoins)

	cache.Ratios.Set(ratioEntryKey(cdp), *cdp)
	return nil
}

func (e *Engine) removeFromRatioIndex(cache *state.CdpCache, cdp *types.UserCDP) error {
	staked, err := cache.GetGlobalStakedBcoins()
	if err != nil {
		return err
	}
	owed, err := cache.GetGlobalOwedScoins()
	if err != nil {
		return err
	}
	cache.SetGlobalStakedBcoins(staked - cdp.TotalStakedBcoins)
	cache.SetGlobalOwedScoins(owed - cdp.TotalOwedScoins)

	cache.Ratios.Erase(ratioEntryKey(cdp))
	return nil
}

// GetCDP returns the position identified by cdpid.
func (e *Engine) GetCDP(cdpid common.Hash) (*types.UserCDP, error) {
	cache, err := e.withCache()
	if err != nil {
		return nil, err
	}
	cdp, ok, err := cache.Cdps.Get(string(cdpid.Bytes()))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", errCDPNotFound, cdpid.Hex())
	}
	return &cdp, nil
}

// GetCDPList returns every position owned by regID.
func (e *Engine) GetCDPList(regID types.RegID) ([]types.UserCDP, error) {
	cache, err := e.withCache()
	if err != nil {
		return nil, err
	}
	list, ok, err := cache.Owners.Get(regID.RawKey())
	if err != nil || !ok {
		return nil, err
	}
	out := make([]types.UserCDP, 0, len(list))
	for _, id := range list {
		cdp, ok, err := cache.Cdps.Get(string(id.Bytes()))
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s in owner index of %s", errCDPNotFound, id.Hex(), regID)
		}
		out = append(out, cdp)
	}
	return out, nil
}

// GetCdpListByCollateralRatio returns the liquidation candidate set: every
// position whose collateral ratio at the given bcoin price is at or below
// collateralRatio. Worst-collateralized positions come first; the result is
// capped at the per-block forced settle bound.
func (e *Engine) GetCdpListByCollateralRatio(collateralRatio, bcoinMedianPrice uint64) ([]types.UserCDP, error) {
	cache, err := e.withCache()
	if err != nil {
		return nil, err
	}
	ratio := (float64(collateralRatio) / config.RatioBoost) / (float64(bcoinMedianPrice) / config.PriceBoost)
	boosted := ratio * config.CdpBaseRatioBoost
	threshold := uint64(math.MaxUint64)
	if boosted < math.MaxUint64 {
		threshold = uint64(boosted)
	}
	limit := fmt.Sprintf("%016x", threshold)

	elems, err := cache.Ratios.GetAllElementsUpTo(limit, config.ForceSettleCDPMaxPerBlock)
	if err != nil {
		return nil, err
	}
	out := make([]types.UserCDP, 0, len(elems))
	for _, kv := range elems {
		out = append(out, kv.Value)
	}
	return out, nil
}

// GetGlobalCollateralRatio applies the live price to the global aggregates.
// An empty debt book reports the maximum ratio.
func (e *Engine) GetGlobalCollateralRatio(bcoinMedianPrice uint64) (uint64, error) {
	cache, err := e.withCache()
	if err != nil {
		return 0, err
	}
	owed, err := cache.GetGlobalOwedScoins()
	if err != nil {
		return 0, err
	}
	if owed == 0 {
		return math.MaxUint64, nil
	}
	staked, err := cache.GetGlobalStakedBcoins()
	if err != nil {
		return 0, err
	}
	ratio := float64(staked) * float64(bcoinMedianPrice) / config.PriceBoost / float64(owed) * config.RatioBoost
	if ratio >= math.MaxUint64 {
		return math.MaxUint64, nil
	}
	return uint64(ratio), nil
}

// CheckGlobalCollateralRatioFloorReached reports whether the system ratio
// fell below the governance floor at the given price.
func (e *Engine) CheckGlobalCollateralRatioFloorReached(bcoinMedianPrice, ratioFloor uint64) (bool, error) {
	current, err := e.GetGlobalCollateralRatio(bcoinMedianPrice)
	if err != nil {
		return false, err
	}
	return current < ratioFloor, nil
}

// CheckGlobalCollateralCeilingReached reports whether staking newBcoins more
// would push the system past the governance ceiling (in whole coins).
func (e *Engine) CheckGlobalCollateralCeilingReached(newBcoinsToStake, ceiling uint64) (bool, error) {
	cache, err := e.withCache()
	if err != nil {
		return false, err
	}
	staked, err := cache.GetGlobalStakedBcoins()
	if err != nil {
		return false, err
	}
	return newBcoinsToStake+staked > ceiling*config.COIN, nil
}
