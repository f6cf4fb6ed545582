package cdp

import (
	"math"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"wicchain/config"
	"wicchain/core/types"
	"wicchain/state"
	"wicchain/storage"
)

func newTestEngine() (*Engine, *state.CdpCache) {
	cache := state.NewCdpCache(storage.NewMemDB())
	return NewEngine(cache), cache
}

func makeCDP(seed byte, owner types.RegID, staked, owed uint64) *types.UserCDP {
	cdp := types.NewUserCDP(owner, common.Hash{seed}, 100, "WICC", "WUSD")
	cdp.TotalStakedBcoins = staked
	cdp.TotalOwedScoins = owed
	return cdp
}

func globals(t *testing.T, cache *state.CdpCache) (uint64, uint64) {
	t.Helper()
	staked, err := cache.GetGlobalStakedBcoins()
	if err != nil {
		t.Fatalf("staked: %v", err)
	}
	owed, err := cache.GetGlobalOwedScoins()
	if err != nil {
		t.Fatalf("owed: %v", err)
	}
	return staked, owed
}

func TestAggregatesFollowLifecycle(t *testing.T) {
	engine, cache := newTestEngine()
	owner := types.NewRegID(10, 1)

	a := makeCDP(0x01, owner, 1000, 500)
	b := makeCDP(0x02, owner, 3000, 1000)
	if err := engine.NewCDP(a); err != nil {
		t.Fatalf("new a: %v", err)
	}
	if err := engine.NewCDP(b); err != nil {
		t.Fatalf("new b: %v", err)
	}
	staked, owed := globals(t, cache)
	if staked != 4000 || owed != 1500 {
		t.Fatalf("globals after insert = (%d, %d), want (4000, 1500)", staked, owed)
	}

	// Stake more into a.
	updated := *a
	updated.AddStake(101, 500, 100)
	if err := engine.UpdateCDP(a, &updated); err != nil {
		t.Fatalf("update: %v", err)
	}
	staked, owed = globals(t, cache)
	if staked != 4500 || owed != 1600 {
		t.Fatalf("globals after update = (%d, %d), want (4500, 1600)", staked, owed)
	}

	// Fully unwind b.
	drained := *b
	if err := drained.Redeem(102, b.TotalStakedBcoins, b.TotalOwedScoins); err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if !drained.IsFinished() {
		t.Fatal("drained cdp not finished")
	}
	if err := engine.EraseCDP(b, &drained); err != nil {
		t.Fatalf("erase: %v", err)
	}
	staked, owed = globals(t, cache)
	if staked != 1500 || owed != 600 {
		t.Fatalf("globals after erase = (%d, %d), want (1500, 600)", staked, owed)
	}

	// Owner index dropped b but kept a.
	list, err := engine.GetCDPList(owner)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].CDPID != a.CDPID {
		t.Fatalf("owner list = %v", list)
	}
}

func TestNewCDPRejectsDuplicate(t *testing.T) {
	engine, _ := newTestEngine()
	cdp := makeCDP(0x07, types.NewRegID(5, 0), 100, 10)
	if err := engine.NewCDP(cdp); err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := engine.NewCDP(cdp); err == nil {
		t.Fatal("duplicate cdpid accepted")
	}
}

func TestRatioIndexCoverage(t *testing.T) {
	engine, cache := newTestEngine()
	owner := types.NewRegID(10, 1)
	a := makeCDP(0x01, owner, 190, 100)
	if err := engine.NewCDP(a); err != nil {
		t.Fatalf("new: %v", err)
	}

	elems, err := cache.Ratios.GetAllElements("")
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(elems) != 1 {
		t.Fatalf("ratio index holds %d entries, want 1", len(elems))
	}
	if got := string(elems[0].Key[:16]); got != RatioIndexKey(a) {
		t.Fatalf("ratio key = %q, want %q", got, RatioIndexKey(a))
	}

	// Updating moves the single entry instead of accumulating.
	updated := *a
	updated.AddStake(101, 110, 0) // ratio 3.0
	if err := engine.UpdateCDP(a, &updated); err != nil {
		t.Fatalf("update: %v", err)
	}
	elems, err = cache.Ratios.GetAllElements("")
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(elems) != 1 {
		t.Fatalf("ratio index holds %d entries after update, want 1", len(elems))
	}
	if got := string(elems[0].Key[:16]); got != RatioIndexKey(&updated) {
		t.Fatalf("ratio key not moved: %q", got)
	}
}

func TestGetCdpListByCollateralRatioThreshold(t *testing.T) {
	engine, _ := newTestEngine()
	owner := types.NewRegID(10, 1)

	// Base ratios 1.90, 1.50, 1.04.
	high := makeCDP(0x01, owner, 190, 100)
	mid := makeCDP(0x02, owner, 150, 100)
	low := makeCDP(0x03, owner, 104, 100)
	for _, cdp := range []*types.UserCDP{high, mid, low} {
		if err := engine.NewCDP(cdp); err != nil {
			t.Fatalf("new: %v", err)
		}
	}

	// Threshold 180% at price 1.0: the 1.50 and 1.04 positions qualify.
	got, err := engine.GetCdpListByCollateralRatio(18000, 1*config.PriceBoost)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("candidate count = %d, want 2", len(got))
	}
	// Ascending ratio order: worst first.
	if got[0].CDPID != low.CDPID || got[1].CDPID != mid.CDPID {
		t.Fatalf("candidate order = %v, %v", got[0].CDPID, got[1].CDPID)
	}
}

func TestGlobalCollateralRatioChecks(t *testing.T) {
	engine, _ := newTestEngine()
	ratio, err := engine.GetGlobalCollateralRatio(config.PriceBoost)
	if err != nil {
		t.Fatalf("ratio: %v", err)
	}
	if ratio != math.MaxUint64 {
		t.Fatalf("empty book ratio = %d, want max", ratio)
	}

	owner := types.NewRegID(10, 1)
	if err := engine.NewCDP(makeCDP(0x01, owner, 200*config.COIN, 100*config.COIN)); err != nil {
		t.Fatalf("new: %v", err)
	}
	// staked=200, owed=100, price=1.0 => 200% => 20000 at RatioBoost scale.
	ratio, err = engine.GetGlobalCollateralRatio(config.PriceBoost)
	if err != nil {
		t.Fatalf("ratio: %v", err)
	}
	if ratio != 20000 {
		t.Fatalf("global ratio = %d, want 20000", ratio)
	}

	below, err := engine.CheckGlobalCollateralRatioFloorReached(config.PriceBoost, 25000)
	if err != nil || !below {
		t.Fatalf("floor check = (%v, %v), want reached", below, err)
	}
	below, err = engine.CheckGlobalCollateralRatioFloorReached(config.PriceBoost, 8000)
	if err != nil || below {
		t.Fatalf("floor check = (%v, %v), want clear", below, err)
	}

	// Ceiling of 250 whole coins with 200 staked: 40 more is fine, 60 is not.
	reached, err := engine.CheckGlobalCollateralCeilingReached(40*config.COIN, 250)
	if err != nil || reached {
		t.Fatalf("ceiling check = (%v, %v), want clear", reached, err)
	}
	reached, err = engine.CheckGlobalCollateralCeilingReached(60*config.COIN, 250)
	if err != nil || !reached {
		t.Fatalf("ceiling check = (%v, %v), want reached", reached, err)
	}
}
