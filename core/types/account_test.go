package types

import (
	"testing"

	"wicchain/config"
	"wicchain/crypto"
)

func TestTokenBalances(t *testing.T) {
	acct := NewAccount(NewRegID(2, 1), crypto.KeyID{1}, []byte{2})
	acct.AddToken("WICC", 100)
	acct.AddToken("WUSD", 50)
	acct.AddToken("WICC", 25)

	if got := acct.GetToken("WICC"); got != 125 {
		t.Fatalf("WICC = %d", got)
	}
	if err := acct.SubToken("WUSD", 60); err == nil {
		t.Fatal("overdraft allowed")
	}
	if err := acct.SubToken("WUSD", 50); err != nil {
		t.Fatalf("sub: %v", err)
	}
	if got := acct.GetToken("WUSD"); got != 0 {
		t.Fatalf("WUSD = %d", got)
	}
}

func TestInflateInterestZeroBeforeFork(t *testing.T) {
	params := config.Params(config.MainNet)
	acct := NewAccount(NewRegID(2, 1), crypto.KeyID{1}, []byte{2})
	acct.ReceivedVotes = 1_000_000 * config.COIN

	if got := acct.ComputeBlockInflateInterest(1, params); got != 0 {
		t.Fatalf("pre-fork interest = %d", got)
	}
	post := acct.ComputeBlockInflateInterest(params.FeatureForkHeight, params)
	if post == 0 {
		t.Fatal("post-fork interest is zero")
	}
}

func TestCollateralRatioBase(t *testing.T) {
	cdp := NewUserCDP(NewRegID(3, 1), [32]byte{1}, 50, "WICC", "WUSD")
	cdp.TotalStakedBcoins = 190
	cdp.TotalOwedScoins = 100
	if got := cdp.CollateralRatioBase(); got != 1.9 {
		t.Fatalf("ratio base = %v", got)
	}

	// 190% at price 1.0 on the boost scales.
	ratio := cdp.CollateralRatio(config.PriceBoost, config.PriceBoost, config.RatioBoost)
	if ratio != 19000 {
		t.Fatalf("ratio = %d, want 19000", ratio)
	}

	if err := cdp.Redeem(51, 190, 100); err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if !cdp.IsFinished() {
		t.Fatal("cdp not finished after full unwind")
	}
}
