package params

import (
	"testing"

	"wicchain/state"
	"wicchain/storage"
)

func TestGetFallsBackToDefault(t *testing.T) {
	store := NewStore(state.NewSysParamCache(storage.NewMemDB()))

	window, err := store.Get(MedianPriceSlideWindowBlockCount)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if window != 11 {
		t.Fatalf("default median window = %d, want 11", window)
	}
}

func TestSetOverridesDefault(t *testing.T) {
	cache := state.NewSysParamCache(storage.NewMemDB())
	store := NewStore(cache)

	if err := store.Set(CdpStartCollateralRatio, 20000); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := store.Get(CdpStartCollateralRatio)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != 20000 {
		t.Fatalf("overridden ratio = %d, want 20000", got)
	}
}

func TestEveryParamHasKeyAndDefault(t *testing.T) {
	seen := make(map[string]SysParamType)
	for p := MedianPriceSlideWindowBlockCount; p <= AssetUpdateFee; p++ {
		key, ok := PersistKey(p)
		if !ok {
			t.Fatalf("param %d missing persistence key", p)
		}
		if prev, dup := seen[key]; dup {
			t.Fatalf("key %q reused by %d and %d", key, prev, p)
		}
		seen[key] = p
		if _, ok := Default(p); !ok {
			t.Fatalf("param %d missing default", p)
		}
	}
	if len(seen) != 20 {
		t.Fatalf("expected 20 parameters, got %d", len(seen))
	}
}
