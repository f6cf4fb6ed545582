package state

import (
	"github.com/ethereum/go-ethereum/common"

	"wicchain/core/types"
	"wicchain/storage"
)

// Fixed keys of the two global counters inside the globals store.
const (
	globalStakedKey = "s"
	globalOwedKey   = "o"
)

// CdpCache is the typed CDP tier: the primary cdpid store, the owner index,
// the ratio-sorted index, the two global aggregate counters and the
// closed-CDP audit set. Lifecycle rules live in native/cdp; this layer only
// provides the versioned stores.
type CdpCache struct {
	Cdps    *KeyedStore[string, types.UserCDP]
	Owners  *KeyedStore[string, CdpIDList]
	Ratios  *KeyedStore[string, types.UserCDP]
	Globals *KeyedStore[string, uint64]
	Closed  *KeyedStore[string, uint32]
}

// CdpIDList is the owner index value: the cdpids held by one regid.
type CdpIDList []common.Hash

// Contains reports membership of id.
func (l CdpIDList) Contains(id common.Hash) bool {
	for _, have := range l {
		if have == id {
			return true
		}
	}
	return false
}

// Without returns the list with id removed.
func (l CdpIDList) Without(id common.Hash) CdpIDList {
	out := make(CdpIDList, 0, len(l))
	for _, have := range l {
		if have != id {
			out = append(out, have)
		}
	}
	return out
}

func NewCdpCache(db storage.Database) *CdpCache {
	return &CdpCache{
		Cdps:    NewRootStore[string, types.UserCDP](StoreCDP, "c", db),
		Owners:  NewRootStore[string, CdpIDList](StoreCDPOwnerIndex, "r", db),
		Ratios:  NewRootStore[string, types.UserCDP](StoreCDPRatioIndex, "R", db),
		Globals: NewRootStore[string, uint64](StoreCDPGlobals, "g", db),
		Closed:  NewRootStore[string, uint32](StoreClosedCDP, "C", db),
	}
}

func SpawnCdpCache(parent *CdpCache) *CdpCache {
	return &CdpCache{
		Cdps:    NewChildStore(parent.Cdps),
		Owners:  NewChildStore(parent.Owners),
		Ratios:  NewChildStore(parent.Ratios),
		Globals: NewChildStore(parent.Globals),
		Closed:  NewChildStore(parent.Closed),
	}
}

// GetGlobalStakedBcoins returns the sum of staked bcoins over live CDPs.
func (c *CdpCache) GetGlobalStakedBcoins() (uint64, error) {
	v, _, err := c.Globals.Get(globalStakedKey)
	return v, err
}

// GetGlobalOwedScoins returns the sum of owed scoins over live CDPs.
func (c *CdpCache) GetGlobalOwedScoins() (uint64, error) {
	v, _, err := c.Globals.Get(globalOwedKey)
	return v, err
}

// SetGlobalStakedBcoins overwrites the staked aggregate.
func (c *CdpCache) SetGlobalStakedBcoins(v uint64) { c.Globals.Set(globalStakedKey, v) }

// SetGlobalOwedScoins overwrites the owed aggregate.
func (c *CdpCache) SetGlobalOwedScoins(v uint64) { c.Globals.Set(globalOwedKey, v) }

func (c *CdpCache) SetUndoLog(log *UndoLog) {
	c.Cdps.SetUndoLog(log)
	c.Owners.SetUndoLog(log)
	c.Ratios.SetUndoLog(log)
	c.Globals.SetUndoLog(log)
	c.Closed.SetUndoLog(log)
}

func (c *CdpCache) Flush() error {
	for _, flush := range []func() error{
		c.Cdps.Flush, c.Owners.Flush, c.Ratios.Flush, c.Globals.Flush, c.Closed.Flush,
	} {
		if err := flush(); err != nil {
			return err
		}
	}
	return nil
}

func (c *CdpCache) CacheSize() int {
	return c.Cdps.CacheSize() + c.Owners.CacheSize() + c.Ratios.CacheSize() +
		c.Globals.CacheSize() + c.Closed.CacheSize()
}
