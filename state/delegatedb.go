package state

import (
	"sort"

	"wicchain/core/types"
	"wicchain/storage"
)

// DelegateCache holds per-account received votes and answers the top-N
// delegate query driving the scheduler.
type DelegateCache struct {
	Votes *KeyedStore[string, uint64]
}

func NewDelegateCache(db storage.Database) *DelegateCache {
	return &DelegateCache{Votes: NewRootStore[string, uint64](StoreDelegateVotes, "d", db)}
}

func SpawnDelegateCache(parent *DelegateCache) *DelegateCache {
	return &DelegateCache{Votes: NewChildStore(parent.Votes)}
}

// SetDelegateVotes records the vote weight received by regID.
func (c *DelegateCache) SetDelegateVotes(regID types.RegID, votes uint64) {
	c.Votes.Set(regID.RawKey(), votes)
}

// GetDelegateVotes returns the vote weight received by regID.
func (c *DelegateCache) GetDelegateVotes(regID types.RegID) (uint64, bool, error) {
	return c.Votes.Get(regID.RawKey())
}

// GetTopDelegateList returns the top-n regids ordered by votes received,
// breaking ties on regid so every node derives the same list.
func (c *DelegateCache) GetTopDelegateList(n uint32) ([]types.RegID, error) {
	elems, err := c.Votes.GetAllElements("")
	if err != nil {
		return nil, err
	}
	type ranked struct {
		regID types.RegID
		votes uint64
		key   string
	}
	all := make([]ranked, 0, len(elems))
	for _, kv := range elems {
		regID := regIDFromRawKey(kv.Key)
		all = append(all, ranked{regID: regID, votes: kv.Value, key: kv.Key})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].votes != all[j].votes {
			return all[i].votes > all[j].votes
		}
		return all[i].key < all[j].key
	})
	if uint32(len(all)) > n {
		all = all[:n]
	}
	out := make([]types.RegID, 0, len(all))
	for _, r := range all {
		out = append(out, r.regID)
	}
	return out, nil
}

func regIDFromRawKey(key string) types.RegID {
	if len(key) != 6 {
		return types.RegID{}
	}
	b := []byte(key)
	return types.RegID{
		Height: uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]),
		Index:  uint16(b[4])<<8 | uint16(b[5]),
	}
}

func (c *DelegateCache) SetUndoLog(log *UndoLog) { c.Votes.SetUndoLog(log) }

func (c *DelegateCache) Flush() error { return c.Votes.Flush() }

func (c *DelegateCache) CacheSize() int { return c.Votes.CacheSize() }
