package mempool

import (
	"math"
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"wicchain/core/types"
)

// Priority comparison bands. Priorities within the ceiling of each other are
// considered equal and fall through to fee-per-kB; fee rates within epsilon
// fall through to the hash tie-break, making the order strict and total.
const (
	priorityBand = 1000.0
	feePerKBEps  = 1e-8
)

// TxPriority is one candidate in the packing order.
type TxPriority struct {
	Priority float64
	FeePerKB float64
	Tx       types.Transaction
}

func NewTxPriority(priority, feePerKB float64, tx types.Transaction) TxPriority {
	return TxPriority{Priority: priority, FeePerKB: feePerKB, Tx: tx}
}

// Less orders p strictly before other. Higher priority, then higher
// fee-per-kB, then higher hash wins; Less returns true when p packs later
// (mirroring set iteration from the back in the reference ordering).
func (p TxPriority) Less(other TxPriority) bool {
	if math.Abs(p.Priority-other.Priority) > priorityBand {
		return p.Priority < other.Priority
	}
	if math.Abs(p.FeePerKB-other.FeePerKB) > feePerKBEps {
		return p.FeePerKB < other.FeePerKB
	}
	a, b := p.Tx.GetHash(), other.Tx.GetHash()
	return bytesLess(a, b)
}

func bytesLess(a, b common.Hash) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// TxSeenChecker answers whether a txid was already confirmed.
type TxSeenChecker interface {
	HaveTx(txid common.Hash) (bool, error)
}

// CollectPriorityTx pulls the pool snapshot into priority candidates,
// excluding reward transactions and anything already confirmed. The fee rate
// nets out the fuel burned at the given rate.
func CollectPriorityTx(pool *Mempool, height uint32, fuelRate uint64, seen TxSeenChecker) ([]TxPriority, error) {
	entries := pool.Entries()
	out := make([]TxPriority, 0, len(entries))
	for _, e := range entries {
		if e.Tx.IsBlockRewardTx() {
			continue
		}
		if seen != nil {
			confirmed, err := seen.HaveTx(e.Tx.GetHash())
			if err != nil {
				return nil, err
			}
			if confirmed {
				continue
			}
		}
		fuel := e.Tx.GetFuel(height, fuelRate)
		feePerKB := (float64(e.FeeAmount) - float64(fuel)) / float64(e.Size) * 1000.0
		out = append(out, NewTxPriority(e.Priority, feePerKB, e.Tx))
	}
	return out, nil
}

// SortDescending orders candidates best-first.
func SortDescending(items []TxPriority) {
	sort.Slice(items, func(i, j int) bool {
		return items[j].Less(items[i])
	})
}
