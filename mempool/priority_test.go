package mempool

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestPriorityBandFallsThroughToFeeRate(t *testing.T) {
	// |5500-5000| <= 1000, so fee-per-kB decides: A wins on 10 vs 1.
	a := NewTxPriority(5000, 10, transferTx(1, 10000))
	b := NewTxPriority(5500, 1, transferTx(2, 10000))

	items := []TxPriority{b, a}
	SortDescending(items)
	if items[0].FeePerKB != 10 {
		t.Fatalf("expected the higher fee rate first, got priority=%v feePerKB=%v",
			items[0].Priority, items[0].FeePerKB)
	}
}

func TestPriorityOutsideBandDominates(t *testing.T) {
	a := NewTxPriority(100, 50, transferTx(1, 10000))
	b := NewTxPriority(5000, 1, transferTx(2, 10000))

	items := []TxPriority{a, b}
	SortDescending(items)
	if items[0].Priority != 5000 {
		t.Fatalf("expected priority 5000 first, got %v", items[0].Priority)
	}
}

func TestOrderIsStrictAndTotal(t *testing.T) {
	txs := []TxPriority{
		NewTxPriority(10, 5, transferTx(1, 10000)),
		NewTxPriority(10, 5, transferTx(2, 10000)),
		NewTxPriority(10, 5, transferTx(3, 10000)),
	}
	for i := range txs {
		if txs[i].Less(txs[i]) {
			t.Fatal("order not irreflexive")
		}
		for j := range txs {
			if i == j {
				continue
			}
			if txs[i].Less(txs[j]) == txs[j].Less(txs[i]) {
				t.Fatalf("order not asymmetric/total for %d,%d", i, j)
			}
		}
	}
	// Transitivity over the hash tie-break: sort twice, same result.
	first := append([]TxPriority(nil), txs...)
	SortDescending(first)
	second := append([]TxPriority(nil), first...)
	SortDescending(second)
	for i := range first {
		if first[i].Tx.GetHash() != second[i].Tx.GetHash() {
			t.Fatal("sort not stable under repetition")
		}
	}
}

func TestCollectSkipsConfirmed(t *testing.T) {
	pool := NewMempool()
	confirmed := transferTx(1, 10000)
	fresh := transferTx(2, 10000)
	pool.AddTx(confirmed)
	pool.AddTx(fresh)

	seen := seenSet{confirmed.GetHash(): true}
	items, err := CollectPriorityTx(pool, 10, 100, seen)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("candidate count = %d, want 1", len(items))
	}
	if items[0].Tx.GetHash() != fresh.GetHash() {
		t.Fatal("wrong candidate survived the seen filter")
	}
}

type seenSet map[common.Hash]bool

func (s seenSet) HaveTx(txid common.Hash) (bool, error) { return s[txid], nil }
