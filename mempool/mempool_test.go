package mempool

import (
	"testing"

	"wicchain/core/types"
	"wicchain/crypto"
)

func transferTx(seed byte, fee uint64) *types.BaseCoinTransferTx {
	var to crypto.KeyID
	to[0] = seed
	return &types.BaseCoinTransferTx{
		BaseTx: types.BaseTx{
			TxVersion:   types.InitTxVersion,
			ValidHeight: 10,
			TxUID:       types.NewRegID(1, uint16(seed)),
			FeeSymbol:   "WICC",
			FeeAmount:   fee,
		},
		ToKeyID: to,
		Amount:  100,
	}
}

func TestAddRemoveIdempotence(t *testing.T) {
	pool := NewMempool()
	tx := transferTx(1, 10000)

	if !pool.AddTx(tx) {
		t.Fatal("first insert reported no change")
	}
	n := pool.UpdateNum()
	if pool.AddTx(tx) {
		t.Fatal("reinsert reported a change")
	}
	if pool.UpdateNum() != n {
		t.Fatal("update counter advanced on no-op insert")
	}

	if !pool.RemoveTx(tx.GetHash()) {
		t.Fatal("remove reported no change")
	}
	if pool.RemoveTx(tx.GetHash()) {
		t.Fatal("removing absent tx reported a change")
	}
	if pool.UpdateNum() != n+1 {
		t.Fatalf("update counter = %d, want %d", pool.UpdateNum(), n+1)
	}
}

func TestRewardTxNeverAdmitted(t *testing.T) {
	pool := NewMempool()
	reward := types.NewBlockRewardTx()
	if pool.AddTx(reward) {
		t.Fatal("reward tx admitted")
	}
	if pool.Size() != 0 {
		t.Fatal("pool not empty")
	}
}

func TestUpdateNumMonotone(t *testing.T) {
	pool := NewMempool()
	var last uint64
	for i := byte(1); i <= 5; i++ {
		pool.AddTx(transferTx(i, 10000))
		if pool.UpdateNum() <= last {
			t.Fatalf("update counter not monotone at %d", i)
		}
		last = pool.UpdateNum()
	}
}
