package core

import (
	"testing"

	"wicchain/config"
	"wicchain/core/types"
	"wicchain/storage"
)

func TestBlockchainReopensFromStore(t *testing.T) {
	db := storage.NewMemDB()
	params := config.Params(config.RegTest)

	genesis := CreateGenesisBlock(params)
	chain, err := NewBlockchain(db, genesis)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if chain.Height() != 0 {
		t.Fatalf("fresh chain height = %d", chain.Height())
	}

	next := &types.Block{
		Header: types.BlockHeader{
			Version:  types.CurrentBlockVersion,
			PrevHash: chain.Tip().Hash,
			Height:   1,
			Time:     chain.Tip().Time + 10,
			FuelRate: config.InitFuelRate,
		},
		Txs: []types.Transaction{types.NewBlockRewardTx()},
	}
	next.Header.MerkleRoot = next.BuildMerkleTree()
	if err := chain.AddBlock(next); err != nil {
		t.Fatalf("add: %v", err)
	}

	reopened, err := NewBlockchain(db, genesis)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.Height() != 1 {
		t.Fatalf("reopened height = %d, want 1", reopened.Height())
	}
	if reopened.Tip().Hash != next.Header.Hash() {
		t.Fatal("reopened tip mismatch")
	}
	if reopened.Tip().Prev == nil || reopened.Tip().Prev.Height != 0 {
		t.Fatal("index chain not rebuilt")
	}

	got, err := reopened.GetBlockByHeight(1)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Header.Hash() != next.Header.Hash() {
		t.Fatal("stored block mismatch")
	}
}

func TestAddBlockRejectsNonExtending(t *testing.T) {
	db := storage.NewMemDB()
	params := config.Params(config.RegTest)
	chain, err := NewBlockchain(db, CreateGenesisBlock(params))
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	orphan := &types.Block{
		Header: types.BlockHeader{Height: 1},
		Txs:    []types.Transaction{types.NewBlockRewardTx()},
	}
	if err := chain.AddBlock(orphan); err == nil {
		t.Fatal("orphan accepted")
	}
}
