package core

import (
	"log/slog"
	"testing"
	"time"

	"wicchain/config"
	"wicchain/core/types"
	"wicchain/crypto"
	"wicchain/state"
	"wicchain/storage"
)

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discard{}, &slog.HandlerOptions{Level: slog.LevelError}))
}

func regtestConfig() *config.Config {
	return &config.Config{
		NetworkName:     "regtest",
		BlockMaxSize:    config.DefaultBlockMaxSize,
		BurnBlockWindow: config.DefaultBurnBlockWindow,
	}
}

// newRegtestNode builds a single-delegate regtest node whose delegate key is
// held by the returned wallet.
func newRegtestNode(t *testing.T) (*Node, *crypto.PrivateKey) {
	t.Helper()
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	wallet := crypto.NewWallet()
	wallet.AddMinerKey(key)

	accounts := []GenesisAccount{{
		RegID:       types.NewRegID(0, 1),
		OwnerPubKey: key.PubKey().Bytes(),
		Balance:     1_000_000 * config.COIN,
		Votes:       100_000 * config.COIN,
	}}

	node, err := NewNode(storage.NewMemDB(), regtestConfig(), config.Params(config.RegTest),
		wallet, accounts, quietLogger())
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	return node, key
}

// produceNext assembles, finalizes and connects the next block, stamping it
// into the delegate's slot following the previous block.
func produceNext(t *testing.T, node *Node) *types.Block {
	t.Helper()
	tip := node.Tip()
	height := tip.Height + 1
	currentTime := int64(tip.Time) + int64(node.params.BlockInterval(height))

	cw := state.SpawnCacheWrapper(node.CommittedView())
	asm := node.Miner().Assembler()
	block, err := asm.CreateNewBlock(cw)
	if err != nil {
		t.Fatalf("create block %d: %v", height, err)
	}

	delegate, ok, err := node.CommittedView().GetAccount(types.NewRegID(0, 1))
	if err != nil || !ok {
		t.Fatalf("delegate account: %v", err)
	}
	if err := asm.CreateBlockRewardTx(currentTime, delegate, cw, block); err != nil {
		t.Fatalf("finalize block %d: %v", height, err)
	}
	if err := node.ProcessBlock(block); err != nil {
		t.Fatalf("process block %d: %v", height, err)
	}
	return block
}

func TestRegtestFirstBlock(t *testing.T) {
	node, _ := newRegtestNode(t)

	block := produceNext(t, node)

	if block.Header.Height != 1 {
		t.Fatalf("height = %d, want 1", block.Header.Height)
	}
	if len(block.Txs) != 1 || !block.Txs[0].IsBlockRewardTx() {
		t.Fatalf("first block txs = %d", len(block.Txs))
	}
	if block.Header.Fuel != 0 {
		t.Fatalf("fuel = %d, want 0", block.Header.Fuel)
	}
	if block.Header.FuelRate != config.InitFuelRate {
		t.Fatalf("fuel rate = %d, want %d", block.Header.FuelRate, config.InitFuelRate)
	}
	if len(block.Header.Signature) == 0 {
		t.Fatal("block not signed")
	}
	if node.Height() != 1 {
		t.Fatalf("tip height = %d, want 1", node.Height())
	}
}

func TestAssemblerVerifierRoundTrip(t *testing.T) {
	node, key := newRegtestNode(t)

	// Block 1: empty. Block 2: carries a transfer.
	produceNext(t, node)

	var to crypto.KeyID
	to[0] = 0x42
	tx := &types.BaseCoinTransferTx{
		BaseTx: types.BaseTx{
			TxVersion:   types.InitTxVersion,
			ValidHeight: 2,
			TxUID:       types.NewRegID(0, 1),
			FeeSymbol:   config.SymbolWICC,
			FeeAmount:   config.CENT,
		},
		ToKeyID: to,
		Amount:  config.COIN,
	}
	sig, err := key.Sign(tx.SignatureHash(false).Bytes())
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	tx.SetSignature(sig)
	if !node.AddTransaction(tx) {
		t.Fatal("transfer not admitted")
	}

	block := produceNext(t, node)
	if len(block.Txs) != 2 {
		t.Fatalf("block 2 txs = %d, want 2", len(block.Txs))
	}
	if block.Header.Fuel == 0 {
		t.Fatal("expected nonzero fuel for a packed transfer")
	}

	// The transfer left the pool and the destination account exists.
	if node.Mempool().Size() != 0 {
		t.Fatalf("mempool size = %d, want 0", node.Mempool().Size())
	}
	dest, ok, err := node.CommittedView().GetAccountByKeyID(to)
	if err != nil || !ok {
		t.Fatalf("destination account missing: %v", err)
	}
	if dest.GetToken(config.SymbolWICC) != config.COIN {
		t.Fatalf("destination balance = %d", dest.GetToken(config.SymbolWICC))
	}

	// Replaying the same block must be rejected as stale/duplicate.
	if err := node.ProcessBlock(block); err == nil {
		t.Fatal("replayed block accepted")
	}
}

func TestVerifierRejectsTamperedBlock(t *testing.T) {
	node, _ := newRegtestNode(t)
	produceNext(t, node)

	tip := node.Tip()
	height := tip.Height + 1
	currentTime := int64(tip.Time) + int64(node.params.BlockInterval(height))

	cw := state.SpawnCacheWrapper(node.CommittedView())
	asm := node.Miner().Assembler()
	block, err := asm.CreateNewBlock(cw)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	delegate, _, _ := node.CommittedView().GetAccount(types.NewRegID(0, 1))
	if err := asm.CreateBlockRewardTx(currentTime, delegate, cw, block); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	// Tamper with the fuel total after signing.
	block.Header.Fuel = 12345
	if err := node.ProcessBlock(block); err == nil {
		t.Fatal("tampered block accepted")
	}
}

func TestMinerProducesBlockRegtest(t *testing.T) {
	node, _ := newRegtestNode(t)

	node.Miner().GenerateCoinBlock(true, 1)
	defer node.Miner().Stop()

	deadline := time.Now().Add(10 * time.Second)
	for node.Height() < 1 {
		if time.Now().After(deadline) {
			t.Fatal("miner produced no block within the deadline")
		}
		time.Sleep(20 * time.Millisecond)
	}

	mined := node.Miner().GetMinedBlocks(1)
	if len(mined) != 1 {
		t.Fatalf("mined ring holds %d entries, want 1", len(mined))
	}
	if mined[0].Height != 1 {
		t.Fatalf("mined height = %d", mined[0].Height)
	}
}

func TestStablecoinGenesisTransition(t *testing.T) {
	node, _ := newRegtestNode(t)
	params := node.params

	// Heights 1..9 run the pre-stablecoin path.
	for h := uint32(1); h < params.StableCoinGenesisHeight; h++ {
		block := produceNext(t, node)
		if _, ok := block.Txs[0].(*types.BlockRewardTx); !ok {
			t.Fatalf("height %d head tx = %s", h, block.Txs[0].TxType())
		}
	}

	// Height 10 is the one-off fund-coin genesis.
	genesisBlock := produceNext(t, node)
	if genesisBlock.Header.Height != params.StableCoinGenesisHeight {
		t.Fatalf("genesis height = %d", genesisBlock.Header.Height)
	}
	if genesisBlock.Header.Fuel != 0 {
		t.Fatalf("genesis fuel = %d", genesisBlock.Header.Fuel)
	}
	if len(genesisBlock.Txs) != 3 {
		t.Fatalf("genesis txs = %d, want reward + 2 fund txs", len(genesisBlock.Txs))
	}
	fcoin, ok, err := node.CommittedView().GetAccount(FcoinGenesisRegID(params))
	if err != nil || !ok {
		t.Fatalf("fcoin genesis account missing: %v", err)
	}
	if fcoin.GetToken(config.SymbolWGRT) == 0 {
		t.Fatal("fund coins not released")
	}

	// Height 11 onward uses the stablecoin path with the injected median tx.
	postBlock := produceNext(t, node)
	if _, ok := postBlock.Txs[0].(*types.UCoinBlockRewardTx); !ok {
		t.Fatalf("post-fork head tx = %s", postBlock.Txs[0].TxType())
	}
	foundMedian := false
	for _, tx := range postBlock.Txs[1:] {
		if tx.IsPriceMedianTx() {
			foundMedian = true
		}
	}
	if !foundMedian {
		t.Fatal("post-fork block missing the price median tx")
	}
}
