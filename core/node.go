package core

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"wicchain/config"
	"wicchain/consensus/dpos"
	"wicchain/core/types"
	"wicchain/crypto"
	"wicchain/mempool"
	"wicchain/observability/metrics"
	"wicchain/state"
	"wicchain/storage"
)

// Node is the central controller wiring the chain store, the committed cache
// view, the mempool, the wallet and the mining task together. It replaces
// the historical global singletons with one context passed by reference.
type Node struct {
	params *config.ChainParams
	cfg    *config.Config
	db     storage.Database
	chain  *Blockchain
	cdman  *state.CacheWrapper
	pool   *mempool.Mempool
	wallet *crypto.Wallet
	logger *slog.Logger

	miner    *dpos.Miner
	verifier *dpos.Verifier

	// chainMu is the chain-state guard; it is taken before any mempool
	// access so the lock order stays chain-state, mempool.
	chainMu sync.Mutex

	peerCount func() int
}

// NewNode opens (or creates) the chain at db and wires every component.
// genesisAccounts seed the committed state on first start.
func NewNode(db storage.Database, cfg *config.Config, chainParams *config.ChainParams,
	wallet *crypto.Wallet, genesisAccounts []GenesisAccount, logger *slog.Logger) (*Node, error) {

	genesis := CreateGenesisBlock(chainParams)
	chain, err := NewBlockchain(db, genesis)
	if err != nil {
		return nil, err
	}
	chainParams.GenesisBlockHash = chain.Tip().Hash

	if chain.Height() > 0 {
		// Re-derive the genesis identity from the stored chain.
		genesisBlock, err := chain.GetBlockByHeight(0)
		if err != nil {
			return nil, err
		}
		chainParams.GenesisBlockHash = genesisBlock.Header.Hash()
	}

	cdman := state.NewCacheWrapper(db)

	n := &Node{
		params:    chainParams,
		cfg:       cfg,
		db:        db,
		chain:     chain,
		cdman:     cdman,
		pool:      mempool.NewMempool(),
		wallet:    wallet,
		logger:    logger,
		peerCount: func() int { return 0 },
	}

	if len(genesisAccounts) > 0 {
		if _, ok, err := cdman.GetAccount(genesisAccounts[0].RegID); err != nil {
			return nil, err
		} else if !ok {
			if err := InitGenesisState(cdman, genesisAccounts); err != nil {
				return nil, fmt.Errorf("init genesis state: %w", err)
			}
		}
	}

	n.miner = dpos.NewMiner(chainParams, cfg, n, n.pool, wallet, logger)
	n.miner.Assembler().SetFundCoinRewardSet(func(p *config.ChainParams) []types.Transaction {
		return CreateFundCoinRewardTxs(p)
	})
	n.verifier = dpos.NewVerifier(chainParams, chain, logger)
	return n, nil
}

// Miner returns the mining task controller.
func (n *Node) Miner() *dpos.Miner { return n.miner }

// Mempool returns the shared pending-transaction pool.
func (n *Node) Mempool() *mempool.Mempool { return n.pool }

// Chain returns the block store.
func (n *Node) Chain() *Blockchain { return n.chain }

// SetPeerCountFn injects the network layer's live peer counter.
func (n *Node) SetPeerCountFn(fn func() int) {
	if fn != nil {
		n.peerCount = fn
	}
}

// AddTransaction admits a transaction into the mempool.
func (n *Node) AddTransaction(tx types.Transaction) bool {
	changed := n.pool.AddTx(tx)
	metrics.Miner().MempoolSize(n.pool.Size())
	return changed
}

// --- dpos.NodeInterface ---

func (n *Node) Tip() *types.BlockIndex { return n.chain.Tip() }

func (n *Node) Height() uint32 { return n.chain.Height() }

func (n *Node) GetIndex(hash common.Hash) (*types.BlockIndex, bool) {
	return n.chain.GetIndex(hash)
}

func (n *Node) ReadBlock(idx *types.BlockIndex) (*types.Block, error) {
	return n.chain.ReadBlock(idx)
}

func (n *Node) CommittedView() *state.CacheWrapper { return n.cdman }

func (n *Node) WithChainState(fn func() error) error {
	n.chainMu.Lock()
	defer n.chainMu.Unlock()
	return fn()
}

func (n *Node) PeerCount() int { return n.peerCount() }

// ProcessBlock validates and connects a block onto the active chain, exactly
// the same whether it was mined locally or received from a peer.
func (n *Node) ProcessBlock(block *types.Block) error {
	n.chainMu.Lock()
	defer n.chainMu.Unlock()

	if block.Header.PrevHash != n.chain.Tip().Hash {
		return fmt.Errorf("block %d is stale: prevhash %s vs tip %s",
			block.Header.Height, block.Header.PrevHash.Hex(), n.chain.Tip().Hash.Hex())
	}

	// Stablecoin genesis blocks carry system transactions only and skip
	// the delegate schedule re-check performed by the verifier; every
	// other block passes full verification including re-execution.
	if block.Header.Height != n.params.StableCoinGenesisHeight {
		if err := n.verifier.VerifyRewardTx(block, n.cdman, true); err != nil {
			return fmt.Errorf("verify block %d: %w", block.Header.Height, err)
		}
	}

	if err := n.connectBlock(block); err != nil {
		return fmt.Errorf("connect block %d: %w", block.Header.Height, err)
	}

	// Connected transactions leave the pool.
	for _, tx := range block.Txs {
		n.pool.RemoveTx(tx.GetHash())
	}
	metrics.Miner().MempoolSize(n.pool.Size())

	n.logger.Info("connected block", "height", block.Header.Height,
		"hash", block.Header.Hash().Hex(), "txs", len(block.Txs))
	return nil
}

// connectBlock executes the block into a scratch view and commits it. The
// undo log contains the per-operation inverses while the scratch is live, so
// a failure mid-block leaves the committed view untouched.
func (n *Node) connectBlock(block *types.Block) error {
	spCW := state.SpawnCacheWrapper(n.cdman)
	spCW.EnableUndoLog()

	for i, tx := range block.Txs {
		vs := &types.ValidationState{}
		ctx := &types.ExecuteContext{
			Height:    block.Header.Height,
			Index:     uint32(i),
			FuelRate:  block.Header.FuelRate,
			BlockTime: int64(block.Header.Time),
			Cache:     spCW,
			State:     vs,
		}
		if err := tx.ExecuteTx(ctx); err != nil {
			spCW.UndoData()
			n.cdman.LogCache.SetExecuteFail(block.Header.Height, tx.GetHash(), vs.RejectCode(), vs.RejectReason())
			return err
		}
		spCW.TxCache.AddTx(tx.GetHash(), block.Header.Height)
	}

	spCW.DisableUndoLog()
	if err := spCW.Flush(); err != nil {
		return err
	}
	if err := n.cdman.Flush(); err != nil {
		return err
	}
	return n.chain.AddBlock(block)
}
