package dpos

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"time"

	"wicchain/config"
	"wicchain/core/types"
	"wicchain/crypto"
	"wicchain/mempool"
	"wicchain/native/params"
	"wicchain/observability/metrics"
	"wicchain/state"
)

var (
	errNoTip         = errors.New("dpos: chain has no tip")
	errSignerRefused = errors.New("dpos: signer refused block signature")
	errFeeBelowFuel  = errors.New("dpos: transaction fee below burnt fuel")
	errBadFeeSymbol  = errors.New("dpos: fee symbol not accepted at this fork")
	errStaleBuild    = errors.New("dpos: chain advanced during block build")
)

// Assembler builds candidate blocks: it drives the scheduler, pulls the
// mempool through the priority queue, executes against a scratch cache and
// packs within the block's resource bounds.
type Assembler struct {
	params *config.ChainParams
	cfg    *config.Config
	node   NodeInterface
	pool   *mempool.Mempool
	signer crypto.Signer
	logger *slog.Logger

	fundCoinSet func(chainParams *config.ChainParams) []types.Transaction

	// now is swappable so slot arithmetic is testable.
	now func() time.Time
}

func NewAssembler(chainParams *config.ChainParams, cfg *config.Config, node NodeInterface,
	pool *mempool.Mempool, signer crypto.Signer, logger *slog.Logger) *Assembler {
	return &Assembler{
		params: chainParams,
		cfg:    cfg,
		node:   node,
		pool:   pool,
		signer: signer,
		logger: logger,
		now:    time.Now,
	}
}

// blockMaxSize clamps the configured bound into the consensus window.
func (a *Assembler) blockMaxSize() uint64 {
	size := uint64(a.cfg.BlockMaxSize)
	if size < 1000 {
		size = 1000
	}
	if size > config.MaxBlockSize-1000 {
		size = config.MaxBlockSize - 1000
	}
	return size
}

// updateTime stamps the block with max(now, prev.time+1).
func (a *Assembler) updateTime(block *types.Block, prev *types.BlockIndex) {
	now := uint32(a.now().Unix())
	if now <= prev.Time {
		now = prev.Time + 1
	}
	block.Header.Time = now
}

// CreateNewBlock selects the fork-appropriate factory for the next height.
func (a *Assembler) CreateNewBlock(cw *state.CacheWrapper) (*types.Block, error) {
	tip := a.node.Tip()
	if tip == nil {
		return nil, errNoTip
	}
	height := tip.Height + 1
	switch {
	case height == a.params.StableCoinGenesisHeight:
		return a.CreateStableCoinGenesisBlock()
	case a.params.FeatureForkVersion(height) == config.MajorVerR1:
		return a.CreateNewBlockPreStableCoinRelease(cw)
	default:
		return a.CreateNewBlockStableCoinRelease(cw)
	}
}

// CreateNewBlockPreStableCoinRelease packs a block under the pre-stablecoin
// rules: single-symbol fees, single-value reward.
func (a *Assembler) CreateNewBlockPreStableCoinRelease(cw *state.CacheWrapper) (*types.Block, error) {
	block := &types.Block{Txs: []types.Transaction{types.NewBlockRewardTx()}}
	reward := uint64(0)

	err := a.packBlock(cw, block, false, func(feeSymbol string, net uint64) error {
		if feeSymbol != config.SymbolWICC {
			return fmt.Errorf("%w: %s", errBadFeeSymbol, feeSymbol)
		}
		reward += net
		return nil
	})
	if err != nil {
		return nil, err
	}

	block.Txs[0].(*types.BlockRewardTx).RewardFees = reward
	return block, nil
}

// CreateStableCoinGenesisBlock builds the one-off fund-coin genesis block:
// no mempool packing, zero fuel, the network's fund-coin reward set.
func (a *Assembler) CreateStableCoinGenesisBlock() (*types.Block, error) {
	tip := a.node.Tip()
	if tip == nil {
		return nil, errNoTip
	}

	block := &types.Block{Txs: []types.Transaction{types.NewBlockRewardTx()}}
	block.Txs = append(block.Txs, a.fundCoinRewardTxs()...)

	block.Header.Version = types.CurrentBlockVersion
	block.Header.PrevHash = tip.Hash
	block.Header.Height = tip.Height + 1
	block.Header.Fuel = 0
	block.Header.FuelRate = GetElementForBurn(tip, a.cfg.BurnBlockWindow)
	a.updateTime(block, tip)
	return block, nil
}

// SetFundCoinRewardSet installs the network fund-coin genesis builder. The
// node wires it in so the assembler stays free of genesis policy.
func (a *Assembler) SetFundCoinRewardSet(fn func(chainParams *config.ChainParams) []types.Transaction) {
	a.fundCoinSet = fn
}

func (a *Assembler) fundCoinRewardTxs() []types.Transaction {
	if a.fundCoinSet == nil {
		return nil
	}
	return a.fundCoinSet(a.params)
}

// CreateNewBlockStableCoinRelease packs a block under the stablecoin rules:
// WICC/WUSD fees, per-symbol reward map, injected price-median transaction
// and vote-staking inflation for the delegate.
func (a *Assembler) CreateNewBlockStableCoinRelease(cw *state.CacheWrapper) (*types.Block, error) {
	block := &types.Block{Txs: []types.Transaction{types.NewUCoinBlockRewardTx()}}
	rewards := map[string]uint64{config.SymbolWICC: 0, config.SymbolWUSD: 0}

	err := a.packBlock(cw, block, true, func(feeSymbol string, net uint64) error {
		if feeSymbol != config.SymbolWICC && feeSymbol != config.SymbolWUSD {
			return fmt.Errorf("%w: %s", errBadFeeSymbol, feeSymbol)
		}
		rewards[feeSymbol] += net
		return nil
	})
	if err != nil {
		return nil, err
	}

	fees := make([]types.TokenAmount, 0, len(rewards))
	for symbol, amount := range rewards {
		fees = append(fees, types.TokenAmount{Symbol: symbol, Amount: amount})
	}
	sort.Slice(fees, func(i, j int) bool { return fees[i].Symbol < fees[j].Symbol })
	block.Txs[0].(*types.UCoinBlockRewardTx).RewardFees = fees
	return block, nil
}

// packBlock runs the shared packing loop: priority order, per-transaction
// scratch caches, and the slot-time, size and run-step bounds. addReward
// folds each packed transaction's net fee into the reward accumulator.
func (a *Assembler) packBlock(cw *state.CacheWrapper, block *types.Block, postStable bool,
	addReward func(feeSymbol string, net uint64) error) error {

	tip := a.node.Tip()
	if tip == nil {
		return errNoTip
	}
	a.updateTime(block, tip)
	blockTime := block.Header.Time
	height := tip.Height + 1
	fuelRate := GetElementForBurn(tip, a.cfg.BurnBlockWindow)
	blockMaxSize := a.blockMaxSize()

	candidates, err := mempool.CollectPriorityTx(a.pool, height, fuelRate, cw.TxCache)
	if err != nil {
		return err
	}
	if postStable {
		candidates = append(candidates,
			mempool.NewTxPriority(types.PriceMedianTxPriority, 0, types.NewBlockPriceMedianTx(height)))
	}
	mempool.SortDescending(candidates)

	a.logger.Debug("packing candidates sorted by priority rules",
		"height", height, "count", len(candidates))

	var (
		totalSize    uint64
		totalRunStep uint64
		totalFuel    uint64
		index        uint32
	)
	if size, err := block.SerializedSize(); err == nil {
		totalSize = size
	}
	interval := time.Duration(a.params.BlockInterval(height)) * time.Second
	start := a.now()

	for _, cand := range candidates {
		if a.now().Sub(start) >= interval-time.Second {
			break
		}
		tx := cand.Tx

		txSize := uint64(tx.Size())
		if totalSize+txSize >= blockMaxSize {
			a.logger.Debug("skip tx exceeding block size", "txid", tx.GetHash().Hex())
			continue
		}

		spCW := state.SpawnCacheWrapper(cw)
		vs := &types.ValidationState{}
		ctx := &types.ExecuteContext{
			Height:    height,
			Index:     index + 1,
			FuelRate:  fuelRate,
			BlockTime: int64(blockTime),
			Cache:     spCW,
			State:     vs,
		}

		if median, ok := tx.(*types.BlockPriceMedianTx); ok {
			paramStore := params.NewStore(spCW.SysParamCache)
			slideWindow, err := paramStore.Get(params.MedianPriceSlideWindowBlockCount)
			if err != nil {
				return err
			}
			medians, err := spCW.PricePointCache.GetBlockMedianPricePoints(height, slideWindow)
			if err != nil {
				return err
			}
			median.SetMedianPricePoints(medians)
		}

		if err := tx.CheckTx(ctx); err != nil {
			a.dropTx(cw, height, tx, vs, err)
			continue
		}
		if err := tx.ExecuteTx(ctx); err != nil {
			var reject *types.RejectError
			if !errors.As(err, &reject) {
				return err // cache fabric failure, not a validation failure
			}
			a.dropTx(cw, height, tx, vs, err)
			continue
		}

		if totalRunStep+tx.RunStep() >= config.MaxBlockRunStep {
			a.logger.Debug("skip tx exceeding block run steps", "txid", tx.GetHash().Hex())
			continue
		}

		if err := spCW.Flush(); err != nil {
			return err
		}

		fuel := tx.GetFuel(height, fuelRate)
		feeSymbol, fee := tx.GetFees()
		if !tx.IsPriceMedianTx() {
			if fee < fuel {
				return fmt.Errorf("%w: fee %d fuel %d txid %s", errFeeBelowFuel, fee, fuel, tx.GetHash().Hex())
			}
			if err := addReward(feeSymbol, fee-fuel); err != nil {
				return err
			}
		}

		totalSize += txSize
		totalRunStep += tx.RunStep()
		totalFuel += fuel
		index++
		block.Txs = append(block.Txs, tx)

		a.logger.Debug("packed tx", "txid", tx.GetHash().Hex(), "fuel", fuel,
			"runStep", tx.RunStep(), "fuelRate", fuelRate, "totalFuel", totalFuel)
	}

	block.Header.Version = types.CurrentBlockVersion
	block.Header.PrevHash = tip.Hash
	block.Header.Height = height
	block.Header.Fuel = totalFuel
	block.Header.FuelRate = fuelRate
	a.updateTime(block, tip)
	return nil
}

// dropTx contains a failed transaction: the per-tx scratch is discarded by
// the caller and the failure lands in the execute-fail log.
func (a *Assembler) dropTx(cw *state.CacheWrapper, height uint32, tx types.Transaction,
	vs *types.ValidationState, cause error) {
	a.logger.Debug("failed to pack transaction", "txid", tx.GetHash().Hex(), "err", cause)
	cw.LogCache.SetExecuteFail(height, tx.GetHash(), vs.RejectCode(), vs.RejectReason())
	metrics.Miner().TxDropped()
}

// CreateBlockRewardTx finalizes and signs the candidate: it enforces the
// one-block-per-slot rule, stamps the reward transaction, fills the header
// and obtains the delegate's signature.
func (a *Assembler) CreateBlockRewardTx(currentTime int64, delegate *types.Account,
	cw *state.CacheWrapper, block *types.Block) error {

	if block.Header.Height != 1 {
		prevIdx, ok := a.node.GetIndex(block.Header.PrevHash)
		if !ok {
			return fmt.Errorf("dpos: previous block %s not indexed", block.Header.PrevHash.Hex())
		}
		prevBlock, err := a.node.ReadBlock(prevIdx)
		if err != nil {
			return fmt.Errorf("dpos: read previous block: %w", err)
		}
		prevDelegate, ok, err := cw.GetAccount(prevBlock.Txs[0].GetTxUID())
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("dpos: previous delegate account %s not found", prevBlock.Txs[0].GetTxUID())
		}
		if currentTime-int64(prevBlock.Header.Time) < int64(a.params.BlockInterval(block.Header.Height)) &&
			prevDelegate.RegID == delegate.RegID {
			return fmt.Errorf("dpos: delegate %s cannot produce twice in one slot", delegate.RegID)
		}
	}

	switch reward := block.Txs[0].(type) {
	case *types.BlockRewardTx:
		reward.TxUID = delegate.RegID
		reward.ValidHeight = block.Header.Height
		reward.SignatureHash(true)
	case *types.UCoinBlockRewardTx:
		reward.TxUID = delegate.RegID
		reward.ValidHeight = block.Header.Height
		reward.InflatedBcoins = delegate.ComputeBlockInflateInterest(block.Header.Height, a.params)
		reward.SignatureHash(true)
	default:
		return fmt.Errorf("dpos: block head tx is %s, not a reward tx", block.Txs[0].TxType())
	}

	block.Header.Nonce = uint32(rand.Int63n(int64(a.params.MaxBlockNonce) + 1))
	block.Header.MerkleRoot = block.BuildMerkleTree()
	block.Header.Time = uint32(currentTime)

	keyID, err := a.delegateSigningKeyID(delegate)
	if err != nil {
		return err
	}
	sig, err := a.signer.Sign(keyID, block.Header.SignatureHash().Bytes())
	if err != nil {
		return fmt.Errorf("%w: %v", errSignerRefused, err)
	}
	block.Header.Signature = sig
	return nil
}

// delegateSigningKeyID resolves the key the block must be signed with: the
// dedicated miner key when registered, the owner key otherwise.
func (a *Assembler) delegateSigningKeyID(delegate *types.Account) (crypto.KeyID, error) {
	if len(delegate.MinerPubKey) > 0 {
		pub, err := crypto.ParsePubKey(delegate.MinerPubKey)
		if err != nil {
			return crypto.KeyID{}, fmt.Errorf("dpos: delegate %s miner pubkey: %w", delegate.RegID, err)
		}
		if _, ok := a.signer.GetKey(pub.KeyID(), true); ok {
			return pub.KeyID(), nil
		}
	}
	return delegate.KeyID, nil
}
