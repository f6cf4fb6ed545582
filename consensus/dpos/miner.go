package dpos

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"wicchain/config"
	"wicchain/core/types"
	"wicchain/crypto"
	"wicchain/mempool"
	"wicchain/observability/metrics"
	"wicchain/state"
)

// MinedBlockInfo is one entry of the recent-blocks ring exposed over RPC.
type MinedBlockInfo struct {
	Time           int64
	Nonce          uint32
	Height         uint32
	TotalFuel      uint64
	FuelRate       uint64
	TotalFees      uint64
	TxCount        uint64
	TotalBlockSize uint64
	Hash           common.Hash
	PrevBlockHash  common.Hash
}

// minedBlockRing is a bounded ring of recent locally mined blocks.
type minedBlockRing struct {
	mu      sync.Mutex
	entries []MinedBlockInfo
	max     int
}

func newMinedBlockRing(max int) *minedBlockRing {
	return &minedBlockRing{max: max}
}

func (r *minedBlockRing) push(info MinedBlockInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append([]MinedBlockInfo{info}, r.entries...)
	if len(r.entries) > r.max {
		r.entries = r.entries[:r.max]
	}
}

func (r *minedBlockRing) snapshot(count int) []MinedBlockInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	if count > len(r.entries) {
		count = len(r.entries)
	}
	out := make([]MinedBlockInfo, count)
	copy(out, r.entries[:count])
	return out
}

// Miner owns the long-lived mining task: waiting for our slot, building a
// candidate through the assembler and submitting it back to the node.
type Miner struct {
	params    *config.ChainParams
	cfg       *config.Config
	node      NodeInterface
	pool      *mempool.Mempool
	signer    crypto.Signer
	assembler *Assembler
	logger    *slog.Logger

	ring   *minedBlockRing
	mining bool
	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewMiner(chainParams *config.ChainParams, cfg *config.Config, node NodeInterface,
	pool *mempool.Mempool, signer crypto.Signer, logger *slog.Logger) *Miner {
	return &Miner{
		params:    chainParams,
		cfg:       cfg,
		node:      node,
		pool:      pool,
		signer:    signer,
		assembler: NewAssembler(chainParams, cfg, node, pool, signer, logger),
		logger:    logger,
		ring:      newMinedBlockRing(config.MaxMinedBlockCount),
	}
}

// Assembler exposes the block factory for wiring and tests.
func (m *Miner) Assembler() *Assembler { return m.assembler }

// GetMinedBlocks returns up to count most recent locally mined blocks.
func (m *Miner) GetMinedBlocks(count int) []MinedBlockInfo {
	return m.ring.snapshot(count)
}

// IsMining reports whether the task currently holds a usable miner key.
func (m *Miner) IsMining() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mining
}

func (m *Miner) setMining(v bool) {
	m.mu.Lock()
	m.mining = v
	m.mu.Unlock()
}

// GenerateCoinBlock starts (or stops) the mining task. targetHeight bounds
// production on non-main networks; zero or negative mines forever there too
// when generate is set.
func (m *Miner) GenerateCoinBlock(generate bool, targetHeight int32) {
	m.mu.Lock()
	if m.cancel != nil {
		m.cancel()
		done := m.done
		m.cancel = nil
		m.mu.Unlock()
		<-done
		m.mu.Lock()
	}
	if !generate {
		m.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})
	done := m.done
	m.mu.Unlock()

	go func() {
		defer close(done)
		m.run(ctx, targetHeight)
	}()
}

// Stop interrupts and joins the mining task.
func (m *Miner) Stop() {
	m.GenerateCoinBlock(false, 0)
}

func (m *Miner) run(ctx context.Context, targetHeight int32) {
	m.logger.Info("coin miner started")
	defer m.logger.Info("coin miner terminated")

	if w, ok := m.signer.(*crypto.Wallet); ok && !w.HasMinerKey() {
		m.logger.Error("coin miner terminated for lack of miner key")
		return
	}

	var absoluteTarget uint32
	if targetHeight > 0 {
		absoluteTarget = m.node.Height() + uint32(targetHeight)
	}

	m.setMining(true)
	defer m.setMining(false)

	for {
		if ctx.Err() != nil {
			return
		}

		// Outside regtest, wait for peers and a fresh tip before wasting
		// slots on an obsolete chain.
		if m.params.Network != config.RegTest {
			for m.node.PeerCount() == 0 ||
				(m.node.Height() > 1 && time.Since(time.Unix(int64(m.node.Tip().Time), 0)) > time.Hour &&
					!m.cfg.GenBlockForce) {
				select {
				case <-ctx.Done():
					return
				case <-time.After(time.Second):
				}
			}
		}

		txUpdated := m.pool.UpdateNum()
		tip := m.node.Tip()

		cw := state.SpawnCacheWrapper(m.node.CommittedView())
		block, err := m.assembler.CreateNewBlock(cw)
		if err != nil {
			m.logger.Error("failed to create new block", "err", err)
			return
		}
		m.logger.Debug("created candidate block", "height", block.Header.Height, "txs", len(block.Txs))

		m.mineBlock(ctx, block, tip, txUpdated, cw)

		if m.params.Network != config.MainNet && absoluteTarget > 0 && absoluteTarget <= m.node.Height() {
			return
		}
	}
}

// mineBlock waits for our slot, finalizes the candidate and submits it. It
// gives up when the tip moves, the mempool meaningfully changes, or a minute
// passes without a block.
func (m *Miner) mineBlock(ctx context.Context, block *types.Block, tip *types.BlockIndex,
	txUpdated uint64, cw *state.CacheWrapper) bool {

	start := time.Now()

	for {
		if ctx.Err() != nil {
			return false
		}
		if m.params.Network != config.RegTest && m.node.PeerCount() == 0 {
			return false
		}
		if m.node.Tip() != tip {
			return false
		}

		// Sleep until the slot opens, polling so cancellation stays
		// responsive.
		slotOpen := int64(tip.Time) + int64(m.params.BlockInterval(m.node.Height()+1))
		for time.Now().Unix() < slotOpen {
			select {
			case <-ctx.Done():
				return false
			case <-time.After(100 * time.Millisecond):
			}
		}

		delegates, err := m.node.CommittedView().DelegateCache.GetTopDelegateList(m.params.TotalDelegateNum)
		if err != nil || len(delegates) == 0 {
			m.logger.Warn("failed to get top delegates", "err", err)
			return false
		}
		ShuffleDelegates(block.Header.Height, m.params, delegates)

		currentTime := time.Now().Unix()
		slotDelegate, err := GetCurrentDelegate(currentTime, block.Header.Height, m.params, delegates)
		if err != nil {
			return false
		}
		minerAcct, ok, err := m.node.CommittedView().GetAccount(slotDelegate)
		if err != nil || !ok {
			m.logger.Warn("failed to get slot delegate account", "regid", slotDelegate.String(), "err", err)
			return false
		}

		success := false
		err = m.node.WithChainState(func() error {
			if m.node.Height()+1 != block.Header.Height {
				return errStaleBuild
			}
			keyID, keyErr := m.assembler.delegateSigningKeyID(minerAcct)
			if keyErr != nil {
				return keyErr
			}
			if _, have := m.signer.GetKey(keyID, false); !have {
				// Not our slot; try again next poll.
				return nil
			}
			if err := m.assembler.CreateBlockRewardTx(currentTime, minerAcct, cw, block); err != nil {
				return err
			}
			success = true
			return nil
		})
		if err != nil {
			m.logger.Debug("failed to finalize block reward tx", "err", err)
			return false
		}

		if success {
			if err := m.checkWork(block); err != nil {
				m.logger.Warn("mined block rejected", "height", block.Header.Height, "err", err)
				return false
			}
			m.recordMined(block)
			metrics.Miner().BlockMined(len(block.Txs), block.Header.FuelRate)
			return true
		}

		if m.pool.UpdateNum() != txUpdated || time.Since(start) > 60*time.Second {
			return false
		}
	}
}

// checkWork submits the finished block through the same path a peer's block
// takes.
func (m *Miner) checkWork(block *types.Block) error {
	if block.Header.PrevHash != m.node.Tip().Hash {
		return errStaleBuild
	}
	return m.node.ProcessBlock(block)
}

func (m *Miner) recordMined(block *types.Block) {
	var totalFees uint64
	for _, tx := range block.Txs {
		_, fee := tx.GetFees()
		totalFees += fee
	}
	size, _ := block.SerializedSize()
	m.ring.push(MinedBlockInfo{
		Time:           int64(block.Header.Time),
		Nonce:          block.Header.Nonce,
		Height:         block.Header.Height,
		TotalFuel:      block.Header.Fuel,
		FuelRate:       block.Header.FuelRate,
		TotalFees:      totalFees,
		TxCount:        uint64(len(block.Txs)),
		TotalBlockSize: size,
		Hash:           block.Header.Hash(),
		PrevBlockHash:  block.Header.PrevHash,
	})
}
