package core

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"wicchain/core/types"
	"wicchain/storage"
)

// Storage key prefixes of the chain store.
var (
	blockKeyPrefix  = []byte("b")
	heightKeyPrefix = []byte("h")
	tipKey          = []byte("tip")
)

// Blockchain manages the active chain: block persistence plus the in-memory
// index from hash to BlockIndex. It is the BlockStore the consensus code
// reads through.
type Blockchain struct {
	db      storage.Database
	mu      sync.RWMutex
	tip     *types.BlockIndex
	index   map[common.Hash]*types.BlockIndex
	heights map[uint32]common.Hash
}

// NewBlockchain opens the chain over db, installing genesis when the store
// is empty.
func NewBlockchain(db storage.Database, genesis *types.Block) (*Blockchain, error) {
	bc := &Blockchain{
		db:      db,
		index:   make(map[common.Hash]*types.BlockIndex),
		heights: make(map[uint32]common.Hash),
	}

	tipHash, ok, err := db.Get(tipKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		if err := bc.writeBlock(genesis); err != nil {
			return nil, err
		}
		idx := types.NewBlockIndex(genesis, nil)
		bc.install(idx)
		if err := db.Put(tipKey, idx.Hash.Bytes()); err != nil {
			return nil, err
		}
		bc.tip = idx
		return bc, nil
	}

	// Rebuild the index by walking back from the stored tip.
	hash := common.BytesToHash(tipHash)
	var chain []*types.BlockIndex
	for {
		block, err := bc.readBlockByHash(hash)
		if err != nil {
			return nil, fmt.Errorf("rebuild index at %s: %w", hash.Hex(), err)
		}
		idx := types.NewBlockIndex(block, nil)
		chain = append(chain, idx)
		if block.Header.Height == 0 {
			break
		}
		hash = block.Header.PrevHash
	}
	for i := len(chain) - 1; i >= 0; i-- {
		if i < len(chain)-1 {
			chain[i].Prev = chain[i+1]
		}
		bc.install(chain[i])
	}
	bc.tip = chain[0]
	return bc, nil
}

func (bc *Blockchain) install(idx *types.BlockIndex) {
	bc.index[idx.Hash] = idx
	bc.heights[idx.Height] = idx.Hash
}

// AddBlock appends a block extending the current tip.
func (bc *Blockchain) AddBlock(b *types.Block) error {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	if b.Header.PrevHash != bc.tip.Hash {
		return fmt.Errorf("block %d prevhash %s does not extend tip %s",
			b.Header.Height, b.Header.PrevHash.Hex(), bc.tip.Hash.Hex())
	}
	if b.Header.Height != bc.tip.Height+1 {
		return fmt.Errorf("block height %d does not follow tip height %d", b.Header.Height, bc.tip.Height)
	}

	if err := bc.writeBlock(b); err != nil {
		return err
	}
	idx := types.NewBlockIndex(b, bc.tip)
	bc.install(idx)
	if err := bc.db.Put(tipKey, idx.Hash.Bytes()); err != nil {
		return err
	}
	bc.tip = idx
	return nil
}

func (bc *Blockchain) writeBlock(b *types.Block) error {
	raw, err := types.EncodeBlock(b)
	if err != nil {
		return err
	}
	hash := b.Header.Hash()
	if err := bc.db.Put(append(blockKeyPrefix, hash.Bytes()...), raw); err != nil {
		return err
	}
	var hk [4]byte
	hk[0] = byte(b.Header.Height >> 24)
	hk[1] = byte(b.Header.Height >> 16)
	hk[2] = byte(b.Header.Height >> 8)
	hk[3] = byte(b.Header.Height)
	return bc.db.Put(append(heightKeyPrefix, hk[:]...), hash.Bytes())
}

func (bc *Blockchain) readBlockByHash(hash common.Hash) (*types.Block, error) {
	raw, ok, err := bc.db.Get(append(blockKeyPrefix, hash.Bytes()...))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("block %s not found", hash.Hex())
	}
	return types.DecodeBlock(raw)
}

// ReadBlock loads the block behind an index node.
func (bc *Blockchain) ReadBlock(idx *types.BlockIndex) (*types.Block, error) {
	return bc.readBlockByHash(idx.Hash)
}

// Tip returns the index of the best block.
func (bc *Blockchain) Tip() *types.BlockIndex {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return bc.tip
}

// Height returns the best block height.
func (bc *Blockchain) Height() uint32 {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return bc.tip.Height
}

// GetIndex looks up the index node for hash.
func (bc *Blockchain) GetIndex(hash common.Hash) (*types.BlockIndex, bool) {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	idx, ok := bc.index[hash]
	return idx, ok
}

// GetBlockByHeight loads the block on the active chain at height.
func (bc *Blockchain) GetBlockByHeight(height uint32) (*types.Block, error) {
	bc.mu.RLock()
	hash, ok := bc.heights[height]
	bc.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no block at height %d", height)
	}
	return bc.readBlockByHash(hash)
}
