package dpos

import (
	"github.com/ethereum/go-ethereum/common"

	"wicchain/core/types"
	"wicchain/state"
)

// BlockStore is the read surface of the chain the consensus code depends on.
type BlockStore interface {
	Tip() *types.BlockIndex
	Height() uint32
	GetIndex(hash common.Hash) (*types.BlockIndex, bool)
	ReadBlock(idx *types.BlockIndex) (*types.Block, error)
}

// NodeInterface is what the mining task needs from the parent node: the
// chain store, the committed cache view, block submission and the network
// liveness signals gating block production.
type NodeInterface interface {
	BlockStore

	// CommittedView returns the root cache wrapper over committed state.
	CommittedView() *state.CacheWrapper
	// WithChainState runs fn holding the chain-state mutex. The mempool
	// keeps its own lock; callers take them in chain-state, mempool order.
	WithChainState(fn func() error) error
	// ProcessBlock validates and connects a freshly produced block exactly
	// as if it had arrived from a peer.
	ProcessBlock(block *types.Block) error
	// PeerCount reports connected peers; zero stalls mining outside
	// regtest.
	PeerCount() int
}
