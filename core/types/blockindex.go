package types

import "github.com/ethereum/go-ethereum/common"

// BlockIndex is the in-memory chain index node: header facts the consensus
// code walks without re-reading blocks from disk.
type BlockIndex struct {
	Hash     common.Hash
	PrevHash common.Hash
	Height   uint32
	Time     uint32
	Fuel     uint64
	FuelRate uint64

	Prev *BlockIndex
}

// NewBlockIndex builds an index node for block linked onto prev.
func NewBlockIndex(block *Block, prev *BlockIndex) *BlockIndex {
	return &BlockIndex{
		Hash:     block.Header.Hash(),
		PrevHash: block.Header.PrevHash,
		Height:   block.Header.Height,
		Time:     block.Header.Time,
		Fuel:     block.Header.Fuel,
		FuelRate: block.Header.FuelRate,
		Prev:     prev,
	}
}
