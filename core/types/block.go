package types

import (
	"crypto/sha256"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
)

// BlockHeader commits to the block's content and its production context.
type BlockHeader struct {
	Version    uint32
	PrevHash   common.Hash
	MerkleRoot common.Hash
	Time       uint32
	Nonce      uint32
	Height     uint32
	Fuel       uint64
	FuelRate   uint64
	Signature  []byte
}

// Block is an ordered transaction vector under a signed header. Txs[0] is
// always a reward transaction.
type Block struct {
	Header BlockHeader
	Txs    []Transaction
}

// CurrentBlockVersion is the header version produced by this node.
const CurrentBlockVersion = 1

type headerPayload struct {
	Version    uint32
	PrevHash   common.Hash
	MerkleRoot common.Hash
	Time       uint32
	Nonce      uint32
	Height     uint32
	Fuel       uint64
	FuelRate   uint64
	Signature  []byte `rlp:"optional"`
}

func (h *BlockHeader) payload(withSig bool) *headerPayload {
	p := &headerPayload{
		Version:    h.Version,
		PrevHash:   h.PrevHash,
		MerkleRoot: h.MerkleRoot,
		Time:       h.Time,
		Nonce:      h.Nonce,
		Height:     h.Height,
		Fuel:       h.Fuel,
		FuelRate:   h.FuelRate,
	}
	if withSig {
		p.Signature = h.Signature
	}
	return p
}

// SignatureHash is the digest the producing delegate signs.
func (h *BlockHeader) SignatureHash() common.Hash {
	hash, err := rlpHash(h.payload(false))
	if err != nil {
		panic(fmt.Sprintf("header hash: %v", err))
	}
	return hash
}

// Hash is the block identifier: the digest of the full signed header.
func (h *BlockHeader) Hash() common.Hash {
	hash, err := rlpHash(h.payload(true))
	if err != nil {
		panic(fmt.Sprintf("header hash: %v", err))
	}
	return hash
}

// BuildMerkleTree returns the merkle root over the block's transaction
// hashes, pairing with sha256 and duplicating an odd tail.
func (b *Block) BuildMerkleTree() common.Hash {
	if len(b.Txs) == 0 {
		return common.Hash{}
	}
	layer := make([]common.Hash, 0, len(b.Txs))
	for _, tx := range b.Txs {
		layer = append(layer, tx.GetHash())
	}
	for len(layer) > 1 {
		next := make([]common.Hash, 0, (len(layer)+1)/2)
		for i := 0; i < len(layer); i += 2 {
			j := i + 1
			if j == len(layer) {
				j = i
			}
			var buf [64]byte
			copy(buf[:32], layer[i][:])
			copy(buf[32:], layer[j][:])
			next = append(next, common.Hash(sha256.Sum256(buf[:])))
		}
		layer = next
	}
	return layer[0]
}

// SerializedSize returns the byte size of the encoded block.
func (b *Block) SerializedSize() (uint64, error) {
	raw, err := EncodeBlock(b)
	if err != nil {
		return 0, err
	}
	return uint64(len(raw)), nil
}

type blockEnvelope struct {
	Header headerPayload
	Txs    [][]byte
}

// EncodeBlock serializes a block, each transaction as a tagged envelope.
func EncodeBlock(b *Block) ([]byte, error) {
	env := blockEnvelope{Header: *b.Header.payload(true)}
	env.Txs = make([][]byte, 0, len(b.Txs))
	for _, tx := range b.Txs {
		raw, err := EncodeTx(tx)
		if err != nil {
			return nil, err
		}
		env.Txs = append(env.Txs, raw)
	}
	return rlp.EncodeToBytes(&env)
}

// DecodeBlock deserializes a block produced by EncodeBlock.
func DecodeBlock(raw []byte) (*Block, error) {
	var env blockEnvelope
	if err := rlp.DecodeBytes(raw, &env); err != nil {
		return nil, fmt.Errorf("decode block: %w", err)
	}
	b := &Block{
		Header: BlockHeader{
			Version:    env.Header.Version,
			PrevHash:   env.Header.PrevHash,
			MerkleRoot: env.Header.MerkleRoot,
			Time:       env.Header.Time,
			Nonce:      env.Header.Nonce,
			Height:     env.Header.Height,
			Fuel:       env.Header.Fuel,
			FuelRate:   env.Header.FuelRate,
			Signature:  env.Header.Signature,
		},
	}
	b.Txs = make([]Transaction, 0, len(env.Txs))
	for _, rawTx := range env.Txs {
		tx, err := DecodeTx(rawTx)
		if err != nil {
			return nil, err
		}
		b.Txs = append(b.Txs, tx)
	}
	return b, nil
}
