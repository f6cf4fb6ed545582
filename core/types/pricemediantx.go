package types

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
)

// BlockPriceMedianTx is the system-injected transaction carrying the
// consensus median prices for the block. The assembler installs the medians
// before packing; verifiers re-execute the transaction, which publishes the
// carried medians as they are. The medians are not recomputed or compared
// against the price-point cache during verification.
type BlockPriceMedianTx struct {
	BaseTx
	MedianPrices []PricePoint
}

func NewBlockPriceMedianTx(height uint32) *BlockPriceMedianTx {
	return &BlockPriceMedianTx{BaseTx: BaseTx{TxVersion: InitTxVersion, ValidHeight: height}}
}

type priceMedianPayload struct {
	TxVersion    uint32
	ValidHeight  uint32
	TxUID        RegID
	MedianPrices []PricePoint
	Sig          []byte `rlp:"optional"`
}

func (tx *BlockPriceMedianTx) payload(withSig bool) any {
	p := &priceMedianPayload{
		TxVersion:    tx.TxVersion,
		ValidHeight:  tx.ValidHeight,
		TxUID:        tx.TxUID,
		MedianPrices: tx.MedianPrices,
	}
	if withSig {
		p.Sig = tx.Sig
	}
	return p
}

// SetMedianPricePoints installs the computed medians in canonical order and
// invalidates the cached hash.
func (tx *BlockPriceMedianTx) SetMedianPricePoints(points []PricePoint) {
	SortPricePoints(points)
	tx.MedianPrices = points
	tx.SignatureHash(true)
	tx.size = 0
}

func (tx *BlockPriceMedianTx) TxType() TxType { return TxBlockPriceMedian }

func (tx *BlockPriceMedianTx) SignatureHash(recompute bool) common.Hash {
	return tx.sigHash(recompute, tx.payload(false))
}

func (tx *BlockPriceMedianTx) GetHash() common.Hash { return tx.SignatureHash(false) }

func (tx *BlockPriceMedianTx) Size() uint32 {
	if tx.size == 0 {
		raw, err := rlp.EncodeToBytes(tx.payload(true))
		if err == nil {
			tx.size = uint32(len(raw))
		}
	}
	return tx.size
}

// GetPriority pins the median transaction above every user transaction.
func (tx *BlockPriceMedianTx) GetPriority() float64  { return PriceMedianTxPriority }
func (tx *BlockPriceMedianTx) IsBlockRewardTx() bool { return false }
func (tx *BlockPriceMedianTx) IsPriceMedianTx() bool { return true }

func (tx *BlockPriceMedianTx) CheckTx(ctx *ExecuteContext) error {
	if tx.TxVersion != InitTxVersion {
		return ctx.State.Invalid(RejectInvalid, "unsupported tx version %d", tx.TxVersion)
	}
	if tx.ValidHeight != ctx.Height {
		return ctx.State.Invalid(RejectInvalid, "price median tx height %d mismatches block height %d", tx.ValidHeight, ctx.Height)
	}
	return nil
}

// ExecuteTx publishes the medians into the cache so downstream transactions
// in the same block observe them.
func (tx *BlockPriceMedianTx) ExecuteTx(ctx *ExecuteContext) error {
	return ctx.Cache.SetMedianPrices(ctx.Height, tx.MedianPrices)
}

// PriceMedianTxPriority pins system median transactions above all user
// transactions in the packing order.
const PriceMedianTxPriority = 10000.0
