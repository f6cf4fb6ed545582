package types

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
)

// BlockRewardTx is the single-symbol reward transaction heading every
// pre-stablecoin block. Fees collected from the packed transactions, less
// burnt fuel, are credited to the producing delegate.
type BlockRewardTx struct {
	BaseTx
	RewardFees uint64
}

func NewBlockRewardTx() *BlockRewardTx {
	return &BlockRewardTx{BaseTx: BaseTx{TxVersion: InitTxVersion}}
}

type blockRewardPayload struct {
	TxVersion   uint32
	ValidHeight uint32
	TxUID       RegID
	RewardFees  uint64
	Sig         []byte `rlp:"optional"`
}

func (tx *BlockRewardTx) payload(withSig bool) any {
	p := &blockRewardPayload{
		TxVersion:   tx.TxVersion,
		ValidHeight: tx.ValidHeight,
		TxUID:       tx.TxUID,
		RewardFees:  tx.RewardFees,
	}
	if withSig {
		p.Sig = tx.Sig
	}
	return p
}

func (tx *BlockRewardTx) TxType() TxType { return TxBlockReward }

func (tx *BlockRewardTx) SignatureHash(recompute bool) common.Hash {
	return tx.sigHash(recompute, tx.payload(false))
}

func (tx *BlockRewardTx) GetHash() common.Hash { return tx.SignatureHash(false) }

func (tx *BlockRewardTx) Size() uint32 {
	if tx.size == 0 {
		raw, err := rlp.EncodeToBytes(tx.payload(true))
		if err == nil {
			tx.size = uint32(len(raw))
		}
	}
	return tx.size
}

func (tx *BlockRewardTx) GetPriority() float64  { return 0 }
func (tx *BlockRewardTx) IsBlockRewardTx() bool { return true }
func (tx *BlockRewardTx) IsPriceMedianTx() bool { return false }

// CheckTx: reward transactions are system-built; anything arriving through
// the mempool is rejected.
func (tx *BlockRewardTx) CheckTx(ctx *ExecuteContext) error {
	return ctx.State.Invalid(RejectInvalid, "block reward tx only valid inside a block")
}

// ExecuteTx credits the accumulated reward to the producing delegate.
func (tx *BlockRewardTx) ExecuteTx(ctx *ExecuteContext) error {
	acct, ok, err := ctx.Cache.GetAccount(tx.TxUID)
	if err != nil {
		return err
	}
	if !ok {
		return ctx.State.Invalid(RejectAccount, "reward delegate account %s not found", tx.TxUID)
	}
	acct.AddToken(feeSymbolWICC, tx.RewardFees)
	return ctx.Cache.SetAccount(acct)
}

// UCoinBlockRewardTx is the post-stablecoin reward: a per-symbol fee map plus
// the delegate's vote-staking inflation.
type UCoinBlockRewardTx struct {
	BaseTx
	RewardFees     []TokenAmount
	InflatedBcoins uint64
}

func NewUCoinBlockRewardTx() *UCoinBlockRewardTx {
	return &UCoinBlockRewardTx{BaseTx: BaseTx{TxVersion: InitTxVersion}}
}

type ucoinRewardPayload struct {
	TxVersion      uint32
	ValidHeight    uint32
	TxUID          RegID
	RewardFees     []TokenAmount
	InflatedBcoins uint64
	Sig            []byte `rlp:"optional"`
}

func (tx *UCoinBlockRewardTx) payload(withSig bool) any {
	p := &ucoinRewardPayload{
		TxVersion:      tx.TxVersion,
		ValidHeight:    tx.ValidHeight,
		TxUID:          tx.TxUID,
		RewardFees:     tx.RewardFees,
		InflatedBcoins: tx.InflatedBcoins,
	}
	if withSig {
		p.Sig = tx.Sig
	}
	return p
}

func (tx *UCoinBlockRewardTx) TxType() TxType { return TxUCoinBlockReward }

func (tx *UCoinBlockRewardTx) SignatureHash(recompute bool) common.Hash {
	return tx.sigHash(recompute, tx.payload(false))
}

func (tx *UCoinBlockRewardTx) GetHash() common.Hash { return tx.SignatureHash(false) }

func (tx *UCoinBlockRewardTx) Size() uint32 {
	if tx.size == 0 {
		raw, err := rlp.EncodeToBytes(tx.payload(true))
		if err == nil {
			tx.size = uint32(len(raw))
		}
	}
	return tx.size
}

func (tx *UCoinBlockRewardTx) GetPriority() float64  { return 0 }
func (tx *UCoinBlockRewardTx) IsBlockRewardTx() bool { return true }
func (tx *UCoinBlockRewardTx) IsPriceMedianTx() bool { return false }

func (tx *UCoinBlockRewardTx) CheckTx(ctx *ExecuteContext) error {
	return ctx.State.Invalid(RejectInvalid, "ucoin block reward tx only valid inside a block")
}

// ExecuteTx credits every reward symbol and the inflated bcoins to the
// recipient. Fund-coin genesis recipients may not exist yet and are created
// on first credit.
func (tx *UCoinBlockRewardTx) ExecuteTx(ctx *ExecuteContext) error {
	acct, ok, err := ctx.Cache.GetAccount(tx.TxUID)
	if err != nil {
		return err
	}
	if !ok {
		acct = &Account{RegID: tx.TxUID}
	}
	for _, fee := range tx.RewardFees {
		acct.AddToken(fee.Symbol, fee.Amount)
	}
	if tx.InflatedBcoins > 0 {
		acct.AddToken(feeSymbolWICC, tx.InflatedBcoins)
	}
	return ctx.Cache.SetAccount(acct)
}
