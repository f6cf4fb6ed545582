package types

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"

	"wicchain/crypto"
)

// BaseCoinTransferTx moves WICC from a registered account to a key-hash
// destination, creating the destination account on first funded appearance.
type BaseCoinTransferTx struct {
	BaseTx
	ToKeyID crypto.KeyID
	Amount  uint64
	Memo    []byte
}

type baseCoinTransferPayload struct {
	TxVersion   uint32
	ValidHeight uint32
	TxUID       RegID
	FeeSymbol   string
	FeeAmount   uint64
	ToKeyID     crypto.KeyID
	Amount      uint64
	Memo        []byte
	Sig         []byte `rlp:"optional"`
}

func (tx *BaseCoinTransferTx) payload(withSig bool) any {
	p := &baseCoinTransferPayload{
		TxVersion:   tx.TxVersion,
		ValidHeight: tx.ValidHeight,
		TxUID:       tx.TxUID,
		FeeSymbol:   tx.FeeSymbol,
		FeeAmount:   tx.FeeAmount,
		ToKeyID:     tx.ToKeyID,
		Amount:      tx.Amount,
		Memo:        tx.Memo,
	}
	if withSig {
		p.Sig = tx.Sig
	}
	return p
}

func (tx *BaseCoinTransferTx) TxType() TxType { return TxBaseCoinTransfer }

func (tx *BaseCoinTransferTx) SignatureHash(recompute bool) common.Hash {
	return tx.sigHash(recompute, tx.payload(false))
}

func (tx *BaseCoinTransferTx) GetHash() common.Hash { return tx.SignatureHash(false) }

func (tx *BaseCoinTransferTx) Size() uint32 {
	if tx.size == 0 {
		raw, err := rlp.EncodeToBytes(tx.payload(true))
		if err == nil {
			tx.size = uint32(len(raw))
		}
	}
	return tx.size
}

// GetPriority scales inversely with size so small transactions pack first
// among equals. Always below the priority ceiling.
func (tx *BaseCoinTransferTx) GetPriority() float64 {
	return priorityForSize(tx.Size())
}

func (tx *BaseCoinTransferTx) IsBlockRewardTx() bool { return false }
func (tx *BaseCoinTransferTx) IsPriceMedianTx() bool { return false }

func (tx *BaseCoinTransferTx) CheckTx(ctx *ExecuteContext) error {
	if err := tx.checkBaseTx(ctx); err != nil {
		return err
	}
	if tx.Amount == 0 {
		return ctx.State.Invalid(RejectInvalid, "transfer amount must be positive")
	}
	if len(tx.Memo) > MaxMemoSize {
		return ctx.State.Invalid(RejectInvalid, "memo size %d exceeds maximum", len(tx.Memo))
	}
	return tx.verifySignature(ctx, tx.SignatureHash(false))
}

func (tx *BaseCoinTransferTx) ExecuteTx(ctx *ExecuteContext) error {
	tx.runStep = uint64(tx.Size())

	src, ok, err := ctx.Cache.GetAccount(tx.TxUID)
	if err != nil {
		return err
	}
	if !ok {
		return ctx.State.Invalid(RejectAccount, "source account %s not found", tx.TxUID)
	}
	if err := src.SubToken(tx.FeeSymbol, tx.FeeAmount); err != nil {
		return ctx.State.Invalid(RejectInsufficient, "fee: %v", err)
	}
	if err := src.SubToken(feeSymbolWICC, tx.Amount); err != nil {
		return ctx.State.Invalid(RejectInsufficient, "amount: %v", err)
	}
	if err := ctx.Cache.SetAccount(src); err != nil {
		return err
	}

	dst, ok, err := ctx.Cache.GetAccountByKeyID(tx.ToKeyID)
	if err != nil {
		return err
	}
	if !ok {
		dst = &Account{
			RegID: NewRegID(ctx.Height, uint16(ctx.Index)),
			KeyID: tx.ToKeyID,
		}
	}
	dst.AddToken(feeSymbolWICC, tx.Amount)
	return ctx.Cache.SetAccount(dst)
}

// TransferLeg is one output of a universal transfer.
type TransferLeg struct {
	ToKeyID crypto.KeyID
	Symbol  string
	Amount  uint64
}

// UCoinTransferTx moves any token symbols in one or more legs.
type UCoinTransferTx struct {
	BaseTx
	Transfers []TransferLeg
	Memo      []byte
}

type ucoinTransferPayload struct {
	TxVersion   uint32
	ValidHeight uint32
	TxUID       RegID
	FeeSymbol   string
	FeeAmount   uint64
	Transfers   []TransferLeg
	Memo        []byte
	Sig         []byte `rlp:"optional"`
}

func (tx *UCoinTransferTx) payload(withSig bool) any {
	p := &ucoinTransferPayload{
		TxVersion:   tx.TxVersion,
		ValidHeight: tx.ValidHeight,
		TxUID:       tx.TxUID,
		FeeSymbol:   tx.FeeSymbol,
		FeeAmount:   tx.FeeAmount,
		Transfers:   tx.Transfers,
		Memo:        tx.Memo,
	}
	if withSig {
		p.Sig = tx.Sig
	}
	return p
}

func (tx *UCoinTransferTx) TxType() TxType { return TxUCoinTransfer }

func (tx *UCoinTransferTx) SignatureHash(recompute bool) common.Hash {
	return tx.sigHash(recompute, tx.payload(false))
}

func (tx *UCoinTransferTx) GetHash() common.Hash { return tx.SignatureHash(false) }

func (tx *UCoinTransferTx) Size() uint32 {
	if tx.size == 0 {
		raw, err := rlp.EncodeToBytes(tx.payload(true))
		if err == nil {
			tx.size = uint32(len(raw))
		}
	}
	return tx.size
}

func (tx *UCoinTransferTx) GetPriority() float64 {
	return priorityForSize(tx.Size())
}

func (tx *UCoinTransferTx) IsBlockRewardTx() bool { return false }
func (tx *UCoinTransferTx) IsPriceMedianTx() bool { return false }

func (tx *UCoinTransferTx) CheckTx(ctx *ExecuteContext) error {
	if err := tx.checkBaseTx(ctx); err != nil {
		return err
	}
	if len(tx.Transfers) == 0 {
		return ctx.State.Invalid(RejectInvalid, "universal transfer requires at least one leg")
	}
	for i, leg := range tx.Transfers {
		if leg.Amount == 0 {
			return ctx.State.Invalid(RejectInvalid, "transfer leg %d amount must be positive", i)
		}
		if leg.Symbol == "" {
			return ctx.State.Invalid(RejectInvalid, "transfer leg %d missing symbol", i)
		}
	}
	if len(tx.Memo) > MaxMemoSize {
		return ctx.State.Invalid(RejectInvalid, "memo size %d exceeds maximum", len(tx.Memo))
	}
	return tx.verifySignature(ctx, tx.SignatureHash(false))
}

func (tx *UCoinTransferTx) ExecuteTx(ctx *ExecuteContext) error {
	tx.runStep = uint64(tx.Size())

	src, ok, err := ctx.Cache.GetAccount(tx.TxUID)
	if err != nil {
		return err
	}
	if !ok {
		return ctx.State.Invalid(RejectAccount, "source account %s not found", tx.TxUID)
	}
	if err := src.SubToken(tx.FeeSymbol, tx.FeeAmount); err != nil {
		return ctx.State.Invalid(RejectInsufficient, "fee: %v", err)
	}
	for _, leg := range tx.Transfers {
		if err := src.SubToken(leg.Symbol, leg.Amount); err != nil {
			return ctx.State.Invalid(RejectInsufficient, "leg: %v", err)
		}
	}
	if err := ctx.Cache.SetAccount(src); err != nil {
		return err
	}

	for _, leg := range tx.Transfers {
		dst, ok, err := ctx.Cache.GetAccountByKeyID(leg.ToKeyID)
		if err != nil {
			return err
		}
		if !ok {
			dst = &Account{
				RegID: NewRegID(ctx.Height, uint16(ctx.Index)),
				KeyID: leg.ToKeyID,
			}
		}
		dst.AddToken(leg.Symbol, leg.Amount)
		if err := ctx.Cache.SetAccount(dst); err != nil {
			return err
		}
	}
	return nil
}

func priorityForSize(size uint32) float64 {
	if size == 0 {
		return 0
	}
	return priorityCeiling / float64(size)
}

const (
	MaxMemoSize     = 100
	priorityCeiling = 1000.0
)
