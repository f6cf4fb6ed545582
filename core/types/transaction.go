package types

import (
	"crypto/sha256"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"

	"wicchain/crypto"
)

// TxType discriminates the transaction variants flowing through the pipeline.
type TxType uint8

const (
	TxBlockReward      TxType = 0x01
	TxUCoinBlockReward TxType = 0x02
	TxBlockPriceMedian TxType = 0x03
	TxBaseCoinTransfer TxType = 0x04
	TxUCoinTransfer    TxType = 0x05
)

func (t TxType) String() string {
	switch t {
	case TxBlockReward:
		return "BLOCK_REWARD_TX"
	case TxUCoinBlockReward:
		return "UCOIN_BLOCK_REWARD_TX"
	case TxBlockPriceMedian:
		return "BLOCK_PRICE_MEDIAN_TX"
	case TxBaseCoinTransfer:
		return "BCOIN_TRANSFER_TX"
	case TxUCoinTransfer:
		return "UCOIN_TRANSFER_TX"
	}
	return fmt.Sprintf("TX_TYPE(%d)", uint8(t))
}

// Reject codes recorded with failed executions.
const (
	RejectInvalid      uint8 = 0x10
	RejectDuplicate    uint8 = 0x12
	RejectInsufficient uint8 = 0x40
	RejectSignature    uint8 = 0x41
	RejectAccount      uint8 = 0x42
)

// RejectError is a structured consensus rejection.
type RejectError struct {
	Code   uint8
	Reason string
}

func (e *RejectError) Error() string {
	return fmt.Sprintf("reject(%#x): %s", e.Code, e.Reason)
}

// ValidationState accumulates the reject code/reason of a failing transaction
// for the execute-fail log.
type ValidationState struct {
	code   uint8
	reason string
}

// Invalid records the rejection and returns it as an error.
func (s *ValidationState) Invalid(code uint8, format string, args ...any) error {
	err := &RejectError{Code: code, Reason: fmt.Sprintf(format, args...)}
	if s != nil {
		s.code = err.Code
		s.reason = err.Reason
	}
	return err
}

func (s *ValidationState) RejectCode() uint8    { return s.code }
func (s *ValidationState) RejectReason() string { return s.reason }

// StateView is the slice of the cache fabric a transaction touches while
// checking and executing. The layered cache wrapper satisfies it.
type StateView interface {
	GetAccount(regID RegID) (*Account, bool, error)
	GetAccountByKeyID(keyID crypto.KeyID) (*Account, bool, error)
	SetAccount(acct *Account) error
	SetMedianPrices(height uint32, points []PricePoint) error
}

// ExecuteContext carries everything a transaction sees while being packed or
// validated inside a block.
type ExecuteContext struct {
	Height    uint32
	Index     uint32
	FuelRate  uint64
	BlockTime int64
	Cache     StateView
	State     *ValidationState
}

// Transaction is the capability set every variant satisfies. The unexported
// payload method seals the interface to this package so the codec stays in
// lock step with the variants.
type Transaction interface {
	TxType() TxType
	Version() uint32
	GetValidHeight() uint32
	GetTxUID() RegID
	GetFees() (symbol string, amount uint64)
	GetHash() common.Hash
	SignatureHash(recompute bool) common.Hash
	GetSignature() []byte
	SetSignature(sig []byte)
	Size() uint32
	RunStep() uint64
	GetFuel(height uint32, fuelRate uint64) uint64
	GetPriority() float64
	IsBlockRewardTx() bool
	IsPriceMedianTx() bool
	CheckTx(ctx *ExecuteContext) error
	ExecuteTx(ctx *ExecuteContext) error

	payload(withSig bool) any
}

// BaseTx carries the fields shared by every variant plus cached runtime
// state. Embedded by each concrete transaction.
type BaseTx struct {
	TxVersion   uint32
	ValidHeight uint32
	TxUID       RegID
	FeeSymbol   string
	FeeAmount   uint64
	Sig         []byte

	hash    common.Hash
	size    uint32
	runStep uint64
}

func (tx *BaseTx) Version() uint32        { return tx.TxVersion }
func (tx *BaseTx) GetValidHeight() uint32 { return tx.ValidHeight }
func (tx *BaseTx) GetTxUID() RegID        { return tx.TxUID }
func (tx *BaseTx) GetSignature() []byte   { return tx.Sig }
func (tx *BaseTx) SetSignature(sig []byte) {
	tx.Sig = sig
}

func (tx *BaseTx) GetFees() (string, uint64) {
	return tx.FeeSymbol, tx.FeeAmount
}

func (tx *BaseTx) RunStep() uint64 { return tx.runStep }

// GetFuel converts accumulated run steps into fee units at the block's fuel
// rate: one rate unit per 100 steps, floored.
func (tx *BaseTx) GetFuel(_ uint32, fuelRate uint64) uint64 {
	return tx.runStep / 100 * fuelRate
}

// rlpHash is the content hash: sha256 over the RLP encoding.
func rlpHash(v any) (common.Hash, error) {
	raw, err := rlp.EncodeToBytes(v)
	if err != nil {
		return common.Hash{}, err
	}
	return common.Hash(sha256.Sum256(raw)), nil
}

// sigHash computes, caches and returns the signature hash of payload.
func (tx *BaseTx) sigHash(recompute bool, payload any) common.Hash {
	if recompute || tx.hash == (common.Hash{}) {
		h, err := rlpHash(payload)
		if err != nil {
			// Payload structs are RLP-safe by construction.
			panic(fmt.Sprintf("tx hash: %v", err))
		}
		tx.hash = h
	}
	return tx.hash
}

// checkBaseTx rejects transactions no variant accepts: stale valid height,
// unsupported fee symbol, oversized signature.
func (tx *BaseTx) checkBaseTx(ctx *ExecuteContext) error {
	if tx.TxVersion != InitTxVersion {
		return ctx.State.Invalid(RejectInvalid, "unsupported tx version %d", tx.TxVersion)
	}
	if tx.ValidHeight+ValidHeightRange < ctx.Height || tx.ValidHeight > ctx.Height+ValidHeightRange {
		return ctx.State.Invalid(RejectInvalid, "valid height %d out of range at height %d", tx.ValidHeight, ctx.Height)
	}
	if tx.FeeSymbol != "" && tx.FeeSymbol != feeSymbolWICC && tx.FeeSymbol != feeSymbolWUSD {
		return ctx.State.Invalid(RejectInvalid, "unsupported fee symbol %q", tx.FeeSymbol)
	}
	if len(tx.Sig) > MaxSignatureSize {
		return ctx.State.Invalid(RejectSignature, "signature size %d exceeds maximum", len(tx.Sig))
	}
	return nil
}

// verifySignature checks the transaction signature against the source
// account's owner public key.
func (tx *BaseTx) verifySignature(ctx *ExecuteContext, hash common.Hash) error {
	acct, ok, err := ctx.Cache.GetAccount(tx.TxUID)
	if err != nil {
		return err
	}
	if !ok {
		return ctx.State.Invalid(RejectAccount, "source account %s not found", tx.TxUID)
	}
	if !crypto.VerifySignature(hash.Bytes(), tx.Sig, acct.OwnerPubKey) {
		return ctx.State.Invalid(RejectSignature, "invalid signature for %s", tx.TxUID)
	}
	return nil
}

const (
	InitTxVersion    = 1
	ValidHeightRange = 250
	MaxSignatureSize = 100

	feeSymbolWICC = "WICC"
	feeSymbolWUSD = "WUSD"
)
