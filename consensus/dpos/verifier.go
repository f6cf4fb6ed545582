package dpos

import (
	"fmt"
	"log/slog"

	"wicchain/config"
	"wicchain/core/types"
	"wicchain/crypto"
	"wicchain/state"
)

// Verifier is the validation-mode mirror of the assembler: it recomputes the
// delegate schedule, checks the header commitments and signature, and
// optionally re-executes the block's transactions.
type Verifier struct {
	params *config.ChainParams
	store  BlockStore
	logger *slog.Logger
}

func NewVerifier(chainParams *config.ChainParams, store BlockStore, logger *slog.Logger) *Verifier {
	return &Verifier{params: chainParams, store: store, logger: logger}
}

// VerifyRewardTx checks a candidate block against the committed view behind
// cwIn. With needRunTx set (the default for accepting blocks) transactions
// are re-executed against a scratch cache and the fuel and run-step totals
// are enforced.
func (v *Verifier) VerifyRewardTx(block *types.Block, cwIn *state.CacheWrapper, needRunTx bool) error {
	if len(block.Txs) == 0 || !block.Txs[0].IsBlockRewardTx() {
		return &types.RejectError{Code: types.RejectInvalid, Reason: "block head tx is not a reward tx"}
	}

	delegates, err := cwIn.DelegateCache.GetTopDelegateList(v.params.TotalDelegateNum)
	if err != nil {
		return err
	}
	if len(delegates) == 0 {
		return fmt.Errorf("dpos: no delegates at height %d", block.Header.Height)
	}
	ShuffleDelegates(block.Header.Height, v.params, delegates)

	slotDelegate, err := GetCurrentDelegate(int64(block.Header.Time), block.Header.Height, v.params, delegates)
	if err != nil {
		return err
	}
	curDelegate, ok, err := cwIn.GetAccount(slotDelegate)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("dpos: slot delegate account %s not found", slotDelegate)
	}

	if block.Header.Nonce > v.params.MaxBlockNonce {
		return &types.RejectError{Code: types.RejectInvalid,
			Reason: fmt.Sprintf("invalid nonce %d", block.Header.Nonce)}
	}
	if block.Header.MerkleRoot != block.BuildMerkleTree() {
		return &types.RejectError{Code: types.RejectInvalid, Reason: "wrong merkle root hash"}
	}

	spCW := state.SpawnCacheWrapper(cwIn)

	if block.Header.Height > 1 {
		prevIdx, ok := v.store.GetIndex(block.Header.PrevHash)
		if !ok {
			return fmt.Errorf("dpos: previous block %s not indexed", block.Header.PrevHash.Hex())
		}
		prevBlock, err := v.store.ReadBlock(prevIdx)
		if err != nil {
			return fmt.Errorf("dpos: read previous block: %w", err)
		}
		prevDelegate, ok, err := spCW.GetAccount(prevBlock.Txs[0].GetTxUID())
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("dpos: previous delegate account %s not found", prevBlock.Txs[0].GetTxUID())
		}
		if int64(block.Header.Time)-int64(prevBlock.Header.Time) < int64(v.params.BlockInterval(block.Header.Height)) &&
			prevDelegate.RegID == curDelegate.RegID {
			return &types.RejectError{Code: types.RejectInvalid,
				Reason: "one delegate can't produce more than one block at the same slot"}
		}
	}

	producer, ok, err := spCW.GetAccount(block.Txs[0].GetTxUID())
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("dpos: producer account %s not found", block.Txs[0].GetTxUID())
	}
	if producer.RegID != curDelegate.RegID {
		return &types.RejectError{Code: types.RejectInvalid,
			Reason: fmt.Sprintf("delegate should be %s vs what we got %s", curDelegate.RegID, producer.RegID)}
	}

	sigHash := block.Header.SignatureHash()
	sig := block.Header.Signature
	if len(sig) == 0 || len(sig) > types.MaxSignatureSize {
		return &types.RejectError{Code: types.RejectSignature,
			Reason: fmt.Sprintf("invalid block signature size %d", len(sig))}
	}
	if !crypto.VerifySignature(sigHash.Bytes(), sig, producer.OwnerPubKey) {
		if !crypto.VerifySignature(sigHash.Bytes(), sig, producer.MinerPubKey) {
			return &types.RejectError{Code: types.RejectSignature, Reason: "verify block signature error"}
		}
	}

	if block.Txs[0].Version() != types.InitTxVersion {
		return &types.RejectError{Code: types.RejectInvalid,
			Reason: fmt.Sprintf("transaction version %d vs current %d", block.Txs[0].Version(), types.InitTxVersion)}
	}

	if !needRunTx {
		return nil
	}

	var totalFuel, totalRunStep uint64
	for i := 1; i < len(block.Txs); i++ {
		tx := block.Txs[i]
		have, err := spCW.TxCache.HaveTx(tx.GetHash())
		if err != nil {
			return err
		}
		if have {
			return &types.RejectError{Code: types.RejectDuplicate,
				Reason: fmt.Sprintf("duplicate transaction %s", tx.GetHash().Hex())}
		}

		vs := &types.ValidationState{}
		ctx := &types.ExecuteContext{
			Height:    block.Header.Height,
			Index:     uint32(i),
			FuelRate:  block.Header.FuelRate,
			BlockTime: int64(block.Header.Time),
			Cache:     spCW,
			State:     vs,
		}
		if err := tx.ExecuteTx(ctx); err != nil {
			cwIn.LogCache.SetExecuteFail(block.Header.Height, tx.GetHash(), vs.RejectCode(), vs.RejectReason())
			return fmt.Errorf("dpos: failed to execute transaction %s: %w", tx.GetHash().Hex(), err)
		}

		totalRunStep += tx.RunStep()
		if totalRunStep > config.MaxBlockRunStep {
			return &types.RejectError{Code: types.RejectInvalid,
				Reason: fmt.Sprintf("block total run steps %d exceed max", totalRunStep)}
		}
		fuel := tx.GetFuel(block.Header.Height, block.Header.FuelRate)
		totalFuel += fuel
		v.logger.Debug("verified tx", "txid", tx.GetHash().Hex(), "fuel", fuel, "totalFuel", totalFuel)
	}

	if totalFuel != block.Header.Fuel {
		return &types.RejectError{Code: types.RejectInvalid,
			Reason: fmt.Sprintf("total fuel %d mismatches %d in block header", totalFuel, block.Header.Fuel)}
	}
	return nil
}
