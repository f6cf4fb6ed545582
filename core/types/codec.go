package types

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
)

type txEnvelope struct {
	Tag     uint8
	Payload []byte
}

// EncodeTx serializes a transaction as a type-tagged envelope.
func EncodeTx(tx Transaction) ([]byte, error) {
	payload, err := rlp.EncodeToBytes(tx.payload(true))
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", tx.TxType(), err)
	}
	return rlp.EncodeToBytes(&txEnvelope{Tag: uint8(tx.TxType()), Payload: payload})
}

// DecodeTx deserializes a type-tagged transaction envelope, dispatching on
// the tag.
func DecodeTx(raw []byte) (Transaction, error) {
	var env txEnvelope
	if err := rlp.DecodeBytes(raw, &env); err != nil {
		return nil, fmt.Errorf("decode tx envelope: %w", err)
	}

	switch TxType(env.Tag) {
	case TxBlockReward:
		var p blockRewardPayload
		if err := rlp.DecodeBytes(env.Payload, &p); err != nil {
			return nil, fmt.Errorf("decode %s: %w", TxBlockReward, err)
		}
		return &BlockRewardTx{
			BaseTx:     BaseTx{TxVersion: p.TxVersion, ValidHeight: p.ValidHeight, TxUID: p.TxUID, Sig: p.Sig},
			RewardFees: p.RewardFees,
		}, nil

	case TxUCoinBlockReward:
		var p ucoinRewardPayload
		if err := rlp.DecodeBytes(env.Payload, &p); err != nil {
			return nil, fmt.Errorf("decode %s: %w", TxUCoinBlockReward, err)
		}
		return &UCoinBlockRewardTx{
			BaseTx:         BaseTx{TxVersion: p.TxVersion, ValidHeight: p.ValidHeight, TxUID: p.TxUID, Sig: p.Sig},
			RewardFees:     p.RewardFees,
			InflatedBcoins: p.InflatedBcoins,
		}, nil

	case TxBlockPriceMedian:
		var p priceMedianPayload
		if err := rlp.DecodeBytes(env.Payload, &p); err != nil {
			return nil, fmt.Errorf("decode %s: %w", TxBlockPriceMedian, err)
		}
		return &BlockPriceMedianTx{
			BaseTx:       BaseTx{TxVersion: p.TxVersion, ValidHeight: p.ValidHeight, TxUID: p.TxUID, Sig: p.Sig},
			MedianPrices: p.MedianPrices,
		}, nil

	case TxBaseCoinTransfer:
		var p baseCoinTransferPayload
		if err := rlp.DecodeBytes(env.Payload, &p); err != nil {
			return nil, fmt.Errorf("decode %s: %w", TxBaseCoinTransfer, err)
		}
		return &BaseCoinTransferTx{
			BaseTx: BaseTx{
				TxVersion: p.TxVersion, ValidHeight: p.ValidHeight, TxUID: p.TxUID,
				FeeSymbol: p.FeeSymbol, FeeAmount: p.FeeAmount, Sig: p.Sig,
			},
			ToKeyID: p.ToKeyID,
			Amount:  p.Amount,
			Memo:    p.Memo,
		}, nil

	case TxUCoinTransfer:
		var p ucoinTransferPayload
		if err := rlp.DecodeBytes(env.Payload, &p); err != nil {
			return nil, fmt.Errorf("decode %s: %w", TxUCoinTransfer, err)
		}
		return &UCoinTransferTx{
			BaseTx: BaseTx{
				TxVersion: p.TxVersion, ValidHeight: p.ValidHeight, TxUID: p.TxUID,
				FeeSymbol: p.FeeSymbol, FeeAmount: p.FeeAmount, Sig: p.Sig,
			},
			Transfers: p.Transfers,
			Memo:      p.Memo,
		}, nil
	}
	return nil, fmt.Errorf("unknown tx tag %d", env.Tag)
}
