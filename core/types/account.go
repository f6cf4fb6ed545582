package types

import (
	"fmt"
	"sort"

	"wicchain/config"
	"wicchain/crypto"
)

// TokenAmount is one balance leg of a multi-token account. Amounts are in
// smallest units. The slice form keeps RLP encoding canonical; entries stay
// sorted by symbol.
type TokenAmount struct {
	Symbol string
	Amount uint64
}

// Account is the on-chain account record. Created on first funded appearance,
// never destroyed.
type Account struct {
	RegID         RegID
	KeyID         crypto.KeyID
	OwnerPubKey   []byte // compressed secp256k1
	MinerPubKey   []byte // optional delegated mining key
	Tokens        []TokenAmount
	ReceivedVotes uint64
}

func NewAccount(regID RegID, keyID crypto.KeyID, ownerPubKey []byte) *Account {
	return &Account{RegID: regID, KeyID: keyID, OwnerPubKey: ownerPubKey}
}

// GetToken returns the free balance held in symbol.
func (a *Account) GetToken(symbol string) uint64 {
	for _, t := range a.Tokens {
		if t.Symbol == symbol {
			return t.Amount
		}
	}
	return 0
}

// AddToken credits amount of symbol.
func (a *Account) AddToken(symbol string, amount uint64) {
	for i := range a.Tokens {
		if a.Tokens[i].Symbol == symbol {
			a.Tokens[i].Amount += amount
			return
		}
	}
	a.Tokens = append(a.Tokens, TokenAmount{Symbol: symbol, Amount: amount})
	sort.Slice(a.Tokens, func(i, j int) bool { return a.Tokens[i].Symbol < a.Tokens[j].Symbol })
}

// SubToken debits amount of symbol, failing on insufficient balance.
func (a *Account) SubToken(symbol string, amount uint64) error {
	for i := range a.Tokens {
		if a.Tokens[i].Symbol == symbol {
			if a.Tokens[i].Amount < amount {
				return fmt.Errorf("account %s: insufficient %s balance: have %d, need %d",
					a.RegID, symbol, a.Tokens[i].Amount, amount)
			}
			a.Tokens[i].Amount -= amount
			return nil
		}
	}
	return fmt.Errorf("account %s: insufficient %s balance: have 0, need %d", a.RegID, symbol, amount)
}

// MiningPubKey returns the key a block produced by this account must be
// signed with: the dedicated miner key when set, the owner key otherwise.
func (a *Account) MiningPubKey() []byte {
	if len(a.MinerPubKey) > 0 {
		return a.MinerPubKey
	}
	return a.OwnerPubKey
}

// ComputeBlockInflateInterest returns the vote-staking inflation credited to
// the delegate producing a block at currHeight. Zero before the stablecoin
// fork.
func (a *Account) ComputeBlockInflateInterest(currHeight uint32, params *config.ChainParams) uint64 {
	if params.FeatureForkVersion(currHeight) == config.MajorVerR1 {
		return 0
	}

	subsidy := uint64(params.SubsidyRate(currHeight))
	yearHeight := uint64(params.YearBlockCount(currHeight))
	delegateNum := uint64(params.TotalDelegateNum)
	const holdHeight = 1

	return a.ReceivedVotes * delegateNum * holdHeight * subsidy / yearHeight / 100
}
