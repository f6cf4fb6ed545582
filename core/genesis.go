package core

import (
	"wicchain/config"
	"wicchain/core/types"
	"wicchain/crypto"
	"wicchain/state"
)

// GenesisAccount seeds one account at genesis: its keys, starting WICC
// balance and the votes it has received as a delegate candidate.
type GenesisAccount struct {
	RegID       types.RegID
	OwnerPubKey []byte
	MinerPubKey []byte
	Balance     uint64
	Votes       uint64
}

// CreateGenesisBlock builds the canonical height-0 block for the network.
func CreateGenesisBlock(params *config.ChainParams) *types.Block {
	reward := types.NewBlockRewardTx()
	reward.TxUID = types.NewRegID(0, 1)

	block := &types.Block{
		Header: types.BlockHeader{
			Version:  types.CurrentBlockVersion,
			Height:   0,
			Time:     genesisAnchorTime,
			FuelRate: config.InitFuelRate,
		},
		Txs: []types.Transaction{reward},
	}
	block.Header.MerkleRoot = block.BuildMerkleTree()
	return block
}

const genesisAnchorTime = 1546300800 // 2019-01-01T00:00:00Z

// InitGenesisState writes the seed accounts and their delegate votes into the
// committed view.
func InitGenesisState(cw *state.CacheWrapper, accounts []GenesisAccount) error {
	for _, ga := range accounts {
		acct := &types.Account{
			RegID:         ga.RegID,
			OwnerPubKey:   ga.OwnerPubKey,
			MinerPubKey:   ga.MinerPubKey,
			ReceivedVotes: ga.Votes,
		}
		if len(ga.OwnerPubKey) > 0 {
			if pub, err := crypto.ParsePubKey(ga.OwnerPubKey); err == nil {
				acct.KeyID = pub.KeyID()
			}
		}
		if ga.Balance > 0 {
			acct.AddToken(config.SymbolWICC, ga.Balance)
		}
		if err := cw.SetAccount(acct); err != nil {
			return err
		}
		if ga.Votes > 0 {
			cw.DelegateCache.SetDelegateVotes(ga.RegID, ga.Votes)
		}
	}
	return cw.Flush()
}

// FcoinGenesisRegID is the account receiving the fund-coin release at the
// stablecoin genesis block.
func FcoinGenesisRegID(params *config.ChainParams) types.RegID {
	return types.NewRegID(params.StableCoinGenesisHeight, 1)
}

// RiskReserveRegID is the account bootstrapping the stablecoin risk reserve.
func RiskReserveRegID(params *config.ChainParams) types.RegID {
	return types.NewRegID(params.StableCoinGenesisHeight, 2)
}

// CreateFundCoinRewardTxs builds the network-specific fund-coin transaction
// set for the stablecoin genesis block. Regtest releases a scaled-down set so
// test fixtures stay readable.
func CreateFundCoinRewardTxs(params *config.ChainParams) []types.Transaction {
	release := uint64(config.FundCoinTotalReleaseAmount) * config.COIN
	reserve := uint64(config.FundCoinInitialReserveAmount) * config.COIN
	if params.Network == config.RegTest {
		release = 1_000_000 * config.COIN
		reserve = 1_000 * config.COIN
	}

	fcoin := types.NewUCoinBlockRewardTx()
	fcoin.TxUID = FcoinGenesisRegID(params)
	fcoin.ValidHeight = params.StableCoinGenesisHeight
	fcoin.RewardFees = []types.TokenAmount{{Symbol: config.SymbolWGRT, Amount: release}}

	risk := types.NewUCoinBlockRewardTx()
	risk.TxUID = RiskReserveRegID(params)
	risk.ValidHeight = params.StableCoinGenesisHeight
	risk.RewardFees = []types.TokenAmount{{Symbol: config.SymbolWUSD, Amount: reserve}}

	return []types.Transaction{fcoin, risk}
}
