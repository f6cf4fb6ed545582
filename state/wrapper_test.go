package state

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"wicchain/core/types"
	"wicchain/crypto"
	"wicchain/storage"
)

func testAccount(height uint32, index uint16, seed byte) *types.Account {
	var keyID crypto.KeyID
	keyID[0] = seed
	acct := types.NewAccount(types.NewRegID(height, index), keyID, []byte{seed, 2, 3})
	acct.AddToken("WICC", 1000)
	return acct
}

func TestWrapperScratchFlushEqualsDirectMutation(t *testing.T) {
	db := storage.NewMemDB()
	root := NewCacheWrapper(db)

	acct := testAccount(1, 0, 7)
	scratch := SpawnCacheWrapper(root)
	require.NoError(t, scratch.SetAccount(acct))
	require.NoError(t, scratch.Flush())

	got, ok, err := root.GetAccount(acct.RegID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(1000), got.GetToken("WICC"))

	// Lookup through the keyid index follows the same write.
	got, ok, err = root.GetAccountByKeyID(acct.KeyID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, acct.RegID, got.RegID)
}

func TestWrapperUndoAcrossTiers(t *testing.T) {
	db := storage.NewMemDB()
	root := NewCacheWrapper(db)
	require.NoError(t, root.SetAccount(testAccount(1, 0, 1)))
	root.DelegateCache.SetDelegateVotes(types.NewRegID(1, 0), 500)

	root.EnableUndoLog()
	acct, _, _ := root.GetAccount(types.NewRegID(1, 0))
	acct.AddToken("WUSD", 42)
	require.NoError(t, root.SetAccount(acct))
	root.DelegateCache.SetDelegateVotes(types.NewRegID(1, 0), 900)
	root.TxCache.AddTx(common.Hash{0xaa}, 2)
	root.UndoData()
	root.DisableUndoLog()

	acct, _, _ = root.GetAccount(types.NewRegID(1, 0))
	require.Equal(t, uint64(0), acct.GetToken("WUSD"))
	votes, _, _ := root.DelegateCache.GetDelegateVotes(types.NewRegID(1, 0))
	require.Equal(t, uint64(500), votes)
	have, err := root.TxCache.HaveTx(common.Hash{0xaa})
	require.NoError(t, err)
	require.False(t, have)
}

func TestWrapperRoundTripThroughBacking(t *testing.T) {
	db := storage.NewMemDB()
	root := NewCacheWrapper(db)
	require.NoError(t, root.SetAccount(testAccount(2, 1, 9)))
	require.NoError(t, root.Flush())

	// A fresh wrapper over the same backing sees the committed state.
	reopened := NewCacheWrapper(db)
	got, ok, err := reopened.GetAccount(types.NewRegID(2, 1))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(1000), got.GetToken("WICC"))
}
