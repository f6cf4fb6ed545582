package state

import (
	"wicchain/core/types"
	"wicchain/crypto"
	"wicchain/storage"
)

// AccountCache is the typed account tier: the primary regid-keyed store plus
// the keyid index for address lookups.
type AccountCache struct {
	Accounts   *KeyedStore[string, types.Account]
	KeyIDIndex *KeyedStore[string, types.RegID]
}

func NewAccountCache(db storage.Database) *AccountCache {
	return &AccountCache{
		Accounts:   NewRootStore[string, types.Account](StoreAccount, "a", db),
		KeyIDIndex: NewRootStore[string, types.RegID](StoreKeyIDIndex, "k", db),
	}
}

func SpawnAccountCache(parent *AccountCache) *AccountCache {
	return &AccountCache{
		Accounts:   NewChildStore(parent.Accounts),
		KeyIDIndex: NewChildStore(parent.KeyIDIndex),
	}
}

func (c *AccountCache) GetAccount(regID types.RegID) (*types.Account, bool, error) {
	acct, ok, err := c.Accounts.Get(regID.RawKey())
	if err != nil || !ok {
		return nil, false, err
	}
	acct.Tokens = append([]types.TokenAmount(nil), acct.Tokens...)
	return &acct, true, nil
}

func (c *AccountCache) GetAccountByKeyID(keyID crypto.KeyID) (*types.Account, bool, error) {
	regID, ok, err := c.KeyIDIndex.Get(string(keyID.Bytes()))
	if err != nil || !ok {
		return nil, false, err
	}
	return c.GetAccount(regID)
}

// SetAccount writes the account and keeps the keyid index in step.
func (c *AccountCache) SetAccount(acct *types.Account) error {
	c.Accounts.Set(acct.RegID.RawKey(), *acct)
	if !acct.KeyID.IsEmpty() {
		c.KeyIDIndex.Set(string(acct.KeyID.Bytes()), acct.RegID)
	}
	return nil
}

func (c *AccountCache) SetUndoLog(log *UndoLog) {
	c.Accounts.SetUndoLog(log)
	c.KeyIDIndex.SetUndoLog(log)
}

func (c *AccountCache) Flush() error {
	if err := c.Accounts.Flush(); err != nil {
		return err
	}
	return c.KeyIDIndex.Flush()
}

func (c *AccountCache) CacheSize() int {
	return c.Accounts.CacheSize() + c.KeyIDIndex.CacheSize()
}
