package state

import (
	"github.com/ethereum/go-ethereum/common"

	"wicchain/storage"
)

// TxCache tracks transaction hashes already confirmed on the active chain so
// the assembler and verifier can reject duplicates.
type TxCache struct {
	Seen *KeyedStore[string, uint32]
}

func NewTxCache(db storage.Database) *TxCache {
	return &TxCache{Seen: NewRootStore[string, uint32](StoreTxSeen, "t", db)}
}

func SpawnTxCache(parent *TxCache) *TxCache {
	return &TxCache{Seen: NewChildStore(parent.Seen)}
}

// HaveTx reports whether txid was confirmed.
func (c *TxCache) HaveTx(txid common.Hash) (bool, error) {
	_, ok, err := c.Seen.Get(string(txid.Bytes()))
	return ok, err
}

// AddTx marks txid confirmed at height.
func (c *TxCache) AddTx(txid common.Hash, height uint32) {
	c.Seen.Set(string(txid.Bytes()), height)
}

// RemoveTx forgets txid, used when a block is disconnected.
func (c *TxCache) RemoveTx(txid common.Hash) {
	c.Seen.Erase(string(txid.Bytes()))
}

func (c *TxCache) SetUndoLog(log *UndoLog) { c.Seen.SetUndoLog(log) }

func (c *TxCache) Flush() error { return c.Seen.Flush() }

func (c *TxCache) CacheSize() int { return c.Seen.CacheSize() }
