package state

import (
	"github.com/ethereum/go-ethereum/common"

	"wicchain/storage"
)

// ExecFailRecord captures why a transaction was dropped during packing or
// rejected during validation, for post-mortem inspection.
type ExecFailRecord struct {
	TxID   common.Hash
	Code   uint8
	Reason string
}

// LogCache is the execute-fail tier keyed by (height, txid).
type LogCache struct {
	Fails *KeyedStore[string, ExecFailRecord]
}

func NewLogCache(db storage.Database) *LogCache {
	return &LogCache{Fails: NewRootStore[string, ExecFailRecord](StoreExecFailLog, "L", db)}
}

func SpawnLogCache(parent *LogCache) *LogCache {
	return &LogCache{Fails: NewChildStore(parent.Fails)}
}

// SetExecuteFail records a failed execution.
func (c *LogCache) SetExecuteFail(height uint32, txid common.Hash, code uint8, reason string) {
	key := heightKey(height) + string(txid.Bytes())
	c.Fails.Set(key, ExecFailRecord{TxID: txid, Code: code, Reason: reason})
}

// GetExecuteFails returns every failure recorded at height.
func (c *LogCache) GetExecuteFails(height uint32) ([]ExecFailRecord, error) {
	elems, err := c.Fails.GetAllElements(heightKey(height))
	if err != nil {
		return nil, err
	}
	out := make([]ExecFailRecord, 0, len(elems))
	for _, kv := range elems {
		out = append(out, kv.Value)
	}
	return out, nil
}

func (c *LogCache) SetUndoLog(log *UndoLog) { c.Fails.SetUndoLog(log) }

func (c *LogCache) Flush() error { return c.Fails.Flush() }

func (c *LogCache) CacheSize() int { return c.Fails.CacheSize() }
