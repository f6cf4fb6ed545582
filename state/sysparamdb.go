package state

import "wicchain/storage"

// SysParamCache is the raw governed-parameter tier. Keys are the
// single-letter persistence keys; interpretation and defaults live in
// native/params.
type SysParamCache struct {
	Params *KeyedStore[string, uint64]
}

func NewSysParamCache(db storage.Database) *SysParamCache {
	return &SysParamCache{Params: NewRootStore[string, uint64](StoreSysParam, "s", db)}
}

func SpawnSysParamCache(parent *SysParamCache) *SysParamCache {
	return &SysParamCache{Params: NewChildStore(parent.Params)}
}

// GetParam returns the persisted value for the persistence key, if any.
func (c *SysParamCache) GetParam(key string) (uint64, bool, error) {
	return c.Params.Get(key)
}

// SetParam persists a governance-updated value.
func (c *SysParamCache) SetParam(key string, value uint64) {
	c.Params.Set(key, value)
}

func (c *SysParamCache) SetUndoLog(log *UndoLog) { c.Params.SetUndoLog(log) }

func (c *SysParamCache) Flush() error { return c.Params.Flush() }

func (c *SysParamCache) CacheSize() int { return c.Params.CacheSize() }
