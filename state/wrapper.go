package state

import (
	"wicchain/core/types"
	"wicchain/crypto"
	"wicchain/storage"
)

// CacheWrapper composes every typed cache tier behind one Flush/Undo surface.
// The root wrapper owns the backing store; scratch wrappers layer over a
// parent in O(1) and vanish when dropped without Flush.
//
// A wrapper is held by a single task at a time; it carries no locks.
type CacheWrapper struct {
	SysParamCache   *SysParamCache
	AccountCache    *AccountCache
	TxCache         *TxCache
	DelegateCache   *DelegateCache
	CdpCache        *CdpCache
	PricePointCache *PricePointCache
	LogCache        *LogCache

	undo *UndoLog
}

// NewCacheWrapper builds the root wrapper over db.
func NewCacheWrapper(db storage.Database) *CacheWrapper {
	return &CacheWrapper{
		SysParamCache:   NewSysParamCache(db),
		AccountCache:    NewAccountCache(db),
		TxCache:         NewTxCache(db),
		DelegateCache:   NewDelegateCache(db),
		CdpCache:        NewCdpCache(db),
		PricePointCache: NewPricePointCache(db),
		LogCache:        NewLogCache(db),
	}
}

// SpawnCacheWrapper forks a scratch view over parent.
func SpawnCacheWrapper(parent *CacheWrapper) *CacheWrapper {
	return &CacheWrapper{
		SysParamCache:   SpawnSysParamCache(parent.SysParamCache),
		AccountCache:    SpawnAccountCache(parent.AccountCache),
		TxCache:         SpawnTxCache(parent.TxCache),
		DelegateCache:   SpawnDelegateCache(parent.DelegateCache),
		CdpCache:        SpawnCdpCache(parent.CdpCache),
		PricePointCache: SpawnPricePointCache(parent.PricePointCache),
		LogCache:        SpawnLogCache(parent.LogCache),
	}
}

// EnableUndoLog attaches a fresh undo log; subsequent writes to any tier are
// recorded until DisableUndoLog.
func (cw *CacheWrapper) EnableUndoLog() {
	cw.undo = NewUndoLog()
	cw.setUndoLog(cw.undo)
}

// DisableUndoLog detaches and discards the undo log.
func (cw *CacheWrapper) DisableUndoLog() {
	cw.undo = nil
	cw.setUndoLog(nil)
}

// UndoData reverse-applies the recorded undo log, restoring the wrapper to
// the state when logging was enabled.
func (cw *CacheWrapper) UndoData() {
	if cw.undo != nil {
		cw.undo.Apply()
	}
}

func (cw *CacheWrapper) setUndoLog(log *UndoLog) {
	cw.SysParamCache.SetUndoLog(log)
	cw.AccountCache.SetUndoLog(log)
	cw.TxCache.SetUndoLog(log)
	cw.DelegateCache.SetUndoLog(log)
	cw.CdpCache.SetUndoLog(log)
	cw.PricePointCache.SetUndoLog(log)
	cw.LogCache.SetUndoLog(log)
}

// Flush promotes every tier in fixed order.
func (cw *CacheWrapper) Flush() error {
	for _, flush := range []func() error{
		cw.SysParamCache.Flush,
		cw.AccountCache.Flush,
		cw.TxCache.Flush,
		cw.DelegateCache.Flush,
		cw.CdpCache.Flush,
		cw.PricePointCache.Flush,
		cw.LogCache.Flush,
	} {
		if err := flush(); err != nil {
			return err
		}
	}
	return nil
}

// CacheSize reports pending entries across every tier.
func (cw *CacheWrapper) CacheSize() int {
	return cw.SysParamCache.CacheSize() + cw.AccountCache.CacheSize() + cw.TxCache.CacheSize() +
		cw.DelegateCache.CacheSize() + cw.CdpCache.CacheSize() + cw.PricePointCache.CacheSize() +
		cw.LogCache.CacheSize()
}

// --- types.StateView ---

func (cw *CacheWrapper) GetAccount(regID types.RegID) (*types.Account, bool, error) {
	return cw.AccountCache.GetAccount(regID)
}

func (cw *CacheWrapper) GetAccountByKeyID(keyID crypto.KeyID) (*types.Account, bool, error) {
	return cw.AccountCache.GetAccountByKeyID(keyID)
}

func (cw *CacheWrapper) SetAccount(acct *types.Account) error {
	return cw.AccountCache.SetAccount(acct)
}

func (cw *CacheWrapper) SetMedianPrices(height uint32, points []types.PricePoint) error {
	return cw.PricePointCache.SetMedianPrices(height, points)
}
