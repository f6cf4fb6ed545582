package mempool

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"wicchain/core/types"
)

// Entry is one admissible pending transaction with the attributes the
// assembler orders on.
type Entry struct {
	Tx        types.Transaction
	Size      uint32
	FeeSymbol string
	FeeAmount uint64
	Priority  float64
}

// Mempool is the non-persistent set of pending transactions. The update
// counter advances on every effective insert or removal so the mining loop
// can detect staleness without diffing contents.
type Mempool struct {
	mu        sync.RWMutex
	txs       map[common.Hash]*Entry
	updateNum uint64
}

func NewMempool() *Mempool {
	return &Mempool{txs: make(map[common.Hash]*Entry)}
}

// AddTx admits tx, reporting whether the pool changed. Reinserting a present
// transaction is a no-op. Reward transactions are never admissible.
func (m *Mempool) AddTx(tx types.Transaction) bool {
	if tx.IsBlockRewardTx() {
		return false
	}
	hash := tx.GetHash()

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.txs[hash]; ok {
		return false
	}
	symbol, amount := tx.GetFees()
	m.txs[hash] = &Entry{
		Tx:        tx,
		Size:      tx.Size(),
		FeeSymbol: symbol,
		FeeAmount: amount,
		Priority:  tx.GetPriority(),
	}
	m.updateNum++
	return true
}

// RemoveTx drops the transaction, reporting whether the pool changed.
func (m *Mempool) RemoveTx(hash common.Hash) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.txs[hash]; !ok {
		return false
	}
	delete(m.txs, hash)
	m.updateNum++
	return true
}

// GetTx returns the entry for hash, if pending.
func (m *Mempool) GetTx(hash common.Hash) (*Entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.txs[hash]
	return e, ok
}

// Entries returns a snapshot of the pending set.
func (m *Mempool) Entries() []*Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Entry, 0, len(m.txs))
	for _, e := range m.txs {
		out = append(out, e)
	}
	return out
}

// Size is the pending transaction count.
func (m *Mempool) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.txs)
}

// UpdateNum is the monotone change counter.
func (m *Mempool) UpdateNum() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.updateNum
}
