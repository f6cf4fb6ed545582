package crypto

import (
	"errors"
	"sync"
)

// Signer is the signing oracle the consensus core depends on. Key storage and
// unlocking live behind this interface.
type Signer interface {
	// Sign signs hash with the key identified by keyID.
	Sign(keyID KeyID, hash []byte) ([]byte, error)
	// GetKey reports whether a key is available for keyID. With minerOnly
	// set, only a dedicated miner key satisfies the lookup.
	GetKey(keyID KeyID, minerOnly bool) (*PrivateKey, bool)
}

var ErrKeyNotFound = errors.New("crypto: key not found")

type walletEntry struct {
	key   *PrivateKey
	miner bool
}

// Wallet is an in-memory Signer keyed by KeyID. It guards its map with a
// mutex so the mining task and RPC surface can share it.
type Wallet struct {
	mu   sync.RWMutex
	keys map[KeyID]walletEntry
}

func NewWallet() *Wallet {
	return &Wallet{keys: make(map[KeyID]walletEntry)}
}

// AddKey registers an owner key.
func (w *Wallet) AddKey(key *PrivateKey) {
	w.addKey(key, false)
}

// AddMinerKey registers a dedicated miner key. Miner keys satisfy both plain
// and miner-only lookups.
func (w *Wallet) AddMinerKey(key *PrivateKey) {
	w.addKey(key, true)
}

func (w *Wallet) addKey(key *PrivateKey, miner bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.keys[key.PubKey().KeyID()] = walletEntry{key: key, miner: miner}
}

func (w *Wallet) Sign(keyID KeyID, hash []byte) ([]byte, error) {
	w.mu.RLock()
	entry, ok := w.keys[keyID]
	w.mu.RUnlock()
	if !ok {
		return nil, ErrKeyNotFound
	}
	return entry.key.Sign(hash)
}

func (w *Wallet) GetKey(keyID KeyID, minerOnly bool) (*PrivateKey, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	entry, ok := w.keys[keyID]
	if !ok || (minerOnly && !entry.miner) {
		return nil, false
	}
	return entry.key, true
}

// HasMinerKey reports whether any registered key can mine.
func (w *Wallet) HasMinerKey() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, entry := range w.keys {
		if entry.miner {
			return true
		}
	}
	return false
}
