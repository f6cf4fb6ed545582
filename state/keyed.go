package state

import (
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/rlp"

	"wicchain/storage"
)

// StoreID routes undo entries back to the typed store that recorded them.
type StoreID uint8

const (
	StoreSysParam StoreID = iota + 1
	StoreAccount
	StoreKeyIDIndex
	StoreTxSeen
	StoreDelegateVotes
	StoreCDP
	StoreCDPOwnerIndex
	StoreCDPRatioIndex
	StoreCDPGlobals
	StoreClosedCDP
	StorePricePoint
	StoreMedianPrice
	StoreExecFailLog
)

type entry[V any] struct {
	value   V
	deleted bool
}

// KeyedStore is one versioned key-value cache tier. A store either points at
// a parent tier (scratch layering) or, at the root, writes through to the
// backing database under its prefix. Values are RLP-encoded only at the root.
//
// A KeyedStore is not safe for concurrent use; the wrapper owning it is held
// by one task at a time.
type KeyedStore[K ~string, V any] struct {
	id      StoreID
	prefix  []byte
	parent  *KeyedStore[K, V]
	backing storage.Database
	local   map[K]entry[V]
	undo    *UndoLog
}

// NewRootStore creates the root tier over backing storage.
func NewRootStore[K ~string, V any](id StoreID, prefix string, backing storage.Database) *KeyedStore[K, V] {
	return &KeyedStore[K, V]{
		id:      id,
		prefix:  []byte(prefix),
		backing: backing,
		local:   make(map[K]entry[V]),
	}
}

// NewChildStore creates a scratch tier over parent. O(1).
func NewChildStore[K ~string, V any](parent *KeyedStore[K, V]) *KeyedStore[K, V] {
	return &KeyedStore[K, V]{
		id:     parent.id,
		prefix: parent.prefix,
		parent: parent,
		local:  make(map[K]entry[V]),
	}
}

// SetUndoLog attaches (or detaches, with nil) the undo log subsequent writes
// record into.
func (s *KeyedStore[K, V]) SetUndoLog(log *UndoLog) { s.undo = log }

// Get returns the value visible at this tier.
func (s *KeyedStore[K, V]) Get(key K) (V, bool, error) {
	if e, ok := s.local[key]; ok {
		if e.deleted {
			var zero V
			return zero, false, nil
		}
		return e.value, true, nil
	}
	if s.parent != nil {
		return s.parent.Get(key)
	}
	return s.getBacking(key)
}

func (s *KeyedStore[K, V]) getBacking(key K) (V, bool, error) {
	var zero V
	if s.backing == nil {
		return zero, false, nil
	}
	raw, ok, err := s.backing.Get(s.backingKey(key))
	if err != nil || !ok {
		return zero, false, err
	}
	var v V
	if err := rlp.DecodeBytes(raw, &v); err != nil {
		return zero, false, fmt.Errorf("store %d: decode %q: %w", s.id, string(key), err)
	}
	return v, true, nil
}

// Set records a pending write at this tier.
func (s *KeyedStore[K, V]) Set(key K, value V) {
	s.recordUndo(key)
	s.local[key] = entry[V]{value: value}
}

// Erase records a pending tombstone at this tier.
func (s *KeyedStore[K, V]) Erase(key K) {
	s.recordUndo(key)
	s.local[key] = entry[V]{deleted: true}
}

func (s *KeyedStore[K, V]) recordUndo(key K) {
	if s.undo == nil {
		return
	}
	prev, present := s.local[key]
	s.undo.append(s.id, string(key), func() {
		if present {
			s.local[key] = prev
		} else {
			delete(s.local, key)
		}
	})
}

// KV is one element of a range scan.
type KV[K ~string, V any] struct {
	Key   K
	Value V
}

// GetAllElements range-scans every live entry whose key starts with prefix,
// merging local tiers over the backing with tombstones winning. Results are
// in ascending key order.
func (s *KeyedStore[K, V]) GetAllElements(prefix K) ([]KV[K, V], error) {
	merged := make(map[K]entry[V])

	// Deepest tier first so shallower writes overwrite.
	chain := make([]*KeyedStore[K, V], 0, 4)
	for t := s; t != nil; t = t.parent {
		chain = append(chain, t)
	}
	root := chain[len(chain)-1]
	if root.backing != nil {
		bprefix := root.backingKey(prefix)
		err := root.backing.IteratePrefix(bprefix, func(key, value []byte) bool {
			var v V
			if err := rlp.DecodeBytes(value, &v); err != nil {
				return false
			}
			merged[K(key[len(root.prefix):])] = entry[V]{value: v}
			return true
		})
		if err != nil {
			return nil, err
		}
	}
	for i := len(chain) - 1; i >= 0; i-- {
		for k, e := range chain[i].local {
			if len(k) >= len(prefix) && string(k)[:len(prefix)] == string(prefix) {
				merged[k] = e
			}
		}
	}

	out := make([]KV[K, V], 0, len(merged))
	for k, e := range merged {
		if e.deleted {
			continue
		}
		out = append(out, KV[K, V]{Key: k, Value: e.value})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// GetAllElementsUpTo range-scans live entries whose key is at or below the
// limit: every key strictly less than limit plus every key sharing limit as a
// prefix. Results are in ascending key order, capped at max when positive.
func (s *KeyedStore[K, V]) GetAllElementsUpTo(limit K, max int) ([]KV[K, V], error) {
	all, err := s.GetAllElements("")
	if err != nil {
		return nil, err
	}
	out := make([]KV[K, V], 0, len(all))
	for _, kv := range all {
		inRange := kv.Key < limit ||
			(len(kv.Key) >= len(limit) && string(kv.Key)[:len(limit)] == string(limit))
		if !inRange {
			continue
		}
		out = append(out, kv)
		if max > 0 && len(out) == max {
			break
		}
	}
	return out, nil
}

// Flush pushes the local tier into the parent, or writes through to the
// backing store at the root, then clears the local tier.
func (s *KeyedStore[K, V]) Flush() error {
	if s.parent != nil {
		for k, e := range s.local {
			s.parent.recordUndo(k)
			s.parent.local[k] = e
		}
		s.local = make(map[K]entry[V])
		return nil
	}
	for k, e := range s.local {
		bk := s.backingKey(k)
		if e.deleted {
			if err := s.backing.Delete(bk); err != nil {
				return err
			}
			continue
		}
		raw, err := rlp.EncodeToBytes(e.value)
		if err != nil {
			return fmt.Errorf("store %d: encode %q: %w", s.id, string(k), err)
		}
		if err := s.backing.Put(bk, raw); err != nil {
			return err
		}
	}
	s.local = make(map[K]entry[V])
	return nil
}

func (s *KeyedStore[K, V]) backingKey(key K) []byte {
	bk := make([]byte, 0, len(s.prefix)+len(key))
	bk = append(bk, s.prefix...)
	bk = append(bk, string(key)...)
	return bk
}

// CacheSize is the number of pending local entries.
func (s *KeyedStore[K, V]) CacheSize() int { return len(s.local) }

// UndoLog accumulates inverse operations across every typed store of a
// wrapper. Applying it restores the wrapper to the state before logging
// started.
type UndoLog struct {
	ops []undoOp
}

type undoOp struct {
	store   StoreID
	key     string
	restore func()
}

func NewUndoLog() *UndoLog { return &UndoLog{} }

func (l *UndoLog) append(store StoreID, key string, restore func()) {
	l.ops = append(l.ops, undoOp{store: store, key: key, restore: restore})
}

// Len reports the recorded op count.
func (l *UndoLog) Len() int { return len(l.ops) }

// Apply replays the inverse operations in reverse order and clears the log.
func (l *UndoLog) Apply() {
	for i := len(l.ops) - 1; i >= 0; i-- {
		l.ops[i].restore()
	}
	l.ops = l.ops[:0]
}
