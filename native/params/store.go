package params

import (
	"fmt"

	"wicchain/state"
)

// Store provides typed accessors for governance-controlled parameters over
// the sysparam cache tier. Reads fall back to the table defaults when no
// governance transaction has written the key yet.
type Store struct {
	cache *state.SysParamCache
}

// NewStore constructs a parameter store over the supplied cache tier.
func NewStore(cache *state.SysParamCache) *Store {
	return &Store{cache: cache}
}

func (s *Store) withCache() (*state.SysParamCache, error) {
	if s == nil || s.cache == nil {
		return nil, fmt.Errorf("params: cache not configured")
	}
	return s.cache, nil
}

// Get returns the live value of p.
func (s *Store) Get(p SysParamType) (uint64, error) {
	cache, err := s.withCache()
	if err != nil {
		return 0, err
	}
	key, ok := PersistKey(p)
	if !ok {
		return 0, fmt.Errorf("params: unknown parameter %d", p)
	}
	value, found, err := cache.GetParam(key)
	if err != nil {
		return 0, err
	}
	if found {
		return value, nil
	}
	def, _ := Default(p)
	return def, nil
}

// Set persists a governance-updated value for p.
func (s *Store) Set(p SysParamType, value uint64) error {
	cache, err := s.withCache()
	if err != nil {
		return err
	}
	key, ok := PersistKey(p)
	if !ok {
		return fmt.Errorf("params: unknown parameter %d", p)
	}
	cache.SetParam(key, value)
	return nil
}
