package dpos

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"strconv"

	"wicchain/config"
	"wicchain/core/types"
)

// sha256d is the double-sha256 digest seeding and advancing the shuffle.
func sha256d(data []byte) [32]byte {
	first := sha256.Sum256(data)
	return sha256.Sum256(first[:])
}

// ShuffleDelegates permutes the top-N delegate list in place with the
// deterministic epoch shuffle: the seed is the epoch index ceil(height/N);
// each digest feeds four little-endian 64-bit lanes, each lane swapping the
// current position with lane mod N; after four lanes the digest is folded
// into the running stream and re-hashed.
//
// The lane loop advances the position itself and re-checks the bound, so the
// permutation is identical on every node for any N.
func ShuffleDelegates(height uint32, params *config.ChainParams, delegates []types.RegID) {
	total := params.TotalDelegateNum
	if total == 0 || len(delegates) == 0 {
		return
	}
	n := uint64(len(delegates))

	epoch := height / total
	if height%total > 0 {
		epoch++
	}
	seedSource := strconv.FormatUint(uint64(epoch), 10)

	stream := []byte(seedSource)
	currentSeed := sha256d(stream)

	for i := uint64(0); i < n; {
		for x := 0; x < 4 && i < n; i, x = i+1, x+1 {
			lane := binary.LittleEndian.Uint64(currentSeed[x*8 : x*8+8])
			j := lane % n
			delegates[j], delegates[i] = delegates[i], delegates[j]
		}
		stream = append(stream, currentSeed[:]...)
		currentSeed = sha256d(stream)
	}
}

// GetCurrentDelegate maps a wall-clock time onto the delegate owning that
// slot in the shuffled list.
func GetCurrentDelegate(currentTime int64, height uint32, params *config.ChainParams, delegates []types.RegID) (types.RegID, error) {
	if len(delegates) == 0 {
		return types.RegID{}, fmt.Errorf("dpos: empty delegate list at height %d", height)
	}
	slot := uint64(currentTime) / uint64(params.BlockInterval(height))
	index := slot % uint64(params.TotalDelegateNum)
	if index >= uint64(len(delegates)) {
		index %= uint64(len(delegates))
	}
	return delegates[index], nil
}
