package types

import (
	"fmt"
	"strconv"
	"strings"
)

// RegID is the compact canonical account identifier: the (height, index)
// coordinate of the transaction that registered the account.
type RegID struct {
	Height uint32
	Index  uint16
}

func NewRegID(height uint32, index uint16) RegID {
	return RegID{Height: height, Index: index}
}

// ParseRegID parses the "height-index" display form.
func ParseRegID(s string) (RegID, error) {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return RegID{}, fmt.Errorf("invalid regid %q", s)
	}
	height, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return RegID{}, fmt.Errorf("invalid regid height %q: %w", parts[0], err)
	}
	index, err := strconv.ParseUint(parts[1], 10, 16)
	if err != nil {
		return RegID{}, fmt.Errorf("invalid regid index %q: %w", parts[1], err)
	}
	return RegID{Height: uint32(height), Index: uint16(index)}, nil
}

func (r RegID) String() string {
	return fmt.Sprintf("%d-%d", r.Height, r.Index)
}

// RawKey returns the fixed-width big-endian form used as a store key so that
// lexicographic order matches registration order.
func (r RegID) RawKey() string {
	var b [6]byte
	b[0] = byte(r.Height >> 24)
	b[1] = byte(r.Height >> 16)
	b[2] = byte(r.Height >> 8)
	b[3] = byte(r.Height)
	b[4] = byte(r.Index >> 8)
	b[5] = byte(r.Index)
	return string(b[:])
}

func (r RegID) IsEmpty() bool {
	return r.Height == 0 && r.Index == 0
}

// IsMature reports whether enough blocks elapsed since registration for the
// regid to appear in transactions.
func (r RegID) IsMature(currHeight uint32) bool {
	return r.Height+RegIDMaturity <= currHeight
}

// RegIDMaturity is the number of blocks before a fresh regid becomes usable.
const RegIDMaturity = 100
