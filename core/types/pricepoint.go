package types

import "sort"

// CoinPricePair names a priced market, e.g. WICC/USD.
type CoinPricePair struct {
	Coin     string
	Currency string
}

func (p CoinPricePair) String() string {
	return p.Coin + "/" + p.Currency
}

// RawKey is the fixed store-key form of the pair.
func (p CoinPricePair) RawKey() string {
	return p.Coin + ":" + p.Currency
}

// PricePoint is a single priced observation for a pair. Prices carry 8
// decimals (PriceBoost scale).
type PricePoint struct {
	Pair  CoinPricePair
	Price uint64
}

// SortPricePoints orders points canonically by pair for deterministic
// serialization.
func SortPricePoints(points []PricePoint) {
	sort.Slice(points, func(i, j int) bool {
		if points[i].Pair.Coin != points[j].Pair.Coin {
			return points[i].Pair.Coin < points[j].Pair.Coin
		}
		return points[i].Pair.Currency < points[j].Pair.Currency
	})
}

// MedianOf returns the median of prices, resolving even-length windows toward
// the lower middle to stay in integer space.
func MedianOf(prices []uint64) uint64 {
	if len(prices) == 0 {
		return 0
	}
	sorted := make([]uint64, len(prices))
	copy(sorted, prices)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return sorted[(len(sorted)-1)/2]
}
