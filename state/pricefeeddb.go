package state

import (
	"wicchain/core/types"
	"wicchain/storage"
)

// PricePointCache stores raw feeder price points per block and the consensus
// medians published by price-median transactions.
//
// Point keys are heightKey + feeder regid + pair so one feeder contributes at
// most one point per pair per block.
type PricePointCache struct {
	Points  *KeyedStore[string, uint64]
	Medians *KeyedStore[string, []types.PricePoint]
}

func NewPricePointCache(db storage.Database) *PricePointCache {
	return &PricePointCache{
		Points:  NewRootStore[string, uint64](StorePricePoint, "P", db),
		Medians: NewRootStore[string, []types.PricePoint](StoreMedianPrice, "m", db),
	}
}

func SpawnPricePointCache(parent *PricePointCache) *PricePointCache {
	return &PricePointCache{
		Points:  NewChildStore(parent.Points),
		Medians: NewChildStore(parent.Medians),
	}
}

// AddPricePoint records one feeder observation at height.
func (c *PricePointCache) AddPricePoint(height uint32, feeder types.RegID, point types.PricePoint) {
	key := heightKey(height) + feeder.RawKey() + point.Pair.RawKey()
	c.Points.Set(key, point.Price)
}

// GetBlockMedianPricePoints computes the per-pair median over the trailing
// slideWindow blocks ending at height.
func (c *PricePointCache) GetBlockMedianPricePoints(height uint32, slideWindow uint64) ([]types.PricePoint, error) {
	var from uint32
	if uint64(height) >= slideWindow {
		from = height - uint32(slideWindow) + 1
	}

	perPair := make(map[types.CoinPricePair][]uint64)
	for h := from; h <= height; h++ {
		elems, err := c.Points.GetAllElements(heightKey(h))
		if err != nil {
			return nil, err
		}
		for _, kv := range elems {
			// key = heightKey(4) + regid(6) + pair
			if len(kv.Key) <= 10 {
				continue
			}
			pair, ok := parsePairKey(kv.Key[10:])
			if !ok {
				continue
			}
			perPair[pair] = append(perPair[pair], kv.Value)
		}
	}

	medians := make([]types.PricePoint, 0, len(perPair))
	for pair, prices := range perPair {
		medians = append(medians, types.PricePoint{Pair: pair, Price: types.MedianOf(prices)})
	}
	types.SortPricePoints(medians)
	return medians, nil
}

// SetMedianPrices publishes the consensus medians for height.
func (c *PricePointCache) SetMedianPrices(height uint32, points []types.PricePoint) error {
	c.Medians.Set(heightKey(height), points)
	return nil
}

// GetMedianPrices returns the consensus medians published at height.
func (c *PricePointCache) GetMedianPrices(height uint32) ([]types.PricePoint, bool, error) {
	return c.Medians.Get(heightKey(height))
}

func parsePairKey(raw string) (types.CoinPricePair, bool) {
	for i := 0; i < len(raw); i++ {
		if raw[i] == ':' {
			return types.CoinPricePair{Coin: raw[:i], Currency: raw[i+1:]}, true
		}
	}
	return types.CoinPricePair{}, false
}

func heightKey(height uint32) string {
	var b [4]byte
	b[0] = byte(height >> 24)
	b[1] = byte(height >> 16)
	b[2] = byte(height >> 8)
	b[3] = byte(height)
	return string(b[:])
}

func (c *PricePointCache) SetUndoLog(log *UndoLog) {
	c.Points.SetUndoLog(log)
	c.Medians.SetUndoLog(log)
}

func (c *PricePointCache) Flush() error {
	if err := c.Points.Flush(); err != nil {
		return err
	}
	return c.Medians.Flush()
}

func (c *PricePointCache) CacheSize() int {
	return c.Points.CacheSize() + c.Medians.CacheSize()
}
