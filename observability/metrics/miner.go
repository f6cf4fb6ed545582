package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// MinerMetrics exposes the block production counters.
type MinerMetrics struct {
	blocksMined prometheus.Counter
	txsPacked   prometheus.Counter
	txsDropped  prometheus.Counter
	fuelRate    prometheus.Gauge
	mempoolSize prometheus.Gauge
}

var (
	minerOnce     sync.Once
	minerRegistry *MinerMetrics
)

// Miner returns the process-wide miner metrics, registering them on first
// use.
func Miner() *MinerMetrics {
	minerOnce.Do(func() {
		minerRegistry = &MinerMetrics{
			blocksMined: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "miner_blocks_mined_total",
				Help: "Count of blocks produced locally.",
			}),
			txsPacked: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "miner_txs_packed_total",
				Help: "Count of transactions packed into locally produced blocks.",
			}),
			txsDropped: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "miner_txs_dropped_total",
				Help: "Count of transactions dropped during packing.",
			}),
			fuelRate: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "miner_fuel_rate",
				Help: "Fuel rate of the most recently produced block.",
			}),
			mempoolSize: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "mempool_pending_txs",
				Help: "Number of transactions pending in the mempool.",
			}),
		}
		prometheus.MustRegister(
			minerRegistry.blocksMined,
			minerRegistry.txsPacked,
			minerRegistry.txsDropped,
			minerRegistry.fuelRate,
			minerRegistry.mempoolSize,
		)
	})
	return minerRegistry
}

// BlockMined records one produced block with its packed tx count and rate.
func (m *MinerMetrics) BlockMined(txCount int, fuelRate uint64) {
	m.blocksMined.Inc()
	m.txsPacked.Add(float64(txCount))
	m.fuelRate.Set(float64(fuelRate))
}

// TxDropped records one transaction dropped during packing.
func (m *MinerMetrics) TxDropped() {
	m.txsDropped.Inc()
}

// MempoolSize publishes the current pending count.
func (m *MinerMetrics) MempoolSize(n int) {
	m.mempoolSize.Set(float64(n))
}
