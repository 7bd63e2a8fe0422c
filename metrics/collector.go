package metrics

import (
	"sort"
	"sync"
	"time"
)

// DefaultLatencyBuckets are the histogram upper bounds in seconds.
var DefaultLatencyBuckets = []float64{
	0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// Collector accumulates named counters and latency histograms.
// All methods are safe for concurrent use.
type Collector struct {
	mu         sync.Mutex
	counters   map[string]uint64
	histograms map[string]*histogram
	buckets    []float64
}

type histogram struct {
	counts []uint64 // per-bucket, non-cumulative; last slot is +Inf
	sum    float64
	count  uint64
}

// NewCollector creates a collector using DefaultLatencyBuckets.
func NewCollector() *Collector {
	return NewCollectorWithBuckets(DefaultLatencyBuckets)
}

// NewCollectorWithBuckets creates a collector with custom histogram bounds.
// Bounds must be sorted ascending; they are copied.
func NewCollectorWithBuckets(buckets []float64) *Collector {
	bounds := make([]float64, len(buckets))
	copy(bounds, buckets)
	sort.Float64s(bounds)
	return &Collector{
		counters:   make(map[string]uint64),
		histograms: make(map[string]*histogram),
		buckets:    bounds,
	}
}

// Inc increments the named counter by one.
func (c *Collector) Inc(name string) {
	c.Add(name, 1)
}

// Add increments the named counter by n.
func (c *Collector) Add(name string, n uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counters[name] += n
}

// Set overwrites the named counter. Used for gauges sourced elsewhere,
// such as cache hit counts copied into a snapshot.
func (c *Collector) Set(name string, v uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counters[name] = v
}

// Observe records a latency observation in seconds for the named histogram.
func (c *Collector) Observe(name string, seconds float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	h, ok := c.histograms[name]
	if !ok {
		h = &histogram{counts: make([]uint64, len(c.buckets)+1)}
		c.histograms[name] = h
	}

	idx := sort.SearchFloat64s(c.buckets, seconds)
	h.counts[idx]++
	h.sum += seconds
	h.count++
}

// ObserveDuration records a latency observation for the named histogram.
func (c *Collector) ObserveDuration(name string, d time.Duration) {
	c.Observe(name, d.Seconds())
}

// Snapshot is a point-in-time copy of all collected metrics.
type Snapshot struct {
	Counters   map[string]uint64
	Histograms map[string]HistogramSnapshot
}

// HistogramSnapshot is a copy of one histogram's state.
type HistogramSnapshot struct {
	Count   uint64
	Sum     float64
	Bounds  []float64 // upper bounds, ascending; implicit +Inf last
	Buckets []uint64  // per-bucket counts, len(Bounds)+1
}

// Snapshot returns a copy of every counter and histogram.
func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		Counters:   make(map[string]uint64, len(c.counters)),
		Histograms: make(map[string]HistogramSnapshot, len(c.histograms)),
	}
	for name, v := range c.counters {
		snap.Counters[name] = v
	}
	for name, h := range c.histograms {
		counts := make([]uint64, len(h.counts))
		copy(counts, h.counts)
		snap.Histograms[name] = HistogramSnapshot{
			Count:   h.count,
			Sum:     h.sum,
			Bounds:  c.buckets,
			Buckets: counts,
		}
	}
	return snap
}
