// Copyright 2025 Sovdef Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// Bridge publishes a Collector's snapshot through a Prometheus registry.
// It pulls a fresh snapshot on every scrape, so the core never depends on
// the exporter's lifecycle.
type Bridge struct {
	source    func() Snapshot
	namespace string
}

var _ prometheus.Collector = (*Bridge)(nil)

// NewBridge creates a bridge over the given snapshot source.
func NewBridge(source func() Snapshot, namespace string) *Bridge {
	return &Bridge{source: source, namespace: namespace}
}

// Describe implements prometheus.Collector. The metric set is dynamic, so
// the bridge is an unchecked collector and sends no descriptors.
func (b *Bridge) Describe(chan<- *prometheus.Desc) {}

// Collect implements prometheus.Collector.
func (b *Bridge) Collect(ch chan<- prometheus.Metric) {
	snap := b.source()

	for name, v := range snap.Counters {
		desc := prometheus.NewDesc(
			prometheus.BuildFQName(b.namespace, "", sanitizeName(name)+"_total"),
			"Counter "+name, nil, nil)
		ch <- prometheus.MustNewConstMetric(desc, prometheus.CounterValue, float64(v))
	}

	for name, h := range snap.Histograms {
		desc := prometheus.NewDesc(
			prometheus.BuildFQName(b.namespace, "", sanitizeName(name)+"_seconds"),
			"Histogram "+name, nil, nil)

		// Prometheus expects cumulative bucket counts keyed by upper bound.
		cumulative := make(map[float64]uint64, len(h.Bounds))
		var running uint64
		for i, bound := range h.Bounds {
			running += h.Buckets[i]
			cumulative[bound] = running
		}
		ch <- prometheus.MustNewConstHistogram(desc, h.Count, h.Sum, cumulative)
	}
}

func sanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}
