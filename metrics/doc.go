// Package metrics provides a small thread-safe metrics collector.
//
// The core increments counters and observes latencies through a Collector
// and exposes the result as a plain snapshot, leaving the wire format to the
// consumer. A Bridge is provided to publish a Collector through a Prometheus
// registry for deployments that scrape.
package metrics
