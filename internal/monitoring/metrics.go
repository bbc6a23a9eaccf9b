// Package monitoring - metrics.go provides simple counters.
//
// DESIGN: Lightweight in-memory counters for operational metrics:
//   - requests/successes:   Total and successful request counts
//   - bypasses/passthroughs: How requests were dispatched
//   - cache_hits/misses:    Item classification cache performance
//   - upstream_errors:      Failed metadata lookups and relay errors
//
// For production, export these to Prometheus or similar.
package monitoring

import (
	"sync/atomic"
	"time"
)

// MetricsCollector collects operational metrics.
type MetricsCollector struct {
	requests       atomic.Int64
	successes      atomic.Int64
	bypasses       atomic.Int64
	passthroughs   atomic.Int64
	websockets     atomic.Int64
	cacheHits      atomic.Int64
	cacheMisses    atomic.Int64
	upstreamErrors atomic.Int64
	failOpens      atomic.Int64
}

// NewMetricsCollector creates a new metrics collector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{}
}

// RecordRequest records a request.
func (mc *MetricsCollector) RecordRequest(success bool, _ time.Duration) {
	mc.requests.Add(1)
	if success {
		mc.successes.Add(1)
	}
}

// RecordRoute records how a request was dispatched.
func (mc *MetricsCollector) RecordRoute(route RouteType) {
	switch route {
	case RouteBypass:
		mc.bypasses.Add(1)
	case RouteWebSocket:
		mc.websockets.Add(1)
	default:
		mc.passthroughs.Add(1)
	}
}

// RecordCacheHit records a cache hit.
func (mc *MetricsCollector) RecordCacheHit() { mc.cacheHits.Add(1) }

// RecordCacheMiss records a cache miss.
func (mc *MetricsCollector) RecordCacheMiss() { mc.cacheMisses.Add(1) }

// RecordUpstreamError records a failed upstream call.
func (mc *MetricsCollector) RecordUpstreamError() { mc.upstreamErrors.Add(1) }

// RecordFailOpen records a classification failure that degraded to passthrough.
func (mc *MetricsCollector) RecordFailOpen() { mc.failOpens.Add(1) }

// Stats returns current metrics.
func (mc *MetricsCollector) Stats() map[string]int64 {
	return map[string]int64{
		"requests":        mc.requests.Load(),
		"successes":       mc.successes.Load(),
		"bypasses":        mc.bypasses.Load(),
		"passthroughs":    mc.passthroughs.Load(),
		"websockets":      mc.websockets.Load(),
		"cache_hits":      mc.cacheHits.Load(),
		"cache_misses":    mc.cacheMisses.Load(),
		"upstream_errors": mc.upstreamErrors.Load(),
		"fail_opens":      mc.failOpens.Load(),
	}
}

// Stop is a no-op for compatibility.
func (mc *MetricsCollector) Stop() {}
