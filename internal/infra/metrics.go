package infra

import (
	"sync/atomic"
	"time"
)

// Metrics provides lightweight observability without external dependencies.
// Uses atomic operations for thread-safety.
type Metrics struct {
	// Counters
	refreshCycles   atomic.Uint64
	refreshFailures atomic.Uint64
	cacheHits       atomic.Uint64
	staleDropped    atomic.Uint64 // results discarded by the generation guard
	upstreamErrors  atomic.Uint64
	relayRequests   atomic.Uint64

	// Gauges
	itemCount atomic.Int64
	wsClients atomic.Int32
}

// GlobalMetrics is the singleton metrics instance.
var GlobalMetrics = &Metrics{}

// RecordRefresh records a completed refresh cycle with its item count.
func (m *Metrics) RecordRefresh(items int) {
	m.refreshCycles.Add(1)
	m.itemCount.Store(int64(items))
}

// RecordRefreshFailure records a refresh cycle that kept the stale snapshot.
func (m *Metrics) RecordRefreshFailure() {
	m.refreshFailures.Add(1)
}

// RecordCacheHit records a refresh short-circuited by the snapshot cache.
func (m *Metrics) RecordCacheHit() {
	m.cacheHits.Add(1)
}

// RecordStaleDropped records a cycle result discarded by the generation guard.
func (m *Metrics) RecordStaleDropped() {
	m.staleDropped.Add(1)
}

// RecordUpstreamError records a failed third-party fetch.
func (m *Metrics) RecordUpstreamError() {
	m.upstreamErrors.Add(1)
}

// RecordRelayRequest records one forwarded relay request.
func (m *Metrics) RecordRelayRequest() {
	m.relayRequests.Add(1)
}

// IncrementWSClients increments connected websocket clients by 1.
func (m *Metrics) IncrementWSClients() {
	m.wsClients.Add(1)
}

// DecrementWSClients decrements connected websocket clients by 1.
func (m *Metrics) DecrementWSClients() {
	m.wsClients.Add(-1)
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	RefreshCycles   uint64    `json:"refresh_cycles"`
	RefreshFailures uint64    `json:"refresh_failures"`
	CacheHits       uint64    `json:"cache_hits"`
	StaleDropped    uint64    `json:"stale_dropped"`
	UpstreamErrors  uint64    `json:"upstream_errors"`
	RelayRequests   uint64    `json:"relay_requests"`
	ItemCount       int64     `json:"item_count"`
	WSClients       int32     `json:"ws_clients"`
	Timestamp       time.Time `json:"timestamp"`
}

// Snapshot returns current metrics as a snapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		RefreshCycles:   m.refreshCycles.Load(),
		RefreshFailures: m.refreshFailures.Load(),
		CacheHits:       m.cacheHits.Load(),
		StaleDropped:    m.staleDropped.Load(),
		UpstreamErrors:  m.upstreamErrors.Load(),
		RelayRequests:   m.relayRequests.Load(),
		ItemCount:       m.itemCount.Load(),
		WSClients:       m.wsClients.Load(),
		Timestamp:       time.Now(),
	}
}

// Reset clears all metrics (for testing).
func (m *Metrics) Reset() {
	m.refreshCycles.Store(0)
	m.refreshFailures.Store(0)
	m.cacheHits.Store(0)
	m.staleDropped.Store(0)
	m.upstreamErrors.Store(0)
	m.relayRequests.Store(0)
	m.itemCount.Store(0)
	m.wsClients.Store(0)
}
