package infra

import (
	"testing"
)

func TestMetrics_RecordRefresh(t *testing.T) {
	m := &Metrics{}

	m.RecordRefresh(10)
	m.RecordRefresh(25)

	snap := m.Snapshot()

	if snap.RefreshCycles != 2 {
		t.Errorf("Expected 2 cycles, got %d", snap.RefreshCycles)
	}

	// Gauge holds the most recent count, not a sum
	if snap.ItemCount != 25 {
		t.Errorf("Expected item count 25, got %d", snap.ItemCount)
	}
}

func TestMetrics_WSClients(t *testing.T) {
	m := &Metrics{}

	m.IncrementWSClients()
	m.IncrementWSClients()
	m.IncrementWSClients()

	snap := m.Snapshot()
	if snap.WSClients != 3 {
		t.Errorf("Expected 3 clients, got %d", snap.WSClients)
	}

	m.DecrementWSClients()
	snap = m.Snapshot()
	if snap.WSClients != 2 {
		t.Errorf("Expected 2 clients, got %d", snap.WSClients)
	}
}

func TestMetrics_FailureCounters(t *testing.T) {
	m := &Metrics{}

	m.RecordRefreshFailure()
	m.RecordUpstreamError()
	m.RecordUpstreamError()
	m.RecordStaleDropped()
	m.RecordCacheHit()
	m.RecordRelayRequest()

	snap := m.Snapshot()
	if snap.RefreshFailures != 1 {
		t.Errorf("Expected 1 failure, got %d", snap.RefreshFailures)
	}
	if snap.UpstreamErrors != 2 {
		t.Errorf("Expected 2 upstream errors, got %d", snap.UpstreamErrors)
	}
	if snap.StaleDropped != 1 {
		t.Errorf("Expected 1 stale drop, got %d", snap.StaleDropped)
	}
	if snap.CacheHits != 1 {
		t.Errorf("Expected 1 cache hit, got %d", snap.CacheHits)
	}
	if snap.RelayRequests != 1 {
		t.Errorf("Expected 1 relay request, got %d", snap.RelayRequests)
	}
}

func TestMetrics_Reset(t *testing.T) {
	m := &Metrics{}

	m.RecordRefresh(5)
	m.RecordRefreshFailure()
	m.IncrementWSClients()

	m.Reset()
	snap := m.Snapshot()

	if snap.RefreshCycles != 0 {
		t.Error("Expected 0 cycles after reset")
	}
	if snap.RefreshFailures != 0 {
		t.Error("Expected 0 failures after reset")
	}
	if snap.WSClients != 0 {
		t.Error("Expected 0 clients after reset")
	}
}
