package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.ObserveRequest("/Endpoint", "200", time.Millisecond)
	m.ObserveSearch("ok", time.Millisecond)
	m.IncrementForwardLookup("reliable")
}

func TestMetrics_ForwardLookups(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.IncrementForwardLookup("reliable")
	m.IncrementForwardLookup("reliable")
	m.IncrementForwardLookup("express")

	if got := testutil.ToFloat64(m.ForwardLookups.WithLabelValues("reliable")); got != 2 {
		t.Errorf("reliable lookups = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.ForwardLookups.WithLabelValues("express")); got != 1 {
		t.Errorf("express lookups = %v, want 1", got)
	}
}

func TestMetrics_SeparateRegistries(t *testing.T) {
	// Registering twice on distinct registries must not panic.
	New(prometheus.NewRegistry())
	New(prometheus.NewRegistry())
}

func TestMetrics_ObserveSearch(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveSearch("timeout", 2*time.Second)
	if n := testutil.CollectAndCount(m.SearchLatency); n != 1 {
		t.Errorf("expected 1 series, got %d", n)
	}
}
