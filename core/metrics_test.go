package core

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewManagerMetricsNilRegistryIsSafe(t *testing.T) {
	m := newManagerMetrics(nil)
	m.allocationsTotal.WithLabelValues("cpu").Inc()
	if got := testutil.ToFloat64(m.allocationsTotal.WithLabelValues("cpu")); got != 1 {
		t.Fatalf("expected counter to increment even with a nil registry, got %v", got)
	}
}

func TestNewManagerMetricsRegistersAllCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	newManagerMetrics(reg)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{
		"assetmesh_allocations_total",
		"assetmesh_deallocations_total",
		"assetmesh_allocation_failures_total",
		"assetmesh_active_allocations",
	} {
		if !names[want] {
			t.Fatalf("expected metric %q to be registered, got %v", want, names)
		}
	}
}
