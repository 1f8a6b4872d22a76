package core

import "github.com/prometheus/client_golang/prometheus"

// managerMetrics holds the asset manager's Prometheus instrumentation
// (SPEC_FULL §4.4). Counters are partitioned by kind; the active-gauge is
// incremented on each successful allocation and decremented on each
// deallocation. Statistics does not read it.
type managerMetrics struct {
	allocationsTotal   *prometheus.CounterVec
	deallocationsTotal *prometheus.CounterVec
	failuresTotal      *prometheus.CounterVec
	activeGauge        *prometheus.GaugeVec
}

func newManagerMetrics(reg prometheus.Registerer) *managerMetrics {
	m := &managerMetrics{
		allocationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assetmesh_allocations_total",
			Help: "Total successful asset allocations, partitioned by kind.",
		}, []string{"kind"}),
		deallocationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assetmesh_deallocations_total",
			Help: "Total asset deallocations, partitioned by kind.",
		}, []string{"kind"}),
		failuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assetmesh_allocation_failures_total",
			Help: "Total failed allocation attempts, partitioned by kind.",
		}, []string{"kind"}),
		activeGauge: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "assetmesh_active_allocations",
			Help: "Currently active allocations, partitioned by kind.",
		}, []string{"kind"}),
	}
	if reg != nil {
		reg.MustRegister(m.allocationsTotal, m.deallocationsTotal, m.failuresTotal, m.activeGauge)
	}
	return m
}
