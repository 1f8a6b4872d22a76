package core

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// ManagerStatistics is the read-consistent snapshot returned by the asset
// manager's Statistics method (spec §4.4: "read-consistent, no torn
// totals; may lag real state by at most one operation").
type ManagerStatistics struct {
	ActiveByKind map[AssetKind]int
	TotalActive  int
}

// AssetManager holds the AssetKind -> Adapter registry and is the single
// entry point callers use to allocate, deallocate, and query assets (spec
// §4.4, C6). It serializes only what each adapter's own locking already
// requires: distinct kinds proceed fully in parallel since each adapter
// guards its own state.
type AssetManager struct {
	logger  *logrus.Logger
	journal *AllocationJournal
	metrics *managerMetrics

	mu       sync.RWMutex
	adapters map[AssetKind]Adapter
}

// NewAssetManager constructs an empty manager. Adapters are registered
// with RegisterAdapter after construction, letting callers assemble the
// mesh (core/context.go) without any package-level state (spec §9:
// no singletons).
func NewAssetManager(journal *AllocationJournal, reg prometheus.Registerer, logger *logrus.Logger) *AssetManager {
	return &AssetManager{
		logger:   logger,
		journal:  journal,
		metrics:  newManagerMetrics(reg),
		adapters: make(map[AssetKind]Adapter),
	}
}

// RegisterAdapter installs the adapter responsible for a given kind. It is
// idempotent: registering the same kind twice simply replaces the
// previous adapter, matching spec §4.4's "register_asset is idempotent"
// for the manager-level registration operation (per-asset idempotency is
// guaranteed by AssetId's stability once minted).
func (m *AssetManager) RegisterAdapter(a Adapter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.adapters[a.AssetKind()] = a
}

func (m *AssetManager) adapterFor(kind AssetKind) (Adapter, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.adapters[kind]
	if !ok {
		return nil, &AdapterError{Message: "no adapter registered for kind " + kind.String()}
	}
	return a, nil
}

// kindForRequirements infers the adapter kind from which ResourceRequirements
// sub-record is populated (spec §3.4: "sums of optionals").
func kindForRequirements(req ResourceRequirements) (AssetKind, error) {
	switch {
	case req.CPU != nil && req.Memory != nil:
		return KindContainer, nil
	case req.CPU != nil:
		return KindCPU, nil
	case req.GPU != nil:
		return KindGPU, nil
	case req.Memory != nil:
		return KindMemory, nil
	case req.Storage != nil:
		return KindStorage, nil
	case req.Network != nil:
		return KindNetwork, nil
	default:
		return 0, &AllocationFailed{Reason: "no requirement sub-record populated"}
	}
}

// AllocateAsset dispatches an allocation request to the adapter matching
// the populated requirement sub-record, then appends the result to the
// global journal (spec §4.4).
func (m *AssetManager) AllocateAsset(ctx context.Context, req AllocationConfig) (*AssetAllocation, error) {
	kind, err := kindForRequirements(req.Requirements)
	if err != nil {
		m.metrics.failuresTotal.WithLabelValues("unknown").Inc()
		return nil, err
	}
	adapter, err := m.adapterFor(kind)
	if err != nil {
		m.metrics.failuresTotal.WithLabelValues(kind.String()).Inc()
		return nil, err
	}

	alloc, err := adapter.AllocateAsset(ctx, req)
	if err != nil {
		m.metrics.failuresTotal.WithLabelValues(kind.String()).Inc()
		return nil, err
	}

	m.journal.Append(JournalEntry{
		AssetID:   alloc.AssetID,
		Kind:      kind,
		Action:    "allocate",
		Timestamp: alloc.AllocatedAt,
		OwnerID:   req.OwnerID,
	})
	m.metrics.allocationsTotal.WithLabelValues(kind.String()).Inc()
	m.metrics.activeGauge.WithLabelValues(kind.String()).Inc()
	return alloc, nil
}

// DeallocateAsset releases an asset through its owning adapter.
func (m *AssetManager) DeallocateAsset(ctx context.Context, kind AssetKind, id AssetId) error {
	adapter, err := m.adapterFor(kind)
	if err != nil {
		return err
	}
	if err := adapter.DeallocateAsset(ctx, id); err != nil {
		return err
	}
	m.journal.Append(JournalEntry{AssetID: id, Kind: kind, Action: "deallocate"})
	m.metrics.deallocationsTotal.WithLabelValues(kind.String()).Inc()
	m.metrics.activeGauge.WithLabelValues(kind.String()).Dec()
	return nil
}

// GetAssetStatus queries an asset's status through its owning adapter.
func (m *AssetManager) GetAssetStatus(ctx context.Context, kind AssetKind, id AssetId) (AssetStatus, error) {
	adapter, err := m.adapterFor(kind)
	if err != nil {
		return AssetStatus{}, err
	}
	return adapter.GetAssetStatus(ctx, id)
}

// Statistics returns a read-consistent snapshot of active allocations per
// kind, derived from the journal under its own lock (spec §4.4).
func (m *AssetManager) Statistics() ManagerStatistics {
	usage := m.journal.UsageByKind()
	total := 0
	for _, v := range usage {
		total += v
	}
	return ManagerStatistics{ActiveByKind: usage, TotalActive: total}
}
