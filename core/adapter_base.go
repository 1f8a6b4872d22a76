package core

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ProxyAssigner is the capability a resource adapter needs from the proxy
// manager (C8) to satisfy the Adapter interface's AssignProxyAddress and
// ResolveProxyAddress methods, without each adapter re-implementing node
// selection and port allocation (spec §4.5). Wired in at construction time
// by whatever assembles the mesh (core/context.go), never a package
// global, per the no-singletons redesign.
type ProxyAssigner interface {
	Assign(ctx context.Context, id AssetId, kind AssetKind, ttl time.Duration) (ProxyAddress, error)
	Resolve(ctx context.Context, addr ProxyAddress) (AssetId, error)
}

// baseAdapter holds the bookkeeping every resource-specific adapter shares:
// the in-memory allocation table, the composite consensus validator, the
// device probe, and the proxy assigner. Kind-specific adapters embed this
// and add only the capacity-reservation logic that differs per kind (spec
// §4.3), matching the teacher's "peer interface, shared helper struct"
// idiom rather than inheritance.
type baseAdapter struct {
	kind       AssetKind
	nodeID     string
	probe      DeviceProbe
	validator  *ConsensusValidator
	thresholds AdapterThresholds
	proxy      ProxyAssigner
	logger     *logrus.Logger

	mu          sync.RWMutex
	allocations map[AssetId]*AssetAllocation
}

func newBaseAdapter(kind AssetKind, nodeID string, probe DeviceProbe, validator *ConsensusValidator, thresholds AdapterThresholds, proxy ProxyAssigner, logger *logrus.Logger) *baseAdapter {
	return &baseAdapter{
		kind:        kind,
		nodeID:      nodeID,
		probe:       probe,
		validator:   validator,
		thresholds:  thresholds,
		proxy:       proxy,
		logger:      logger,
		allocations: make(map[AssetId]*AssetAllocation),
	}
}

func (b *baseAdapter) AssetKind() AssetKind { return b.kind }

func (b *baseAdapter) ValidateConsensusProof(ctx context.Context, proof ConsensusProof, selfID string) error {
	return b.validator.ValidateComprehensive(ctx, proof, selfID, b.thresholds)
}

// record stores a newly built allocation under its AssetId. Called by each
// kind's AllocateAsset once capacity reservation has succeeded.
func (b *baseAdapter) record(alloc *AssetAllocation) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.allocations[alloc.AssetID] = alloc
}

func (b *baseAdapter) DeallocateAsset(ctx context.Context, id AssetId) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	alloc, ok := b.allocations[id]
	if !ok {
		return &AssetNotFound{AssetID: id}
	}
	alloc.Status.State = StateReleased
	alloc.Status.UpdatedAt = time.Now()
	delete(b.allocations, id)
	return nil
}

func (b *baseAdapter) GetAssetStatus(ctx context.Context, id AssetId) (AssetStatus, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	alloc, ok := b.allocations[id]
	if !ok {
		return AssetStatus{}, &AssetNotFound{AssetID: id}
	}
	return alloc.Status, nil
}

func (b *baseAdapter) ConfigurePrivacyLevel(ctx context.Context, id AssetId, level PrivacyLevel) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	alloc, ok := b.allocations[id]
	if !ok {
		return &AssetNotFound{AssetID: id}
	}
	alloc.Status.PrivacyLevel = level
	alloc.AccessConfig.PrivacyLevel = level
	alloc.Status.UpdatedAt = time.Now()
	return nil
}

func (b *baseAdapter) AssignProxyAddress(ctx context.Context, id AssetId) (ProxyAddress, error) {
	b.mu.Lock()
	alloc, ok := b.allocations[id]
	b.mu.Unlock()
	if !ok {
		return ProxyAddress{}, &AssetNotFound{AssetID: id}
	}
	if b.proxy == nil {
		return ProxyAddress{}, &AdapterError{Message: "no proxy assigner configured"}
	}
	addr, err := b.proxy.Assign(ctx, id, b.kind, alloc.AllocationConfig.TTL)
	if err != nil {
		return ProxyAddress{}, err
	}
	b.mu.Lock()
	alloc.Status.ProxyAddress = &addr
	alloc.Status.UpdatedAt = time.Now()
	b.mu.Unlock()
	return addr, nil
}

func (b *baseAdapter) ResolveProxyAddress(ctx context.Context, addr ProxyAddress) (AssetId, error) {
	if b.proxy == nil {
		return AssetId{}, &ProxyResolutionFailed{Address: addr}
	}
	return b.proxy.Resolve(ctx, addr)
}

func (b *baseAdapter) SetResourceLimits(ctx context.Context, id AssetId, limits ResourceLimits) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	alloc, ok := b.allocations[id]
	if !ok {
		return &AssetNotFound{AssetID: id}
	}
	alloc.Status.Limits = limits
	alloc.Status.UpdatedAt = time.Now()
	return nil
}

func (b *baseAdapter) HealthCheck(ctx context.Context) AdapterHealth {
	return AdapterHealth{Healthy: true, Message: "ok", LastCheckedAt: time.Now()}
}

// count returns the number of live allocations, used by the container
// adapter to enforce its slot limit.
func (b *baseAdapter) count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.allocations)
}
