package core

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// NetworkAdapter manages bandwidth allocation against a single pooled
// bits-per-second ceiling per node (spec §4.3.a: Network carries baseline
// floors, no extra checks). Capacity is configured rather than probed —
// there is no OS device-enumeration equivalent for aggregate link speed.
type NetworkAdapter struct {
	*baseAdapter

	totalBps    uint64
	reservedBps uint64
}

func NewNetworkAdapter(nodeID string, totalBps uint64, validator *ConsensusValidator, thresholds AdapterThresholds, proxy ProxyAssigner, logger *logrus.Logger) *NetworkAdapter {
	return &NetworkAdapter{
		baseAdapter: newBaseAdapter(KindNetwork, nodeID, nil, validator, thresholds, proxy, logger),
		totalBps:    totalBps,
	}
}

func (a *NetworkAdapter) AllocateAsset(ctx context.Context, req AllocationConfig) (*AssetAllocation, error) {
	if err := a.ValidateConsensusProof(ctx, req.ConsensusProof, a.nodeID); err != nil {
		return nil, err
	}
	if req.Requirements.Network == nil {
		return nil, &AllocationFailed{Reason: "missing network requirement"}
	}
	want := req.Requirements.Network.BandwidthBps
	if want == 0 {
		return nil, &AllocationFailed{Reason: "requested zero bandwidth"}
	}

	a.mu.Lock()
	if a.reservedBps+want > a.totalBps {
		a.mu.Unlock()
		return nil, &AllocationFailed{Reason: "insufficient bandwidth capacity"}
	}
	a.reservedBps += want
	a.mu.Unlock()

	now := time.Now()
	id := NewAssetId(KindNetwork)
	var expires *time.Time
	if req.TTL > 0 {
		t := now.Add(req.TTL)
		expires = &t
	}
	alloc := &AssetAllocation{
		AssetID: id,
		Status: AssetStatus{
			State:        StateAllocated,
			AllocatedAt:  now,
			UpdatedAt:    now,
			Usage:        ResourceUsage{Network: &NetworkRequirement{BandwidthBps: want}},
			PrivacyLevel: req.PrivacyLevel,
			ConsensusProofs: []ConsensusProof{req.ConsensusProof},
			Metadata:     map[string]string{"node_id": a.nodeID},
			Health:       AdapterHealth{Healthy: true, LastCheckedAt: now},
		},
		AllocationConfig: req,
		AccessConfig:     AccessConfig{PrivacyLevel: req.PrivacyLevel},
		AllocatedAt:      now,
		ExpiresAt:        expires,
	}
	a.record(alloc)
	return alloc, nil
}

func (a *NetworkAdapter) DeallocateAsset(ctx context.Context, id AssetId) error {
	a.mu.RLock()
	alloc, ok := a.allocations[id]
	a.mu.RUnlock()
	if !ok {
		return &AssetNotFound{AssetID: id}
	}
	if err := a.baseAdapter.DeallocateAsset(ctx, id); err != nil {
		return err
	}
	if alloc.Status.Usage.Network != nil {
		a.mu.Lock()
		a.reservedBps -= alloc.Status.Usage.Network.BandwidthBps
		a.mu.Unlock()
	}
	return nil
}

func (a *NetworkAdapter) GetResourceUsage(ctx context.Context, id AssetId) (ResourceUsage, error) {
	status, err := a.GetAssetStatus(ctx, id)
	if err != nil {
		return ResourceUsage{}, err
	}
	return status.Usage, nil
}

func (a *NetworkAdapter) Capabilities() AdapterCapabilities {
	return AdapterCapabilities{Kind: KindNetwork, SupportsReplication: false, MaxConcurrent: 1}
}
