package core

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// MemoryAdapter manages RAM allocation against a single pooled byte count
// per node (spec §4.3.a: Memory carries baseline floors, no extra checks).
type MemoryAdapter struct {
	*baseAdapter

	totalBytes    uint64
	reservedBytes uint64
}

func NewMemoryAdapter(nodeID string, probe DeviceProbe, validator *ConsensusValidator, thresholds AdapterThresholds, proxy ProxyAssigner, logger *logrus.Logger) (*MemoryAdapter, error) {
	info, err := probe.DetectMemory()
	if err != nil {
		logger.WithField("component", "memory_adapter").WithError(err).Warn("falling back to simulated memory inventory")
		sim := &SimulatedDeviceProbe{NodeID: nodeID}
		info, _ = sim.DetectMemory()
	}
	return &MemoryAdapter{
		baseAdapter: newBaseAdapter(KindMemory, nodeID, probe, validator, thresholds, proxy, logger),
		totalBytes:  info.TotalBytes,
	}, nil
}

func (a *MemoryAdapter) AllocateAsset(ctx context.Context, req AllocationConfig) (*AssetAllocation, error) {
	if err := a.ValidateConsensusProof(ctx, req.ConsensusProof, a.nodeID); err != nil {
		return nil, err
	}
	if req.Requirements.Memory == nil {
		return nil, &AllocationFailed{Reason: "missing memory requirement"}
	}
	want := req.Requirements.Memory.Bytes
	if want == 0 {
		return nil, &AllocationFailed{Reason: "requested zero bytes"}
	}

	a.mu.Lock()
	if a.reservedBytes+want > a.totalBytes {
		a.mu.Unlock()
		return nil, &AllocationFailed{Reason: "insufficient memory capacity"}
	}
	a.reservedBytes += want
	a.mu.Unlock()

	now := time.Now()
	id := NewAssetId(KindMemory)
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
			Usage:        ResourceUsage{Memory: &MemoryRequirement{Bytes: want}},
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

func (a *MemoryAdapter) DeallocateAsset(ctx context.Context, id AssetId) error {
	a.mu.RLock()
	alloc, ok := a.allocations[id]
	a.mu.RUnlock()
	if !ok {
		return &AssetNotFound{AssetID: id}
	}
	if err := a.baseAdapter.DeallocateAsset(ctx, id); err != nil {
		return err
	}
	if alloc.Status.Usage.Memory != nil {
		a.mu.Lock()
		a.reservedBytes -= alloc.Status.Usage.Memory.Bytes
		a.mu.Unlock()
	}
	return nil
}

func (a *MemoryAdapter) GetResourceUsage(ctx context.Context, id AssetId) (ResourceUsage, error) {
	status, err := a.GetAssetStatus(ctx, id)
	if err != nil {
		return ResourceUsage{}, err
	}
	return status.Usage, nil
}

func (a *MemoryAdapter) Capabilities() AdapterCapabilities {
	return AdapterCapabilities{Kind: KindMemory, SupportsReplication: false, MaxConcurrent: 1}
}
