package core

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// CPUAdapter manages core allocation against a single pooled core count
// per node (spec §4.3.a: CPU carries baseline stake/work floors, no extra
// checks).
type CPUAdapter struct {
	*baseAdapter

	totalCores    uint32
	reservedCores uint32
}

func NewCPUAdapter(nodeID string, probe DeviceProbe, validator *ConsensusValidator, thresholds AdapterThresholds, proxy ProxyAssigner, logger *logrus.Logger) (*CPUAdapter, error) {
	info, err := probe.DetectCPU()
	if err != nil {
		logger.WithField("component", "cpu_adapter").WithError(err).Warn("falling back to simulated CPU inventory")
		sim := &SimulatedDeviceProbe{NodeID: nodeID}
		info, _ = sim.DetectCPU()
	}
	return &CPUAdapter{
		baseAdapter: newBaseAdapter(KindCPU, nodeID, probe, validator, thresholds, proxy, logger),
		totalCores:  info.TotalCores,
	}, nil
}

func (a *CPUAdapter) AllocateAsset(ctx context.Context, req AllocationConfig) (*AssetAllocation, error) {
	if err := a.ValidateConsensusProof(ctx, req.ConsensusProof, a.nodeID); err != nil {
		return nil, err
	}
	if req.Requirements.CPU == nil {
		return nil, &AllocationFailed{Reason: "missing cpu requirement"}
	}
	want := req.Requirements.CPU.Cores
	if want == 0 {
		return nil, &AllocationFailed{Reason: "requested zero cores"}
	}

	a.mu.Lock()
	if a.reservedCores+want > a.totalCores {
		a.mu.Unlock()
		return nil, &AllocationFailed{Reason: "insufficient cpu capacity"}
	}
	a.reservedCores += want
	a.mu.Unlock()

	now := time.Now()
	id := NewAssetId(KindCPU)
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
			Usage:        ResourceUsage{CPU: &CPURequirement{Cores: want}},
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

func (a *CPUAdapter) DeallocateAsset(ctx context.Context, id AssetId) error {
	a.mu.RLock()
	alloc, ok := a.allocations[id]
	a.mu.RUnlock()
	if !ok {
		return &AssetNotFound{AssetID: id}
	}
	if err := a.baseAdapter.DeallocateAsset(ctx, id); err != nil {
		return err
	}
	if alloc.Status.Usage.CPU != nil {
		a.mu.Lock()
		a.reservedCores -= alloc.Status.Usage.CPU.Cores
		a.mu.Unlock()
	}
	return nil
}

func (a *CPUAdapter) GetResourceUsage(ctx context.Context, id AssetId) (ResourceUsage, error) {
	status, err := a.GetAssetStatus(ctx, id)
	if err != nil {
		return ResourceUsage{}, err
	}
	return status.Usage, nil
}

func (a *CPUAdapter) Capabilities() AdapterCapabilities {
	return AdapterCapabilities{Kind: KindCPU, SupportsReplication: false, MaxConcurrent: int(a.totalCores)}
}
