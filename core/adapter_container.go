package core

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// ContainerAdapter manages container-slot allocation. Container carries
// baseline stake/work floors but additionally requires both a space and a
// work proof be present and non-trivial (spec §4.3.a) — checked here
// again on top of the composite validator, which already runs the space
// and work proofs' own checks for every kind.
// A container's ResourceRequirements borrow the CPU and Memory
// sub-records: a container reserves both a core slice and a memory slice
// from the same node, matching how the mesh models containers as bundles
// of the two.
type ContainerAdapter struct {
	*baseAdapter

	maxConcurrent int
}

func NewContainerAdapter(nodeID string, maxConcurrent int, validator *ConsensusValidator, thresholds AdapterThresholds, proxy ProxyAssigner, logger *logrus.Logger) *ContainerAdapter {
	return &ContainerAdapter{
		baseAdapter:   newBaseAdapter(KindContainer, nodeID, nil, validator, thresholds, proxy, logger),
		maxConcurrent: maxConcurrent,
	}
}

func (a *ContainerAdapter) ValidateConsensusProof(ctx context.Context, proof ConsensusProof, selfID string) error {
	if err := a.baseAdapter.ValidateConsensusProof(ctx, proof, selfID); err != nil {
		return err
	}
	if proof.Space.StoragePath == "" && proof.Space.AllocatedSize == 0 {
		return &ConsensusValidationFailed{Kind: InvalidStorageCommitment}
	}
	if proof.Work.ComputationalPower == 0 {
		return &ConsensusValidationFailed{Kind: InvalidWorkProof}
	}
	return nil
}

func (a *ContainerAdapter) AllocateAsset(ctx context.Context, req AllocationConfig) (*AssetAllocation, error) {
	if err := a.ValidateConsensusProof(ctx, req.ConsensusProof, a.nodeID); err != nil {
		return nil, err
	}
	if req.Requirements.CPU == nil || req.Requirements.Memory == nil {
		return nil, &AllocationFailed{Reason: "container requires both cpu and memory requirements"}
	}

	if a.maxConcurrent > 0 && a.count() >= a.maxConcurrent {
		return nil, &AllocationFailed{Reason: "container slot pool exhausted"}
	}

	now := time.Now()
	id := NewAssetId(KindContainer)
	var expires *time.Time
	if req.TTL > 0 {
		t := now.Add(req.TTL)
		expires = &t
	}
	alloc := &AssetAllocation{
		AssetID: id,
		Status: AssetStatus{
			State:       StateAllocated,
			AllocatedAt: now,
			UpdatedAt:   now,
			Usage: ResourceUsage{
				CPU:    req.Requirements.CPU,
				Memory: req.Requirements.Memory,
			},
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

func (a *ContainerAdapter) GetResourceUsage(ctx context.Context, id AssetId) (ResourceUsage, error) {
	status, err := a.GetAssetStatus(ctx, id)
	if err != nil {
		return ResourceUsage{}, err
	}
	return status.Usage, nil
}

func (a *ContainerAdapter) Capabilities() AdapterCapabilities {
	return AdapterCapabilities{Kind: KindContainer, SupportsReplication: false, MaxConcurrent: a.maxConcurrent}
}
