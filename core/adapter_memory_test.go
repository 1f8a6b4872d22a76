package core

import (
	"context"
	"testing"
)

func TestMemoryAdapterAllocateAndDeallocate(t *testing.T) {
	validator := NewConsensusValidator(nil)
	thresholds := AdapterThresholds{MinStake: 100, MinWorkDifficulty: 10}
	probe := &SimulatedDeviceProbe{NodeID: "node-mem"}
	adapter, err := NewMemoryAdapter("node-mem", probe, validator, thresholds, nil, testLogger())
	if err != nil {
		t.Fatalf("NewMemoryAdapter: %v", err)
	}

	req := AllocationConfig{
		Requirements:   ResourceRequirements{Memory: &MemoryRequirement{Bytes: 1024}},
		PrivacyLevel:   Private,
		OwnerID:        "owner-1",
		ConsensusProof: validProofForValidator(),
	}
	alloc, err := adapter.AllocateAsset(context.Background(), req)
	if err != nil {
		t.Fatalf("AllocateAsset: %v", err)
	}
	if alloc.Status.Usage.Memory.Bytes != 1024 {
		t.Fatalf("expected 1024 bytes reserved, got %+v", alloc.Status.Usage.Memory)
	}

	status, err := adapter.GetAssetStatus(context.Background(), alloc.AssetID)
	if err != nil {
		t.Fatalf("GetAssetStatus: %v", err)
	}
	if status.State != StateAllocated {
		t.Fatalf("expected StateAllocated, got %s", status.State)
	}

	if err := adapter.DeallocateAsset(context.Background(), alloc.AssetID); err != nil {
		t.Fatalf("DeallocateAsset: %v", err)
	}
	if adapter.reservedBytes != 0 {
		t.Fatalf("expected reservedBytes to return to 0, got %d", adapter.reservedBytes)
	}
	if _, err := adapter.GetAssetStatus(context.Background(), alloc.AssetID); err == nil {
		t.Fatalf("expected AssetNotFound after deallocation")
	}
}

func TestMemoryAdapterRejectsOvercommit(t *testing.T) {
	validator := NewConsensusValidator(nil)
	thresholds := AdapterThresholds{MinStake: 100, MinWorkDifficulty: 10}
	probe := &SimulatedDeviceProbe{NodeID: "node-mem-2"}
	adapter, err := NewMemoryAdapter("node-mem-2", probe, validator, thresholds, nil, testLogger())
	if err != nil {
		t.Fatalf("NewMemoryAdapter: %v", err)
	}

	huge := AllocationConfig{Requirements: ResourceRequirements{Memory: &MemoryRequirement{Bytes: adapter.totalBytes + 1}}, ConsensusProof: validProofForValidator()}
	if _, err := adapter.AllocateAsset(context.Background(), huge); err == nil {
		t.Fatalf("expected overcommit to fail")
	}
}

func TestMemoryAdapterRejectsZeroRequest(t *testing.T) {
	validator := NewConsensusValidator(nil)
	thresholds := AdapterThresholds{MinStake: 100, MinWorkDifficulty: 10}
	probe := &SimulatedDeviceProbe{NodeID: "node-mem-3"}
	adapter, err := NewMemoryAdapter("node-mem-3", probe, validator, thresholds, nil, testLogger())
	if err != nil {
		t.Fatalf("NewMemoryAdapter: %v", err)
	}
	req := AllocationConfig{Requirements: ResourceRequirements{Memory: &MemoryRequirement{Bytes: 0}}, ConsensusProof: validProofForValidator()}
	if _, err := adapter.AllocateAsset(context.Background(), req); err == nil {
		t.Fatalf("expected zero-byte request to fail")
	}
}

func TestMemoryAdapterRejectsMissingRequirement(t *testing.T) {
	validator := NewConsensusValidator(nil)
	thresholds := AdapterThresholds{MinStake: 100, MinWorkDifficulty: 10}
	probe := &SimulatedDeviceProbe{NodeID: "node-mem-4"}
	adapter, err := NewMemoryAdapter("node-mem-4", probe, validator, thresholds, nil, testLogger())
	if err != nil {
		t.Fatalf("NewMemoryAdapter: %v", err)
	}
	if _, err := adapter.AllocateAsset(context.Background(), AllocationConfig{ConsensusProof: validProofForValidator()}); err == nil {
		t.Fatalf("expected missing memory requirement to fail")
	}
}
