package core

import (
	"context"
	"testing"
)

func TestNetworkAdapterAllocateAndDeallocate(t *testing.T) {
	validator := NewConsensusValidator(nil)
	thresholds := AdapterThresholds{MinStake: 100, MinWorkDifficulty: 10}
	adapter := NewNetworkAdapter("node-net", 1_000_000, validator, thresholds, nil, testLogger())

	req := AllocationConfig{
		Requirements:   ResourceRequirements{Network: &NetworkRequirement{BandwidthBps: 500_000}},
		PrivacyLevel:   Private,
		OwnerID:        "owner-1",
		ConsensusProof: validProofForValidator(),
	}
	alloc, err := adapter.AllocateAsset(context.Background(), req)
	if err != nil {
		t.Fatalf("AllocateAsset: %v", err)
	}
	if alloc.Status.Usage.Network.BandwidthBps != 500_000 {
		t.Fatalf("expected 500000 bps reserved, got %+v", alloc.Status.Usage.Network)
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
	if adapter.reservedBps != 0 {
		t.Fatalf("expected reservedBps to return to 0, got %d", adapter.reservedBps)
	}
	if _, err := adapter.GetAssetStatus(context.Background(), alloc.AssetID); err == nil {
		t.Fatalf("expected AssetNotFound after deallocation")
	}
}

func TestNetworkAdapterRejectsOvercommit(t *testing.T) {
	validator := NewConsensusValidator(nil)
	thresholds := AdapterThresholds{MinStake: 100, MinWorkDifficulty: 10}
	adapter := NewNetworkAdapter("node-net-2", 1_000, validator, thresholds, nil, testLogger())

	huge := AllocationConfig{Requirements: ResourceRequirements{Network: &NetworkRequirement{BandwidthBps: 1_001}}, ConsensusProof: validProofForValidator()}
	if _, err := adapter.AllocateAsset(context.Background(), huge); err == nil {
		t.Fatalf("expected overcommit to fail")
	}
}

func TestNetworkAdapterRejectsZeroRequest(t *testing.T) {
	validator := NewConsensusValidator(nil)
	thresholds := AdapterThresholds{MinStake: 100, MinWorkDifficulty: 10}
	adapter := NewNetworkAdapter("node-net-3", 1_000, validator, thresholds, nil, testLogger())

	req := AllocationConfig{Requirements: ResourceRequirements{Network: &NetworkRequirement{BandwidthBps: 0}}, ConsensusProof: validProofForValidator()}
	if _, err := adapter.AllocateAsset(context.Background(), req); err == nil {
		t.Fatalf("expected zero-bandwidth request to fail")
	}
}

func TestNetworkAdapterRejectsMissingRequirement(t *testing.T) {
	validator := NewConsensusValidator(nil)
	thresholds := AdapterThresholds{MinStake: 100, MinWorkDifficulty: 10}
	adapter := NewNetworkAdapter("node-net-4", 1_000, validator, thresholds, nil, testLogger())

	if _, err := adapter.AllocateAsset(context.Background(), AllocationConfig{ConsensusProof: validProofForValidator()}); err == nil {
		t.Fatalf("expected missing network requirement to fail")
	}
}
