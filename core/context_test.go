package core

import (
	"context"
	"testing"
	"time"
)

func testMeshConfig(nodeID string) MeshConfig {
	cpu, gpu, mem, storage, network, container := BaselineThresholds(1000, 100)
	ranges := map[AssetKind][]PortRange{
		KindCPU:       {{Low: 22000, High: 22099}},
		KindGPU:       {{Low: 22100, High: 22199}},
		KindMemory:    {{Low: 22200, High: 22299}},
		KindStorage:   {{Low: 22300, High: 22399}},
		KindNetwork:   {{Low: 22400, High: 22499}},
		KindContainer: {{Low: 22500, High: 22599}},
	}
	return MeshConfig{
		NodeID:                 nodeID,
		MinTrust:               0.0,
		CPUThresholds:          cpu,
		GPUThresholds:          gpu,
		MemoryThresholds:       mem,
		StorageThresholds:      storage,
		NetworkThresholds:      network,
		ContainerThresholds:    container,
		NetworkTotalBps:        1_000_000,
		ContainerMaxConcurrent: 8,
		ProxyPortRanges:        ranges,
		Logger:                 testLogger(),
	}
}

func TestNewMeshAssemblesAllAdapters(t *testing.T) {
	mesh, err := NewMesh(testMeshConfig("mesh-node-1"))
	if err != nil {
		t.Fatalf("NewMesh: %v", err)
	}

	alloc, err := mesh.Manager.AllocateAsset(context.Background(), AllocationConfig{
		Requirements:   ResourceRequirements{CPU: &CPURequirement{Cores: 1}},
		PrivacyLevel:   P2P,
		ConsensusProof: validProofForValidator(),
	})
	if err != nil {
		t.Fatalf("AllocateAsset: %v", err)
	}

	addr, err := mesh.Proxy.Assign(context.Background(), alloc.AssetID, KindCPU, 0)
	if err != nil {
		t.Fatalf("Proxy.Assign: %v", err)
	}
	gotID, err := mesh.Proxy.Resolve(context.Background(), addr)
	if err != nil {
		t.Fatalf("Proxy.Resolve: %v", err)
	}
	if gotID != alloc.AssetID {
		t.Fatalf("resolve mismatch: got %v want %v", gotID, alloc.AssetID)
	}
}

func TestBaselineThresholdsAppliesFixedRatios(t *testing.T) {
	cpu, gpu, mem, storage, network, container := BaselineThresholds(1000, 100)
	if cpu.MinStake != 1000 || cpu.MinWorkDifficulty != 100 {
		t.Fatalf("cpu thresholds should equal baseline, got %+v", cpu)
	}
	if mem != cpu || network != cpu || container != cpu {
		t.Fatalf("memory/network/container thresholds should equal baseline")
	}
	if gpu.MinStake != 2000 {
		t.Fatalf("expected gpu stake 2x baseline, got %d", gpu.MinStake)
	}
	if gpu.MinWorkDifficulty != 130 {
		t.Fatalf("expected gpu work 1.3x baseline, got %d", gpu.MinWorkDifficulty)
	}
	if storage.MinStake != 750 {
		t.Fatalf("expected storage stake 0.75x baseline, got %d", storage.MinStake)
	}
}

func TestMeshStopHaltsCleanupLoop(t *testing.T) {
	mesh, err := NewMesh(testMeshConfig("mesh-node-2"))
	if err != nil {
		t.Fatalf("NewMesh: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	mesh.StartCleanupLoop(ctx, time.Hour)
	mesh.Stop()
}
