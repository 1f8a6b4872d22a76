package core

import (
	"context"
	"testing"
)

func newTestForwarder(t *testing.T) (*Forwarder, *ProxyManager, *AssetManager, AssetId, []byte) {
	t.Helper()
	proxyMgr := newTestProxyManager(t, 0.0)
	registerTestNode(t, proxyMgr, "node-a", 0.8, 21100, KindCPU)

	validator := NewConsensusValidator(nil)
	thresholds := AdapterThresholds{MinStake: 100, MinWorkDifficulty: 10}
	cpu, err := NewCPUAdapter("node-a", &SimulatedDeviceProbe{NodeID: "node-a"}, validator, thresholds, proxyMgr, testLogger())
	if err != nil {
		t.Fatalf("NewCPUAdapter: %v", err)
	}
	assetMgr := NewAssetManager(NewAllocationJournal(), nil, testLogger())
	assetMgr.RegisterAdapter(cpu)

	alloc, err := assetMgr.AllocateAsset(context.Background(), AllocationConfig{
		Requirements:   ResourceRequirements{CPU: &CPURequirement{Cores: 1}},
		PrivacyLevel:   P2P,
		ConsensusProof: validProofForValidator(),
	})
	if err != nil {
		t.Fatalf("AllocateAsset: %v", err)
	}
	addr, err := cpu.AssignProxyAddress(context.Background(), alloc.AssetID)
	if err != nil {
		t.Fatalf("AssignProxyAddress: %v", err)
	}

	fwd, err := NewForwarder(proxyMgr, assetMgr, testLogger())
	if err != nil {
		t.Fatalf("NewForwarder: %v", err)
	}
	return fwd, proxyMgr, assetMgr, alloc.AssetID, addr.AccessToken
}

func TestForwarderAllowsPermittedProtocol(t *testing.T) {
	fwd, _, _, id, token := newTestForwarder(t)
	n, err := fwd.Forward(context.Background(), ForwardRequest{
		AssetID: id, Protocol: ProtocolHTTP, RequesterLevel: P2P, Payload: []byte("hello"), Token: token,
	}, P2P)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if n != 5 {
		t.Fatalf("expected 5 bytes transferred, got %d", n)
	}

	mapping, ok := fwd.manager.MappingFor(id)
	if !ok {
		t.Fatalf("expected mapping to exist")
	}
	if mapping.Stats.Requests != 1 || mapping.Stats.BytesTransferred != 5 {
		t.Fatalf("unexpected stats after allowed forward: %+v", mapping.Stats)
	}
}

func TestForwarderDeniesDisallowedProtocolWithoutCountingBytes(t *testing.T) {
	fwd, _, _, id, token := newTestForwarder(t)
	// Owner level Private only permits DirectMemory; HTTP must be denied.
	_, err := fwd.Forward(context.Background(), ForwardRequest{
		AssetID: id, Protocol: ProtocolHTTP, RequesterLevel: FullPublic, Payload: []byte("hello"), Token: token,
	}, Private)
	if err == nil {
		t.Fatalf("expected denial for HTTP under Private owner level")
	}

	mapping, ok := fwd.manager.MappingFor(id)
	if !ok {
		t.Fatalf("expected mapping to exist")
	}
	if mapping.Stats.Denials != 1 {
		t.Fatalf("expected one denial recorded, got %d", mapping.Stats.Denials)
	}
	if mapping.Stats.BytesTransferred != 0 {
		t.Fatalf("denied attempt must not count bytes transferred, got %d", mapping.Stats.BytesTransferred)
	}
}

func TestForwarderDeniesNarrowerRequesterLevel(t *testing.T) {
	fwd, _, _, id, token := newTestForwarder(t)
	// Owner level P2P requires requester level >= P2P; Private requester must be denied.
	_, err := fwd.Forward(context.Background(), ForwardRequest{
		AssetID: id, Protocol: ProtocolHTTP, RequesterLevel: Private, Payload: []byte("x"), Token: token,
	}, P2P)
	if err == nil {
		t.Fatalf("expected denial for requester level below owner level")
	}
}

func TestForwarderShardedDataRoutesThroughAssetManager(t *testing.T) {
	fwd, _, _, id, token := newTestForwarder(t)
	n, err := fwd.Forward(context.Background(), ForwardRequest{
		AssetID: id, Protocol: ProtocolShardedData, RequesterLevel: P2P, Payload: []byte("shard"), Token: token,
	}, P2P)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if n != 5 {
		t.Fatalf("expected 5 bytes transferred, got %d", n)
	}
}

func TestForwarderUnknownAssetFails(t *testing.T) {
	fwd, _, _, _, _ := newTestForwarder(t)
	_, err := fwd.Forward(context.Background(), ForwardRequest{
		AssetID: NewAssetId(KindCPU), Protocol: ProtocolHTTP, RequesterLevel: P2P,
	}, P2P)
	if err == nil {
		t.Fatalf("expected AssetNotFound for unknown asset id")
	}
}

func TestForwarderRejectsMissingOrInvalidToken(t *testing.T) {
	fwd, _, _, id, _ := newTestForwarder(t)
	_, err := fwd.Forward(context.Background(), ForwardRequest{
		AssetID: id, Protocol: ProtocolHTTP, RequesterLevel: P2P, Payload: []byte("hello"), Token: []byte("not-a-token"),
	}, P2P)
	if err == nil {
		t.Fatalf("expected denial for an invalid access token")
	}

	mapping, ok := fwd.manager.MappingFor(id)
	if !ok {
		t.Fatalf("expected mapping to exist")
	}
	if mapping.Stats.Denials != 1 {
		t.Fatalf("expected one denial recorded for invalid token, got %d", mapping.Stats.Denials)
	}
}
