package core

import (
	"context"
	"testing"
	"time"
)

func newTestProxyManager(t *testing.T, minTrust float64) *ProxyManager {
	t.Helper()
	issuer, err := NewTokenIssuer()
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}
	return NewProxyManager(issuer, minTrust, testLogger())
}

func registerTestNode(t *testing.T, m *ProxyManager, id string, trust float64, portBase uint16, kinds ...AssetKind) {
	t.Helper()
	caps := make(map[AssetKind]bool, len(kinds))
	for _, k := range kinds {
		caps[k] = true
	}
	node := ProxyNode{
		ID: id, TrustScore: trust, BandwidthScore: 0.5, ConnectionSlots: 0.5, LatencyScore: 0.5,
		Capabilities: caps,
	}
	if err := m.RegisterNode(node, map[AssetKind][]PortRange{
		KindCPU: {{Low: portBase, High: portBase + 99}},
		KindGPU: {{Low: portBase + 100, High: portBase + 199}},
	}); err != nil {
		t.Fatalf("RegisterNode: %v", err)
	}
}

func TestProxyManagerAssignResolveBijection(t *testing.T) {
	m := newTestProxyManager(t, 0.0)
	registerTestNode(t, m, "node-a", 0.8, 21100, KindCPU)

	id := NewAssetId(KindCPU)
	addr, err := m.Assign(context.Background(), id, KindCPU, 0)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}

	got, err := m.Resolve(context.Background(), addr)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != id {
		t.Fatalf("Resolve returned %v, want %v", got, id)
	}
}

func TestProxyManagerSelectsHighestScoringNode(t *testing.T) {
	m := newTestProxyManager(t, 0.0)
	registerTestNode(t, m, "node-low", 0.1, 21100, KindCPU)
	registerTestNode(t, m, "node-high", 0.9, 21300, KindCPU)

	id := NewAssetId(KindCPU)
	addr, err := m.Assign(context.Background(), id, KindCPU, 0)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	mapping, ok := m.MappingFor(id)
	if !ok {
		t.Fatalf("expected mapping to exist")
	}
	if mapping.NodeID != "node-high" {
		t.Fatalf("expected highest-scoring node selected, got %s", mapping.NodeID)
	}
	_ = addr
}

func TestProxyManagerRejectsBelowMinTrust(t *testing.T) {
	m := newTestProxyManager(t, 0.5)
	registerTestNode(t, m, "node-untrusted", 0.2, 21100, KindCPU)

	id := NewAssetId(KindCPU)
	if _, err := m.Assign(context.Background(), id, KindCPU, 0); err == nil {
		t.Fatalf("expected rejection when no node meets min trust")
	}
}

func TestProxyManagerRejectsOverlappingPortRanges(t *testing.T) {
	m := newTestProxyManager(t, 0.0)
	registerTestNode(t, m, "node-a", 0.8, 21100, KindCPU)

	err := m.RegisterNode(ProxyNode{
		ID: "node-b", TrustScore: 0.8, Capabilities: map[AssetKind]bool{KindCPU: true},
	}, map[AssetKind][]PortRange{
		KindCPU: {{Low: 21150, High: 21160}},
	})
	if _, ok := err.(*ValidationError); !ok {
		t.Fatalf("expected ValidationError for overlapping port range, got %v", err)
	}
}

func TestProxyManagerReleaseFreesPort(t *testing.T) {
	m := newTestProxyManager(t, 0.0)
	registerTestNode(t, m, "node-a", 0.8, 21100, KindCPU)

	id := NewAssetId(KindCPU)
	addr, err := m.Assign(context.Background(), id, KindCPU, 0)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	m.Release(id)
	if _, ok := m.MappingFor(id); ok {
		t.Fatalf("expected mapping to be gone after Release")
	}
	if _, err := m.Resolve(context.Background(), addr); err == nil {
		t.Fatalf("expected Resolve to fail after Release")
	}
	next, err := m.Assign(context.Background(), NewAssetId(KindCPU), KindCPU, 0)
	if err != nil {
		t.Fatalf("Assign after Release: %v", err)
	}
	if next.Port != addr.Port {
		t.Fatalf("expected released port %d to be reused, got %d", addr.Port, next.Port)
	}
}

func TestProxyManagerResolveIsIdempotent(t *testing.T) {
	m := newTestProxyManager(t, 0.0)
	registerTestNode(t, m, "node-a", 0.8, 21100, KindCPU)

	id := NewAssetId(KindCPU)
	addr, err := m.Assign(context.Background(), id, KindCPU, 0)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}

	for i := 0; i < 3; i++ {
		got, err := m.Resolve(context.Background(), addr)
		if err != nil {
			t.Fatalf("Resolve call %d: %v", i, err)
		}
		if got != id {
			t.Fatalf("Resolve call %d returned %v, want %v", i, got, id)
		}
	}
}

func TestProxyManagerResolveRejectsExpiredMapping(t *testing.T) {
	m := newTestProxyManager(t, 0.0)
	registerTestNode(t, m, "node-a", 0.8, 21100, KindCPU)

	id := NewAssetId(KindCPU)
	addr, err := m.Assign(context.Background(), id, KindCPU, time.Millisecond)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	time.Sleep(2 * time.Millisecond)

	if _, err := m.Resolve(context.Background(), addr); err == nil {
		t.Fatalf("expected Resolve to fail once the mapping has expired")
	}
}

func TestProxyManagerAssignRespectsRequestedTTL(t *testing.T) {
	m := newTestProxyManager(t, 0.0)
	registerTestNode(t, m, "node-a", 0.8, 21100, KindCPU)

	id := NewAssetId(KindCPU)
	want := 30 * time.Minute
	if _, err := m.Assign(context.Background(), id, KindCPU, want); err != nil {
		t.Fatalf("Assign: %v", err)
	}
	mapping, ok := m.MappingFor(id)
	if !ok {
		t.Fatalf("expected mapping to exist")
	}
	if mapping.ExpiresAt == nil {
		t.Fatalf("expected ExpiresAt to be set")
	}
	gotTTL := mapping.ExpiresAt.Sub(mapping.CreatedAt)
	if gotTTL < want-time.Second || gotTTL > want+time.Second {
		t.Fatalf("expected mapping TTL near %v, got %v", want, gotTTL)
	}
}
