package core

import (
	"context"
	"encoding/binary"
	"sort"
	"sync"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/sirupsen/logrus"
)

// ProxyNode is a registered candidate for proxy-address assignment (spec
// §4.5 step 1). Scores are pre-normalized to [0,1] by whatever health/
// telemetry system feeds RegisterNode; the manager only combines them.
type ProxyNode struct {
	ID              string
	TrustScore      float64
	BandwidthScore  float64
	ConnectionSlots float64
	LatencyScore    float64
	Capabilities    map[AssetKind]bool
	Prefix          [16]byte

	ports map[AssetKind]*PortPool
}

// ForwardingStats accumulates per-mapping traffic counters, updated by the
// forwarder (C9) as requests are served (spec §4.5, §8.2 S5).
type ForwardingStats struct {
	BytesTransferred uint64
	Requests         uint64
	Denials          uint64
}

// ProxyMapping is the bidirectional record a ProxyAddress resolves to: it
// is a partial function both ways (spec §3.3 invariant 3). The adapter
// allocation table remains the sole owner of the AssetAllocation; this
// record only carries the lookup key, avoiding the reference cycle the
// spec's design notes call out (§9).
type ProxyMapping struct {
	AssetID   AssetId
	Kind      AssetKind
	Address   ProxyAddress
	NodeID    string
	CreatedAt time.Time
	ExpiresAt *time.Time
	Stats     ForwardingStats
}

const defaultMappingTTL = 24 * time.Hour

// ProxyManager implements C8: node selection, port allocation, address
// synthesis, the bidirectional mapping table, and cleanup. It satisfies
// ProxyAssigner so resource adapters can delegate AssignProxyAddress and
// ResolveProxyAddress to it without duplicating this logic six times.
type ProxyManager struct {
	logger   *logrus.Logger
	issuer   *TokenIssuer
	minTrust float64

	mu       sync.RWMutex
	nodes    map[string]*ProxyNode
	byAsset  map[AssetId]*ProxyMapping
	byAddr   map[string]*ProxyMapping
}

func NewProxyManager(issuer *TokenIssuer, minTrust float64, logger *logrus.Logger) *ProxyManager {
	return &ProxyManager{
		logger:   logger,
		issuer:   issuer,
		minTrust: minTrust,
		nodes:    make(map[string]*ProxyNode),
		byAsset:  make(map[AssetId]*ProxyMapping),
		byAddr:   make(map[string]*ProxyMapping),
	}
}

func rangesOverlap(a, b PortRange) bool {
	return a.Low <= b.High && b.Low <= a.High
}

// RegisterNode installs or replaces a proxy node, building its per-kind
// port pools from the given ranges. A newly registered node's range for a
// given kind must not overlap any already-registered node's range for the
// same kind — allowing it would let two nodes hand out the same port,
// silently aliasing two distinct proxy addresses onto one another.
func (m *ProxyManager) RegisterNode(node ProxyNode, portRanges map[AssetKind][]PortRange) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for kind, ranges := range portRanges {
		for _, other := range m.nodes {
			if other.ID == node.ID {
				continue
			}
			existing, ok := other.ports[kind]
			if !ok {
				continue
			}
			for _, r := range ranges {
				for _, er := range existing.ranges {
					if rangesOverlap(r, er) {
						return &ValidationError{Field: "port_range"}
					}
				}
			}
		}
	}

	node.ports = make(map[AssetKind]*PortPool, len(portRanges))
	for kind, ranges := range portRanges {
		node.ports[kind] = NewPortPool(ranges)
	}
	m.nodes[node.ID] = &node
	return nil
}

func nodeNumericID(id string) uint64 {
	h := ethcrypto.Keccak256([]byte(id))
	return binary.BigEndian.Uint64(h[:8])
}

// score combines a node's normalized signals with the fixed weights from
// spec §4.5 step 1: trust 0.4, bandwidth 0.3, connection-slots 0.2,
// latency 0.1.
func score(n *ProxyNode) float64 {
	return n.TrustScore*0.4 + n.BandwidthScore*0.3 + n.ConnectionSlots*0.2 + n.LatencyScore*0.1
}

func (m *ProxyManager) selectNode(kind AssetKind) (*ProxyNode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var candidates []*ProxyNode
	for _, n := range m.nodes {
		if n.TrustScore < m.minTrust {
			continue
		}
		if !n.Capabilities[kind] {
			continue
		}
		candidates = append(candidates, n)
	}
	if len(candidates) == 0 {
		return nil, &AllocationFailed{Reason: "no eligible proxy node"}
	}
	sort.Slice(candidates, func(i, j int) bool {
		si, sj := score(candidates[i]), score(candidates[j])
		if si != sj {
			return si > sj
		}
		return candidates[i].ID < candidates[j].ID
	})
	return candidates[0], nil
}

func addrKey(addr ProxyAddress) string {
	buf := make([]byte, 0, 16+8+2)
	buf = append(buf, addr.NetworkPrefix[:]...)
	var nodeBuf [8]byte
	binary.BigEndian.PutUint64(nodeBuf[:], addr.NodeID)
	buf = append(buf, nodeBuf[:]...)
	var portBuf [2]byte
	binary.BigEndian.PutUint16(portBuf[:], addr.Port)
	buf = append(buf, portBuf[:]...)
	return string(buf)
}

// Assign implements ProxyAssigner: select the best node, allocate a port
// from its per-kind pool, synthesize the address, mint an access token,
// and record the bidirectional mapping (spec §4.5 steps 1-3). ttl is the
// requesting allocation's configured expiry; a non-positive ttl falls
// back to defaultMappingTTL.
func (m *ProxyManager) Assign(ctx context.Context, id AssetId, kind AssetKind, ttl time.Duration) (ProxyAddress, error) {
	node, err := m.selectNode(kind)
	if err != nil {
		return ProxyAddress{}, err
	}
	pool, ok := node.ports[kind]
	if !ok {
		return ProxyAddress{}, &AllocationFailed{Reason: "node has no port pool for kind " + kind.String()}
	}
	port, err := pool.Allocate()
	if err != nil {
		return ProxyAddress{}, err
	}

	addr := ProxyAddress{
		NetworkPrefix: node.Prefix,
		NodeID:        nodeNumericID(node.ID),
		Port:          port,
	}
	token, err := m.issuer.Issue(addr)
	if err != nil {
		pool.Release(port)
		return ProxyAddress{}, err
	}
	addr.AccessToken = token

	mappingTTL := defaultMappingTTL
	if ttl > 0 {
		mappingTTL = ttl
	}
	now := time.Now()
	expires := now.Add(mappingTTL)
	mapping := &ProxyMapping{
		AssetID:   id,
		Kind:      kind,
		Address:   addr,
		NodeID:    node.ID,
		CreatedAt: now,
		ExpiresAt: &expires,
	}

	m.mu.Lock()
	m.byAsset[id] = mapping
	m.byAddr[addrKey(addr)] = mapping
	m.mu.Unlock()

	return addr, nil
}

// Resolve implements ProxyAssigner's reverse lookup (spec §3.3 invariant
// 3: the mapping table is a partial function both ways). It is a pure,
// idempotent table lookup gated only on expiry — spec §4.5 defines
// resolution as "a direct table lookup" that fails when missing or
// expired; access-token authentication belongs to the forwarding path
// (see Authenticate), not here.
func (m *ProxyManager) Resolve(ctx context.Context, addr ProxyAddress) (AssetId, error) {
	m.mu.RLock()
	mapping, ok := m.byAddr[addrKey(addr)]
	m.mu.RUnlock()
	if !ok {
		return AssetId{}, &ProxyResolutionFailed{Address: addr}
	}
	if mapping.ExpiresAt != nil && time.Now().After(*mapping.ExpiresAt) {
		return AssetId{}, &ProxyResolutionFailed{Address: addr}
	}
	return mapping.AssetID, nil
}

// Authenticate verifies a caller-presented access token against the
// issuing record for addr, used by the forwarder before dispatching any
// protocol (spec §4.5 Forwarding, §4.9).
func (m *ProxyManager) Authenticate(token []byte, addr ProxyAddress) error {
	return m.issuer.Validate(token, addr)
}

// MappingFor returns the live mapping for an asset, used by the forwarder
// (C9) to apply privacy ACLs and update traffic stats.
func (m *ProxyManager) MappingFor(id AssetId) (*ProxyMapping, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mapping, ok := m.byAsset[id]
	return mapping, ok
}

// Release tears down a mapping and returns its port to the owning node's
// pool.
func (m *ProxyManager) Release(id AssetId) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mapping, ok := m.byAsset[id]
	if !ok {
		return
	}
	if node, ok := m.nodes[mapping.NodeID]; ok {
		if pool, ok := node.ports[mapping.Kind]; ok {
			pool.Release(mapping.Address.Port)
		}
	}
	delete(m.byAsset, id)
	delete(m.byAddr, addrKey(mapping.Address))
}

// CleanupExpired releases every mapping whose TTL has passed as of now,
// returning the count released. Intended to run on a time.Ticker loop
// started by core/context.go.
func (m *ProxyManager) CleanupExpired(now time.Time) int {
	m.mu.RLock()
	var expired []AssetId
	for id, mapping := range m.byAsset {
		if mapping.ExpiresAt != nil && now.After(*mapping.ExpiresAt) {
			expired = append(expired, id)
		}
	}
	m.mu.RUnlock()
	for _, id := range expired {
		m.Release(id)
	}
	return len(expired)
}
