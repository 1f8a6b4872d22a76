package core

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// MeshConfig carries everything needed to assemble a Mesh: per-adapter
// consensus thresholds, the node's identity, and proxy-layer parameters.
// Passing this into NewMesh (rather than reading package-level globals)
// is the redesign spec §9 calls for: "pass a context object into the
// manager at construction; the constants become fields of that context.
// No singletons."
type MeshConfig struct {
	NodeID   string
	MinTrust float64

	CPUThresholds       AdapterThresholds
	GPUThresholds       AdapterThresholds
	MemoryThresholds    AdapterThresholds
	StorageThresholds   AdapterThresholds
	NetworkThresholds   AdapterThresholds
	ContainerThresholds AdapterThresholds

	NetworkTotalBps        uint64
	ContainerMaxConcurrent int

	ProxyPortRanges map[AssetKind][]PortRange

	Probe          DeviceProbe
	MetricsRegistry prometheus.Registerer
	Logger         *logrus.Logger
}

// BaselineThresholds derives the six kind-specific threshold sets from a
// single baseline stake/work pair per the ratios fixed in spec §4.3.a:
// GPU 2x stake/1.3x work, Storage 0.75x stake, all others baseline.
func BaselineThresholds(baselineStake, baselineWork uint64) (cpu, gpu, memory, storage, network, container AdapterThresholds) {
	base := AdapterThresholds{MinStake: baselineStake, MinWorkDifficulty: baselineWork}
	cpu = base
	memory = base
	network = base
	container = base
	gpu = AdapterThresholds{
		MinStake:          baselineStake * 2,
		MinWorkDifficulty: uint64(float64(baselineWork) * 1.3),
	}
	storage = AdapterThresholds{
		MinStake:          uint64(float64(baselineStake) * 0.75),
		MinWorkDifficulty: baselineWork,
	}
	return
}

// Mesh is the constructed, non-global handle on one node's full resource-
// asset manager: the consensus validator, every resource adapter, the
// proxy manager and forwarder, and the allocation journal. Every
// component it wires up takes this Mesh's fields at construction time,
// not a package-level default.
type Mesh struct {
	Config    MeshConfig
	Validator *ConsensusValidator
	Journal   *AllocationJournal
	Manager   *AssetManager
	Proxy     *ProxyManager
	Forwarder *Forwarder

	cleanupCancel context.CancelFunc
}

// NewMesh assembles a complete Mesh: the consensus validator, the six
// resource adapters registered against the asset manager, and the proxy
// manager/forwarder pair, wired together with no package-level state.
func NewMesh(cfg MeshConfig) (*Mesh, error) {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.Probe == nil {
		cfg.Probe = &SimulatedDeviceProbe{NodeID: cfg.NodeID}
	}

	validator := NewConsensusValidator(cfg.Logger)
	journal := NewAllocationJournal()
	manager := NewAssetManager(journal, cfg.MetricsRegistry, cfg.Logger)

	issuer, err := NewTokenIssuer()
	if err != nil {
		return nil, err
	}
	proxy := NewProxyManager(issuer, cfg.MinTrust, cfg.Logger)

	prefix := DeterministicPrefix(cfg.NodeID)
	if gw, err := Discover(); err == nil {
		prefix = gw.NetworkPrefix()
	}
	if err := proxy.RegisterNode(ProxyNode{
		ID:              cfg.NodeID,
		TrustScore:      1.0,
		BandwidthScore:  1.0,
		ConnectionSlots: 1.0,
		LatencyScore:    1.0,
		Capabilities: map[AssetKind]bool{
			KindCPU: true, KindGPU: true, KindMemory: true,
			KindStorage: true, KindNetwork: true, KindContainer: true,
		},
		Prefix: prefix,
	}, cfg.ProxyPortRanges); err != nil {
		return nil, err
	}

	cpuAdapter, err := NewCPUAdapter(cfg.NodeID, cfg.Probe, validator, cfg.CPUThresholds, proxy, cfg.Logger)
	if err != nil {
		return nil, err
	}
	gpuAdapter, err := NewGPUAdapter(cfg.NodeID, cfg.Probe, validator, cfg.GPUThresholds, proxy, cfg.Logger)
	if err != nil {
		return nil, err
	}
	memAdapter, err := NewMemoryAdapter(cfg.NodeID, cfg.Probe, validator, cfg.MemoryThresholds, proxy, cfg.Logger)
	if err != nil {
		return nil, err
	}
	storageAdapter, err := NewStorageAdapter(cfg.NodeID, cfg.Probe, validator, cfg.StorageThresholds, proxy, cfg.Logger)
	if err != nil {
		return nil, err
	}
	netAdapter := NewNetworkAdapter(cfg.NodeID, cfg.NetworkTotalBps, validator, cfg.NetworkThresholds, proxy, cfg.Logger)
	containerAdapter := NewContainerAdapter(cfg.NodeID, cfg.ContainerMaxConcurrent, validator, cfg.ContainerThresholds, proxy, cfg.Logger)

	manager.RegisterAdapter(cpuAdapter)
	manager.RegisterAdapter(gpuAdapter)
	manager.RegisterAdapter(memAdapter)
	manager.RegisterAdapter(storageAdapter)
	manager.RegisterAdapter(netAdapter)
	manager.RegisterAdapter(containerAdapter)

	forwarder, err := NewForwarder(proxy, manager, cfg.Logger)
	if err != nil {
		return nil, err
	}

	return &Mesh{
		Config:    cfg,
		Validator: validator,
		Journal:   journal,
		Manager:   manager,
		Proxy:     proxy,
		Forwarder: forwarder,
	}, nil
}

// StartCleanupLoop runs proxy-mapping expiry on a fixed interval until the
// given context is cancelled or Stop is called (spec §5: "cleanup runs on
// a time.Ticker goroutine stopped via context cancellation").
func (m *Mesh) StartCleanupLoop(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)
	m.cleanupCancel = cancel
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case t := <-ticker.C:
				n := m.Proxy.CleanupExpired(t)
				if n > 0 {
					m.Config.Logger.WithField("component", "mesh").Debugf("cleaned up %d expired proxy mappings", n)
				}
			}
		}
	}()
}

// Stop halts the cleanup loop, if running.
func (m *Mesh) Stop() {
	if m.cleanupCancel != nil {
		m.cleanupCancel()
	}
}
