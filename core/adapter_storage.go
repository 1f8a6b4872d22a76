package core

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// storageDeviceState tracks a single disk's reservation state alongside
// the inventory reported by DeviceProbe.
type storageDeviceState struct {
	StorageDevice
	reservedBytes uint64
}

// StorageAdapter manages block-storage allocation with replication (spec
// §4.3.c): a storage request with replication factor r reserves r distinct
// devices, each storing one copy of the requested size. Storage also
// carries a 0.75x stake floor and an extra check enforced in
// ValidateConsensusProof: the space proof's storage path must be non-empty
// (spec §4.3.a).
type StorageAdapter struct {
	*baseAdapter

	devices map[string]*storageDeviceState
	byAsset map[AssetId][]string
}

func NewStorageAdapter(nodeID string, probe DeviceProbe, validator *ConsensusValidator, thresholds AdapterThresholds, proxy ProxyAssigner, logger *logrus.Logger) (*StorageAdapter, error) {
	devs, err := probe.DetectStorage()
	if err != nil {
		logger.WithField("component", "storage_adapter").WithError(err).Warn("falling back to simulated storage inventory")
		sim := &SimulatedDeviceProbe{NodeID: nodeID}
		devs, _ = sim.DetectStorage()
	}
	m := make(map[string]*storageDeviceState, len(devs))
	for _, d := range devs {
		m[d.Device] = &storageDeviceState{StorageDevice: d}
	}
	return &StorageAdapter{
		baseAdapter: newBaseAdapter(KindStorage, nodeID, probe, validator, thresholds, proxy, logger),
		devices:     m,
		byAsset:     make(map[AssetId][]string),
	}, nil
}

// ValidateConsensusProof adds the storage-path check to the composite
// validation before returning (spec §4.3.a).
func (a *StorageAdapter) ValidateConsensusProof(ctx context.Context, proof ConsensusProof, selfID string) error {
	if err := a.baseAdapter.ValidateConsensusProof(ctx, proof, selfID); err != nil {
		return err
	}
	if proof.Space.StoragePath == "" {
		return &ConsensusValidationFailed{Kind: InvalidStorageCommitment}
	}
	return nil
}

func (a *StorageAdapter) AllocateAsset(ctx context.Context, req AllocationConfig) (*AssetAllocation, error) {
	if err := a.ValidateConsensusProof(ctx, req.ConsensusProof, a.nodeID); err != nil {
		return nil, err
	}
	if req.Requirements.Storage == nil {
		return nil, &AllocationFailed{Reason: "missing storage requirement"}
	}
	spec := req.Requirements.Storage
	r := spec.ReplicationFactor
	if r == 0 {
		r = 1
	}

	a.mu.Lock()
	candidates := make([]selectableDevice, 0, len(a.devices))
	for id, d := range a.devices {
		free := d.AvailableBytes - d.reservedBytes
		candidates = append(candidates, selectableDevice{
			id:           id,
			available:    true,
			freeCapacity: free,
		})
	}
	selected, err := selectDevices(KindStorage, candidates, spec.Bytes, "", int(r))
	if err != nil {
		a.mu.Unlock()
		return nil, err
	}
	ids := make([]string, 0, len(selected))
	for _, c := range selected {
		a.devices[c.id].reservedBytes += spec.Bytes
		ids = append(ids, c.id)
	}
	a.mu.Unlock()

	now := time.Now()
	id := NewAssetId(KindStorage)
	a.mu.Lock()
	a.byAsset[id] = ids
	a.mu.Unlock()

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
			Usage:        ResourceUsage{Storage: spec},
			PrivacyLevel: req.PrivacyLevel,
			ConsensusProofs: []ConsensusProof{req.ConsensusProof},
			Metadata:     map[string]string{"node_id": a.nodeID, "devices": fmt.Sprint(ids)},
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

func (a *StorageAdapter) DeallocateAsset(ctx context.Context, id AssetId) error {
	a.mu.RLock()
	alloc, ok := a.allocations[id]
	a.mu.RUnlock()
	if !ok {
		return &AssetNotFound{AssetID: id}
	}
	if err := a.baseAdapter.DeallocateAsset(ctx, id); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if alloc.Status.Usage.Storage != nil {
		for _, devID := range a.byAsset[id] {
			if d, ok := a.devices[devID]; ok {
				d.reservedBytes -= alloc.Status.Usage.Storage.Bytes
			}
		}
	}
	delete(a.byAsset, id)
	return nil
}

func (a *StorageAdapter) GetResourceUsage(ctx context.Context, id AssetId) (ResourceUsage, error) {
	status, err := a.GetAssetStatus(ctx, id)
	if err != nil {
		return ResourceUsage{}, err
	}
	return status.Usage, nil
}

func (a *StorageAdapter) Capabilities() AdapterCapabilities {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return AdapterCapabilities{Kind: KindStorage, SupportsReplication: true, MaxConcurrent: len(a.devices)}
}
