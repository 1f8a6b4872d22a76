package core

import (
	"fmt"
	"sort"
)

// selectableDevice is the minimal shape device_selection needs from a
// GPU or storage device to rank and pick candidates (spec §4.3.b).
type selectableDevice struct {
	id            string
	available     bool
	freeCapacity  uint64
	capability    string
}

// capabilityMeetsFloor compares a device's capability string against a
// requested floor. Compute-capability strings compare lexicographically
// here since both are normalized "major.minor" forms in this mesh; an
// empty floor means no capability constraint.
func capabilityMeetsFloor(have, floor string) bool {
	if floor == "" {
		return true
	}
	return have >= floor
}

// deviceKindLabel gives the human-facing device-kind name used in
// AllocationFailed reasons, matching scenario S2's exact wording
// ("Insufficient GPU devices: ...") rather than AssetKind.String()'s
// wire-form casing.
func deviceKindLabel(kind AssetKind) string {
	switch kind {
	case KindGPU:
		return "GPU"
	default:
		return kind.String()
	}
}

// selectDevices implements spec §4.3.b: filter to available devices
// meeting the capacity and capability floor, sort descending by free
// capacity (ties broken by device id), then take the first k. Returns
// AllocationFailed if fewer than k devices qualify.
func selectDevices(kind AssetKind, devices []selectableDevice, minCapacity uint64, capabilityFloor string, k int) ([]selectableDevice, error) {
	candidates := make([]selectableDevice, 0, len(devices))
	for _, d := range devices {
		if !d.available {
			continue
		}
		if d.freeCapacity < minCapacity {
			continue
		}
		if !capabilityMeetsFloor(d.capability, capabilityFloor) {
			continue
		}
		candidates = append(candidates, d)
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].freeCapacity != candidates[j].freeCapacity {
			return candidates[i].freeCapacity > candidates[j].freeCapacity
		}
		return candidates[i].id < candidates[j].id
	})

	if len(candidates) < k {
		return nil, &AllocationFailed{Reason: fmt.Sprintf("Insufficient %s devices: %d requested, %d available", deviceKindLabel(kind), k, len(candidates))}
	}
	return candidates[:k], nil
}
