package core

import "testing"

func TestSelectDevicesPrefersMoreFreeCapacity(t *testing.T) {
	devices := []selectableDevice{
		{id: "dev-a", available: true, freeCapacity: 100, capability: "1.0"},
		{id: "dev-b", available: true, freeCapacity: 500, capability: "1.0"},
		{id: "dev-c", available: true, freeCapacity: 300, capability: "1.0"},
	}
	got, err := selectDevices(KindGPU, devices, 50, "", 2)
	if err != nil {
		t.Fatalf("selectDevices: %v", err)
	}
	if len(got) != 2 || got[0].id != "dev-b" || got[1].id != "dev-c" {
		t.Fatalf("unexpected selection order: %+v", got)
	}
}

func TestSelectDevicesTieBreaksByID(t *testing.T) {
	devices := []selectableDevice{
		{id: "dev-z", available: true, freeCapacity: 200, capability: "1.0"},
		{id: "dev-a", available: true, freeCapacity: 200, capability: "1.0"},
	}
	got, err := selectDevices(KindGPU, devices, 50, "", 2)
	if err != nil {
		t.Fatalf("selectDevices: %v", err)
	}
	if got[0].id != "dev-a" || got[1].id != "dev-z" {
		t.Fatalf("expected tie-break by id, got %+v", got)
	}
}

func TestSelectDevicesExcludesUnavailableAndBelowFloor(t *testing.T) {
	devices := []selectableDevice{
		{id: "dev-a", available: false, freeCapacity: 1000, capability: "2.0"},
		{id: "dev-b", available: true, freeCapacity: 10, capability: "2.0"},
		{id: "dev-c", available: true, freeCapacity: 1000, capability: "1.0"},
		{id: "dev-d", available: true, freeCapacity: 1000, capability: "2.0"},
	}
	got, err := selectDevices(KindGPU, devices, 100, "2.0", 1)
	if err != nil {
		t.Fatalf("selectDevices: %v", err)
	}
	if len(got) != 1 || got[0].id != "dev-d" {
		t.Fatalf("expected only dev-d to qualify, got %+v", got)
	}
}

func TestSelectDevicesFailsWhenInsufficient(t *testing.T) {
	devices := []selectableDevice{
		{id: "dev-a", available: true, freeCapacity: 1000, capability: "1.0"},
	}
	_, err := selectDevices(KindGPU, devices, 100, "", 2)
	if _, ok := err.(*AllocationFailed); !ok {
		t.Fatalf("expected AllocationFailed, got %v", err)
	}
}

func TestSelectDevicesFailureReasonNamesKindAndCounts(t *testing.T) {
	devices := []selectableDevice{
		{id: "dev-a", available: true, freeCapacity: 1000, capability: "1.0"},
		{id: "dev-b", available: true, freeCapacity: 1000, capability: "1.0"},
	}
	_, err := selectDevices(KindGPU, devices, 100, "", 4)
	af, ok := err.(*AllocationFailed)
	if !ok {
		t.Fatalf("expected AllocationFailed, got %v", err)
	}
	want := "Insufficient GPU devices: 4 requested, 2 available"
	if af.Reason != want {
		t.Fatalf("expected reason %q, got %q", want, af.Reason)
	}
}
