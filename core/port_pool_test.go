package core

import "testing"

func TestPortPoolFirstFitAllocation(t *testing.T) {
	pool := NewPortPool([]PortRange{{Low: 20000, High: 20002}})
	first, err := pool.Allocate()
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if first != 20000 {
		t.Fatalf("expected first allocation to be 20000, got %d", first)
	}
	second, err := pool.Allocate()
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if second != 20001 {
		t.Fatalf("expected second allocation to be 20001, got %d", second)
	}

	pool.Release(first)
	third, err := pool.Allocate()
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if third != 20000 {
		t.Fatalf("expected released port to be reused first-fit, got %d", third)
	}
}

func TestPortPoolExhaustion(t *testing.T) {
	pool := NewPortPool([]PortRange{{Low: 30000, High: 30000}})
	if _, err := pool.Allocate(); err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if _, err := pool.Allocate(); err == nil {
		t.Fatalf("expected AllocationFailed once pool is exhausted")
	}
}

func TestPortPoolSpansMultipleRanges(t *testing.T) {
	pool := NewPortPool([]PortRange{{Low: 100, High: 100}, {Low: 200, High: 201}})
	p1, _ := pool.Allocate()
	p2, _ := pool.Allocate()
	p3, _ := pool.Allocate()
	if p1 != 100 || p2 != 200 || p3 != 201 {
		t.Fatalf("unexpected allocation order across ranges: %d %d %d", p1, p2, p3)
	}
	if _, err := pool.Allocate(); err == nil {
		t.Fatalf("expected exhaustion after spanning both ranges")
	}
}

func TestPortPoolReleaseOutsideRangeIsNoop(t *testing.T) {
	pool := NewPortPool([]PortRange{{Low: 40000, High: 40000}})
	pool.Release(9999) // should not panic or affect state
	port, err := pool.Allocate()
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if port != 40000 {
		t.Fatalf("expected 40000, got %d", port)
	}
}
