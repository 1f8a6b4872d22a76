package core

import (
	"sync"

	"github.com/bits-and-blooms/bitset"
)

// PortRange is a single inclusive [Low, High] range a node advertises for
// a given asset kind (spec §4.5.1).
type PortRange struct {
	Low  uint16
	High uint16
}

// PortPool tracks port allocation over one or more configured ranges for
// a single (node, kind) pair as a bitset: bit i set means port
// Low+i is in use. Allocation is first-fit (lowest clear bit), release
// clears the bit (SPEC_FULL §4.5.1).
type PortPool struct {
	mu     sync.Mutex
	ranges []PortRange
	bits   *bitset.BitSet
	size   uint
}

// NewPortPool builds a pool spanning the given ranges. Ranges must not
// overlap; the pool does not validate this since ranges are operator
// configuration, not caller input.
func NewPortPool(ranges []PortRange) *PortPool {
	var size uint
	for _, r := range ranges {
		size += uint(r.High-r.Low) + 1
	}
	return &PortPool{ranges: ranges, bits: bitset.New(size), size: size}
}

func (p *PortPool) indexToPort(idx uint) uint16 {
	var base uint
	for _, r := range p.ranges {
		span := uint(r.High-r.Low) + 1
		if idx < base+span {
			return r.Low + uint16(idx-base)
		}
		base += span
	}
	return 0
}

// Allocate returns the lowest free port across all configured ranges, or
// AllocationFailed if the pool is exhausted.
func (p *PortPool) Allocate() (uint16, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	idx, ok := p.bits.NextClear(0)
	if !ok || idx >= p.size {
		return 0, &AllocationFailed{Reason: "port pool exhausted"}
	}
	p.bits.Set(idx)
	return p.indexToPort(idx), nil
}

// Release returns a previously allocated port to the pool. Releasing a
// port outside any configured range or already free is a no-op.
func (p *PortPool) Release(port uint16) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var base uint
	for _, r := range p.ranges {
		span := uint(r.High-r.Low) + 1
		if port >= r.Low && port <= r.High {
			p.bits.Clear(base + uint(port-r.Low))
			return
		}
		base += span
	}
}
