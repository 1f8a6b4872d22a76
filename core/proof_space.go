package core

import "time"

// SpaceProof answers WHERE: the storage commitment backing an operation.
// Grounded on spec §3.2 and original_source's SpaceProof shape (storage
// path + node id + commitment hash), narrowed to the fields spec.md names.
type SpaceProof struct {
	NodeID        string
	StoragePath   string
	AllocatedSize uint64
	TotalStorage  uint64
	IntegrityHash [32]byte
	Timestamp     time.Time
	Nonce         [16]byte
}

// Validate performs the cheap, local, non-triviality checks from spec §4.1
// step 3. It does not recompute the integrity hash, and neither does the
// composite validator.
func (p *SpaceProof) Validate() bool {
	return p.AllocatedSize > 0 &&
		p.TotalStorage > 0 &&
		p.StoragePath != "" &&
		p.NodeID != ""
}
