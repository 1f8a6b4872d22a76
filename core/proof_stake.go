package core

import "time"

// StakeProof answers WHO: the economic stake backing an operation.
type StakeProof struct {
	StakeHolder   string
	StakeHolderID string
	StakeAmount   uint64
	Timestamp     time.Time
	Nonce         [16]byte
}

// MaxStakeAge is the oldest a stake proof may be and still be considered
// fresh (spec §3.2: "stake age <= 30 days").
const MaxStakeAge = 30 * 24 * time.Hour

// Validate performs the cheap, local, non-triviality checks from spec §4.1
// step 1, excluding the `self` and adapter-specific threshold checks which
// require context the proof itself does not carry.
func (p *StakeProof) Validate() bool {
	if p.StakeAmount == 0 || p.StakeHolder == "" || p.StakeHolderID == "" {
		return false
	}
	if p.Timestamp.IsZero() {
		return false
	}
	return time.Since(p.Timestamp) <= MaxStakeAge
}
