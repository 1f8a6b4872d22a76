package core

import (
	"crypto/sha256"
	"encoding/binary"
	"time"
)

// MaxTimestampDrift bounds how far a TimeProof's generation timestamp may be
// from "now" and still validate (spec §3.2/§4.1 step 2).
const MaxTimestampDrift = 5 * time.Minute

// MaxNetworkTimeOffset bounds the claimed network clock offset.
const MaxNetworkTimeOffset = 60 * time.Second

// TimeProof answers WHEN: the temporal anchor for an operation. ProofHash
// binds the offset, timestamp, and nonce together so a proof cannot be
// replayed against a different timestamp without detection.
type TimeProof struct {
	NetworkTimeOffset time.Duration
	Timestamp         time.Time
	Nonce             [16]byte
	ProofHash         [32]byte
}

// ComputeTimeProofHash returns SHA256(offset_millis_be ‖ timestamp_unix_nano_be
// ‖ nonce), matching spec §3.2: "proof_hash = SHA256(offset ‖ timestamp ‖
// nonce)".
func ComputeTimeProofHash(offset time.Duration, ts time.Time, nonce [16]byte) [32]byte {
	var buf [24]byte
	binary.BigEndian.PutUint64(buf[0:8], uint64(offset.Milliseconds()))
	binary.BigEndian.PutUint64(buf[8:16], uint64(ts.UnixNano()))
	h := sha256.New()
	h.Write(buf[:16])
	h.Write(nonce[:])
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// NewTimeProof constructs a TimeProof with a freshly computed ProofHash.
func NewTimeProof(offset time.Duration, ts time.Time, nonce [16]byte) TimeProof {
	return TimeProof{
		NetworkTimeOffset: offset,
		Timestamp:         ts,
		Nonce:             nonce,
		ProofHash:         ComputeTimeProofHash(offset, ts, nonce),
	}
}

// Validate recomputes the proof hash and checks freshness and offset bounds
// per spec §4.1 step 2.
func (p *TimeProof) Validate() bool {
	if ComputeTimeProofHash(p.NetworkTimeOffset, p.Timestamp, p.Nonce) != p.ProofHash {
		return false
	}
	if p.NetworkTimeOffset > MaxNetworkTimeOffset || p.NetworkTimeOffset < 0 {
		return false
	}
	drift := time.Since(p.Timestamp)
	if drift < 0 {
		drift = -drift
	}
	return drift <= MaxTimestampDrift
}
