package core

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"
)

// ConsensusProof is the immutable quadruple of proofs every state-changing
// operation must carry. Once constructed it is never mutated; validation
// and transmission always operate on the whole tuple together (spec §3.2).
//
// Canonical field and wire-encoding order (§6.1) is frozen as Space, Stake,
// Work, Time — resolving the source's inconsistent Stake/Space ordering per
// spec §9's Open Question. Validation runs in its own order, fixed by
// ConsensusValidator.
type ConsensusProof struct {
	Space SpaceProof
	Stake StakeProof
	Work  WorkProof
	Time  TimeProof
}

// NewConsensusProof constructs an immutable composite proof from its four
// parts. Callers should treat the returned value as read-only.
func NewConsensusProof(space SpaceProof, stake StakeProof, work WorkProof, tm TimeProof) ConsensusProof {
	return ConsensusProof{Space: space, Stake: stake, Work: work, Time: tm}
}

//---------------------------------------------------------------------
// Wire encoding (spec §6.1): a length-prefixed sequence of four fixed-field
// binary records. Integers little-endian; strings are UTF-8, prefixed by a
// 32-bit length. TimeProof.ProofHash is exactly 32 bytes.
//---------------------------------------------------------------------

func putString(buf *bytes.Buffer, s string) {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(s)))
	buf.Write(lenBuf[:])
	buf.WriteString(s)
}

func getString(r *bytes.Reader) (string, error) {
	var lenBuf [4]byte
	if _, err := r.Read(lenBuf[:]); err != nil {
		return "", err
	}
	n := binary.LittleEndian.Uint32(lenBuf[:])
	b := make([]byte, n)
	if _, err := r.Read(b); err != nil {
		return "", err
	}
	return string(b), nil
}

func putBytes(buf *bytes.Buffer, b []byte) {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(b)))
	buf.Write(lenBuf[:])
	buf.Write(b)
}

func getBytes(r *bytes.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := r.Read(lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.LittleEndian.Uint32(lenBuf[:])
	b := make([]byte, n)
	if n > 0 {
		if _, err := r.Read(b); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func putUint64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

func getUint64(r *bytes.Reader) (uint64, error) {
	var b [8]byte
	if _, err := r.Read(b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

func putInt64(buf *bytes.Buffer, v int64) { putUint64(buf, uint64(v)) }
func getInt64(r *bytes.Reader) (int64, error) {
	v, err := getUint64(r)
	return int64(v), err
}

func putUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func getUint32(r *bytes.Reader) (uint32, error) {
	var b [4]byte
	if _, err := r.Read(b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func encodeSpaceProof(p *SpaceProof) []byte {
	var buf bytes.Buffer
	putString(&buf, p.NodeID)
	putString(&buf, p.StoragePath)
	putUint64(&buf, p.AllocatedSize)
	putUint64(&buf, p.TotalStorage)
	buf.Write(p.IntegrityHash[:])
	putInt64(&buf, p.Timestamp.UnixNano())
	buf.Write(p.Nonce[:])
	return buf.Bytes()
}

func decodeSpaceProof(r *bytes.Reader) (SpaceProof, error) {
	var p SpaceProof
	var err error
	if p.NodeID, err = getString(r); err != nil {
		return p, err
	}
	if p.StoragePath, err = getString(r); err != nil {
		return p, err
	}
	if p.AllocatedSize, err = getUint64(r); err != nil {
		return p, err
	}
	if p.TotalStorage, err = getUint64(r); err != nil {
		return p, err
	}
	if _, err = r.Read(p.IntegrityHash[:]); err != nil {
		return p, err
	}
	ns, err := getInt64(r)
	if err != nil {
		return p, err
	}
	p.Timestamp = time.Unix(0, ns).UTC()
	if _, err = r.Read(p.Nonce[:]); err != nil {
		return p, err
	}
	return p, nil
}

func encodeStakeProof(p *StakeProof) []byte {
	var buf bytes.Buffer
	putString(&buf, p.StakeHolder)
	putString(&buf, p.StakeHolderID)
	putUint64(&buf, p.StakeAmount)
	putInt64(&buf, p.Timestamp.UnixNano())
	buf.Write(p.Nonce[:])
	return buf.Bytes()
}

func decodeStakeProof(r *bytes.Reader) (StakeProof, error) {
	var p StakeProof
	var err error
	if p.StakeHolder, err = getString(r); err != nil {
		return p, err
	}
	if p.StakeHolderID, err = getString(r); err != nil {
		return p, err
	}
	if p.StakeAmount, err = getUint64(r); err != nil {
		return p, err
	}
	ns, err := getInt64(r)
	if err != nil {
		return p, err
	}
	p.Timestamp = time.Unix(0, ns).UTC()
	if _, err = r.Read(p.Nonce[:]); err != nil {
		return p, err
	}
	return p, nil
}

func encodeWorkProof(p *WorkProof) []byte {
	var buf bytes.Buffer
	putString(&buf, p.OwnerID)
	putString(&buf, p.WorkloadID)
	putUint64(&buf, p.PID)
	putUint64(&buf, p.ComputationalPower)
	putUint32(&buf, uint32(p.WorkloadType))
	putUint32(&buf, uint32(p.WorkState))
	putBytes(&buf, p.ChallengeOutput)
	buf.Write(p.Nonce[:])
	return buf.Bytes()
}

func decodeWorkProof(r *bytes.Reader) (WorkProof, error) {
	var p WorkProof
	var err error
	if p.OwnerID, err = getString(r); err != nil {
		return p, err
	}
	if p.WorkloadID, err = getString(r); err != nil {
		return p, err
	}
	if p.PID, err = getUint64(r); err != nil {
		return p, err
	}
	if p.ComputationalPower, err = getUint64(r); err != nil {
		return p, err
	}
	wt, err := getUint32(r)
	if err != nil {
		return p, err
	}
	p.WorkloadType = WorkloadType(wt)
	ws, err := getUint32(r)
	if err != nil {
		return p, err
	}
	p.WorkState = WorkState(ws)
	if p.ChallengeOutput, err = getBytes(r); err != nil {
		return p, err
	}
	if _, err = r.Read(p.Nonce[:]); err != nil {
		return p, err
	}
	return p, nil
}

func encodeTimeProof(p *TimeProof) []byte {
	var buf bytes.Buffer
	putInt64(&buf, int64(p.NetworkTimeOffset))
	putInt64(&buf, p.Timestamp.UnixNano())
	buf.Write(p.Nonce[:])
	buf.Write(p.ProofHash[:])
	return buf.Bytes()
}

func decodeTimeProof(r *bytes.Reader) (TimeProof, error) {
	var p TimeProof
	off, err := getInt64(r)
	if err != nil {
		return p, err
	}
	p.NetworkTimeOffset = time.Duration(off)
	ns, err := getInt64(r)
	if err != nil {
		return p, err
	}
	p.Timestamp = time.Unix(0, ns).UTC()
	if _, err = r.Read(p.Nonce[:]); err != nil {
		return p, err
	}
	if _, err = r.Read(p.ProofHash[:]); err != nil {
		return p, err
	}
	return p, nil
}

// MarshalBinary implements the wire form of spec §6.1: a length-prefixed
// sequence of the four fixed-field binary records, in canonical order.
func (c ConsensusProof) MarshalBinary() ([]byte, error) {
	var out bytes.Buffer
	records := [][]byte{
		encodeSpaceProof(&c.Space),
		encodeStakeProof(&c.Stake),
		encodeWorkProof(&c.Work),
		encodeTimeProof(&c.Time),
	}
	for _, rec := range records {
		putBytes(&out, rec)
	}
	return out.Bytes(), nil
}

// UnmarshalBinary reverses MarshalBinary. Invariant 4 requires
// UnmarshalBinary(MarshalBinary(c)) == c for any valid c.
func (c *ConsensusProof) UnmarshalBinary(data []byte) error {
	r := bytes.NewReader(data)

	spaceRaw, err := getBytes(r)
	if err != nil {
		return fmt.Errorf("read space record: %w", err)
	}
	stakeRaw, err := getBytes(r)
	if err != nil {
		return fmt.Errorf("read stake record: %w", err)
	}
	workRaw, err := getBytes(r)
	if err != nil {
		return fmt.Errorf("read work record: %w", err)
	}
	timeRaw, err := getBytes(r)
	if err != nil {
		return fmt.Errorf("read time record: %w", err)
	}

	space, err := decodeSpaceProof(bytes.NewReader(spaceRaw))
	if err != nil {
		return fmt.Errorf("decode space proof: %w", err)
	}
	stake, err := decodeStakeProof(bytes.NewReader(stakeRaw))
	if err != nil {
		return fmt.Errorf("decode stake proof: %w", err)
	}
	work, err := decodeWorkProof(bytes.NewReader(workRaw))
	if err != nil {
		return fmt.Errorf("decode work proof: %w", err)
	}
	tm, err := decodeTimeProof(bytes.NewReader(timeRaw))
	if err != nil {
		return fmt.Errorf("decode time proof: %w", err)
	}

	c.Space, c.Stake, c.Work, c.Time = space, stake, work, tm
	return nil
}
