package core

import (
	"encoding/binary"
	"fmt"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// GPUDevice, StorageDevice, CPUInfo and MemoryInfo mirror the shapes the OS
// abstraction's detection calls return (spec §6.2).
type GPUDevice struct {
	Model            string
	MemoryBytes      uint64
	AvailableBytes   uint64
	PCIAddress       string
	ComputeCapability string
}

type StorageDevice struct {
	Device         string
	MountPoint     string
	Filesystem     string
	TotalBytes     uint64
	AvailableBytes uint64
	StorageType    string
}

type CPUInfo struct {
	Model        string
	TotalCores   uint32
	AvailableCores uint32
}

type MemoryInfo struct {
	TotalBytes     uint64
	AvailableBytes uint64
}

// DeviceProbe is the read-only OS abstraction consumed by resource
// adapters (spec §6.2). Failure is non-fatal: adapters fall back to a
// deterministic simulated configuration (SPEC_FULL §4.3).
type DeviceProbe interface {
	DetectGPU() ([]GPUDevice, error)
	DetectStorage() ([]StorageDevice, error)
	DetectCPU() (CPUInfo, error)
	DetectMemory() (MemoryInfo, error)
}

// NodeInfo is the data a TrustAnchor validates a node's certificate against.
type NodeInfo struct {
	NodeID      string
	Certificate []byte
}

// TrustAnchor is consumed to validate a node's certificate (spec §6.2); it
// is an external collaborator and is referenced here by interface only.
type TrustAnchor interface {
	ValidateNodeCertificate(info NodeInfo) (bool, error)
}

// CertificateStore is opaque to this layer; it is consumed only to derive
// an owner_certificate_fingerprint on registration (spec §6.2).
type CertificateStore interface {
	Fingerprint(ownerID string) ([]byte, error)
}

//---------------------------------------------------------------------
// Deterministic simulated fallbacks.
//---------------------------------------------------------------------

// SimulatedDeviceProbe synthesizes a reproducible device inventory seeded
// from a node id, standing in for real hardware enumeration when none is
// available (spec §6.2: "adapters fall back to a deterministic simulated
// configuration").
type SimulatedDeviceProbe struct {
	NodeID    string
	GPUCount  int
	DiskCount int
}

func (s *SimulatedDeviceProbe) seed(salt string) uint64 {
	h := ethcrypto.Keccak256([]byte(s.NodeID + ":" + salt))
	return binary.BigEndian.Uint64(h[:8])
}

func (s *SimulatedDeviceProbe) DetectGPU() ([]GPUDevice, error) {
	n := s.GPUCount
	if n == 0 {
		n = 2
	}
	out := make([]GPUDevice, 0, n)
	for i := 0; i < n; i++ {
		seed := s.seed(fmt.Sprintf("gpu-%d", i))
		mem := 8*1024*1024*1024 + (seed%4)*4*1024*1024*1024
		out = append(out, GPUDevice{
			Model:             "simulated-gpu",
			MemoryBytes:       mem,
			AvailableBytes:    mem,
			PCIAddress:        fmt.Sprintf("0000:%02x:00.0", i),
			ComputeCapability: "7.5",
		})
	}
	return out, nil
}

func (s *SimulatedDeviceProbe) DetectStorage() ([]StorageDevice, error) {
	n := s.DiskCount
	if n == 0 {
		n = 2
	}
	out := make([]StorageDevice, 0, n)
	for i := 0; i < n; i++ {
		seed := s.seed(fmt.Sprintf("disk-%d", i))
		total := 256*1024*1024*1024 + (seed%8)*128*1024*1024*1024
		out = append(out, StorageDevice{
			Device:         fmt.Sprintf("sim-disk-%d", i),
			MountPoint:     fmt.Sprintf("/mnt/sim%d", i),
			Filesystem:     "simfs",
			TotalBytes:     total,
			AvailableBytes: total,
			StorageType:    "ssd",
		})
	}
	return out, nil
}

func (s *SimulatedDeviceProbe) DetectCPU() (CPUInfo, error) {
	seed := s.seed("cpu")
	cores := uint32(4 + seed%28)
	return CPUInfo{Model: "simulated-cpu", TotalCores: cores, AvailableCores: cores}, nil
}

func (s *SimulatedDeviceProbe) DetectMemory() (MemoryInfo, error) {
	seed := s.seed("mem")
	total := 16*1024*1024*1024 + (seed%8)*16*1024*1024*1024
	return MemoryInfo{TotalBytes: total, AvailableBytes: total}, nil
}

// AlwaysTrustAnchor is a permissive TrustAnchor used when no real trust
// store is wired in (development/test default).
type AlwaysTrustAnchor struct{}

func (AlwaysTrustAnchor) ValidateNodeCertificate(NodeInfo) (bool, error) { return true, nil }

// HashCertificateStore derives a fingerprint by hashing the owner id; it
// stands in for a real certificate authority lookup.
type HashCertificateStore struct{}

func (HashCertificateStore) Fingerprint(ownerID string) ([]byte, error) {
	h := ethcrypto.Keccak256([]byte(ownerID))
	return h, nil
}
