package core

import (
	"encoding/binary"
	"fmt"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
)

// AssetKind is the closed enumeration of resources the mesh manages
// uniformly (spec §3.1).
type AssetKind int

const (
	KindCPU AssetKind = iota
	KindGPU
	KindMemory
	KindStorage
	KindNetwork
	KindContainer
	KindVM
	KindService
	KindApplication
)

func (k AssetKind) String() string {
	switch k {
	case KindCPU:
		return "Cpu"
	case KindGPU:
		return "Gpu"
	case KindMemory:
		return "Memory"
	case KindStorage:
		return "Storage"
	case KindNetwork:
		return "Network"
	case KindContainer:
		return "Container"
	case KindVM:
		return "Vm"
	case KindService:
		return "Service"
	case KindApplication:
		return "Application"
	default:
		return "Unknown"
	}
}

// AssetId identifies a single managed asset: a kind, a UUID, and a
// deterministic type_hash binding the two together so that a later lookup
// can detect tampering (spec §3.1).
type AssetId struct {
	Kind     AssetKind
	UUID     uuid.UUID
	TypeHash [32]byte
}

// NewAssetId mints a fresh AssetId for the given kind, deriving TypeHash as
// Keccak256(kind_byte ‖ uuid_bytes) per SPEC_FULL §3.1.
func NewAssetId(kind AssetKind) AssetId {
	id := uuid.New()
	return AssetId{
		Kind:     kind,
		UUID:     id,
		TypeHash: computeTypeHash(kind, id),
	}
}

func computeTypeHash(kind AssetKind, id uuid.UUID) [32]byte {
	buf := make([]byte, 1+16)
	buf[0] = byte(kind)
	copy(buf[1:], id[:])
	return [32]byte(ethcrypto.Keccak256(buf))
}

// VerifyTypeHash reports whether the AssetId's TypeHash still matches its
// kind and UUID, detecting tampering in transit or storage.
func (a AssetId) VerifyTypeHash() bool {
	return computeTypeHash(a.Kind, a.UUID) == a.TypeHash
}

func (a AssetId) String() string {
	return fmt.Sprintf("%s/%s", a.Kind, a.UUID)
}

// deviceOrdinal derives a deterministic ordering key from the UUID's first
// eight bytes. Device selection does not use it; selectDevices breaks ties
// on the device id string.
func (a AssetId) deviceOrdinal() uint64 {
	return binary.BigEndian.Uint64(a.UUID[:8])
}
