package core

// PrivacyLevel is a totally ordered policy label governing peer access to a
// proxy-addressed asset. Narrower levels sort lower.
type PrivacyLevel int

const (
	Private PrivacyLevel = iota
	PrivateNetwork
	P2P
	PublicNetwork
	FullPublic
)

func (l PrivacyLevel) String() string {
	switch l {
	case Private:
		return "Private"
	case PrivateNetwork:
		return "PrivateNetwork"
	case P2P:
		return "P2P"
	case PublicNetwork:
		return "PublicNetwork"
	case FullPublic:
		return "FullPublic"
	default:
		return "Unknown"
	}
}

// RewardMultiplier returns the effective reward multiplier associated with a
// privacy level, in [0.0, 1.0]. Wider sharing carries a higher multiplier;
// full reward accounting itself is peripheral (see spec Non-goals) but the
// scalar is part of the privacy-level contract.
func (l PrivacyLevel) RewardMultiplier() float64 {
	switch l {
	case Private:
		return 0.0
	case PrivateNetwork:
		return 0.25
	case P2P:
		return 0.5
	case PublicNetwork:
		return 0.75
	case FullPublic:
		return 1.0
	default:
		return 0.0
	}
}

// AllowsAccessFrom reports whether a request originating at level `from` may
// access a resource protected at level `l`. A request at level L is
// accessible from peers at any level >= L (spec invariant 7).
func (l PrivacyLevel) AllowsAccessFrom(from PrivacyLevel) bool {
	return from >= l
}

// Protocol identifies one of the six forwarding protocols gated by the
// privacy -> permission matrix (spec §4.5.a).
type Protocol int

const (
	ProtocolHTTP Protocol = iota
	ProtocolSOCKS5
	ProtocolTCPForward
	ProtocolVPN
	ProtocolDirectMemory
	ProtocolShardedData
)

func (p Protocol) String() string {
	switch p {
	case ProtocolHTTP:
		return "HTTP"
	case ProtocolSOCKS5:
		return "SOCKS5"
	case ProtocolTCPForward:
		return "TCPForward"
	case ProtocolVPN:
		return "VPN"
	case ProtocolDirectMemory:
		return "DirectMemory"
	case ProtocolShardedData:
		return "ShardedData"
	default:
		return "Unknown"
	}
}

// privacyMatrix[level][protocol] mirrors spec §4.5.a verbatim.
var privacyMatrix = map[PrivacyLevel]map[Protocol]bool{
	Private: {
		ProtocolHTTP:         false,
		ProtocolSOCKS5:       false,
		ProtocolTCPForward:   false,
		ProtocolVPN:          false,
		ProtocolDirectMemory: true,
		ProtocolShardedData:  false,
	},
	PrivateNetwork: {
		ProtocolHTTP:         false,
		ProtocolSOCKS5:       false,
		ProtocolTCPForward:   true,
		ProtocolVPN:          false,
		ProtocolDirectMemory: true,
		ProtocolShardedData:  true,
	},
	P2P: {
		ProtocolHTTP:         true,
		ProtocolSOCKS5:       true,
		ProtocolTCPForward:   true,
		ProtocolVPN:          false,
		ProtocolDirectMemory: true,
		ProtocolShardedData:  true,
	},
	PublicNetwork: {
		ProtocolHTTP:         true,
		ProtocolSOCKS5:       true,
		ProtocolTCPForward:   true,
		ProtocolVPN:          true,
		ProtocolDirectMemory: true,
		ProtocolShardedData:  true,
	},
	FullPublic: {
		ProtocolHTTP:         true,
		ProtocolSOCKS5:       true,
		ProtocolTCPForward:   true,
		ProtocolVPN:          true,
		ProtocolDirectMemory: true,
		ProtocolShardedData:  true,
	},
}

// PermitsProtocol reports whether the privacy -> permission matrix allows
// the given protocol at this privacy level.
func (l PrivacyLevel) PermitsProtocol(p Protocol) bool {
	row, ok := privacyMatrix[l]
	if !ok {
		return false
	}
	return row[p]
}
