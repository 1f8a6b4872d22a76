package core

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"net"
)

// ProxyAddress is the NAT-like virtual address assigned to an asset for
// remote access (spec §3.5): a 128-bit network prefix identifying the
// allocating mesh segment, a 64-bit node id identifying the proxy node, a
// port within that node's pool, and an opaque access token.
type ProxyAddress struct {
	NetworkPrefix [16]byte
	NodeID        uint64
	Port          uint16
	AccessToken   []byte
}

// String renders the address in the mesh's canonical textual form,
// hypermesh://<network-hex>:<node-hex>:<port> (SPEC_FULL §3.5); the access
// token is never included since it is a secret, not an address component.
func (p ProxyAddress) String() string {
	return fmt.Sprintf("hypermesh://%s:%016x:%d", hex.EncodeToString(p.NetworkPrefix[:]), p.NodeID, p.Port)
}

// SocketAddress projects the proxy address onto an IPv6 address for use on
// real transports: the network prefix occupies the high 64 bits, the node
// id occupies the low 64 bits, and the proxy's allocated port is used
// directly (SPEC_FULL §4.5.1).
func (p ProxyAddress) SocketAddress() *net.TCPAddr {
	var ip [16]byte
	copy(ip[:8], p.NetworkPrefix[:8])
	binary.BigEndian.PutUint64(ip[8:], p.NodeID)
	return &net.TCPAddr{IP: net.IP(ip[:]), Port: int(p.Port)}
}

// Equal compares two addresses by their routable components, ignoring the
// access token (two tokens for the same route are never compared for
// routing decisions).
func (p ProxyAddress) Equal(o ProxyAddress) bool {
	return p.NetworkPrefix == o.NetworkPrefix && p.NodeID == o.NodeID && p.Port == o.Port
}
