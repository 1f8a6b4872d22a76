package core

import (
	"net"

	"github.com/huin/goupnp/dcps/internetgateway1"
	"github.com/jackpal/gateway"
	natpmp "github.com/jackpal/go-nat-pmp"
)

// GatewayDiscoverer learns the node's externally reachable address via
// NAT-PMP or UPnP, adapted from the teacher's NATManager to feed proxy
// manager construction instead of libp2p transport addresses
// (SPEC_FULL §4.5.2).
type GatewayDiscoverer struct {
	pmp  *natpmp.Client
	upnp *internetgateway1.WANIPConnection1
	ip   net.IP
}

// Discover probes for a gateway via NAT-PMP first, then UPnP. It returns
// a non-nil error only when neither responds; callers are expected to
// fall back to a deterministic simulated prefix in that case (SPEC_FULL
// §4.5.2 — "typical off a real LAN").
func Discover() (*GatewayDiscoverer, error) {
	d := &GatewayDiscoverer{}
	if gw, err := gateway.DiscoverGateway(); err == nil {
		d.pmp = natpmp.NewClient(gw)
		if res, err := d.pmp.GetExternalAddress(); err == nil {
			d.ip = net.IPv4(res.ExternalIPAddress[0], res.ExternalIPAddress[1], res.ExternalIPAddress[2], res.ExternalIPAddress[3])
		}
	}
	if d.ip == nil {
		if clients, _, err := internetgateway1.NewWANIPConnection1Clients(); err == nil && len(clients) > 0 {
			d.upnp = clients[0]
			if ipStr, err := d.upnp.GetExternalIPAddress(); err == nil {
				d.ip = net.ParseIP(ipStr)
			}
		}
	}
	if d.ip == nil {
		return nil, &AdapterError{Message: "gateway discovery: no responder"}
	}
	return d, nil
}

// NetworkPrefix derives a 128-bit prefix from the discovered external IP,
// zero-extending IPv4 addresses into the high bytes of the prefix.
func (d *GatewayDiscoverer) NetworkPrefix() [16]byte {
	var prefix [16]byte
	ip4 := d.ip.To4()
	if ip4 != nil {
		copy(prefix[:4], ip4)
		return prefix
	}
	ip16 := d.ip.To16()
	if ip16 != nil {
		copy(prefix[:], ip16)
	}
	return prefix
}

// Map opens the given TCP port on the discovered gateway so a forwarded
// connection can reach this node from outside the LAN.
func (d *GatewayDiscoverer) Map(port int) error {
	if d.pmp != nil {
		if _, err := d.pmp.AddPortMapping("tcp", port, port, 3600); err == nil {
			return nil
		}
	}
	if d.upnp != nil {
		if err := d.upnp.AddPortMapping("", uint16(port), "TCP", uint16(port), d.ip.String(), true, "assetmesh", 3600); err == nil {
			return nil
		}
	}
	return &AdapterError{Message: "gateway port mapping failed"}
}

// Unmap removes a previously mapped port.
func (d *GatewayDiscoverer) Unmap(port int) error {
	if d.pmp != nil {
		_, err := d.pmp.AddPortMapping("tcp", port, port, 0)
		return err
	}
	if d.upnp != nil {
		return d.upnp.DeletePortMapping("", uint16(port), "TCP")
	}
	return nil
}

// DeterministicPrefix synthesizes a reproducible 128-bit network prefix
// from a node id when no gateway could be discovered, keeping the IPv6
// socket-address projection meaningful in development and CI (SPEC_FULL
// §4.5.2).
func DeterministicPrefix(nodeID string) [16]byte {
	sim := &SimulatedDeviceProbe{NodeID: nodeID}
	seed := sim.seed("network-prefix")
	var prefix [16]byte
	prefix[0] = 0xfd // matches the IPv6 unique-local prefix convention
	for i := 1; i < 8; i++ {
		prefix[i] = byte(seed >> (8 * (i - 1)))
	}
	return prefix
}
