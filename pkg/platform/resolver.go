// Package platform provides ready-made hook implementations backed by the
// host network stack and system clock. Embedded or test environments supply
// their own hooks instead.
package platform

import (
	"fmt"
	"net"
	"net/netip"
)

// NetResolver resolves hostnames through the system resolver, IPv4 only.
type NetResolver struct{}

func (NetResolver) Resolve(host string) (netip.Addr, error) {
	ipAddr, err := net.ResolveIPAddr("ip4", host)
	if err != nil {
		return netip.Addr{}, err
	}
	addr, ok := netip.AddrFromSlice(ipAddr.IP.To4())
	if !ok {
		return netip.Addr{}, fmt.Errorf("no IPv4 address for %q", host)
	}
	return addr, nil
}
