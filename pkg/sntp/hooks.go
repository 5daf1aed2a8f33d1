package sntp

import (
	"net/netip"
	"time"
)

// ServerInfo is one entry of the caller-owned server list, highest priority
// first. A zero Port means DefaultServerPort.
type ServerInfo struct {
	Name string
	Port uint16
}

// Resolver resolves a time server hostname to an IPv4 address. The engine
// re-resolves on every request so address changes between polls are picked
// up.
type Resolver interface {
	Resolve(host string) (netip.Addr, error)
}

// SystemClock reads and corrects the local clock.
//
// Adjust receives the server's reported time and the measured offset with a
// positive sign meaning the local clock is behind the server. Whether the
// hook steps or slews is its own business; the engine is indifferent.
type SystemClock interface {
	Now() (Timestamp, error)
	Adjust(server string, serverTime Timestamp, offset time.Duration) error
}

// Transport sends and receives UDP datagrams for the engine.
//
// Both calls return the byte count moved: the full requested count on
// success, a smaller positive count for partial progress, or (0, nil) when
// nothing could be moved right now and the call may be retried. A non-nil
// error is fatal for the current cycle. Receive must not block longer than a
// short poll slice; the engine owns the overall timeout budget.
type Transport interface {
	Send(addr netip.AddrPort, b []byte) (int, error)
	Receive(addr netip.AddrPort, b []byte) (int, error)
}

// Authenticator is the optional security hook pair. GenerateClientAuth must
// write its authentication code into buf starting exactly at buf[baseSize:]
// (the request's base packet occupies buf[:baseSize]) and return the code
// length; the code length fixes the expected response size for the whole
// context lifetime. ValidateServerAuth sees the complete response, base
// packet plus trailing authentication region.
type Authenticator interface {
	GenerateClientAuth(server string, buf []byte, baseSize int) (int, error)
	ValidateServerAuth(server string, response []byte) error
}
