package platform

import (
	"errors"
	"net"
	"net/netip"
	"os"
	"time"
)

// defaultReadPoll bounds how long a single Receive call blocks. The engine
// owns the overall wait budget, so each read returns control to it quickly.
const defaultReadPoll = 50 * time.Millisecond

// UDPTransport is a connectionless UDP transport on an ephemeral local port.
// A read that sees no data within the poll interval reports (0, nil) so the
// engine can keep its own timeout accounting.
type UDPTransport struct {
	conn     *net.UDPConn
	readPoll time.Duration
}

// NewUDPTransport opens an IPv4 UDP socket on a system-chosen port.
func NewUDPTransport() (*UDPTransport, error) {
	conn, err := net.ListenUDP("udp4", nil)
	if err != nil {
		return nil, err
	}
	return &UDPTransport{conn: conn, readPoll: defaultReadPoll}, nil
}

func (t *UDPTransport) Send(addr netip.AddrPort, b []byte) (int, error) {
	return t.conn.WriteToUDPAddrPort(b, addr)
}

func (t *UDPTransport) Receive(addr netip.AddrPort, b []byte) (int, error) {
	if err := t.conn.SetReadDeadline(time.Now().Add(t.readPoll)); err != nil {
		return 0, err
	}
	n, from, err := t.conn.ReadFromUDPAddrPort(b)
	if err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return 0, nil
		}
		return 0, err
	}
	// Datagrams from anyone but the queried server are dropped, not errors.
	if from.Addr().Unmap() != addr.Addr().Unmap() {
		return 0, nil
	}
	return n, nil
}

func (t *UDPTransport) Close() error {
	return t.conn.Close()
}
