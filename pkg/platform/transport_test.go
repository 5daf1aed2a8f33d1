package platform

import (
	"net"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loopbackServer(t *testing.T, handle func(conn *net.UDPConn)) netip.AddrPort {
	t.Helper()
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	go handle(conn)
	return conn.LocalAddr().(*net.UDPAddr).AddrPort()
}

func TestUDPTransportRoundTrip(t *testing.T) {
	addr := loopbackServer(t, func(conn *net.UDPConn) {
		buf := make([]byte, 128)
		n, from, err := conn.ReadFromUDPAddrPort(buf)
		if err != nil {
			return
		}
		conn.WriteToUDPAddrPort(buf[:n], from)
	})

	tr, err := NewUDPTransport()
	require.NoError(t, err)
	defer tr.Close()

	request := make([]byte, 48)
	request[0] = 0x23
	n, err := tr.Send(addr, request)
	require.NoError(t, err)
	assert.Equal(t, len(request), n)

	reply := make([]byte, 48)
	received := 0
	deadline := time.Now().Add(5 * time.Second)
	for received < len(reply) {
		require.True(t, time.Now().Before(deadline), "no echo within 5s")
		n, err := tr.Receive(addr, reply[received:])
		require.NoError(t, err)
		received += n
	}
	assert.Equal(t, request, reply)
}

func TestUDPTransportReceiveNothingPending(t *testing.T) {
	addr := loopbackServer(t, func(*net.UDPConn) {}) // never answers

	tr, err := NewUDPTransport()
	require.NoError(t, err)
	defer tr.Close()

	buf := make([]byte, 48)
	n, err := tr.Receive(addr, buf)
	assert.NoError(t, err, "an empty poll window is retryable, not fatal")
	assert.Zero(t, n)
}

func TestUDPTransportDropsStrayDatagrams(t *testing.T) {
	tr, err := NewUDPTransport()
	require.NoError(t, err)
	defer tr.Close()

	port := tr.conn.LocalAddr().(*net.UDPAddr).AddrPort().Port()
	local := netip.AddrPortFrom(netip.MustParseAddr("127.0.0.1"), port)
	loopbackServer(t, func(conn *net.UDPConn) {
		conn.WriteToUDPAddrPort([]byte("not your server"), local)
	})

	// Expecting a reply from an address that never sends one; the stray
	// sender's datagram must not be attributed to it.
	expect := netip.AddrPortFrom(netip.MustParseAddr("127.0.0.2"), 123)
	buf := make([]byte, 48)
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		n, err := tr.Receive(expect, buf)
		require.NoError(t, err)
		assert.Zero(t, n)
	}
}
