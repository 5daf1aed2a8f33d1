package sntp

import (
	"errors"
	"fmt"
	"net/netip"
	"time"
)

// DefaultSendAttempts bounds how often a zero-progress transport send is
// retried before the cycle fails with ErrNetworkRetryable.
const DefaultSendAttempts = 10

// Context is the long-lived state of one SNTP client: the prioritized server
// list, the shared request/response buffer and the hook set. The caller
// allocates it, initializes it once with Init and keeps the server list and
// buffer alive for its whole lifetime; the context only borrows them and
// never allocates.
//
// A Context is not internally synchronized. SendTimeRequest and
// ReceiveTimeResponse mutate the server index, the cached address and the
// anti-replay token, so sharing a Context across goroutines needs external
// locking.
type Context struct {
	servers []ServerInfo
	current int

	buf []byte

	resolver  Resolver
	clock     SystemClock
	transport Transport
	auth      authAdapter

	resolved     netip.Addr
	lastRequest  Timestamp
	packetSize   int
	sendAttempts int

	// Consecutive rotations since the last success; when it reaches the
	// server count a full cycle failed and the caller is told.
	rotations int
}

// Init validates the arguments and prepares the context. The server list and
// buffer are stored by reference. Returns ErrBadParameter for nil or empty
// input and ErrBufferTooSmall when buf cannot hold even a base packet;
// authentication extensions need correspondingly more room.
func (c *Context) Init(servers []ServerInfo, buf []byte, resolver Resolver, clock SystemClock, transport Transport, authenticator Authenticator) error {
	if len(servers) == 0 || resolver == nil || clock == nil || transport == nil {
		return ErrBadParameter
	}
	for _, server := range servers {
		if server.Name == "" {
			return ErrBadParameter
		}
	}
	if len(buf) < PacketBaseSize {
		return ErrBufferTooSmall
	}

	*c = Context{
		servers:      servers,
		buf:          buf,
		resolver:     resolver,
		clock:        clock,
		transport:    transport,
		auth:         authAdapter{authenticator},
		sendAttempts: DefaultSendAttempts,
	}
	return nil
}

// SetSendAttempts overrides the zero-progress send retry budget.
func (c *Context) SetSendAttempts(n int) {
	if n > 0 {
		c.sendAttempts = n
	}
}

// CurrentServer returns the server the next request will be sent to.
func (c *Context) CurrentServer() ServerInfo {
	return c.servers[c.current]
}

// CurrentServerIndex returns the position of the current server in the
// configured list.
func (c *Context) CurrentServerIndex() int {
	return c.current
}

// SendTimeRequest resolves the current server, serializes a request carrying
// the current time as anti-replay token, appends the optional authentication
// code and transmits the packet. On success the expected response size and
// the token are recorded for the matching ReceiveTimeResponse call.
//
// DNS is re-resolved on every call so a server whose address changed between
// polls is still reached; a resolution failure rotates to the next server.
func (c *Context) SendTimeRequest() error {
	if c.servers == nil {
		return fmt.Errorf("context not initialized: %w", ErrBadParameter)
	}

	server := c.CurrentServer()
	addr, err := c.resolver.Resolve(server.Name)
	if err != nil {
		return c.rotateWith(fmt.Errorf("resolving %q: %w: %w", server.Name, ErrDNSFailure, err))
	}
	c.resolved = addr

	now, err := c.clock.Now()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrClockFailure, err)
	}

	serializeRequest(c.buf, now)
	authSize, err := c.auth.appendClientAuth(server.Name, c.buf)
	if err != nil {
		return err
	}
	size := PacketBaseSize + authSize

	if err := c.sendAll(serverAddrPort(addr, server), c.buf[:size]); err != nil {
		return err
	}

	c.lastRequest = now
	c.packetSize = size
	return nil
}

// ReceiveTimeResponse collects the response to the last request, validates
// it and, on success, corrects the clock through the set-time hook exactly
// once. blockTime is the engine-managed wait budget, measured through the
// get-time hook rather than trusted to the transport.
//
// A RATE Kiss-of-Death keeps the current server so the caller can back off
// and retry it; a timeout and every other rejection rotate to the next
// server, wrapping after the last. A response flagged LeapNoSync is returned
// without error but is not applied to the clock.
func (c *Context) ReceiveTimeResponse(blockTime time.Duration) (ResponseOutcome, error) {
	var outcome ResponseOutcome

	if c.servers == nil {
		return outcome, fmt.Errorf("context not initialized: %w", ErrBadParameter)
	}
	if c.packetSize == 0 {
		return outcome, fmt.Errorf("no request outstanding: %w", ErrBadParameter)
	}

	server := c.CurrentServer()
	size := c.packetSize
	token := c.lastRequest
	c.packetSize = 0 // the response, whatever it is, consumes the request
	c.lastRequest = Timestamp{}

	start, err := c.clock.Now()
	if err != nil {
		return outcome, fmt.Errorf("%w: %w", ErrClockFailure, err)
	}

	addr := serverAddrPort(c.resolved, server)
	received := 0
	for received < size {
		n, err := c.transport.Receive(addr, c.buf[received:size])
		if err != nil {
			return outcome, fmt.Errorf("udp receive from %s: %w: %w", addr, ErrNetworkFailure, err)
		}
		if n > 0 {
			// Never account past the expected packet size, however much the
			// hook claims to have written.
			if n > size-received {
				n = size - received
			}
			received += n
			continue
		}

		now, err := c.clock.Now()
		if err != nil {
			return outcome, fmt.Errorf("%w: %w", ErrClockFailure, err)
		}
		if elapsed(start, now) >= blockTime {
			return outcome, c.rotateWith(fmt.Errorf("server %q: %w", server.Name, ErrResponseTimeout))
		}
	}

	recvTime, err := c.clock.Now() // T4
	if err != nil {
		return outcome, fmt.Errorf("%w: %w", ErrClockFailure, err)
	}

	fields, err := parseResponse(c.buf[:size], size, token)
	if err != nil {
		if errors.Is(err, ErrKissOfDeathRetry) {
			return outcome, err // same server; caller backs off
		}
		return outcome, c.rotateWith(err)
	}

	if err := c.auth.validateServer(server.Name, c.buf[:size]); err != nil {
		return outcome, c.rotateWith(err)
	}

	outcome, err = computeOutcome(fields, recvTime)
	if err != nil {
		// Authentic but unrepresentable. The server answered correctly, so
		// it keeps its turn; the local clock is simply too far gone for
		// offset arithmetic.
		return ResponseOutcome{}, err
	}

	c.rotations = 0

	if outcome.Leap == LeapNoSync {
		return outcome, nil
	}
	if err := c.clock.Adjust(server.Name, outcome.ServerTime, outcome.ClockOffset); err != nil {
		return outcome, fmt.Errorf("%w: %w", ErrClockFailure, err)
	}
	return outcome, nil
}

// sendAll pushes b through the transport, tolerating partial sends and
// retrying zero-progress results up to the configured attempt budget.
func (c *Context) sendAll(addr netip.AddrPort, b []byte) error {
	sent := 0
	attempts := 0
	for sent < len(b) {
		n, err := c.transport.Send(addr, b[sent:])
		if err != nil {
			return fmt.Errorf("udp send to %s: %w: %w", addr, ErrNetworkFailure, err)
		}
		if n < 0 {
			return fmt.Errorf("udp send to %s returned %d: %w", addr, n, ErrNetworkFailure)
		}
		if n == 0 {
			attempts++
			if attempts >= c.sendAttempts {
				return fmt.Errorf("udp send to %s: %w", addr, ErrNetworkRetryable)
			}
			continue
		}
		if n > len(b)-sent {
			n = len(b) - sent
		}
		sent += n
		attempts = 0
	}
	return nil
}

// rotateWith advances to the next server round-robin, invalidates the
// in-flight request state, and joins ErrAllServersExhausted onto reason when
// this rotation completes a full unsuccessful cycle through the list.
func (c *Context) rotateWith(reason error) error {
	c.current = (c.current + 1) % len(c.servers)
	c.resolved = netip.Addr{}
	c.lastRequest = Timestamp{}
	c.packetSize = 0

	c.rotations++
	if c.rotations >= len(c.servers) {
		c.rotations = 0
		return errors.Join(reason, ErrAllServersExhausted)
	}
	return reason
}

func serverAddrPort(addr netip.Addr, server ServerInfo) netip.AddrPort {
	port := server.Port
	if port == 0 {
		port = DefaultServerPort
	}
	return netip.AddrPortFrom(addr, port)
}

// elapsed measures start-to-now through timestamp arithmetic so the engine's
// timeout accounting follows the caller's clock hook, not the host's.
func elapsed(start, now Timestamp) time.Duration {
	d, err := timestampDifference(now, start)
	if err != nil || d < 0 {
		// A clock step across the budget window; treat as expired.
		return 1<<63 - 1
	}
	return fixedToDuration(d)
}
