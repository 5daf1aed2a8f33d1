package sntp

import (
	"encoding/binary"
	"fmt"
	"time"
)

const (
	// PacketBaseSize is the fixed SNTP/NTP header length; an authentication
	// extension, if configured, follows immediately after.
	PacketBaseSize = 48

	// DefaultServerPort is the UDP port assigned to NTP.
	DefaultServerPort uint16 = 123

	versionNumber     = 4
	fallbackVersion   = 3 // accepted in responses for NTPv3 interoperability
	kissOfDeathStratum = 0
)

// LeapIndicator is the two-bit warning field of the packet header.
type LeapIndicator byte

const (
	LeapNoWarning LeapIndicator = iota
	LeapLastMinute61
	LeapLastMinute59
	// LeapNoSync marks a server whose own clock is not synchronized. Such a
	// response parses successfully but must not drive a clock correction.
	LeapNoSync
)

// Mode is the three-bit association mode field.
type Mode byte

const (
	ModeReserved Mode = iota
	ModeSymmetricActive
	ModeSymmetricPassive
	ModeClient
	ModeServer
	ModeBroadcast
)

// ResponseOutcome is the validated result of one request/response exchange.
type ResponseOutcome struct {
	// ServerTime is the server's transmit timestamp.
	ServerTime Timestamp
	// ClockOffset estimates how far the local clock is from the server's;
	// positive means the local clock is behind.
	ClockOffset time.Duration
	// RoundTripDelay estimates the network transit time under the
	// symmetric-path assumption.
	RoundTripDelay time.Duration
	// Leap carries the server's leap indicator. LeapNoSync means the
	// measurement is visible but was not applied to the clock.
	Leap LeapIndicator
}

// responseFields is the decoded base header of a server reply.
type responseFields struct {
	leap      LeapIndicator
	version   byte
	mode      Mode
	stratum   byte
	poll      int8
	precision int8
	rootDelay uint32
	rootDisp  uint32
	refID     [4]byte
	reference Timestamp
	origin    Timestamp
	receive   Timestamp
	transmit  Timestamp
}

// serializeRequest writes a client request into buf: leap none, version 4,
// mode 3, every field zero except the transmit timestamp, which carries
// current and doubles as the anti-replay token. buf must hold at least
// PacketBaseSize bytes; the caller has checked.
func serializeRequest(buf []byte, current Timestamp) {
	clear(buf[:PacketBaseSize])
	buf[0] = byte(LeapNoWarning)<<6 | versionNumber<<3 | byte(ModeClient)
	putTimestamp(buf[40:], current)
}

// parseResponse decodes and validates a server reply against RFC 4330
// section 5, in order: exact length, version and mode, Kiss-of-Death
// dispatch, then the origin-timestamp anti-replay check. Each rejection is a
// distinct sentinel; offset arithmetic happens later in computeOutcome.
func parseResponse(buf []byte, expectedSize int, lastRequest Timestamp) (responseFields, error) {
	var f responseFields

	if len(buf) != expectedSize {
		return f, fmt.Errorf("got %d bytes, expected %d: %w", len(buf), expectedSize, ErrMalformedResponse)
	}

	f.leap = LeapIndicator(buf[0] >> 6)
	f.version = buf[0] >> 3 & 0b111
	f.mode = Mode(buf[0] & 0b111)
	f.stratum = buf[1]
	f.poll = int8(buf[2])
	f.precision = int8(buf[3])
	f.rootDelay = binary.BigEndian.Uint32(buf[4:])
	f.rootDisp = binary.BigEndian.Uint32(buf[8:])
	copy(f.refID[:], buf[12:16])
	f.reference = getTimestamp(buf[16:])
	f.origin = getTimestamp(buf[24:])
	f.receive = getTimestamp(buf[32:])
	f.transmit = getTimestamp(buf[40:])

	if f.version != versionNumber && f.version != fallbackVersion {
		return f, fmt.Errorf("version %d is not a server response: %w", f.version, ErrMalformedResponse)
	}
	if f.mode != ModeServer && f.mode != ModeBroadcast {
		return f, fmt.Errorf("mode %d is not a server response: %w", f.mode, ErrMalformedResponse)
	}

	if f.stratum == kissOfDeathStratum {
		// The reference identifier carries a 4-character ASCII code. RATE
		// asks for a slower poll on the same server; DENY and RSTR end
		// service permanently, as does anything unrecognized.
		code := string(f.refID[:])
		if code == "RATE" {
			return f, fmt.Errorf("code %q: %w", code, ErrKissOfDeathRetry)
		}
		return f, fmt.Errorf("code %q: %w", code, ErrKissOfDeathRejected)
	}

	if f.origin != lastRequest {
		return f, fmt.Errorf("origin timestamp does not echo the request: %w", ErrReplayOrStaleResponse)
	}

	return f, nil
}

// computeOutcome derives round-trip delay and clock offset from the four
// protocol timestamps: T1 request transmit (origin), T2 server receive, T3
// server transmit, T4 local receive time. An unrepresentable result reports
// ErrClockOffsetOverflow, distinct from any validation rejection.
func computeOutcome(f responseFields, recvTime Timestamp) (ResponseOutcome, error) {
	outbound, err := timestampDifference(f.receive, f.origin) // T2 - T1
	if err != nil {
		return ResponseOutcome{}, err
	}
	inbound, err := timestampDifference(f.transmit, recvTime) // T3 - T4
	if err != nil {
		return ResponseOutcome{}, err
	}
	turnaround, err := timestampDifference(f.transmit, f.receive) // T3 - T2
	if err != nil {
		return ResponseOutcome{}, err
	}
	total, err := timestampDifference(recvTime, f.origin) // T4 - T1
	if err != nil {
		return ResponseOutcome{}, err
	}

	offset, ok := addFixed(outbound, inbound)
	if !ok {
		return ResponseOutcome{}, ErrClockOffsetOverflow
	}
	delay, ok := addFixed(total, -turnaround)
	if !ok {
		return ResponseOutcome{}, ErrClockOffsetOverflow
	}

	return ResponseOutcome{
		ServerTime:     f.transmit,
		ClockOffset:    fixedToDuration(offset / 2),
		RoundTripDelay: fixedToDuration(delay),
		Leap:           f.leap,
	}, nil
}

// addFixed adds two signed 32.32 values, reporting rather than wrapping on
// overflow.
func addFixed(a, b int64) (int64, bool) {
	sum := a + b
	if (a > 0 && b > 0 && sum < 0) || (a < 0 && b < 0 && sum >= 0) {
		return 0, false
	}
	return sum, true
}

func putTimestamp(b []byte, t Timestamp) {
	binary.BigEndian.PutUint32(b, t.Seconds)
	binary.BigEndian.PutUint32(b[4:], t.Fraction)
}

func getTimestamp(b []byte) Timestamp {
	return Timestamp{
		Seconds:  binary.BigEndian.Uint32(b),
		Fraction: binary.BigEndian.Uint32(b[4:]),
	}
}
