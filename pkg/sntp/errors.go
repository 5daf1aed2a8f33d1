package sntp

import "errors"

// Every failure an operation can report is distinguishable with errors.Is so
// callers can log and react to the exact rejection reason. Conditions that
// already advanced the server rotation say so in their documentation.
var (
	// ErrBadParameter reports invalid initialization input or an operation
	// invoked on an uninitialized context.
	ErrBadParameter = errors.New("bad parameter")

	// ErrBufferTooSmall reports a network buffer that cannot hold the
	// required packet size, including any authentication extension.
	ErrBufferTooSmall = errors.New("buffer too small")

	// ErrTimeNotSupported reports a time value outside the convertible
	// range, such as a Unix time before the NTP epoch.
	ErrTimeNotSupported = errors.New("time not representable")

	// ErrDNSFailure reports that the current server's hostname could not be
	// resolved. The engine has rotated to the next server.
	ErrDNSFailure = errors.New("dns resolution failed")

	// ErrNetworkFailure reports a fatal transport error for this cycle.
	ErrNetworkFailure = errors.New("network send/receive failed")

	// ErrNetworkRetryable reports that the transport made no progress for
	// the whole configured attempt budget.
	ErrNetworkRetryable = errors.New("network operation made no progress")

	// ErrResponseTimeout reports that no complete response arrived within
	// the caller's block time. The engine has rotated to the next server.
	ErrResponseTimeout = errors.New("timed out waiting for server response")

	// ErrMalformedResponse reports a length, version or mode mismatch.
	ErrMalformedResponse = errors.New("malformed server response")

	// ErrReplayOrStaleResponse reports an origin timestamp that does not
	// match the last request's transmit timestamp bit-for-bit.
	ErrReplayOrStaleResponse = errors.New("replayed or stale server response")

	// ErrKissOfDeathRetry reports a stratum-0 RATE reply: keep the same
	// server but back off before polling again.
	ErrKissOfDeathRetry = errors.New("kiss-of-death: reduce polling rate")

	// ErrKissOfDeathRejected reports a stratum-0 DENY/RSTR or unrecognized
	// code: the server refuses service. The engine has rotated.
	ErrKissOfDeathRejected = errors.New("kiss-of-death: server refused service")

	// ErrAuthGeneration reports that the authentication hook failed to
	// produce a client authentication code.
	ErrAuthGeneration = errors.New("client authentication code generation failed")

	// ErrServerNotAuthenticated reports a response that failed the
	// authentication validator. It is never used to correct the clock,
	// regardless of any timestamp checks that passed.
	ErrServerNotAuthenticated = errors.New("server not authenticated")

	// ErrClockOffsetOverflow reports an authentic response whose offset or
	// delay cannot be represented; distinct from a validation rejection.
	ErrClockOffsetOverflow = errors.New("clock offset arithmetic overflow")

	// ErrClockFailure reports a get-time or set-time hook failure.
	ErrClockFailure = errors.New("system clock read/write failed")

	// ErrAllServersExhausted is joined onto the rejection that completed a
	// full rotation through the server list without a single success.
	ErrAllServersExhausted = errors.New("all configured servers exhausted")
)
