package sntp

import (
	"math"
	"time"
)

const (
	// EraLength is the span of the 32-bit NTP seconds field (2^32 seconds).
	EraLength int64 = 4_294_967_296
	// UnixEraOffset is 1970 - 1900 in seconds: the distance between the NTP
	// and Unix epochs within era 0.
	UnixEraOffset int64 = 2_208_988_800
	// FractionsPerMicrosecond approximates 2^32 / 1e6. Exported for hook
	// implementations that assemble timestamps from microsecond clocks by
	// multiplication; the library's own conversions round exactly.
	FractionsPerMicrosecond uint32 = 4295

	microsecondsPerSecond = 1_000_000
)

// Timestamp is the 64-bit fixed-point NTP time format: whole seconds since
// 1900-01-01 00:00 UTC and a 32-bit binary fraction of a second.
type Timestamp struct {
	Seconds  uint32
	Fraction uint32
}

// TimestampFromUnix converts a Unix-epoch second/microsecond pair to an NTP
// timestamp. Seconds past the 2036 era boundary wrap into era 1, matching the
// on-wire modular interpretation. Returns ErrTimeNotSupported for times
// before the NTP epoch or microseconds outside [0, 1e6).
func TimestampFromUnix(sec, usec int64) (Timestamp, error) {
	if sec < -UnixEraOffset || usec < 0 || usec >= microsecondsPerSecond {
		return Timestamp{}, ErrTimeNotSupported
	}
	return Timestamp{
		Seconds:  uint32(sec + UnixEraOffset),
		Fraction: fractionFromMicroseconds(usec),
	}, nil
}

// UnixTime converts the timestamp to a Unix-epoch second/microsecond pair.
// Raw seconds at or above UnixEraOffset are interpreted as era 0 (1970-2036);
// smaller values as era 1 (2036-2106), per RFC 4330 section 3.
func (t Timestamp) UnixTime() (sec, usec int64) {
	sec = int64(t.Seconds) - UnixEraOffset
	if sec < 0 {
		sec += EraLength
	}
	usec = microsecondsFromFraction(t.Fraction)
	// A fraction within half a microsecond of the next second rounds into it.
	if usec == microsecondsPerSecond {
		sec++
		usec = 0
	}
	return sec, usec
}

// Time converts the timestamp to a time.Time under the same era rules as
// UnixTime.
func (t Timestamp) Time() time.Time {
	sec, usec := t.UnixTime()
	return time.Unix(sec, usec*1e3)
}

// IsZero reports whether both fields are zero. A zero transmit timestamp in a
// request marks "no request outstanding"; a zero origin timestamp in a
// response can never match a real anti-replay token.
func (t Timestamp) IsZero() bool {
	return t.Seconds == 0 && t.Fraction == 0
}

// Compare orders two timestamps treating the seconds field as a modular
// clock: the pair is ordered by the shorter distance around the 32-bit
// circle, so a timestamp just past the 2036 rollover compares greater than
// one just before it. Returns -1, 0 or 1.
func (t Timestamp) Compare(other Timestamp) int {
	if d := int32(t.Seconds - other.Seconds); d != 0 {
		if d > 0 {
			return 1
		}
		return -1
	}
	switch {
	case t.Fraction > other.Fraction:
		return 1
	case t.Fraction < other.Fraction:
		return -1
	}
	return 0
}

// timestampDifference returns a-b as a signed 32.32 fixed-point value, using
// the first-order modular difference of the seconds fields. When the two
// timestamps sit exactly half an era apart the sign of the difference is
// unrecoverable and ErrClockOffsetOverflow is returned.
func timestampDifference(a, b Timestamp) (int64, error) {
	secs := int32(a.Seconds - b.Seconds)
	if secs == math.MinInt32 {
		return 0, ErrClockOffsetOverflow
	}
	return int64(secs)<<32 + (int64(a.Fraction) - int64(b.Fraction)), nil
}

// fixedToDuration converts a signed 32.32 fixed-point second count to a
// time.Duration, truncating below nanosecond resolution.
func fixedToDuration(f int64) time.Duration {
	sec := f >> 32
	frac := uint64(f - sec<<32)
	return time.Duration(sec)*time.Second + time.Duration(frac*1e9>>32)
}

// The fraction conversions round half up in both directions so that a
// microsecond value survives a round trip exactly; the multiplicative
// FractionsPerMicrosecond shortcut does not.
func fractionFromMicroseconds(usec int64) uint32 {
	return uint32((uint64(usec)<<32 + microsecondsPerSecond/2) / microsecondsPerSecond)
}

func microsecondsFromFraction(frac uint32) int64 {
	return int64((uint64(frac)*microsecondsPerSecond + 1<<31) >> 32)
}
