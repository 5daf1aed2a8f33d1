package sntp

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestampUnixRoundTrip(t *testing.T) {
	seconds := []int64{0, 1, 1_000_000, UnixEraOffset - 1, UnixEraOffset, 1_700_000_000, EraLength - UnixEraOffset - 1}
	micros := []int64{0, 1, 2, 499_999, 500_000, 500_001, 999_998, 999_999}

	for _, sec := range seconds {
		for _, usec := range micros {
			ts, err := TimestampFromUnix(sec, usec)
			require.NoError(t, err)

			gotSec, gotUsec := ts.UnixTime()
			assert.Equal(t, sec, gotSec, "seconds for %d.%06d", sec, usec)
			assert.Equal(t, usec, gotUsec, "microseconds for %d.%06d", sec, usec)
		}
	}
}

func TestTimestampFromUnixRejectsUnrepresentable(t *testing.T) {
	_, err := TimestampFromUnix(-UnixEraOffset-1, 0)
	assert.ErrorIs(t, err, ErrTimeNotSupported, "before the NTP epoch")

	_, err = TimestampFromUnix(0, -1)
	assert.ErrorIs(t, err, ErrTimeNotSupported)

	_, err = TimestampFromUnix(0, 1_000_000)
	assert.ErrorIs(t, err, ErrTimeNotSupported)

	_, err = TimestampFromUnix(-UnixEraOffset, 0)
	assert.NoError(t, err, "the NTP epoch itself is representable")
}

func TestTimestampUnixTimeRoundsIntoNextSecond(t *testing.T) {
	// The largest fraction is closer to the next second than to 999999us.
	ts := Timestamp{Seconds: uint32(UnixEraOffset) + 10, Fraction: math.MaxUint32}

	sec, usec := ts.UnixTime()
	assert.Equal(t, int64(11), sec)
	assert.Zero(t, usec)
}

func TestTimestampCompareModularRollover(t *testing.T) {
	justAfter := Timestamp{Seconds: 0}
	justBefore := Timestamp{Seconds: math.MaxUint32, Fraction: math.MaxUint32}

	// One tick past the 2036 rollover orders after the tick before it.
	assert.Equal(t, 1, justAfter.Compare(justBefore))
	assert.Equal(t, -1, justBefore.Compare(justAfter))
}

func TestTimestampCompare(t *testing.T) {
	base := Timestamp{Seconds: 100, Fraction: 50}

	assert.Equal(t, 0, base.Compare(base))
	assert.Equal(t, 1, base.Compare(Timestamp{Seconds: 99, Fraction: 50}))
	assert.Equal(t, -1, base.Compare(Timestamp{Seconds: 101, Fraction: 50}))
	assert.Equal(t, 1, base.Compare(Timestamp{Seconds: 100, Fraction: 49}))
	assert.Equal(t, -1, base.Compare(Timestamp{Seconds: 100, Fraction: 51}))
}

func TestTimestampDifference(t *testing.T) {
	a := Timestamp{Seconds: 10, Fraction: 0}
	b := Timestamp{Seconds: 8, Fraction: 1 << 31}

	d, err := timestampDifference(a, b)
	require.NoError(t, err)
	assert.Equal(t, int64(1)<<32+int64(1)<<31, d, "1.5 seconds")

	d, err = timestampDifference(b, a)
	require.NoError(t, err)
	assert.Equal(t, -(int64(1)<<32 + int64(1)<<31), d)
}

func TestTimestampDifferenceAcrossRollover(t *testing.T) {
	after := Timestamp{Seconds: 1, Fraction: 0}
	before := Timestamp{Seconds: math.MaxUint32, Fraction: 0}

	d, err := timestampDifference(after, before)
	require.NoError(t, err)
	assert.Equal(t, int64(2)<<32, d, "two seconds across the era boundary")
}

func TestTimestampDifferenceOverflow(t *testing.T) {
	a := Timestamp{Seconds: 1 << 31}
	b := Timestamp{Seconds: 0}

	_, err := timestampDifference(a, b)
	assert.ErrorIs(t, err, ErrClockOffsetOverflow, "half an era apart has no recoverable sign")
}

func TestFixedToDuration(t *testing.T) {
	assert.Equal(t, time.Second, fixedToDuration(1<<32))
	assert.Equal(t, 500*time.Millisecond, fixedToDuration(1<<31))
	assert.Equal(t, -500*time.Millisecond, fixedToDuration(-(1 << 31)))
	assert.Equal(t, -time.Second, fixedToDuration(-(1 << 32)))
	assert.Equal(t, time.Duration(0), fixedToDuration(0))
}

func TestTimestampTime(t *testing.T) {
	ts, err := TimestampFromUnix(1_700_000_000, 250_000)
	require.NoError(t, err)

	got := ts.Time()
	assert.Equal(t, int64(1_700_000_000), got.Unix())
	assert.Equal(t, 250_000_000, got.Nanosecond())
}

func TestTimestampIsZero(t *testing.T) {
	assert.True(t, Timestamp{}.IsZero())
	assert.False(t, Timestamp{Fraction: 1}.IsZero())
}
