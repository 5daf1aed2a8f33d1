package platform

import (
	"time"

	"github.com/sntpal/sntpal/internal/system/adjtime"
	"github.com/sntpal/sntpal/internal/system/settimeofday"
	"github.com/sntpal/sntpal/pkg/sntp"
	"golang.org/x/sys/unix"
)

// DefaultStepThreshold separates corrections the kernel can slew from those
// that need a hard step, following the ntpd convention.
const DefaultStepThreshold = 128 * time.Millisecond

// UnixClock reads CLOCK_REALTIME and corrects it with adjtime below the step
// threshold and settimeofday above it. Corrections need the privileges the
// kernel demands for those calls.
type UnixClock struct {
	// StepThreshold overrides DefaultStepThreshold when positive.
	StepThreshold time.Duration
}

func (c *UnixClock) Now() (sntp.Timestamp, error) {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_REALTIME, &ts); err != nil {
		return sntp.Timestamp{}, err
	}
	return sntp.TimestampFromUnix(int64(ts.Sec), int64(ts.Nsec)/1000)
}

func (c *UnixClock) Adjust(server string, serverTime sntp.Timestamp, offset time.Duration) error {
	threshold := c.StepThreshold
	if threshold <= 0 {
		threshold = DefaultStepThreshold
	}
	if offset >= threshold || offset <= -threshold {
		return c.step(offset)
	}
	return slew(offset)
}

func (c *UnixClock) step(offset time.Duration) error {
	now, err := c.Now()
	if err != nil {
		return err
	}
	target := now.Time().Add(offset)
	return settimeofday.Settimeofday(target.Unix(), int32(target.Nanosecond()/1000))
}

func slew(offset time.Duration) error {
	sec, usec := splitOffset(offset)
	return adjtime.Adjtime(sec, usec)
}

// splitOffset converts a signed duration into the seconds/microseconds pair
// the timeval-based syscalls take, with the microseconds made non-negative.
func splitOffset(offset time.Duration) (int64, int32) {
	sec := int64(offset / time.Second)
	usec := int32((offset % time.Second) / time.Microsecond)
	for usec < 0 {
		sec -= 1
		usec += 1e6
	}
	return sec, usec
}
