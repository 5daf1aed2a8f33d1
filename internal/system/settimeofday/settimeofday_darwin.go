package settimeofday

import (
	"golang.org/x/sys/unix"
)

// Settimeofday steps the system clock to the given Unix time.
func Settimeofday(sec int64, usec int32) error {
	timeVal := unix.Timeval{
		Sec:  sec,
		Usec: usec,
	}
	return unix.Settimeofday(&timeVal)
}
