package adjtime

import (
	"golang.org/x/sys/unix"
)

// Adjtime slews the system clock by the given amount without stepping it.
func Adjtime(sec int64, usec int32) error {
	timeVal := unix.Timeval{
		Sec:  sec,
		Usec: usec,
	}
	return unix.Adjtime(&timeVal, nil)
}
