//go:build aix || dragonfly || freebsd || (js && wasm) || linux || nacl || netbsd || openbsd || solaris

package adjtime

import (
	"golang.org/x/sys/unix"
)

// Adjtime slews the system clock by the given amount without stepping it.
func Adjtime(sec int64, usec int32) error {
	timeVal := unix.Timeval{
		Sec:  sec,
		Usec: int64(usec),
	}
	buf := &unix.Timex{
		Time:  timeVal,
		Modes: unix.ADJ_SETOFFSET,
	}
	_, err := unix.Adjtimex(buf)
	return err
}
