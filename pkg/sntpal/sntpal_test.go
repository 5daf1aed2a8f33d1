package sntpal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sntpal/sntpal/pkg/sntp"
)

func TestReadOnlyClockNeverAdjusts(t *testing.T) {
	clock := readOnlyClock{inner: nil} // Adjust must not touch the inner clock
	assert.NoError(t, clock.Adjust("pool.ntp.org", sntp.Timestamp{}, time.Second))
}

func TestSignalProgressNeverBlocks(t *testing.T) {
	s := &System{ProgressMeasured: make(chan struct{}, 1)}

	// Nobody is draining the channel; extra signals are dropped.
	for i := 0; i < 10; i++ {
		s.signalProgress()
	}
	assert.Len(t, s.ProgressMeasured, 1)
}
