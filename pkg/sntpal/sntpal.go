// Package sntpal drives the SNTP client engine against real servers: a
// polling daemon that keeps the system clock corrected, and a one-shot query
// mode that measures a server without touching the clock.
package sntpal

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/sntpal/sntpal/internal/config"
	"github.com/sntpal/sntpal/pkg/platform"
	"github.com/sntpal/sntpal/pkg/sntp"
)

const (
	// receiveTimeout is the per-exchange wait budget handed to the engine.
	receiveTimeout = 5 * time.Second

	// maxPollInterval caps the backoff applied after RATE kiss-of-death
	// responses.
	maxPollInterval = 1024 * time.Second
)

// System owns the engine context, the platform hooks and the poll schedule.
type System struct {
	cfg *config.Config
	log zerolog.Logger

	ctx       *sntp.Context
	transport *platform.UDPTransport
	clock     *platform.UnixClock
	buf       []byte

	// ProgressMeasured receives one signal per completed query exchange so a
	// UI can track progress.
	ProgressMeasured chan struct{}
}

func NewSystem(cfg *config.Config, log zerolog.Logger) *System {
	return &System{
		cfg:              cfg,
		log:              log,
		ProgressMeasured: make(chan struct{}, 16),
	}
}

func (s *System) init(servers []sntp.ServerInfo, clock sntp.SystemClock) error {
	transport, err := platform.NewUDPTransport()
	if err != nil {
		return fmt.Errorf("opening udp socket: %w", err)
	}
	s.transport = transport
	s.buf = make([]byte, sntp.PacketBaseSize)
	s.ctx = new(sntp.Context)
	if err := s.ctx.Init(servers, s.buf, platform.NetResolver{}, clock, transport, nil); err != nil {
		transport.Close()
		return err
	}
	return nil
}

// Start polls the configured servers forever, correcting the clock after
// each accepted response. It returns only on setup failure.
func (s *System) Start() error {
	s.clock = &platform.UnixClock{StepThreshold: s.cfg.StepThreshold}
	if err := s.init(s.cfg.Servers, s.clock); err != nil {
		return err
	}
	defer s.transport.Close()

	interval := s.cfg.PollInterval
	for {
		interval = s.pollOnce(interval)
		time.Sleep(interval)
	}
}

// pollOnce runs one request/response exchange and returns the pause before
// the next one.
func (s *System) pollOnce(interval time.Duration) time.Duration {
	server := s.ctx.CurrentServer()
	if err := s.ctx.SendTimeRequest(); err != nil {
		s.log.Warn().Err(err).Str("server", server.Name).Msg("request not sent")
		return interval
	}

	outcome, err := s.ctx.ReceiveTimeResponse(receiveTimeout)
	switch {
	case err == nil:
		level := zerolog.InfoLevel
		if outcome.Leap == sntp.LeapNoSync {
			level = zerolog.WarnLevel
		}
		s.log.WithLevel(level).
			Str("server", server.Name).
			Dur("offset", outcome.ClockOffset).
			Dur("delay", outcome.RoundTripDelay).
			Time("server_time", outcome.ServerTime.Time()).
			Bool("applied", outcome.Leap != sntp.LeapNoSync).
			Msg("poll complete")
		return s.cfg.PollInterval

	case errors.Is(err, sntp.ErrKissOfDeathRetry):
		backoff := interval * 2
		if backoff > maxPollInterval {
			backoff = maxPollInterval
		}
		s.log.Warn().Str("server", server.Name).Dur("backoff", backoff).
			Msg("server asked to slow down")
		return backoff

	case errors.Is(err, sntp.ErrAllServersExhausted):
		s.log.Error().Err(err).Msg("every configured server failed this cycle")
		return interval

	default:
		s.log.Warn().Err(err).Str("server", server.Name).
			Str("next", s.ctx.CurrentServer().Name).
			Msg("response rejected")
		return interval
	}
}

// QueryResult is the best sample of a query run.
type QueryResult struct {
	Offset time.Duration
	Delay  time.Duration
	// Samples is how many exchanges completed out of those requested.
	Samples int
}

// Query measures address `messages` times and returns the sample with the
// lowest round-trip delay. The system clock is read but never adjusted.
func (s *System) Query(address string, messages int) (QueryResult, error) {
	if messages < 1 {
		return QueryResult{}, sntp.ErrBadParameter
	}

	clock := readOnlyClock{inner: &platform.UnixClock{}}
	if err := s.init([]sntp.ServerInfo{{Name: address}}, clock); err != nil {
		return QueryResult{}, err
	}
	defer s.transport.Close()

	var best QueryResult
	var lastErr error
	for i := 0; i < messages; i++ {
		outcome, err := s.exchange()
		if err != nil {
			lastErr = err
			if errors.Is(err, sntp.ErrKissOfDeathRetry) || errors.Is(err, sntp.ErrKissOfDeathRejected) {
				break // the server told us to go away
			}
			continue
		}

		s.signalProgress()
		if best.Samples == 0 || outcome.RoundTripDelay < best.Delay {
			best.Offset = outcome.ClockOffset
			best.Delay = outcome.RoundTripDelay
		}
		best.Samples++
	}

	if best.Samples == 0 {
		if lastErr == nil {
			lastErr = sntp.ErrResponseTimeout
		}
		return QueryResult{}, fmt.Errorf("querying %s: %w", address, lastErr)
	}
	return best, nil
}

func (s *System) exchange() (sntp.ResponseOutcome, error) {
	if err := s.ctx.SendTimeRequest(); err != nil {
		return sntp.ResponseOutcome{}, err
	}
	return s.ctx.ReceiveTimeResponse(receiveTimeout)
}

func (s *System) signalProgress() {
	select {
	case s.ProgressMeasured <- struct{}{}:
	default:
	}
}

// readOnlyClock reads the real clock but swallows corrections, for query
// mode.
type readOnlyClock struct {
	inner *platform.UnixClock
}

func (c readOnlyClock) Now() (sntp.Timestamp, error) {
	return c.inner.Now()
}

func (c readOnlyClock) Adjust(string, sntp.Timestamp, time.Duration) error {
	return nil
}
