package sntp

import (
	"errors"
	"fmt"
)

// authAdapter isolates "authentication is optional" from the request and
// validation paths: with no Authenticator configured it appends nothing and
// accepts everything.
type authAdapter struct {
	authenticator Authenticator
}

// appendClientAuth asks the configured hook to append its authentication code
// after the base packet in buf and returns the code size, 0 when no hook is
// configured.
func (a authAdapter) appendClientAuth(server string, buf []byte) (int, error) {
	if a.authenticator == nil {
		return 0, nil
	}
	n, err := a.authenticator.GenerateClientAuth(server, buf, PacketBaseSize)
	if err != nil {
		if errors.Is(err, ErrBufferTooSmall) {
			return 0, err
		}
		return 0, fmt.Errorf("%w: %w", ErrAuthGeneration, err)
	}
	if n < 0 || PacketBaseSize+n > len(buf) {
		return 0, fmt.Errorf("authentication code of %d bytes: %w", n, ErrBufferTooSmall)
	}
	return n, nil
}

// validateServer runs the configured validator over the full response bytes.
// A response that fails here is never used to correct the clock, even when
// every timestamp check has already passed.
func (a authAdapter) validateServer(server string, response []byte) error {
	if a.authenticator == nil {
		return nil
	}
	if err := a.authenticator.ValidateServerAuth(server, response); err != nil {
		return fmt.Errorf("%w: %w", ErrServerNotAuthenticated, err)
	}
	return nil
}
