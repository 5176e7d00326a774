package session

import (
	"errors"
	"fmt"
)

var (
	// ErrSocket means the UDP socket could not be created. It is the only
	// fatal transport condition.
	ErrSocket = errors.New("session: cannot open socket")

	// ErrHandshake means the server never acknowledged the init message
	// within the allowed simulator restarts.
	ErrHandshake = errors.New("session: handshake failed")

	// ErrTimeout is returned by Conn.Receive when nothing arrived in time.
	ErrTimeout = errors.New("session: receive timeout")
)

// Error wraps a session failure with the state and tick it happened in.
type Error struct {
	State   State
	Tick    int
	Wrapped error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (state %s, tick %d)", e.Wrapped, e.State, e.Tick)
}

func (e *Error) Unwrap() error {
	return e.Wrapped
}
