package session

import (
	"context"
	"fmt"

	"github.com/san-kum/torcsdrive/internal/control"
	"github.com/san-kum/torcsdrive/internal/protocol"
)

type State int

const (
	Disconnected State = iota
	Handshaking
	Connected
	Shutdown
	Restarted
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Handshaking:
		return "handshaking"
	case Connected:
		return "connected"
	case Shutdown:
		return "shutdown"
	case Restarted:
		return "restarted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Reason tells why a session loop returned.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonShutdown
	ReasonRestart
	ReasonStepBudget
	ReasonCanceled
)

func (r Reason) String() string {
	switch r {
	case ReasonShutdown:
		return "shutdown"
	case ReasonRestart:
		return "restart"
	case ReasonStepBudget:
		return "step-budget"
	case ReasonCanceled:
		return "canceled"
	default:
		return "none"
	}
}

// Metric accumulates one number over the ticks of a session.
type Metric interface {
	Name() string
	Observe(s protocol.Snapshot, cmd protocol.Command, tick int)
	Value() float64
	Reset()
}

// Observer sees every tick after the command has been decided.
type Observer interface {
	OnTick(tick int, s protocol.Snapshot, cmd protocol.Command, mem control.Memory)
}

// Supervisor restarts the simulator process when the handshake keeps
// failing.
type Supervisor interface {
	Restart(ctx context.Context) error
}

type Result struct {
	Episode  int
	Ticks    int
	Laps     int
	RacePos  float64
	Reason   Reason
	State    State
	Timeouts int
	Metrics  map[string]float64
}
