package protocol

import (
	"bytes"
	"strings"
)

const (
	TokenIdentified = "***identified***"
	TokenShutdown   = "***shutdown***"
	TokenRestart    = "***restart***"
)

// SensorAngles is the range sensor geometry sent with the init message, in
// degrees from the car axis. Index 9 looks straight ahead.
var SensorAngles = []float64{-45, -19, -12, -7, -4, -2.5, -1.7, -1, -.5, 0, .5, 1, 1.7, 2.5, 4, 7, 12, 19, 45}

// Kind classifies a server datagram.
type Kind int

const (
	KindEmpty Kind = iota
	KindIdentified
	KindShutdown
	KindRestart
	KindTelemetry
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindIdentified:
		return "identified"
	case KindShutdown:
		return "shutdown"
	case KindRestart:
		return "restart"
	case KindTelemetry:
		return "telemetry"
	}
	return "unknown"
}

// Classify inspects control tokens first; anything else non-blank is telemetry.
func Classify(datagram []byte) Kind {
	switch {
	case bytes.Contains(datagram, []byte(TokenIdentified)):
		return KindIdentified
	case bytes.Contains(datagram, []byte(TokenShutdown)):
		return KindShutdown
	case bytes.Contains(datagram, []byte(TokenRestart)):
		return KindRestart
	case len(bytes.Trim(datagram, " \t\r\n\x00")) == 0:
		return KindEmpty
	}
	return KindTelemetry
}

// InitMessage builds the identification request, e.g. "SCR(init -45 ... 45)".
func InitMessage(id string, angles []float64) string {
	parts := make([]string, len(angles))
	for i, a := range angles {
		parts[i] = formatFloat(a)
	}
	return id + "(init " + strings.Join(parts, " ") + ")"
}
