package session

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

const (
	DefaultHost             = "localhost"
	DefaultPort             = 3001
	DefaultID               = "SCR"
	DefaultMaxSteps         = 100000
	DefaultTrack            = "corkscrew"
	DefaultTimeout          = time.Second
	DefaultHandshakeRetries = 5
	DefaultProgressEvery    = 500
)

type Stage int

const (
	Warmup Stage = iota
	Qualifying
	Race
	UnknownStage
)

func (s Stage) String() string {
	switch s {
	case Warmup:
		return "warmup"
	case Qualifying:
		return "qualifying"
	case Race:
		return "race"
	default:
		return "unknown"
	}
}

type Config struct {
	Host string
	Port int
	ID   string

	// MaxSteps bounds the number of telemetry ticks; zero means no bound.
	MaxSteps int
	Episodes int
	Track    string
	Stage    Stage
	Debug    bool

	Timeout          time.Duration
	HandshakeRetries int
	// MaxRestarts bounds simulator restarts during one handshake; zero
	// means keep restarting.
	MaxRestarts   int
	ProgressEvery int
}

func DefaultConfig() Config {
	return Config{
		Host:             DefaultHost,
		Port:             DefaultPort,
		ID:               DefaultID,
		MaxSteps:         DefaultMaxSteps,
		Episodes:         1,
		Track:            DefaultTrack,
		Stage:            Race,
		Timeout:          DefaultTimeout,
		HandshakeRetries: DefaultHandshakeRetries,
		ProgressEvery:    DefaultProgressEvery,
	}
}

func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("session: empty host")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("session: port %d out of range", c.Port)
	}
	if c.ID == "" {
		return fmt.Errorf("session: empty client id")
	}
	if c.MaxSteps < 0 {
		return fmt.Errorf("session: negative step budget %d", c.MaxSteps)
	}
	if c.Episodes < 1 {
		return fmt.Errorf("session: need at least one episode, got %d", c.Episodes)
	}
	if c.Stage < Warmup || c.Stage > UnknownStage {
		return fmt.Errorf("session: stage %d out of range", int(c.Stage))
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("session: timeout must be positive")
	}
	if c.HandshakeRetries < 1 {
		return fmt.Errorf("session: need at least one handshake attempt")
	}
	return nil
}
