package session_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/san-kum/torcsdrive/internal/control"
	"github.com/san-kum/torcsdrive/internal/protocol"
	"github.com/san-kum/torcsdrive/internal/session"
)

type reply struct {
	data []byte
	err  error
}

func msg(s string) reply { return reply{data: []byte(s)} }

func timeout() reply { return reply{err: session.ErrTimeout} }

func telemetry(speed, dist, racePos float64) reply {
	return msg(fmt.Sprintf("(angle 0)(trackPos 0)(speedX %g)(distFromStart %g)(racePos %g)\x00", speed, dist, racePos))
}

// fakeConn replays a script of replies, then repeats the last telemetry
// when repeat is set or times out forever.
type fakeConn struct {
	mu        sync.Mutex
	script    []reply
	repeat    []byte
	sent      [][]byte
	failSends bool
	closes    int
	receives  int
	onReceive func(n int)
}

func (c *fakeConn) Send(b []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, append([]byte(nil), b...))
	if c.failSends && len(c.sent) > 1 {
		return errors.New("network is unreachable")
	}
	return nil
}

func (c *fakeConn) Receive(time.Duration) ([]byte, error) {
	c.mu.Lock()
	c.receives++
	n := c.receives
	hook := c.onReceive
	var r reply
	switch {
	case len(c.script) > 0:
		r = c.script[0]
		c.script = c.script[1:]
	case c.repeat != nil:
		r = reply{data: c.repeat}
	default:
		r = timeout()
	}
	c.mu.Unlock()

	if hook != nil {
		hook(n)
	}
	return r.data, r.err
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closes++
	return nil
}

func (c *fakeConn) Sent() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.sent...)
}

func (c *fakeConn) Closes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closes
}

type fakeDialer struct {
	conns []*fakeConn
	err   error
	dials int
}

func (d *fakeDialer) Dial(context.Context, string) (session.Conn, error) {
	if d.err != nil {
		return nil, d.err
	}
	c := d.conns[d.dials]
	d.dials++
	return c, nil
}

type fakeSupervisor struct {
	restarts int
	err      error
}

func (s *fakeSupervisor) Restart(context.Context) error {
	s.restarts++
	return s.err
}

type tickCounter struct{ n float64 }

func (m *tickCounter) Name() string                                     { return "ticks" }
func (m *tickCounter) Observe(protocol.Snapshot, protocol.Command, int) { m.n++ }
func (m *tickCounter) Value() float64                                   { return m.n }
func (m *tickCounter) Reset()                                           { m.n = 0 }

type memoryLog struct {
	ticks []int
	mems  []control.Memory
}

func (o *memoryLog) OnTick(tick int, _ protocol.Snapshot, _ protocol.Command, mem control.Memory) {
	o.ticks = append(o.ticks, tick)
	o.mems = append(o.mems, mem)
}
