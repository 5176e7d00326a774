package session

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"
)

// DatagramSize is the largest telemetry datagram the server sends.
const DatagramSize = 1536

// Conn is the datagram transport of one session.
type Conn interface {
	Send(b []byte) error
	// Receive waits at most timeout for one datagram and returns
	// ErrTimeout when none arrived.
	Receive(timeout time.Duration) ([]byte, error)
	Close() error
}

type Dialer interface {
	Dial(ctx context.Context, addr string) (Conn, error)
}

// UDPDialer opens one unconnected UDP socket per session and addresses
// every datagram to the server.
type UDPDialer struct {
	BufferSize int
}

func (d UDPDialer) Dial(ctx context.Context, addr string) (Conn, error) {
	raddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, err
	}
	var lc net.ListenConfig
	pc, err := lc.ListenPacket(ctx, "udp", ":0")
	if err != nil {
		return nil, err
	}
	size := d.BufferSize
	if size <= 0 {
		size = DatagramSize
	}
	return &udpConn{pc: pc, raddr: raddr, buf: make([]byte, size)}, nil
}

type udpConn struct {
	pc    net.PacketConn
	raddr net.Addr
	buf   []byte
	once  sync.Once
	err   error
}

func (c *udpConn) Send(b []byte) error {
	_, err := c.pc.WriteTo(b, c.raddr)
	return err
}

func (c *udpConn) Receive(timeout time.Duration) ([]byte, error) {
	if err := c.pc.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return nil, err
	}
	n, _, err := c.pc.ReadFrom(c.buf)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, ErrTimeout
		}
		return nil, err
	}
	out := make([]byte, n)
	copy(out, c.buf[:n])
	return out, nil
}

func (c *udpConn) Close() error {
	c.once.Do(func() { c.err = c.pc.Close() })
	return c.err
}

func (c *udpConn) LocalAddr() net.Addr { return c.pc.LocalAddr() }
