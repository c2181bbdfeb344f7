// File: transport/conn.go
// Package transport implements the async socket engine over net.Conn:
// exact-length reads, scatter-gather writes and completion-event delivery
// to the current owner.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package transport

import (
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"

	"github.com/momentics/wspipe/api"
)

// Conn adapts a net.Conn to the api.Sock completion contract. A reader
// goroutine services one pending exact-length read at a time, a writer
// goroutine services one pending scatter-gather write at a time. Each
// request resolves to exactly one completion event.
//
// When the remote side closes the connection the engine delivers a
// SockShutdown for the pending read and then raises one final SockError,
// so an owner waiting in a shutting-down state always sees the terminal
// error event.
type Conn struct {
	raw net.Conn

	reads  chan []byte
	writes chan net.Buffers

	readPending  atomic.Bool
	writePending atomic.Bool

	ownerMu sync.Mutex
	owner   api.EventSink

	closed    atomic.Bool
	done      chan struct{}
	closeOnce sync.Once
}

// New wraps raw in a completion-driven socket and starts its service
// goroutines. TCP connections get TCP_NODELAY set where the platform
// supports it.
func New(raw net.Conn) *Conn {
	c := &Conn{
		raw:    raw,
		reads:  make(chan []byte, 1),
		writes: make(chan net.Buffers, 1),
		done:   make(chan struct{}),
	}
	tuneConn(raw)
	go c.readLoop()
	go c.writeLoop()
	return c
}

// Recv implements api.Sock. A second Recv before the previous one
// completed is a caller defect.
func (c *Conn) Recv(buf []byte) {
	if !c.readPending.CompareAndSwap(false, true) {
		panic("wspipe/transport: Recv issued while a read is pending")
	}
	c.reads <- buf
	if c.closed.Load() {
		c.drainRead()
	}
}

// Send implements api.Sock. A second Send before the previous one
// completed is a caller defect.
func (c *Conn) Send(bufs net.Buffers) {
	if !c.writePending.CompareAndSwap(false, true) {
		panic("wspipe/transport: Send issued while a write is pending")
	}
	c.writes <- bufs
	if c.closed.Load() {
		c.drainWrite()
	}
}

// SwapOwner implements api.Sock.
func (c *Conn) SwapOwner(sink api.EventSink) api.EventSink {
	c.ownerMu.Lock()
	prev := c.owner
	c.owner = sink
	c.ownerMu.Unlock()
	return prev
}

// Close implements api.Sock. Pending operations resolve with shutdown or
// error events; a request issued after Close resolves with a SockError
// carrying ErrSockClosed.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		close(c.done)
		err = c.raw.Close()
	})
	return err
}

// drainRead resolves a read request that can no longer be serviced. The
// pending flag arbitrates between the caller and the loop so the request
// gets exactly one completion.
func (c *Conn) drainRead() {
	select {
	case <-c.reads:
		if c.readPending.CompareAndSwap(true, false) {
			c.deliver(api.SockEvent{Kind: api.SockError, Err: api.ErrSockClosed})
		}
	default:
	}
}

func (c *Conn) drainWrite() {
	select {
	case <-c.writes:
		if c.writePending.CompareAndSwap(true, false) {
			c.deliver(api.SockEvent{Kind: api.SockError, Err: api.ErrSockClosed})
		}
	default:
	}
}

func (c *Conn) deliver(ev api.SockEvent) {
	c.ownerMu.Lock()
	sink := c.owner
	c.ownerMu.Unlock()
	if sink != nil {
		sink.OnSockEvent(ev)
	}
}

func (c *Conn) readLoop() {
	for {
		var buf []byte
		select {
		case buf = <-c.reads:
		case <-c.done:
			c.drainRead()
			return
		}
		if c.closed.Load() {
			c.readPending.Store(false)
			c.deliver(api.SockEvent{Kind: api.SockError, Err: api.ErrSockClosed})
			return
		}
		_, err := io.ReadFull(c.raw, buf)
		c.readPending.Store(false)
		if err == nil {
			c.deliver(api.SockEvent{Kind: api.SockReceived})
			continue
		}
		if isShutdown(err) {
			c.deliver(api.SockEvent{Kind: api.SockShutdown})
			c.deliver(api.SockEvent{Kind: api.SockError, Err: api.ErrSockShutdown})
		} else {
			c.deliver(api.SockEvent{Kind: api.SockError, Err: err})
		}
		return
	}
}

func (c *Conn) writeLoop() {
	for {
		var bufs net.Buffers
		select {
		case bufs = <-c.writes:
		case <-c.done:
			c.drainWrite()
			return
		}
		if c.closed.Load() {
			c.writePending.Store(false)
			c.deliver(api.SockEvent{Kind: api.SockError, Err: api.ErrSockClosed})
			return
		}
		_, err := bufs.WriteTo(c.raw)
		c.writePending.Store(false)
		if err != nil {
			c.deliver(api.SockEvent{Kind: api.SockError, Err: err})
			return
		}
		c.deliver(api.SockEvent{Kind: api.SockSent})
	}
}

// isShutdown reports whether err represents an orderly remote close or a
// local Close rather than a transmission failure.
func isShutdown(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, io.ErrClosedPipe)
}
