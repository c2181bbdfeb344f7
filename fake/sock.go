// File: fake/sock.go
// Package fake provides controllable doubles for the library's
// collaborator interfaces, for deterministic tests.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package fake

import (
	"net"

	"github.com/momentics/wspipe/api"
)

// Sock is a scripted api.Sock. Requests are recorded instead of executed;
// the test completes them explicitly, which delivers the matching event to
// the current owner synchronously.
type Sock struct {
	owner api.EventSink

	pendingRecv []byte // nil when no read outstanding
	pendingSend net.Buffers

	// Sent accumulates a deep copy of every completed send, in order.
	Sent []net.Buffers

	closed bool
}

// NewSock creates an idle fake socket.
func NewSock() *Sock { return &Sock{} }

// Recv implements api.Sock.
func (s *Sock) Recv(buf []byte) {
	if s.pendingRecv != nil {
		panic("fake: Recv issued while a read is pending")
	}
	s.pendingRecv = buf
}

// Send implements api.Sock.
func (s *Sock) Send(bufs net.Buffers) {
	if s.pendingSend != nil {
		panic("fake: Send issued while a write is pending")
	}
	s.pendingSend = bufs
}

// SwapOwner implements api.Sock.
func (s *Sock) SwapOwner(sink api.EventSink) api.EventSink {
	prev := s.owner
	s.owner = sink
	return prev
}

// Owner returns the current owner sink.
func (s *Sock) Owner() api.EventSink { return s.owner }

// Close implements api.Sock.
func (s *Sock) Close() error {
	s.closed = true
	return nil
}

// Closed reports whether Close was called.
func (s *Sock) Closed() bool { return s.closed }

// RecvPending returns the length of the outstanding read request, or -1
// when none is outstanding.
func (s *Sock) RecvPending() int {
	if s.pendingRecv == nil {
		return -1
	}
	return len(s.pendingRecv)
}

// CompleteRecv fills the outstanding read with data and delivers a
// SockReceived event. len(data) must equal the requested length.
func (s *Sock) CompleteRecv(data []byte) {
	if s.pendingRecv == nil {
		panic("fake: CompleteRecv with no read pending")
	}
	if len(data) != len(s.pendingRecv) {
		panic("fake: CompleteRecv length mismatch")
	}
	copy(s.pendingRecv, data)
	s.pendingRecv = nil
	s.deliver(api.SockEvent{Kind: api.SockReceived})
}

// CompleteSend resolves the outstanding write with a SockSent event and
// records a copy of what was written.
func (s *Sock) CompleteSend() {
	if s.pendingSend == nil {
		panic("fake: CompleteSend with no write pending")
	}
	var rec net.Buffers
	for _, b := range s.pendingSend {
		rec = append(rec, append([]byte(nil), b...))
	}
	s.Sent = append(s.Sent, rec)
	s.pendingSend = nil
	s.deliver(api.SockEvent{Kind: api.SockSent})
}

// Shutdown resolves the outstanding read as a remote close: SockShutdown
// followed by the engine's terminal SockError.
func (s *Sock) Shutdown() {
	s.HalfClose()
	s.deliver(api.SockEvent{Kind: api.SockError, Err: api.ErrSockShutdown})
}

// HalfClose resolves the outstanding read with SockShutdown only, leaving
// the terminal error to a later Fail. A write still in flight keeps its
// pending state, so other completions can be interleaved the way an
// engine with independent read and write paths produces them.
func (s *Sock) HalfClose() {
	s.pendingRecv = nil
	s.deliver(api.SockEvent{Kind: api.SockShutdown})
}

// Fail resolves any outstanding operation with a SockError carrying err.
func (s *Sock) Fail(err error) {
	s.pendingRecv = nil
	s.pendingSend = nil
	s.deliver(api.SockEvent{Kind: api.SockError, Err: err})
}

func (s *Sock) deliver(ev api.SockEvent) {
	if s.owner != nil {
		s.owner.OnSockEvent(ev)
	}
}
