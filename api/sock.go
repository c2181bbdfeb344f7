// File: api/sock.go
// Package api defines the contracts between the framing layer and its
// collaborators: the async socket engine, the dispatch substrate and the
// upper messaging layer.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

import "net"

// SockEventKind enumerates the completion event kinds an async socket
// delivers to its owner. Each Recv or Send call resolves to exactly one
// event.
type SockEventKind int

const (
	// SockReceived signals that a previously requested exact-length read
	// has filled the caller's buffer completely.
	SockReceived SockEventKind = iota + 1

	// SockSent signals that a previously issued scatter-gather write has
	// been transmitted in full.
	SockSent

	// SockShutdown signals an orderly close of the remote side. No further
	// data will arrive; pending writes may still fail.
	SockShutdown

	// SockError signals a socket-level failure. The Err field carries the
	// underlying cause.
	SockError
)

func (k SockEventKind) String() string {
	switch k {
	case SockReceived:
		return "received"
	case SockSent:
		return "sent"
	case SockShutdown:
		return "shutdown"
	case SockError:
		return "error"
	default:
		return "unknown"
	}
}

// SockEvent is a single completion notification from an async socket.
type SockEvent struct {
	Kind SockEventKind
	Err  error // set for SockError, otherwise nil
}

// EventSink receives completion events from an async socket. The sink that
// is the socket's current owner gets every event; delivery order matches
// completion order.
type EventSink interface {
	OnSockEvent(ev SockEvent)
}

// Sock abstracts the async socket engine underneath the framing layer.
//
// The contract mirrors a completion-based usock: Recv and Send never block
// and never partially complete from the caller's point of view; the engine
// delivers exactly one SockEvent per call to the sink registered at the
// moment the operation finishes.
//
// Exactly one sink owns the socket at any instant. SwapOwner transfers
// ownership atomically and returns the previous owner so it can be restored
// later. Issuing a second Recv before the first one completed, or a second
// Send before the first one completed, is a caller defect.
type Sock interface {
	// Recv requests a read of exactly len(buf) bytes into buf.
	Recv(buf []byte)

	// Send requests a single scatter-gather write of all byte slices in
	// bufs, in order.
	Send(bufs net.Buffers)

	// SwapOwner installs sink as the socket's owner and returns the
	// previous owner (nil if none).
	SwapOwner(sink EventSink) EventSink

	// Close tears down the underlying connection. Outstanding operations
	// resolve with SockShutdown or SockError.
	Close() error
}
