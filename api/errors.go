// File: api/errors.go
// Author: momentics <momentics@gmail.com>
//
// Common error values shared across the library.

package api

import "errors"

var (
	// ErrProtocol marks a violation of the WebSocket framing profile:
	// reserved bits set, non-binary opcode, mask-direction mismatch or an
	// over-limit payload. The connection is terminated, the process is not.
	ErrProtocol = errors.New("wspipe: protocol violation")

	// ErrSockClosed is reported by socket operations after Close.
	ErrSockClosed = errors.New("wspipe: socket closed")

	// ErrSockShutdown is reported when the remote side closed the
	// connection in an orderly fashion.
	ErrSockShutdown = errors.New("wspipe: socket shut down by peer")

	// ErrNotActive is returned by pipe operations on a stream that is not
	// in the active state.
	ErrNotActive = errors.New("wspipe: stream not active")
)
