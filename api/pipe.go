// File: api/pipe.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// Message is one logical unit exchanged through a pipe. It carries two
// regions: a routing header prepended by the messaging layer and the
// application body. Either region may be empty. On the wire both regions
// travel inside a single WebSocket message.
type Message struct {
	Header []byte
	Body   []byte
}

// Size returns the combined length of both regions.
func (m Message) Size() int {
	return len(m.Header) + len(m.Body)
}

// Pipe is the surface the upper messaging layer drives. Send accepts one
// message when the outbound channel is idle; Recv delivers one reassembled
// message after an OnReceived notification.
type Pipe interface {
	Send(msg Message) error
	Recv() (Message, error)
}

// PipeEvents is the upward notification interface a pipe owner implements.
// Callbacks run on the owning dispatch loop, one at a time.
type PipeEvents interface {
	// OnSent fires once per completed send; the pipe accepts a new
	// message afterwards.
	OnSent()

	// OnReceived fires when a complete inbound message is ready to be
	// collected with Recv.
	OnReceived()

	// OnError fires when the connection terminated. The pipe is unusable
	// afterwards until stopped and restarted with a fresh socket.
	OnError(err error)
}
