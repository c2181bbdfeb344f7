// File: wsstream/stream.go
// Package wsstream implements the WebSocket stream transport: a
// per-connection state machine that frames opaque messages into binary
// WebSocket frames over an already-established byte stream, driven by
// completion events from an async socket.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package wsstream

import (
	"fmt"
	"io"
	"log"
	"math"
	"net"

	"github.com/google/uuid"

	"github.com/momentics/wspipe/api"
	"github.com/momentics/wspipe/dispatch"
	"github.com/momentics/wspipe/pool"
	"github.com/momentics/wspipe/protocol"
)

// Mode selects the endpoint role. The client role masks every outbound
// frame and rejects masked inbound frames; the server role does the
// opposite.
type Mode int

const (
	ModeServer Mode = iota + 1
	ModeClient
)

func (m Mode) String() string {
	switch m {
	case ModeServer:
		return "server"
	case ModeClient:
		return "client"
	default:
		return "invalid"
	}
}

type state int

const (
	stateIdle state = iota + 1
	stateActive
	stateShuttingDown
	stateDone
)

func (s state) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateActive:
		return "active"
	case stateShuttingDown:
		return "shutting-down"
	case stateDone:
		return "done"
	default:
		return "invalid"
	}
}

type inState int

const (
	inNone inState = iota
	inHdr
	inHdrExt
	inBody
	inHasMsg
)

type outState int

const (
	outNone outState = iota
	outIdle
	outSending
)

// Stream is one connection's framing machine and its pipe surface.
//
// All methods except construction must be called on the owning dispatch
// loop; socket completions are routed onto the same loop, so the machine
// runs strictly one event at a time and holds no locks.
type Stream struct {
	id     uuid.UUID
	loop   *dispatch.Loop
	events api.PipeEvents

	logger     *log.Logger
	random     io.Reader
	bufs       *pool.BufPool
	maxPayload uint64

	mode  Mode
	state state

	sock   api.Sock
	prev   api.EventSink
	cancel func()

	// inbound channel
	instate inState
	inhdr   [protocol.MaxHeaderSize]byte
	inHead  protocol.Header
	inExt   int
	curFrag []byte
	frags   *protocol.FragmentList
	masker  protocol.Masker

	// outbound channel
	outstate  outState
	outhdr    [protocol.MaxHeaderSize]byte
	outmsg    api.Message
	outPooled bool
}

// New creates an idle stream owned by loop. Completion and pipe events are
// raised to events, one at a time, on the loop.
func New(loop *dispatch.Loop, events api.PipeEvents, opts ...Option) *Stream {
	s := &Stream{
		id:         uuid.New(),
		loop:       loop,
		events:     events,
		random:     defaultRandom(),
		bufs:       pool.Default(),
		maxPayload: DefaultMaxPayload,
		state:      stateIdle,
		frags:      protocol.NewFragmentList(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the stream's identity, used to tag its log lines.
func (s *Stream) ID() uuid.UUID { return s.id }

// IsIdle reports whether the stream is stopped and holds no socket.
func (s *Stream) IsIdle() bool { return s.state == stateIdle }

// Start takes ownership of sock and activates the stream in the given
// role. The stream immediately arms the first header read. Starting a
// non-idle stream is a defect.
func (s *Stream) Start(sock api.Sock, mode Mode) {
	if s.state != stateIdle {
		panic(fmt.Sprintf("wspipe: Start on %s stream", s.state))
	}
	if mode != ModeServer && mode != ModeClient {
		panic("wspipe: invalid mode")
	}
	s.mode = mode

	sink, cancel := s.loop.Bind(sockEvents{s})
	s.prev = sock.SwapOwner(sink)
	s.cancel = cancel
	s.sock = sock

	s.instate = inHdr
	s.sock.Recv(s.inhdr[:2])
	s.outstate = outIdle
	s.state = stateActive
	s.logf("started, mode %s", mode)
}

// Stop returns the socket to its previous owner and resets the stream to
// idle. Honored from any state; a partially transmitted or received frame
// is discarded, never replayed. Completions still in flight are dropped.
func (s *Stream) Stop() {
	if s.state == stateIdle {
		return
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.sock != nil {
		s.sock.SwapOwner(s.prev)
		s.sock = nil
		s.prev = nil
	}
	s.discardInbound()
	s.releaseOutbound()
	s.instate = inNone
	s.outstate = outNone
	s.state = stateIdle
	s.logf("stopped")
}

// Close finalizes an idle stream, draining any unconsumed fragments.
// Closing a started stream is a defect.
func (s *Stream) Close() {
	if s.state != stateIdle {
		panic(fmt.Sprintf("wspipe: Close on %s stream", s.state))
	}
	s.discardInbound()
}

// Send frames msg and issues one scatter-gather write of header plus both
// message regions. Only legal while active with no send in flight; the
// matching OnSent fires when the write completes. On the client role both
// regions are deep-copied and masked with one continuous keystream; the
// server role adopts the caller's buffers without copying.
func (s *Stream) Send(msg api.Message) error {
	if s.state != stateActive {
		return api.ErrNotActive
	}
	if s.outstate != outIdle {
		panic("wspipe: Send while another send is in flight")
	}

	s.releaseOutbound()

	var key [4]byte
	masked := s.mode == ModeClient
	if masked {
		if _, err := io.ReadFull(s.random, key[:]); err != nil {
			return fmt.Errorf("wspipe: mask key generation: %w", err)
		}
		// the caller may share these buffers, mask a private copy
		hdr := s.bufs.Get(len(msg.Header))
		copy(hdr, msg.Header)
		body := s.bufs.Get(len(msg.Body))
		copy(body, msg.Body)
		s.outmsg = api.Message{Header: hdr, Body: body}
		s.outPooled = true

		s.masker.Init(key)
		s.masker.Apply(s.outmsg.Header)
		s.masker.Apply(s.outmsg.Body)
	} else {
		s.outmsg = msg
	}

	hdrsz := protocol.EncodeHeader(s.outhdr[:], true, masked, uint64(msg.Size()), key)
	s.sock.Send(net.Buffers{s.outhdr[:hdrsz], s.outmsg.Header, s.outmsg.Body})
	s.outstate = outSending
	return nil
}

// Recv delivers the completed inbound message: the concatenation of all
// received fragments in arrival order, sized exactly once. It re-arms the
// inbound channel with a fresh header read. Calling Recv with no message
// ready is a defect.
func (s *Stream) Recv() (api.Message, error) {
	if s.state != stateActive {
		return api.Message{}, api.ErrNotActive
	}
	if s.instate != inHasMsg {
		panic("wspipe: Recv with no message ready")
	}

	body := s.bufs.Get(int(s.frags.Total()))
	s.frags.Assemble(body, s.bufs.Put)

	s.instate = inHdr
	s.sock.Recv(s.inhdr[:2])
	return api.Message{Body: body}, nil
}

// sockEvents adapts socket completions onto the stream.
type sockEvents struct{ s *Stream }

func (e sockEvents) OnSockEvent(ev api.SockEvent) { e.s.handleSockEvent(ev) }

func (s *Stream) handleSockEvent(ev api.SockEvent) {
	switch s.state {

	case stateActive:
		switch ev.Kind {
		case api.SockSent:
			if s.outstate != outSending {
				s.badEvent(ev)
			}
			s.outstate = outIdle
			s.releaseOutbound()
			s.events.OnSent()

		case api.SockReceived:
			s.handleReceived()

		case api.SockShutdown:
			s.state = stateShuttingDown
			s.logf("peer shut down")

		case api.SockError:
			s.fail(ev.Err)

		default:
			s.badEvent(ev)
		}

	case stateShuttingDown:
		switch ev.Kind {
		case api.SockSent:
			// a write in flight when the peer half-closed may still
			// complete; the message goes down with the connection and
			// the owner only ever sees the terminal error
			if s.outstate != outSending {
				s.badEvent(ev)
			}
			s.outstate = outIdle
			s.releaseOutbound()

		case api.SockError:
			s.fail(ev.Err)

		default:
			s.badEvent(ev)
		}

	default:
		s.badEvent(ev)
	}
}

// handleReceived advances the inbound sub-machine after a completed read.
func (s *Stream) handleReceived() {
	switch s.instate {

	case inHdr:
		h, err := protocol.ParseHeader(s.inhdr[0], s.inhdr[1])
		if err != nil {
			s.fail(err)
			return
		}
		if s.mode == ModeServer && !h.Masked {
			s.fail(fmt.Errorf("%w: unmasked frame from client", api.ErrProtocol))
			return
		}
		if s.mode == ModeClient && h.Masked {
			s.fail(fmt.Errorf("%w: masked frame from server", api.ErrProtocol))
			return
		}
		s.inHead = h
		s.inExt = h.ExtSize()
		s.instate = inHdrExt
		if s.inExt > 0 {
			s.sock.Recv(s.inhdr[2 : 2+s.inExt])
			return
		}
		// no extension bytes, the header is already complete
		s.handleHdrExt()

	case inHdrExt:
		s.handleHdrExt()

	case inBody:
		if s.inHead.Masked {
			s.masker.Apply(s.curFrag)
		}
		s.frameDone()

	default:
		panic(fmt.Sprintf("wspipe: received data in inbound state %d", s.instate))
	}
}

// handleHdrExt decodes the payload length and mask key once the whole
// header is in the scratch buffer, then starts the body read.
func (s *Stream) handleHdrExt() {
	length, key := s.inHead.DecodeExt(s.inhdr[2 : 2+s.inExt])
	if s.inHead.Masked {
		s.masker.Init(key)
	}
	if s.maxPayload != 0 && length > s.maxPayload {
		s.fail(fmt.Errorf("%w: frame payload of %d exceeds limit %d",
			api.ErrProtocol, length, s.maxPayload))
		return
	}
	if length > uint64(math.MaxInt) {
		s.fail(fmt.Errorf("%w: frame payload of %d not representable", api.ErrProtocol, length))
		return
	}

	s.curFrag = s.bufs.Get(int(length))
	if length == 0 {
		s.frameDone()
		return
	}
	s.instate = inBody
	s.sock.Recv(s.curFrag)
}

// frameDone accepts the current frame's payload as a fragment and either
// arms the next header read (FIN=0) or publishes the complete message.
func (s *Stream) frameDone() {
	s.frags.Append(s.curFrag)
	s.curFrag = nil

	if !s.inHead.Fin {
		s.instate = inHdr
		s.sock.Recv(s.inhdr[:2])
		return
	}
	s.instate = inHasMsg
	s.events.OnReceived()
}

// fail moves the stream to the terminal error state, stops event delivery
// and notifies the owner. The owner releases the socket with Stop.
func (s *Stream) fail(err error) {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.state = stateDone
	s.logf("terminated: %v", err)
	s.events.OnError(err)
}

func (s *Stream) releaseOutbound() {
	if s.outPooled {
		s.bufs.Put(s.outmsg.Header)
		s.bufs.Put(s.outmsg.Body)
	}
	s.outmsg = api.Message{}
	s.outPooled = false
}

func (s *Stream) discardInbound() {
	if s.curFrag != nil {
		s.bufs.Put(s.curFrag)
		s.curFrag = nil
	}
	s.frags.Drain(s.bufs.Put)
}

func (s *Stream) badEvent(ev api.SockEvent) {
	panic(fmt.Sprintf("wspipe: unexpected %s event in state %s", ev.Kind, s.state))
}

func (s *Stream) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Printf("stream %s: %s", s.id, fmt.Sprintf(format, args...))
	}
}
