// File: dispatch/loop.go
// Package dispatch provides the serial event loop that drives stream state
// machines. Every event is executed synchronously on one loop goroutine,
// so the machines it owns need no internal locking.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package dispatch

import (
	"sync"

	"github.com/eapache/queue"

	"github.com/momentics/wspipe/api"
)

// Loop is a single-goroutine executor. Work is posted from any goroutine
// and runs in FIFO order on the loop goroutine.
type Loop struct {
	mu      sync.Mutex
	cond    *sync.Cond
	pending *queue.Queue
	stopped bool
}

// NewLoop creates a loop. Run must be called before posted work executes.
func NewLoop() *Loop {
	l := &Loop{pending: queue.New()}
	l.cond = sync.NewCond(&l.mu)
	return l
}

// Post enqueues fn for execution on the loop goroutine. Posting to a
// stopped loop is a no-op.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	if !l.stopped {
		l.pending.Add(fn)
		l.cond.Signal()
	}
	l.mu.Unlock()
}

// Run consumes posted work until Stop is called. It is typically run on a
// dedicated goroutine per connection group.
func (l *Loop) Run() {
	for {
		l.mu.Lock()
		for l.pending.Length() == 0 && !l.stopped {
			l.cond.Wait()
		}
		if l.stopped && l.pending.Length() == 0 {
			l.mu.Unlock()
			return
		}
		fn := l.pending.Remove().(func())
		l.mu.Unlock()
		fn()
	}
}

// RunPending executes already-posted work on the calling goroutine and
// returns once the queue is empty. Useful for deterministic single-thread
// driving in tests; must not run concurrently with Run.
func (l *Loop) RunPending() {
	for {
		l.mu.Lock()
		if l.pending.Length() == 0 || l.stopped {
			l.mu.Unlock()
			return
		}
		fn := l.pending.Remove().(func())
		l.mu.Unlock()
		fn()
	}
}

// Stop lets Run return after draining already-posted work. Work posted
// after Stop is discarded.
func (l *Loop) Stop() {
	l.mu.Lock()
	l.stopped = true
	l.cond.Broadcast()
	l.mu.Unlock()
}

// sink forwards socket completions onto the loop for one stream. Events
// that arrive after the binding was revoked are dropped, which makes a
// stream stop deterministic even with I/O still in flight.
type sink struct {
	loop    *Loop
	mu      sync.Mutex
	target  api.EventSink
	revoked bool
}

// Bind wraps target so socket events are executed on the loop. The
// returned cancel revokes delivery.
func (l *Loop) Bind(target api.EventSink) (api.EventSink, func()) {
	s := &sink{loop: l, target: target}
	return s, s.revoke
}

func (s *sink) OnSockEvent(ev api.SockEvent) {
	s.loop.Post(func() {
		s.mu.Lock()
		revoked := s.revoked
		s.mu.Unlock()
		if revoked {
			return
		}
		s.target.OnSockEvent(ev)
	})
}

func (s *sink) revoke() {
	s.mu.Lock()
	s.revoked = true
	s.mu.Unlock()
}
