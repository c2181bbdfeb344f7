// File: dispatch/loop_test.go
// Author: momentics <momentics@gmail.com>

package dispatch

import (
	"sync"
	"testing"

	"github.com/momentics/wspipe/api"
)

type recordingSink struct {
	mu     sync.Mutex
	events []api.SockEvent
}

func (r *recordingSink) OnSockEvent(ev api.SockEvent) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func TestPostOrdering(t *testing.T) {
	l := NewLoop()
	var got []int
	done := make(chan struct{})
	for i := 0; i < 100; i++ {
		i := i
		l.Post(func() { got = append(got, i) })
	}
	l.Post(func() { close(done) })

	go l.Run()
	<-done
	l.Stop()

	for i, v := range got {
		if v != i {
			t.Fatalf("out of order at %d: %d", i, v)
		}
	}
}

func TestBindDeliversOnLoop(t *testing.T) {
	l := NewLoop()
	go l.Run()
	defer l.Stop()

	rec := &recordingSink{}
	bound, cancel := l.Bind(rec)
	defer cancel()

	bound.OnSockEvent(api.SockEvent{Kind: api.SockSent})

	done := make(chan struct{})
	l.Post(func() { close(done) })
	<-done

	if rec.count() != 1 {
		t.Fatalf("delivered %d events, want 1", rec.count())
	}
}

func TestRevokedBindingDropsEvents(t *testing.T) {
	l := NewLoop()

	rec := &recordingSink{}
	bound, cancel := l.Bind(rec)

	// event posted before revocation but executed after it must be dropped
	bound.OnSockEvent(api.SockEvent{Kind: api.SockReceived})
	cancel()

	done := make(chan struct{})
	l.Post(func() { close(done) })
	go l.Run()
	<-done
	l.Stop()

	if rec.count() != 0 {
		t.Fatalf("revoked sink received %d events", rec.count())
	}
}

func TestPostAfterStopDiscarded(t *testing.T) {
	l := NewLoop()
	l.Stop()
	l.Post(func() { t.Fatal("executed after stop") })
	l.Run() // returns immediately
}
