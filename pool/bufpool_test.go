// File: pool/bufpool_test.go
// Author: momentics <momentics@gmail.com>

package pool

import "testing"

func TestGetExactLength(t *testing.T) {
	p := NewBufPool()
	for _, n := range []int{0, 1, 31, 32, 33, 125, 4096, 70000} {
		b := p.Get(n)
		if len(b) != n {
			t.Fatalf("Get(%d) returned len %d", n, len(b))
		}
		p.Put(b)
	}
}

func TestRecycleRoundTrip(t *testing.T) {
	p := NewBufPool()
	b := p.Get(100)
	if cap(b) != 128 {
		t.Fatalf("expected 128-byte backing array, got %d", cap(b))
	}
	p.Put(b)
	b2 := p.Get(128)
	if len(b2) != 128 {
		t.Fatalf("unexpected len %d", len(b2))
	}
}

func TestOversizedNotPooled(t *testing.T) {
	p := NewBufPool()
	n := (1 << 26) + 1
	b := p.Get(n)
	if len(b) != n {
		t.Fatalf("unexpected len %d", len(b))
	}
	p.Put(b) // must not panic
}

func TestZeroLength(t *testing.T) {
	p := NewBufPool()
	b := p.Get(0)
	if len(b) != 0 {
		t.Fatalf("unexpected len %d", len(b))
	}
	p.Put(b)
}
