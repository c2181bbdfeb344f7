// File: pool/bufpool.go
// Package pool provides byte-buffer pooling for fragment and message
// storage.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pool

import (
	"math/bits"
	"sync"
)

// size classes 1<<5 .. 1<<26; requests above the largest class are
// allocated directly and never pooled.
const (
	minClassBits = 5
	maxClassBits = 26
)

// BufPool hands out exact-length byte slices backed by power-of-two sized
// arrays recycled through per-class sync.Pools.
type BufPool struct {
	classes [maxClassBits - minClassBits + 1]sync.Pool
}

// NewBufPool creates an empty pool.
func NewBufPool() *BufPool {
	p := &BufPool{}
	for i := range p.classes {
		size := 1 << (minClassBits + i)
		p.classes[i].New = func() any {
			b := make([]byte, size)
			return &b
		}
	}
	return p
}

// Get returns a slice of exactly n bytes. Contents are unspecified.
func (p *BufPool) Get(n int) []byte {
	if n == 0 {
		return []byte{}
	}
	ci, ok := classIndex(n)
	if !ok {
		return make([]byte, n)
	}
	b := *p.classes[ci].Get().(*[]byte)
	return b[:n]
}

// Put recycles a slice previously returned by Get. Oversized or foreign
// slices are left for the garbage collector.
func (p *BufPool) Put(b []byte) {
	c := cap(b)
	if c == 0 || c&(c-1) != 0 {
		return
	}
	ci, ok := classIndex(c)
	if !ok || 1<<(minClassBits+ci) != c {
		return
	}
	b = b[:c]
	p.classes[ci].Put(&b)
}

// classIndex maps a requested size to the smallest class that fits it.
func classIndex(n int) (int, bool) {
	bitsNeeded := bits.Len(uint(n - 1))
	if n == 1 {
		bitsNeeded = 0
	}
	if bitsNeeded < minClassBits {
		return 0, true
	}
	if bitsNeeded > maxClassBits {
		return 0, false
	}
	return bitsNeeded - minClassBits, true
}

var defaultPool = NewBufPool()

// Default returns the process-wide shared pool.
func Default() *BufPool { return defaultPool }
