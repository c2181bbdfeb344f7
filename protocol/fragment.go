// File: protocol/fragment.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package protocol

import "github.com/eapache/queue"

// FragmentList collects the payload chunks of one fragmented message in
// arrival order, together with a running total of their lengths. The total
// lets the receiver size the reassembled message exactly once.
type FragmentList struct {
	frags *queue.Queue
	total uint64
}

// NewFragmentList creates an empty list.
func NewFragmentList() *FragmentList {
	return &FragmentList{frags: queue.New()}
}

// Append adds one frame's payload to the list. Empty fragments are legal.
func (l *FragmentList) Append(data []byte) {
	l.frags.Add(data)
	l.total += uint64(len(data))
}

// Total returns the sum of all fragment lengths currently held.
func (l *FragmentList) Total() uint64 { return l.total }

// Len returns the number of fragments currently held.
func (l *FragmentList) Len() int { return l.frags.Length() }

// Assemble copies all fragments into dst in arrival order, empties the
// list, resets the running total and returns the number of bytes written.
// Each drained fragment is handed to release, when non-nil, so its storage
// can be recycled. dst must hold at least Total() bytes.
func (l *FragmentList) Assemble(dst []byte, release func([]byte)) int {
	pos := 0
	for l.frags.Length() > 0 {
		frag := l.frags.Remove().([]byte)
		pos += copy(dst[pos:], frag)
		if release != nil {
			release(frag)
		}
	}
	l.total = 0
	return pos
}

// Drain discards all fragments without delivering them, handing each to
// release when non-nil, and resets the running total.
func (l *FragmentList) Drain(release func([]byte)) {
	for l.frags.Length() > 0 {
		frag := l.frags.Remove().([]byte)
		if release != nil {
			release(frag)
		}
	}
	l.total = 0
}
