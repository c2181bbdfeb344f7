// File: wsstream/options.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package wsstream

import (
	"crypto/rand"
	"io"
	"log"

	"github.com/momentics/wspipe/pool"
)

// DefaultMaxPayload caps a single inbound frame's declared payload length.
// Frames above the cap terminate the connection with a protocol error.
const DefaultMaxPayload = 1 << 30

// Option configures a Stream at construction time.
type Option func(*Stream)

// WithRandom sets the source used to generate outbound mask keys on the
// client role. Defaults to crypto/rand.Reader; tests inject a fixed
// source for deterministic keys.
func WithRandom(r io.Reader) Option {
	return func(s *Stream) { s.random = r }
}

// WithLogger enables diagnostic logging. The stream is silent without it.
func WithLogger(l *log.Logger) Option {
	return func(s *Stream) { s.logger = l }
}

// WithMaxPayload overrides DefaultMaxPayload. Zero disables the cap.
func WithMaxPayload(n uint64) Option {
	return func(s *Stream) { s.maxPayload = n }
}

// WithBufferPool sets the pool backing fragment and message storage.
// Defaults to the process-wide shared pool.
func WithBufferPool(p *pool.BufPool) Option {
	return func(s *Stream) { s.bufs = p }
}

func defaultRandom() io.Reader { return rand.Reader }
