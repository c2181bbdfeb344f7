// File: protocol/masker.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package protocol

// Masker applies the WebSocket XOR masking keystream. The rolling index
// survives across Apply calls, so the separate regions of one logical
// message can be masked with a single continuous keystream. XOR is its own
// inverse: unmasking reuses Apply after an Init with the frame's key.
type Masker struct {
	key [4]byte
	idx int
}

// Init installs the key and resets the rolling index to the start of the
// keystream.
func (m *Masker) Init(key [4]byte) {
	m.key = key
	m.idx = 0
}

// Apply XORs p in place with the keystream, advancing the rolling index.
func (m *Masker) Apply(p []byte) {
	for i := range p {
		p[i] ^= m.key[m.idx]
		m.idx = (m.idx + 1) & 3
	}
}
