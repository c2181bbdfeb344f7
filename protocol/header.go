// File: protocol/header.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package protocol

import (
	"encoding/binary"
	"fmt"

	"github.com/momentics/wspipe/api"
)

// Bit masks for the first two header bytes.
const (
	FinBit     = 0x80
	RsvMask    = 0x70
	OpcodeMask = 0x0f
	MaskBit    = 0x80
	Size7Mask  = 0x7f
)

// OpcodeBinary is the only opcode this profile accepts.
const OpcodeBinary = 0x02

// Size-class markers in the 7-bit length field.
const (
	Size16 = 126 // next 2 bytes carry a big-endian uint16 length
	Size64 = 127 // next 8 bytes carry a big-endian uint64 length
)

// MaxHeaderSize is the largest possible frame header: 2 fixed bytes,
// 8 extended-length bytes and a 4-byte mask key.
const MaxHeaderSize = 14

// Header holds the fixed first two bytes of a frame header in parsed form.
type Header struct {
	Fin    bool
	Masked bool
	size7  byte
}

// ParseHeader validates and decodes the two fixed header bytes.
// Reserved bits must be zero and the opcode must be binary; intermediate
// fragments carry the binary opcode too, continuation is FIN=0 only.
func ParseHeader(b0, b1 byte) (Header, error) {
	if b0&RsvMask != 0 {
		return Header{}, fmt.Errorf("%w: reserved bits set (0x%02x)", api.ErrProtocol, b0)
	}
	if op := b0 & OpcodeMask; op != OpcodeBinary {
		return Header{}, fmt.Errorf("%w: unexpected opcode 0x%x", api.ErrProtocol, op)
	}
	return Header{
		Fin:    b0&FinBit != 0,
		Masked: b1&MaskBit != 0,
		size7:  b1 & Size7Mask,
	}, nil
}

// ExtSize reports how many header bytes follow the fixed two: the extended
// length field plus the mask key when present.
func (h Header) ExtSize() int {
	n := 0
	switch h.size7 {
	case Size16:
		n += 2
	case Size64:
		n += 8
	}
	if h.Masked {
		n += 4
	}
	return n
}

// DecodeExt decodes the extension bytes read after the fixed header:
// payload length in the declared size class and, when masked, the 4-byte
// key. ext must hold exactly ExtSize() bytes.
func (h Header) DecodeExt(ext []byte) (length uint64, key [4]byte) {
	switch h.size7 {
	case Size16:
		length = uint64(binary.BigEndian.Uint16(ext))
		ext = ext[2:]
	case Size64:
		length = binary.BigEndian.Uint64(ext)
		ext = ext[8:]
	default:
		length = uint64(h.size7)
	}
	if h.Masked {
		copy(key[:], ext)
	}
	return length, key
}

// EncodeHeader writes a frame header for a payload of n bytes into dst,
// choosing the minimal length encoding, and returns the number of header
// bytes written. dst must have room for MaxHeaderSize bytes. The mask key
// is appended only when masked is set.
func EncodeHeader(dst []byte, fin bool, masked bool, n uint64, key [4]byte) int {
	b0 := byte(OpcodeBinary)
	if fin {
		b0 |= FinBit
	}
	dst[0] = b0

	hdrsz := 2
	switch {
	case n <= 125:
		dst[1] = byte(n)
	case n <= 0xffff:
		dst[1] = Size16
		binary.BigEndian.PutUint16(dst[2:], uint16(n))
		hdrsz += 2
	default:
		dst[1] = Size64
		binary.BigEndian.PutUint64(dst[2:], n)
		hdrsz += 8
	}

	if masked {
		dst[1] |= MaskBit
		copy(dst[hdrsz:], key[:])
		hdrsz += 4
	}
	return hdrsz
}
