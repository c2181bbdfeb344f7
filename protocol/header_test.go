// File: protocol/header_test.go
// Author: momentics <momentics@gmail.com>

package protocol

import (
	"errors"
	"testing"

	"github.com/momentics/wspipe/api"
)

func TestHeaderRoundTrip(t *testing.T) {
	key := [4]byte{0xde, 0xad, 0xbe, 0xef}
	sizes := []uint64{0, 1, 125, 126, 127, 65535, 65536, 70000, 1 << 32}
	for _, n := range sizes {
		for _, masked := range []bool{false, true} {
			var buf [MaxHeaderSize]byte
			hdrsz := EncodeHeader(buf[:], true, masked, n, key)

			h, err := ParseHeader(buf[0], buf[1])
			if err != nil {
				t.Fatalf("size %d masked %v: %v", n, masked, err)
			}
			if !h.Fin {
				t.Fatalf("size %d: FIN not set", n)
			}
			if h.Masked != masked {
				t.Fatalf("size %d: mask flag mismatch", n)
			}
			if want := hdrsz - 2; h.ExtSize() != want {
				t.Fatalf("size %d masked %v: ExtSize %d, want %d", n, masked, h.ExtSize(), want)
			}
			gotLen, gotKey := h.DecodeExt(buf[2:hdrsz])
			if gotLen != n {
				t.Fatalf("size %d: decoded %d", n, gotLen)
			}
			if masked && gotKey != key {
				t.Fatalf("size %d: key mismatch %x", n, gotKey)
			}
		}
	}
}

func TestHeaderMinimalEncoding(t *testing.T) {
	cases := []struct {
		n     uint64
		hdrsz int
	}{
		{0, 2}, {125, 2}, {126, 4}, {65535, 4}, {65536, 10}, {70000, 10},
	}
	var buf [MaxHeaderSize]byte
	for _, c := range cases {
		if got := EncodeHeader(buf[:], true, false, c.n, [4]byte{}); got != c.hdrsz {
			t.Errorf("size %d: header %d bytes, want %d", c.n, got, c.hdrsz)
		}
	}
}

func TestParseHeaderRejectsReservedBits(t *testing.T) {
	for _, rsv := range []byte{0x10, 0x20, 0x40, 0x70} {
		_, err := ParseHeader(FinBit|rsv|OpcodeBinary, 0)
		if !errors.Is(err, api.ErrProtocol) {
			t.Errorf("rsv 0x%02x: err = %v", rsv, err)
		}
	}
}

func TestParseHeaderRejectsNonBinaryOpcodes(t *testing.T) {
	// text, close, ping, pong and continuation are all outside the profile
	for _, op := range []byte{0x0, 0x1, 0x8, 0x9, 0xa} {
		_, err := ParseHeader(FinBit|op, 0)
		if !errors.Is(err, api.ErrProtocol) {
			t.Errorf("opcode 0x%x: err = %v", op, err)
		}
	}
}

func TestNonFinalBinaryFrameAccepted(t *testing.T) {
	h, err := ParseHeader(OpcodeBinary, 3)
	if err != nil {
		t.Fatal(err)
	}
	if h.Fin {
		t.Fatal("FIN reported on non-final frame")
	}
	if n, _ := h.DecodeExt(nil); n != 3 {
		t.Fatalf("length %d, want 3", n)
	}
}
