// File: protocol/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package protocol implements the wire-level pieces of the WebSocket
// stream transport: frame-header encoding and parsing, the rolling XOR
// masking keystream and the fragment list used for message reassembly.
//
// The profile is deliberately narrow: only binary data frames (opcode 0x2)
// are accepted, reserved bits must be zero, and message continuation is
// recognized purely through FIN=0 on intermediate frames. Text, close,
// ping and pong opcodes are rejected as protocol violations; connection
// shutdown is observed at the socket level instead.
package protocol
