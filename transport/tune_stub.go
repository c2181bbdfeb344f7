//go:build !linux
// +build !linux

// File: transport/tune_stub.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package transport

import "net"

func tuneConn(raw net.Conn) {}
