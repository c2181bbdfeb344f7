//go:build linux
// +build linux

// File: transport/tune_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package transport

import (
	"net"

	"golang.org/x/sys/unix"
)

// tuneConn disables Nagle on TCP connections. Frames are written as one
// coalesced vector already, so delaying them only adds latency.
func tuneConn(raw net.Conn) {
	tc, ok := raw.(*net.TCPConn)
	if !ok {
		return
	}
	rc, err := tc.SyscallConn()
	if err != nil {
		return
	}
	_ = rc.Control(func(fd uintptr) {
		_ = unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)
	})
}
