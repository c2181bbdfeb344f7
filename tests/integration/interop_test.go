// File: tests/integration/interop_test.go
// Author: momentics <momentics@gmail.com>
//
// Interop against an independent WebSocket implementation: a
// gorilla/websocket echo server talks to the client role over a real TCP
// connection, validating masking, length classes and role rules on the
// wire.

package integration

import (
	"bufio"
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/momentics/wspipe/api"
	"github.com/momentics/wspipe/wsstream"
)

func startEchoServer(t *testing.T) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()
		for {
			mt, data, err := c.ReadMessage()
			if err != nil {
				return
			}
			if mt != websocket.BinaryMessage {
				return
			}
			if err := c.WriteMessage(websocket.BinaryMessage, data); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return strings.TrimPrefix(srv.URL, "http://")
}

// handshake performs a minimal client opening handshake on conn. The
// library itself starts after the handshake; this only exists to reach
// the peer's post-handshake byte stream.
func handshake(t *testing.T, conn net.Conn, host string) {
	t.Helper()
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		t.Fatal(err)
	}
	key := base64.StdEncoding.EncodeToString(nonce)
	req := fmt.Sprintf("GET / HTTP/1.1\r\n"+
		"Host: %s\r\n"+
		"Upgrade: websocket\r\n"+
		"Connection: Upgrade\r\n"+
		"Sec-WebSocket-Key: %s\r\n"+
		"Sec-WebSocket-Version: 13\r\n\r\n", host, key)
	if _, err := conn.Write([]byte(req)); err != nil {
		t.Fatal(err)
	}

	br := bufio.NewReader(conn)
	resp, err := http.ReadResponse(br, nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Fatalf("handshake status %d", resp.StatusCode)
	}
	// the peer sends nothing until we do, so the reader must be drained
	if br.Buffered() != 0 {
		t.Fatalf("%d unexpected bytes after handshake", br.Buffered())
	}
}

func TestClientInteropWithGorillaEcho(t *testing.T) {
	host := startEchoServer(t)

	conn, err := net.Dial("tcp", host)
	if err != nil {
		t.Fatal(err)
	}
	handshake(t, conn, host)

	client := newEndpoint(t, conn, wsstream.ModeClient)

	for _, n := range []int{5, 126, 65536, 70000} {
		payload := make([]byte, n)
		for i := range payload {
			payload[i] = byte(i * 31)
		}

		client.send(t, api.Message{Body: payload})
		waitOn(t, client.waiter.sent, "send completion")

		echo := client.recv(t)
		if !bytes.Equal(echo.Body, payload) {
			t.Fatalf("size %d: echo mismatch", n)
		}
	}
}

func TestGorillaRejectsNothingWeSend(t *testing.T) {
	// zero-length and header-region messages must be acceptable frames for
	// a compliant peer as well
	host := startEchoServer(t)

	conn, err := net.Dial("tcp", host)
	if err != nil {
		t.Fatal(err)
	}
	handshake(t, conn, host)

	client := newEndpoint(t, conn, wsstream.ModeClient)

	client.send(t, api.Message{Header: []byte("h"), Body: []byte("b")})
	waitOn(t, client.waiter.sent, "send completion")
	echo := client.recv(t)
	if string(echo.Body) != "hb" {
		t.Fatalf("echo %q, want hb", echo.Body)
	}

	client.send(t, api.Message{})
	waitOn(t, client.waiter.sent, "send completion")
	empty := client.recv(t)
	if len(empty.Body) != 0 {
		t.Fatalf("echo of empty message carried %d bytes", len(empty.Body))
	}
}
