package main

import (
	"bytes"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type MockAddr struct {
	str string
}

func (m MockAddr) Network() string { return "" }
func (m MockAddr) String() string  { return m.str }

// MockConn reads the request from and writes the response to the same
// buffer, so once a worker is done String() holds only the response.
type MockConn struct {
	*bytes.Buffer
	addr     MockAddr
	closed   int
	writeErr error
}

func newMockConn(request string) *MockConn {
	c := &MockConn{Buffer: new(bytes.Buffer), addr: MockAddr{"(client)"}}
	c.WriteString(request)
	return c
}

func (m *MockConn) Write(b []byte) (int, error) {
	if m.writeErr != nil {
		return 0, m.writeErr
	}
	return m.Buffer.Write(b)
}

func (m *MockConn) Close() error {
	m.closed++
	return nil
}

func (m *MockConn) LocalAddr() net.Addr {
	return nil
}

func (m *MockConn) RemoteAddr() net.Addr {
	return m.addr
}

func (m *MockConn) SetDeadline(t time.Time) error {
	return nil
}

func (m *MockConn) SetReadDeadline(t time.Time) error {
	return nil
}

func (m *MockConn) SetWriteDeadline(t time.Time) error {
	return nil
}

func newTestServer(t *testing.T, store FileStore) *Server {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Directory = t.TempDir()
	return NewServer(cfg, store, zerolog.Nop())
}

func runWorker(t *testing.T, srv *Server, request string) *MockConn {
	t.Helper()
	conn := newMockConn(request)
	NewWorker(srv).Start(conn)
	if conn.closed != 1 {
		t.Errorf("connection closed %d times, want 1", conn.closed)
	}
	return conn
}

func TestWorkerStart(t *testing.T) {
	srv := newTestServer(t, newMemStore())
	conn := runWorker(t, srv, "GET / HTTP/1.1\r\nHost: localhost\r\n\r\n")

	ss := []string{
		"HTTP/1.1 200 OK\r\n",
		"Content-Length: 9\r\n",
		"Content-Type: text/plain\r\n",
		"\r\n",
		"Home page",
	}
	ExpectEqual(t, strings.Join(ss, ""), conn.String())
}

func TestWorkerScenarios(t *testing.T) {
	store, err := NewDirStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	srv := newTestServer(t, store)

	for _, tc := range []struct {
		request string
		expect  string
	}{
		{
			"GET /echo/abc HTTP/1.1\r\n\r\n",
			"HTTP/1.1 200 OK\r\nContent-Length: 3\r\nContent-Type: text/plain\r\n\r\nabc",
		},
		{
			"GET /User-Agent HTTP/1.1\r\nUser-Agent: test-client/1.0\r\n\r\n",
			"HTTP/1.1 200 OK\r\nContent-Length: 15\r\nContent-Type: text/plain\r\n\r\ntest-client/1.0",
		},
		{
			"POST /files/foo.txt HTTP/1.1\r\nContent-Length: 5\r\n\r\nhello",
			"HTTP/1.1 201 Created\r\nContent-Type: text/plain\r\n\r\n",
		},
		{
			"GET /files/foo.txt HTTP/1.1\r\n\r\n",
			"HTTP/1.1 200 OK\r\nContent-Length: 5\r\nContent-Type: application/octet-stream\r\n\r\nhello",
		},
		{
			"GET /nope HTTP/1.1\r\n\r\n",
			"HTTP/1.1 404 Not Found\r\nContent-Length: 9\r\nContent-Type: text/plain\r\n\r\nNot Found",
		},
	} {
		conn := runWorker(t, srv, tc.request)
		ExpectEqual(t, tc.expect, conn.String())
	}
}

func TestWorkerDropsMalformedRequest(t *testing.T) {
	srv := newTestServer(t, newMemStore())
	for _, request := range []string{
		"GET /\r\n\r\n",
		"GET /\xfe HTTP/1.1\r\n\r\n",
		"",
	} {
		conn := runWorker(t, srv, request)
		if conn.Len() != 0 {
			t.Errorf("%q: expected no response, got %q", request, conn.String())
		}
	}
}

func TestWorkerDropsOversizeRequest(t *testing.T) {
	srv := newTestServer(t, newMemStore())
	srv.cfg.ReadBufferSize = 16
	srv.cfg.MaxRequestBytes = 32
	conn := runWorker(t, srv, "GET / HTTP/1.1\r\nX-Pad: "+strings.Repeat("a", 64)+"\r\n\r\n")
	if strings.HasPrefix(conn.String(), "HTTP/1.1") {
		t.Errorf("expected no response, got %q", conn.String())
	}
}

type panicStore struct{}

func (panicStore) Get(string) ([]byte, error) { panic("boom") }
func (panicStore) Put(string, []byte) error   { panic("boom") }

func TestWorkerRecoversDispatchPanic(t *testing.T) {
	srv := newTestServer(t, panicStore{})
	conn := runWorker(t, srv, "GET /anything HTTP/1.1\r\n\r\n")
	if conn.Len() != 0 {
		t.Errorf("expected no response, got %q", conn.String())
	}
}

func TestWorkerClosesOnWriteFailure(t *testing.T) {
	srv := newTestServer(t, newMemStore())
	conn := newMockConn("GET / HTTP/1.1\r\n\r\n")
	conn.writeErr = errors.New("broken pipe")
	NewWorker(srv).Start(conn)
	if conn.closed != 1 {
		t.Errorf("connection closed %d times, want 1", conn.closed)
	}
}

func TestWorkerSingleRead(t *testing.T) {
	srv := newTestServer(t, newMemStore())
	srv.cfg.SingleRead = true
	conn := runWorker(t, srv, "GET /echo/one-shot HTTP/1.1\r\n\r\n")
	ExpectEqual(t, "HTTP/1.1 200 OK\r\nContent-Length: 8\r\nContent-Type: text/plain\r\n\r\none-shot", conn.String())
}
