package testserver_test

import (
	"bufio"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stealthrocket/httpoll/internal/assert"
	"github.com/stealthrocket/httpoll/internal/testserver"
)

func roundTrip(t *testing.T, addr, request string) string {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	assert.OK(t, err)
	defer conn.Close()
	_, err = io.WriteString(conn, request)
	assert.OK(t, err)
	b, err := io.ReadAll(conn)
	assert.OK(t, err)
	return string(b)
}

func TestReply(t *testing.T) {
	rec := new(testserver.Recorder)
	s := testserver.Start(t, testserver.Reply(rec, 200, "pong", "X-Test: 1"))

	res := roundTrip(t, s.Addr(), "GET /ok HTTP/1.1\r\nHost: test.local\r\n\r\n")
	assert.Equal(t, res, "HTTP/1.1 200 OK\r\nX-Test: 1\r\nContent-Length: 4\r\n\r\npong")

	req := rec.Last()
	assert.Equal(t, req.Method, "GET")
	assert.Equal(t, req.Target, "/ok")
	assert.Equal(t, req.Get("host"), "test.local")
	assert.Equal(t, s.Accepted(), 1)
}

func TestEchoChunked(t *testing.T) {
	rec := new(testserver.Recorder)
	s := testserver.Start(t, testserver.Echo(rec))

	res := roundTrip(t, s.Addr(), "POST /up HTTP/1.1\r\nHost: x\r\nTransfer-Encoding: chunked\r\n\r\n"+
		"3\r\nabc\r\n"+"a;ext=1\r\n0123456789\r\n"+"0\r\n\r\n")
	assert.True(t, strings.HasSuffix(res, "\r\n\r\n13"), "unexpected response: "+res)

	req := rec.Last()
	assert.Equal(t, string(req.Body), "abc0123456789")
	assert.EqualAll(t, req.Chunks, []int{3, 10})
}

func TestDownload(t *testing.T) {
	for _, chunked := range []bool{false, true} {
		s := testserver.Start(t, testserver.Download(20000, chunked))

		conn, err := net.Dial("tcp", s.Addr())
		assert.OK(t, err)
		_, err = io.WriteString(conn, "GET / HTTP/1.1\r\nHost: x\r\n\r\n")
		assert.OK(t, err)

		r := bufio.NewReader(conn)
		status, err := r.ReadString('\n')
		assert.OK(t, err)
		assert.Equal(t, status, "HTTP/1.1 200 OK\r\n")

		// Decode the response with the request reader, the framing rules of
		// bodies are the same in both directions.
		req := &testserver.Request{}
		for {
			line, err := r.ReadString('\n')
			assert.OK(t, err)
			if line == "\r\n" {
				break
			}
			req.Header = append(req.Header, strings.TrimSuffix(line, "\r\n"))
		}
		assert.OK(t, req.ReadBody(r, nil))
		assert.Equal(t, len(req.Body), 20000)
		for i, b := range req.Body {
			if b != testserver.Pattern(int64(i)) {
				t.Fatalf("byte at offset %d mismatch: %d != %d", i, b, testserver.Pattern(int64(i)))
			}
		}
		conn.Close()
	}
}

func TestBlackhole(t *testing.T) {
	addr := testserver.Blackhole(t)
	_, err := net.DialTimeout("tcp", addr, 100*time.Millisecond)
	var netErr net.Error
	assert.True(t, err != nil, "connecting to a blackhole must not succeed")
	if ne, ok := err.(net.Error); ok {
		netErr = ne
	}
	assert.True(t, netErr != nil && netErr.Timeout(), "connection attempt must time out")
}
