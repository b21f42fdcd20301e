package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stealthrocket/httpoll/internal/assert"
	"github.com/stealthrocket/httpoll/internal/testserver"
)

var getTests = tests{
	"get prints the response body": func(t *testing.T) {
		rec := new(testserver.Recorder)
		server := testserver.Start(t, testserver.Reply(rec, 200, "pong"))

		stdout, stderr, exitCode := execute(t, "get", server.URL("/health"))
		assert.Equal(t, exitCode, 0)
		assert.Equal(t, stdout, "pong")
		assert.Equal(t, stderr, "")

		req := rec.Last()
		assert.Equal(t, req.Method, "GET")
		assert.Equal(t, req.Target, "/health")
	},

	"header lines are added to the request": func(t *testing.T) {
		rec := new(testserver.Recorder)
		server := testserver.Start(t, testserver.Reply(rec, 200, ""))

		_, _, exitCode := execute(t, "get", "-H", "X-Trace: 42", server.URL("/"), "--header", "Accept: text/plain")
		assert.Equal(t, exitCode, 0)
		assert.Equal(t, rec.Last().Get("X-Trace"), "42")
		assert.Equal(t, rec.Last().Get("Accept"), "text/plain")
	},

	"the status and headers are printed with --include": func(t *testing.T) {
		server := testserver.Start(t, testserver.Reply(nil, 404, "missing", "X-Reason: gone"))

		stdout, _, exitCode := execute(t, "get", "-i", server.URL("/"))
		assert.Equal(t, exitCode, 0)
		assert.Equal(t, stdout, "HTTP 404\nContent-Length: 7\nX-Reason: gone\n\nmissing")
	},

	"compressed bodies are decoded with --decode": func(t *testing.T) {
		body := new(bytes.Buffer)
		w := gzip.NewWriter(body)
		_, _ = w.Write([]byte("hello, world"))
		assert.OK(t, w.Close())
		server := testserver.Start(t, testserver.Reply(nil, 200, body.String(), "Content-Encoding: gzip"))

		stdout, _, exitCode := execute(t, "get", "--decode", server.URL("/"))
		assert.Equal(t, exitCode, 0)
		assert.Equal(t, stdout, "hello, world")
	},

	"a request exceeding its timeout fails": func(t *testing.T) {
		server := testserver.Start(t, testserver.Hang())

		stdout, stderr, exitCode := execute(t, "get", "-t", "100ms", server.URL("/"))
		assert.Equal(t, exitCode, 1)
		assert.Equal(t, stdout, "")
		assert.Equal(t, stderr, "ERR: httpoll get: Timeout\n")
	},

	"invalid urls are reported as connection failures": func(t *testing.T) {
		_, stderr, exitCode := execute(t, "get", "ftp://localhost/")
		assert.Equal(t, exitCode, 1)
		assert.True(t, strings.HasPrefix(stderr, "ERR: httpoll get: Failed to connect"), stderr)
	},

	"a url is required": func(t *testing.T) {
		_, stderr, exitCode := execute(t, "get")
		assert.Equal(t, exitCode, 2)
		assert.Equal(t, stderr, "Expected exactly one URL as argument\n")
	},
}
