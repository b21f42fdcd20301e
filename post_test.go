package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stealthrocket/httpoll/internal/assert"
	"github.com/stealthrocket/httpoll/internal/testserver"
)

var postTests = tests{
	"post sends the body given as argument": func(t *testing.T) {
		rec := new(testserver.Recorder)
		server := testserver.Start(t, testserver.Echo(rec))

		stdout, stderr, exitCode := execute(t, "post", server.URL("/items"), "hello")
		assert.Equal(t, exitCode, 0)
		assert.Equal(t, stdout, "5")
		assert.Equal(t, stderr, "")

		req := rec.Last()
		assert.Equal(t, req.Method, "POST")
		assert.Equal(t, req.Target, "/items")
		assert.Equal(t, string(req.Body), "hello")
	},

	"json bodies carry their content type": func(t *testing.T) {
		rec := new(testserver.Recorder)
		server := testserver.Start(t, testserver.Echo(rec))

		_, _, exitCode := execute(t, "post", "--json", server.URL("/"), `{"name":"a"}`)
		assert.Equal(t, exitCode, 0)
		assert.Equal(t, rec.Last().Get("Content-Type"), "application/json")
		assert.Equal(t, string(rec.Last().Body), `{"name":"a"}`)
	},

	"the body is read from a file with --data": func(t *testing.T) {
		rec := new(testserver.Recorder)
		server := testserver.Start(t, testserver.Echo(rec))

		path := filepath.Join(t.TempDir(), "body.txt")
		assert.OK(t, os.WriteFile(path, []byte("from a file"), 0666))

		stdout, _, exitCode := execute(t, "post", "-d", path, server.URL("/"))
		assert.Equal(t, exitCode, 0)
		assert.Equal(t, stdout, "11")
		assert.Equal(t, string(rec.Last().Body), "from a file")
	},

	"a body is required": func(t *testing.T) {
		_, stderr, exitCode := execute(t, "post", "http://localhost/")
		assert.Equal(t, exitCode, 2)
		assert.Equal(t, stderr, "Expected a URL and a body, either as argument or with --data\n")
	},
}
