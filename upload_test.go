package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stealthrocket/httpoll/internal/assert"
	"github.com/stealthrocket/httpoll/internal/testserver"
)

func writeTestFile(t *testing.T, size int) (string, []byte) {
	t.Helper()
	content := make([]byte, size)
	for i := range content {
		content[i] = testserver.Pattern(int64(i))
	}
	path := filepath.Join(t.TempDir(), "upload.bin")
	assert.OK(t, os.WriteFile(path, content, 0666))
	return path, content
}

var uploadTests = tests{
	"upload sends the file in chunks": func(t *testing.T) {
		rec := new(testserver.Recorder)
		server := testserver.Start(t, testserver.Echo(rec))
		path, content := writeTestFile(t, 50_000)

		stdout, stderr, exitCode := execute(t, "upload", server.URL("/upload"), path)
		assert.Equal(t, exitCode, 0)
		assert.Equal(t, stdout, "50000")
		assert.True(t, strings.Contains(stderr, "uploaded 48.8 KiB / 48.8 KiB (100%)"), stderr)

		req := rec.Last()
		assert.Equal(t, req.Method, "POST")
		assert.Equal(t, req.Get("Transfer-Encoding"), "chunked")
		assert.True(t, len(req.Chunks) > 0, "the body must be chunked")
		assert.True(t, bytes.Equal(req.Body, content), "uploaded content mismatch")
	},

	"uploads may be capped to a bandwidth limit": func(t *testing.T) {
		rec := new(testserver.Recorder)
		server := testserver.Start(t, testserver.Echo(rec))
		path, content := writeTestFile(t, 10_000)

		stdout, stderr, exitCode := execute(t, "upload", "-q", "--limit", "1MiB/s", server.URL("/"), path)
		assert.Equal(t, exitCode, 0)
		assert.Equal(t, stdout, "10000")
		assert.Equal(t, stderr, "")
		assert.True(t, bytes.Equal(rec.Last().Body, content), "uploaded content mismatch")
	},

	"invalid bandwidth limits are usage errors": func(t *testing.T) {
		_, _, exitCode := execute(t, "upload", "--limit", "fast", "http://localhost/", "file")
		assert.Equal(t, exitCode, 2)
	},

	"a missing file is reported": func(t *testing.T) {
		_, stderr, exitCode := execute(t, "upload", "http://localhost/", filepath.Join(t.TempDir(), "missing"))
		assert.Equal(t, exitCode, 1)
		assert.True(t, strings.HasPrefix(stderr, "ERR: httpoll upload: open "), stderr)
	},
}
