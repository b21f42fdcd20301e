package main

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stealthrocket/httpoll/internal/assert"
	"github.com/stealthrocket/httpoll/internal/testserver"
)

var downloadTests = tests{
	"download writes the body to a file": func(t *testing.T) {
		const size = 100_000
		server := testserver.Start(t, testserver.Download(size, false))
		path := filepath.Join(t.TempDir(), "data.bin")

		stdout, stderr, exitCode := execute(t, "download", server.URL("/data.bin"), path)
		assert.Equal(t, exitCode, 0)
		assert.Equal(t, stdout, "")
		assert.True(t, strings.Contains(stderr, "downloaded 97.7 KiB / 97.7 KiB (100%)"), stderr)

		b, err := os.ReadFile(path)
		assert.OK(t, err)
		assert.Equal(t, len(b), size)
		for i, c := range b {
			if c != testserver.Pattern(int64(i)) {
				t.Fatalf("byte at offset %d mismatch: want %d, got %d", i, testserver.Pattern(int64(i)), c)
			}
		}
	},

	"chunked downloads are written without their framing": func(t *testing.T) {
		server := testserver.Start(t, testserver.Download(20_000, true))
		path := filepath.Join(t.TempDir(), "data.bin")

		_, stderr, exitCode := execute(t, "download", "-q", server.URL("/"), path)
		assert.Equal(t, exitCode, 0)
		assert.Equal(t, stderr, "")

		info, err := os.Stat(path)
		assert.OK(t, err)
		assert.Equal(t, info.Size(), int64(20_000))
	},

	"the file is removed when the download fails": func(t *testing.T) {
		server := testserver.Start(t, testserver.Reply(nil, 404, "not found"))
		path := filepath.Join(t.TempDir(), "data.bin")

		_, stderr, exitCode := execute(t, "download", server.URL("/"), path)
		assert.Equal(t, exitCode, 1)
		assert.Equal(t, stderr, "ERR: httpoll download: HTTP error 404\n")

		_, err := os.Stat(path)
		assert.True(t, errors.Is(err, fs.ErrNotExist), "the output file must be removed")
	},
}
