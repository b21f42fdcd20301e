package main

import (
	"strings"
	"testing"

	"github.com/stealthrocket/httpoll/internal/assert"
)

var helpTests = tests{
	"show the help command without arguments": func(t *testing.T) {
		stdout, _, exitCode := execute(t, "help")
		assert.Equal(t, exitCode, 0)
		assert.True(t, strings.HasPrefix(stdout, "Usage:\thttpoll <command> "), stdout)
	},

	"show the usage of each command": func(t *testing.T) {
		for _, cmd := range []string{"config", "download", "get", "help", "post", "upload", "version"} {
			stdout, stderr, exitCode := execute(t, "help", cmd)
			assert.Equal(t, exitCode, 0)
			assert.True(t, strings.HasPrefix(stdout, "Usage:\thttpoll "), stdout)
			assert.Equal(t, stderr, "")
		}
	},

	"asking for help on an unknown command fails": func(t *testing.T) {
		stdout, _, exitCode := execute(t, "help", "nope")
		assert.Equal(t, exitCode, 1)
		assert.Equal(t, stdout, "httpoll help nope: unknown command\n")
	},
}
