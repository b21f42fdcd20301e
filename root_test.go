package main

import (
	"strings"
	"testing"

	"github.com/stealthrocket/httpoll/internal/assert"
)

var rootTests = tests{
	"invoking httpoll without a command prints the introduction message": func(t *testing.T) {
		stdout, stderr, exitCode := execute(t)
		assert.Equal(t, exitCode, 0)
		assert.True(t, strings.HasPrefix(stdout, "httpoll - Poll-driven HTTP/1.1 client\n"), stdout)
		assert.Equal(t, stderr, "")
	},

	"show the httpoll help with the short option": func(t *testing.T) {
		stdout, stderr, exitCode := execute(t, "-h")
		assert.Equal(t, exitCode, 0)
		assert.True(t, strings.HasPrefix(stdout, "Usage:\thttpoll <command> "), stdout)
		assert.Equal(t, stderr, "")
	},

	"show the httpoll help with the long option": func(t *testing.T) {
		stdout, stderr, exitCode := execute(t, "--help")
		assert.Equal(t, exitCode, 0)
		assert.True(t, strings.HasPrefix(stdout, "Usage:\thttpoll <command> "), stdout)
		assert.Equal(t, stderr, "")
	},

	"unknown options of the root command are usage errors": func(t *testing.T) {
		stdout, stderr, exitCode := execute(t, "--nope")
		assert.Equal(t, exitCode, 2)
		assert.True(t, strings.HasPrefix(stdout, "Usage:\thttpoll <command> "), stdout)
		assert.True(t, strings.Contains(stderr, "flag provided but not defined"), stderr)
	},
}
