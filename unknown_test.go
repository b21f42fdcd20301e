package main

import (
	"testing"

	"github.com/stealthrocket/httpoll/internal/assert"
)

var unknownTests = tests{
	"unknown commands are usage errors": func(t *testing.T) {
		stdout, stderr, exitCode := execute(t, "nope")
		assert.Equal(t, exitCode, 2)
		assert.Equal(t, stdout, "")
		assert.Equal(t, stderr, "httpoll: \"nope\" is not a command, run 'httpoll help' to list the commands\n")
	},
}
