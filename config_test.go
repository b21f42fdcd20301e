package main

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stealthrocket/httpoll/internal/assert"
)

var configTests = tests{
	"the configuration file is printed as is by default": func(t *testing.T) {
		stdout, stderr, exitCode := execute(t, "config")
		assert.Equal(t, exitCode, 0)
		assert.Equal(t, stdout, testConfig)
		assert.Equal(t, stderr, "")
	},

	"the configuration is printed as yaml with defaults": func(t *testing.T) {
		stdout, _, exitCode := execute(t, "config", "-o", "yaml")
		assert.Equal(t, exitCode, 0)
		assert.True(t, strings.Contains(stdout, "  pollInterval: 10ms\n"), stdout)
		assert.True(t, strings.Contains(stdout, "  connectTimeout: 5s\n"), stdout)
	},

	"the configuration is printed as json": func(t *testing.T) {
		stdout, _, exitCode := execute(t, "config", "--output", "json")
		assert.Equal(t, exitCode, 0)

		var c struct {
			Client struct {
				DrainTimeout string `json:"drainTimeout"`
			} `json:"client"`
		}
		assert.OK(t, json.Unmarshal([]byte(stdout), &c))
		assert.Equal(t, c.Client.DrainTimeout, "100ms")
	},

	"unsupported output formats are usage errors": func(t *testing.T) {
		_, stderr, exitCode := execute(t, "config", "-o", "xml")
		assert.Equal(t, exitCode, 2)
		assert.True(t, strings.Contains(stderr, "unsupported output format"), stderr)
	},
}
