package main

import (
	"runtime/debug"
	"strings"
	"testing"

	"github.com/stealthrocket/httpoll/internal/assert"
)

var versionTests = tests{
	"show the version command help with the short option": func(t *testing.T) {
		stdout, stderr, exitCode := execute(t, "version", "-h")
		assert.Equal(t, exitCode, 0)
		assert.True(t, strings.HasPrefix(stdout, "Usage:\thttpoll version\n"), stdout)
		assert.Equal(t, stderr, "")
	},

	"the version starts with the prefix httpoll": func(t *testing.T) {
		stdout, stderr, exitCode := execute(t, "version")
		assert.Equal(t, exitCode, 0)
		assert.True(t, strings.HasPrefix(stdout, "httpoll "), stdout)
		assert.Equal(t, stderr, "")
	},
}

func TestBuildVersion(t *testing.T) {
	tests := []struct {
		scenario string
		info     *debug.BuildInfo
		version  string
	}{
		{
			scenario: "no build information",
			version:  "httpoll devel",
		},
		{
			scenario: "development build",
			info:     &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}},
			version:  "httpoll devel",
		},
		{
			scenario: "tagged release",
			info: &debug.BuildInfo{
				Main: debug.Module{Version: "v0.3.1"},
				Settings: []debug.BuildSetting{
					{Key: "vcs.revision", Value: "8f1c2a9e4b7d6c5a3f2e1d0c"},
					{Key: "vcs.modified", Value: "false"},
				},
			},
			version: "httpoll v0.3.1 (8f1c2a9e4b7d)",
		},
		{
			scenario: "modified work tree",
			info: &debug.BuildInfo{
				Settings: []debug.BuildSetting{
					{Key: "vcs.revision", Value: "8f1c2a9"},
					{Key: "vcs.modified", Value: "true"},
				},
			},
			version: "httpoll devel (8f1c2a9, modified)",
		},
	}

	for _, test := range tests {
		t.Run(test.scenario, func(t *testing.T) {
			assert.Equal(t, buildVersion(test.info, test.info != nil), test.version)
		})
	}
}
