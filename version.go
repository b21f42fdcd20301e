package main

import (
	"context"
	"fmt"
	"runtime/debug"
)

const versionUsage = `
Usage:	httpoll version

   Prints the version of the httpoll module, followed by the commit it was
   built from when the build recorded one.

Options:
   -h, --help  Show this usage information
`

func version(ctx context.Context, args []string) error {
	flagSet := newFlagSet("httpoll version", versionUsage)
	args, err := parseFlags(flagSet, args)
	if err != nil {
		return err
	}
	if len(args) != 0 {
		return usageError("httpoll version: unexpected arguments: %q", args)
	}
	fmt.Println(buildVersion(debug.ReadBuildInfo()))
	return nil
}

// buildVersion formats the version line from the build information, which is
// missing from binaries built without module support.
func buildVersion(info *debug.BuildInfo, ok bool) string {
	if !ok {
		return "httpoll devel"
	}
	v := info.Main.Version
	if v == "" || v == "(devel)" {
		v = "devel"
	}
	var revision string
	var modified bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			modified = s.Value == "true"
		}
	}
	if len(revision) > 12 {
		revision = revision[:12]
	}
	switch {
	case revision == "":
		return "httpoll " + v
	case modified:
		return fmt.Sprintf("httpoll %s (%s, modified)", v, revision)
	default:
		return fmt.Sprintf("httpoll %s (%s)", v, revision)
	}
}
