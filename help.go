package main

import (
	"context"
	"fmt"
	"strings"
)

const helpUsage = `
Usage:	httpoll <command> [options]

Request Commands:
   get       Send a GET request and print the response body
   post      Send a POST request and print the response body
   download  Download a resource to a file
   upload    Upload a file with a chunked request

Other Commands:
   config   View or edit the httpoll configuration
   help     Show usage information about httpoll commands
   version  Show the httpoll version information

Global Options:
   -c, --config path  Path to the httpoll configuration file (overrides HTTPOLLCONFIG)
   -h, --help         Show usage information

For a description of each command, run 'httpoll help <command>'.`

func help(ctx context.Context, args []string) error {
	flagSet := newFlagSet("httpoll help", helpUsage)
	args, err := parseFlags(flagSet, args)
	if err != nil {
		return err
	}

	var cmd string
	var msg string

	if len(args) > 0 {
		cmd = args[0]
	}

	switch cmd {
	case "config":
		msg = configUsage
	case "download":
		msg = downloadUsage
	case "get":
		msg = getUsage
	case "help", "":
		msg = helpUsage
	case "post":
		msg = postUsage
	case "upload":
		msg = uploadUsage
	case "version":
		msg = versionUsage
	default:
		fmt.Printf("httpoll help %s: unknown command\n", cmd)
		return ExitCode(1)
	}

	fmt.Println(strings.TrimSpace(msg))
	return nil
}
