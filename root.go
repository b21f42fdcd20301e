package main

// Notes on program structure
// --------------------------
//
// httpoll uses subcommands to invoke specific functionalities of the program.
// Each subcommand is implemented by a function named after the command, in a
// file of the same name (e.g. the "help" command is implemented by the help
// function in help.go). The "config" command is implemented by configure since
// its name is taken by the configuration package.
//
// The usage message for each command is declared by a constant starting with
// the command name and followed by the suffix "Usage". For example, the usage
// message for the "help" command is declared by the constant helpUsage.
//
// The usage message contains a "Usage:	httpoll <command>" section presenting
// the structure of the command. Note the tabulation separating "Usage:" and
// "httpoll".

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/stealthrocket/httpoll/internal/config"
	"github.com/stealthrocket/httpoll/internal/human"
	"golang.org/x/exp/slices"
)

const rootUsage = `httpoll - Poll-driven HTTP/1.1 client

   httpoll issues HTTP requests from a single polling loop, streaming downloads
   to disk and pacing uploads to a bandwidth limit.

Example:

   $ httpoll get http://localhost:8080/health
   ok

   $ httpoll upload --limit 1MiB/s http://localhost:8080/upload ./data.bin
   uploaded 24 MiB / 24 MiB (100%) at 1 MiB/s
   201

For a list of commands available, run 'httpoll help'.`

// root is the httpoll entrypoint.
func root(ctx context.Context, args ...string) int {
	if path := os.Getenv("HTTPOLLCONFIG"); path != "" {
		config.Path = human.Path(path)
	}

	// Options of the root command stop at the first positional argument, which
	// is the name of the sub-command.
	flagSet := newFlagSet("httpoll", helpUsage)
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return exit("httpoll", usageError("httpoll: %s", err))
	}
	if args = flagSet.Args(); len(args) == 0 {
		fmt.Println(rootUsage)
		return 0
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd, args := args[0], args[1:]

	var err error
	switch cmd {
	case "config":
		err = configure(ctx, args)
	case "download":
		err = download(ctx, args)
	case "get":
		err = get(ctx, args)
	case "help":
		err = help(ctx, args)
	case "post":
		err = post(ctx, args)
	case "upload":
		err = upload(ctx, args)
	case "version":
		err = version(ctx, args)
	default:
		err = unknown(ctx, cmd)
	}
	return exit("httpoll "+cmd, err)
}

func exit(cmd string, err error) int {
	var code ExitCode
	switch {
	case err == nil, errors.Is(err, flag.ErrHelp):
		return 0
	case errors.As(err, &code):
		return int(code)
	}
	switch e := err.(type) {
	case usage:
		fmt.Fprintf(os.Stderr, "%s\n", e)
		return 2
	default:
		fmt.Fprintf(os.Stderr, "ERR: %s: %s\n", cmd, err)
		return 1
	}
}

// ExitCode is an error type returned from command functions to indicate the
// exit code that should be returned by the program.
type ExitCode int

func (e ExitCode) Error() string {
	return fmt.Sprintf("exit: %d", e)
}

// usage is an error type returned from command functions to indicate a usage
// error.
//
// Usage errors cause the program to exit with status code 2.
type usage string

func usageError(msg string, args ...any) error {
	return usage(fmt.Sprintf(msg, args...))
}

func (e usage) Error() string {
	return string(e)
}

func setEnum[T ~string](enum *T, typ string, value string, options ...string) error {
	if slices.Contains(options, value) {
		*enum = T(value)
		return nil
	}
	return fmt.Errorf("unsupported %s: %q (not one of %s)", typ, value, strings.Join(options, ", "))
}

type outputFormat string

func (o outputFormat) String() string {
	return string(o)
}

func (o *outputFormat) Set(value string) error {
	return setEnum(o, "output format", value, "text", "json", "yaml")
}

type stringList []string

func (s stringList) String() string {
	return fmt.Sprintf("%v", []string(s))
}

func (s *stringList) Set(value string) error {
	*s = append(*s, value)
	return nil
}

func newFlagSet(cmd, usage string) *flag.FlagSet {
	usage = strings.TrimSpace(usage)
	flagSet := flag.NewFlagSet(cmd, flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	// The usage message is also printed when parsing fails.
	flagSet.Usage = func() { fmt.Println(usage) }
	customVar(flagSet, &config.Path, "c", "config")
	return flagSet
}

// parseFlags is a greedy parser which consumes all options known to f and
// returns the remaining arguments. Positional arguments may be interleaved
// with options.
func parseFlags(f *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := f.Parse(args); err != nil {
			if errors.Is(err, flag.ErrHelp) {
				return nil, err
			}
			return nil, usageError("%s: %s", f.Name(), err)
		}
		if args = f.Args(); len(args) == 0 {
			return positional, nil
		}
		i := slices.IndexFunc(args, func(s string) bool {
			return strings.HasPrefix(s, "-") && s != "-"
		})
		if i < 0 {
			i = len(args)
		}
		positional = append(positional, args[:i]...)
		args = args[i:]
	}
}

func boolVar(f *flag.FlagSet, dst *bool, name string, alias ...string) {
	f.BoolVar(dst, name, *dst, "")
	for _, name := range alias {
		f.BoolVar(dst, name, *dst, "")
	}
}

func customVar(f *flag.FlagSet, dst flag.Value, name string, alias ...string) {
	f.Var(dst, name, "")
	for _, name := range alias {
		f.Var(dst, name, "")
	}
}
