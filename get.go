package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/stealthrocket/httpoll/internal/human"
	"github.com/stealthrocket/httpoll/pkg/httpoll"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

const getUsage = `
Usage:	httpoll get [options] <url>

   The get sub-command sends a GET request and writes the response body to
   stdout. Responses are buffered in memory, use 'httpoll download' for large
   resources.

Example:

   $ httpoll get -H 'Accept: text/plain' http://localhost:8080/health
   ok

Options:
   -c, --config path         Path to the httpoll configuration file (overrides HTTPOLLCONFIG)
       --decode              Decode the body according to its Content-Encoding
   -H, --header line         Add a header line to the request (may be repeated)
   -h, --help                Show this usage information
   -i, --include             Print the response status and headers before the body
   -t, --timeout duration    Overall deadline of the request (default: client.timeout)
   -v, --verbose             Enable debug logs
`

func get(ctx context.Context, args []string) error {
	var (
		decode  bool
		include bool
		verbose bool
		headers stringList
		timeout human.Duration
	)

	flagSet := newFlagSet("httpoll get", getUsage)
	boolVar(flagSet, &decode, "decode")
	boolVar(flagSet, &include, "i", "include")
	boolVar(flagSet, &verbose, "v", "verbose")
	customVar(flagSet, &headers, "H", "header")
	customVar(flagSet, &timeout, "t", "timeout")

	args, err := parseFlags(flagSet, args)
	if err != nil {
		return err
	}
	if len(args) != 1 {
		return usageError(`Expected exactly one URL as argument`)
	}

	s, err := openSession(verbose, headers)
	if err != nil {
		return err
	}
	defer s.Close()

	opts := timeoutOption(flagSet, timeout)
	res, err := s.do(ctx, func(onDone httpoll.Callback, onError httpoll.ErrorCallback) {
		s.client.Get(args[0], "", onDone, onError, opts...)
	})
	if err != nil {
		return err
	}
	return writeResponse(res, include, decode)
}

// do issues a single request with the callbacks passed to issue, and waits
// for its outcome.
func (s *session) do(ctx context.Context, issue func(httpoll.Callback, httpoll.ErrorCallback)) (*httpoll.Response, error) {
	var res *httpoll.Response
	var err error
	issue(
		func(r *httpoll.Response) { res = r },
		func(e error) { err = e },
	)
	if waitErr := s.wait(ctx); err == nil {
		err = waitErr
	}
	return res, err
}

// timeoutOption returns the option overriding the configured timeout when
// the -t flag was passed on the command line.
func timeoutOption(f *flag.FlagSet, timeout human.Duration) []httpoll.Option {
	var opts []httpoll.Option
	f.Visit(func(f *flag.Flag) {
		if f.Name == "t" || f.Name == "timeout" {
			opts = []httpoll.Option{httpoll.WithTimeout(time.Duration(timeout))}
		}
	})
	return opts
}

func writeResponse(res *httpoll.Response, include, decode bool) error {
	if include {
		w := new(strings.Builder)
		fmt.Fprintf(w, "HTTP %d\n", res.Status)
		names := maps.Keys(res.Headers)
		slices.Sort(names)
		for _, name := range names {
			fmt.Fprintf(w, "%s: %s\n", name, res.Headers[name])
		}
		fmt.Fprintln(w)
		fmt.Print(w.String())
	}

	body := res.Body
	if decode {
		b, err := res.DecodedBody()
		if err != nil {
			return err
		}
		body = b
	}
	_, err := os.Stdout.Write(body)
	return err
}
