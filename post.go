package main

import (
	"context"
	"io"
	"os"

	"github.com/stealthrocket/httpoll/internal/human"
	"github.com/stealthrocket/httpoll/pkg/httpoll"
)

const postUsage = `
Usage:	httpoll post [options] <url> [body]

   The post sub-command sends a POST request carrying the body given as
   argument, or read from a file with --data, and writes the response body to
   stdout.

Example:

   $ httpoll post --json http://localhost:8080/items '{"name":"a"}'
   {"id":1,"name":"a"}

Options:
   -c, --config path         Path to the httpoll configuration file (overrides HTTPOLLCONFIG)
   -d, --data path           Read the request body from a file, or stdin when the path is -
       --decode              Decode the body according to its Content-Encoding
   -H, --header line         Add a header line to the request (may be repeated)
   -h, --help                Show this usage information
   -i, --include             Print the response status and headers before the body
       --json                Send the body with the application/json content type
   -t, --timeout duration    Overall deadline of the request (default: client.timeout)
   -v, --verbose             Enable debug logs
`

func post(ctx context.Context, args []string) error {
	var (
		data    human.Path
		decode  bool
		include bool
		asJSON  bool
		verbose bool
		headers stringList
		timeout human.Duration
	)

	flagSet := newFlagSet("httpoll post", postUsage)
	customVar(flagSet, &data, "d", "data")
	boolVar(flagSet, &decode, "decode")
	boolVar(flagSet, &include, "i", "include")
	boolVar(flagSet, &asJSON, "json")
	boolVar(flagSet, &verbose, "v", "verbose")
	customVar(flagSet, &headers, "H", "header")
	customVar(flagSet, &timeout, "t", "timeout")

	args, err := parseFlags(flagSet, args)
	if err != nil {
		return err
	}

	var body []byte
	switch {
	case data != "" && len(args) == 1:
		if body, err = readData(data); err != nil {
			return err
		}
	case data == "" && len(args) == 2:
		body = []byte(args[1])
	default:
		return usageError(`Expected a URL and a body, either as argument or with --data`)
	}

	s, err := openSession(verbose, headers)
	if err != nil {
		return err
	}
	defer s.Close()

	opts := timeoutOption(flagSet, timeout)
	res, err := s.do(ctx, func(onDone httpoll.Callback, onError httpoll.ErrorCallback) {
		if asJSON {
			s.client.PostJSON(args[0], body, onDone, onError, opts...)
		} else {
			s.client.Post(args[0], body, "", onDone, onError, opts...)
		}
	})
	if err != nil {
		return err
	}
	return writeResponse(res, include, decode)
}

func readData(path human.Path) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	p, err := path.Expand()
	if err != nil {
		return nil, err
	}
	return os.ReadFile(p)
}
