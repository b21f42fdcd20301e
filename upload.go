package main

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/stealthrocket/httpoll/internal/human"
	"github.com/stealthrocket/httpoll/pkg/httpoll"
)

const uploadUsage = `
Usage:	httpoll upload [options] <url> <file>

   The upload sub-command sends the content of a file with a chunked POST
   request. The size of chunks adapts to the pace of the connection, and the
   transfer rate may be capped with --limit. Progress is printed on stderr at
   most once per second, the response body is written to stdout.

Example:

   $ httpoll upload --limit 1MiB/s http://localhost:8080/upload ./data.bin
   uploaded 64 KiB / 24 MiB (0.3%) at 0/s
   uploaded 1 MiB / 24 MiB (4.2%) at 1 MiB/s
   ...

Options:
   -c, --config path         Path to the httpoll configuration file (overrides HTTPOLLCONFIG)
   -H, --header line         Add a header line to the request (may be repeated)
   -h, --help                Show this usage information
   -i, --include             Print the response status and headers before the body
   -l, --limit bandwidth     Cap the upload rate, for example 512KiB/s (default: client.bandwidthLimit)
   -q, --quiet               Do not print progress
   -t, --timeout duration    Overall deadline of the upload (default: client.timeout)
   -v, --verbose             Enable debug logs
`

func upload(ctx context.Context, args []string) error {
	var (
		include bool
		quiet   bool
		verbose bool
		headers stringList
		limit   human.Bandwidth
		timeout human.Duration
	)

	flagSet := newFlagSet("httpoll upload", uploadUsage)
	boolVar(flagSet, &include, "i", "include")
	boolVar(flagSet, &quiet, "q", "quiet")
	boolVar(flagSet, &verbose, "v", "verbose")
	customVar(flagSet, &headers, "H", "header")
	customVar(flagSet, &limit, "l", "limit")
	customVar(flagSet, &timeout, "t", "timeout")

	args, err := parseFlags(flagSet, args)
	if err != nil {
		return err
	}
	if len(args) != 2 {
		return usageError(`Expected a URL and an input file as arguments`)
	}

	s, err := openSession(verbose, headers)
	if err != nil {
		return err
	}
	defer s.Close()

	f, err := os.Open(args[1])
	if err != nil {
		return err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return err
	}

	opts := append(timeoutOption(flagSet, timeout), httpoll.WithResource(f))
	if limit != 0 {
		opts = append(opts, httpoll.WithBandwidthLimit(int64(limit)))
	}

	report := newProgress("uploaded")
	onProgress := func(sent, total int64, speed float64) {
		if !quiet {
			report.report(sent, total, speed)
		}
	}

	res, err := s.do(ctx, func(onDone httpoll.Callback, onError httpoll.ErrorCallback) {
		s.client.UploadChunks(args[0], info.Size(), readChunk(f), onProgress, onDone, onError, opts...)
	})
	if err != nil {
		return err
	}
	if !quiet {
		report.print(info.Size(), info.Size(), 0)
	}
	return writeResponse(res, include, false)
}

// readChunk returns a read callback serving chunks of r at the offsets the
// upload asks for.
func readChunk(r io.ReaderAt) httpoll.ReadChunkCallback {
	return func(dst []byte, offset int64) (int, error) {
		n, err := r.ReadAt(dst, offset)
		if errors.Is(err, io.EOF) && n > 0 {
			err = nil
		}
		return n, err
	}
}
