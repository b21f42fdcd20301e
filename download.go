package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/stealthrocket/httpoll/internal/human"
	"github.com/stealthrocket/httpoll/pkg/httpoll"
)

const downloadUsage = `
Usage:	httpoll download [options] <url> <file>

   The download sub-command streams the body of a resource to a file. The
   response must have status 200, progress is printed on stderr at most once
   per second.

Example:

   $ httpoll download http://localhost:8080/data.bin ./data.bin
   downloaded 16 KiB / 24 MiB (0.1%) at 16 KiB/s
   downloaded 11.2 MiB / 24 MiB (46.7%) at 11.2 MiB/s
   downloaded 24 MiB / 24 MiB (100%) at 12 MiB/s

Options:
   -c, --config path         Path to the httpoll configuration file (overrides HTTPOLLCONFIG)
   -H, --header line         Add a header line to the request (may be repeated)
   -h, --help                Show this usage information
   -q, --quiet               Do not print progress
   -t, --timeout duration    Overall deadline of the download (default: client.timeout)
   -v, --verbose             Enable debug logs
`

func download(ctx context.Context, args []string) error {
	var (
		quiet   bool
		verbose bool
		headers stringList
		timeout human.Duration
	)

	flagSet := newFlagSet("httpoll download", downloadUsage)
	boolVar(flagSet, &quiet, "q", "quiet")
	boolVar(flagSet, &verbose, "v", "verbose")
	customVar(flagSet, &headers, "H", "header")
	customVar(flagSet, &timeout, "t", "timeout")

	args, err := parseFlags(flagSet, args)
	if err != nil {
		return err
	}
	if len(args) != 2 {
		return usageError(`Expected a URL and an output file as arguments`)
	}

	s, err := openSession(verbose, headers)
	if err != nil {
		return err
	}
	defer s.Close()

	f, err := os.Create(args[1])
	if err != nil {
		return err
	}

	var (
		id        uuid.UUID
		writeErr  error
		last      int64
		lastTotal int64
		report    = newProgress("downloaded")
	)

	onDownload := func(chunk []byte, downloaded, total int64) {
		if writeErr != nil {
			return
		}
		if _, err := f.Write(chunk); err != nil {
			writeErr = err
			s.client.Cancel(id)
			return
		}
		last, lastTotal = downloaded, total
		if !quiet {
			report.report(downloaded, total, 0)
		}
	}

	opts := append(timeoutOption(flagSet, timeout), httpoll.WithResource(f))
	_, err = s.do(ctx, func(onDone httpoll.Callback, onError httpoll.ErrorCallback) {
		id = s.client.DownloadFile(args[0], onDownload, onDone, onError, opts...)
	})
	if writeErr != nil {
		err = fmt.Errorf("writing %s: %w", args[1], writeErr)
	}
	if err != nil {
		_ = os.Remove(args[1])
		return err
	}
	if !quiet {
		report.print(last, lastTotal, 0)
	}
	return nil
}

