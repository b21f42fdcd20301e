package main

import "context"

func unknown(ctx context.Context, cmd string) error {
	return usageError("httpoll: %q is not a command, run 'httpoll help' to list the commands", cmd)
}
