// Command billing runs the staff-wellbeing billing service.
//
//	billing serve                       HTTP API
//	billing migrate [--status]          apply or list schema migrations
//	billing reconcile --older-than 72h  cancel abandoned checkouts
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
