// Command doaddoad is a Markov chain bot: it reads the timelines of the
// accounts following it, feeds them to dadadodo and posts what comes out.
//
// Usage:
//
//	doaddoad                 Update the corpus if stale, then post one message
//	doaddoad -n              Dry run: print the message instead of posting
//	doaddoad -i              Pick the message interactively
//	doaddoad generate -n 5   Print candidate messages
//	doaddoad stats           Corpus statistics
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/filippog/doaddoad/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	logging.Close()

	if err != nil {
		fmt.Fprintln(os.Stderr, "doaddoad:", err)
		os.Exit(1)
	}
}
