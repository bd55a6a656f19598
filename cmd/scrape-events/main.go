// Command scrape-events refreshes the store once and exits. It takes no
// flags: DRY_RUN and the store credentials come from the environment.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/torontotech/meetups/internal/cli"
	"github.com/torontotech/meetups/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(cli.ExitError)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	return cli.RunEvents(ctx, cfg, os.Stdout, cli.FormatText)
}
