package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/torontotech/meetups/internal/config"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

// App carries what commands need from the process environment
type App struct {
	Out        io.Writer
	Err        io.Writer
	LoadConfig func() (*config.Config, error)
}

func defaultApp() *App {
	return &App{Out: os.Stdout, Err: os.Stderr, LoadConfig: config.Load}
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	return newRootCmd(defaultApp())
}

func newRootCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "meetups",
		Short: "Scrape Toronto tech meetups and serve them",
		Long: `Scrapes community profiles and upcoming events from the registered
meetup pages into a shared store, and serves the results to the web front end.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(app.Out)
	cmd.SetErr(app.Err)

	cmd.AddCommand(
		newScrapeCmd(app, "scrape-meetups", "Refresh meetup profiles from the registry", RunMeetups),
		newScrapeCmd(app, "scrape-events", "Refresh events for every stored meetup", RunEvents),
		newServeCmd(app),
		newSourcesCmd(app),
		newExportICSCmd(app),
	)
	return cmd
}

type runner func(ctx context.Context, cfg *config.Config, out io.Writer, format OutputFormat) error

func newScrapeCmd(app *App, use, short string, run runner) *cobra.Command {
	var (
		flagFormat string
		flagDryRun bool
	)
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseFormat(flagFormat)
			if err != nil {
				return err
			}
			cfg, err := app.LoadConfig()
			if err != nil {
				return err
			}
			if flagDryRun {
				cfg.DryRun = true
			}
			return run(cmd.Context(), cfg, app.Out, format)
		},
	}
	cmd.Flags().StringVar(&flagFormat, "format", "text", "Output format: text or json")
	cmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "Scrape without writing to the store (same as DRY_RUN=true)")
	return cmd
}

func parseFormat(s string) (OutputFormat, error) {
	format := OutputFormat(s)
	if format != FormatText && format != FormatJSON {
		return "", fmt.Errorf("invalid format: %s (must be 'text' or 'json')", s)
	}
	return format, nil
}

// Execute runs the CLI, cancelling the command context on SIGINT/SIGTERM
func Execute() {
	os.Exit(ExecuteContext(context.Background(), NewRootCmd(), os.Stderr))
}

// ExecuteContext runs cmd and returns the process exit code
func ExecuteContext(ctx context.Context, cmd *cobra.Command, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitError
	}
	return ExitSuccess
}
