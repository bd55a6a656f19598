package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/torontotech/meetups/internal/calendar"
	"github.com/torontotech/meetups/internal/catalog"
	"github.com/torontotech/meetups/internal/logger"
	"github.com/torontotech/meetups/internal/meetup"
	"github.com/torontotech/meetups/internal/metrics"
	"github.com/torontotech/meetups/internal/registry"
	"github.com/torontotech/meetups/internal/server"
	"github.com/torontotech/meetups/internal/store"
	"github.com/torontotech/meetups/internal/store/backend"
)

func newServeCmd(app *App) *cobra.Command {
	var flagAddr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the read API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig()
			if err != nil {
				return err
			}
			if err := cfg.RequireStore(); err != nil {
				return err
			}
			log := cfg.Logger()
			logger.SetDefault(log)

			ctx := cmd.Context()
			st, err := backend.Open(ctx, cfg.StoreURL, cfg.StoreKey)
			if err != nil {
				return fmt.Errorf("opening store: %w", err)
			}
			defer st.Close()

			cache, err := catalog.NewCache(cfg.CacheDir, cfg.CacheTTL)
			if err != nil {
				return err
			}
			log.Info("Read cache ready", logger.Fields{"dir": cache.Dir(), "ttl": cache.TTL().String()})

			addr := cfg.HTTPAddr
			if flagAddr != "" {
				addr = flagAddr
			}
			srv := server.New(server.Options{
				Reader:   st,
				Cache:    cache,
				Metrics:  metrics.New().WithRuntime(),
				Logger:   log,
				Location: cfg.Location,
			})
			return srv.ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&flagAddr, "addr", "", "Listen address (default HTTP_ADDR or :8080)")
	return cmd
}

func newSourcesCmd(app *App) *cobra.Command {
	var (
		flagFormat string
		flagSort   string
		flagFile   string
	)
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "List the registered sources and the site each one maps to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseFormat(flagFormat)
			if err != nil {
				return err
			}
			order := SortOrder(flagSort)
			if !order.valid() {
				return fmt.Errorf("invalid sort: %s (must be 'url', 'category' or 'site')", flagSort)
			}

			path := flagFile
			if path == "" {
				cfg, err := app.LoadConfig()
				if err != nil {
					return err
				}
				path = cfg.SourcesFile
			}
			sources, err := registry.Resolve(path)
			if err != nil {
				return err
			}

			sortSources(sources, order)
			return WriteSources(app.Out, sources, format)
		},
	}
	cmd.Flags().StringVar(&flagFormat, "format", "text", "Output format: text or json")
	cmd.Flags().StringVar(&flagSort, "sort", string(SortByURL), "Sort order: url, category or site")
	cmd.Flags().StringVar(&flagFile, "file", "", "Sources file (default SOURCES_FILE or the built-in list)")
	return cmd
}

func newExportICSCmd(app *App) *cobra.Command {
	var flagOutput string
	cmd := &cobra.Command{
		Use:   "export-ics",
		Short: "Write upcoming events as an iCalendar file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig()
			if err != nil {
				return err
			}
			if err := cfg.RequireStore(); err != nil {
				return err
			}

			ctx := cmd.Context()
			st, err := backend.Open(ctx, cfg.StoreURL, cfg.StoreKey)
			if err != nil {
				return fmt.Errorf("opening store: %w", err)
			}
			defer st.Close()

			since := meetup.StartOfDay(time.Now(), cfg.Location)
			events, err := st.ListEvents(ctx, store.EventQuery{Since: since})
			if err != nil {
				return fmt.Errorf("listing events: %w", err)
			}
			meetups, err := st.ListMeetups(ctx)
			if err != nil {
				return fmt.Errorf("listing meetups: %w", err)
			}
			ics := calendar.GenerateICS(events, meetups)

			if flagOutput == "" || flagOutput == "-" {
				_, err := fmt.Fprint(app.Out, ics)
				return err
			}
			if err := os.WriteFile(flagOutput, []byte(ics), 0644); err != nil {
				return fmt.Errorf("writing %s: %w", flagOutput, err)
			}
			fmt.Fprintf(app.Err, "Wrote %d events to %s\n", len(events), flagOutput)
			return nil
		},
	}
	cmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Output file (default stdout)")
	return cmd
}
