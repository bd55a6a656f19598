package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/torontotech/meetups/internal/archive"
	"github.com/torontotech/meetups/internal/config"
	"github.com/torontotech/meetups/internal/fetch"
	"github.com/torontotech/meetups/internal/logger"
	"github.com/torontotech/meetups/internal/metrics"
	"github.com/torontotech/meetups/internal/publish"
	"github.com/torontotech/meetups/internal/registry"
	"github.com/torontotech/meetups/internal/scrape"
	"github.com/torontotech/meetups/internal/store/backend"
)

// RunMeetups runs the meetup scraper with cfg and writes the summary to out
func RunMeetups(ctx context.Context, cfg *config.Config, out io.Writer, format OutputFormat) error {
	return runScraper(ctx, cfg, out, format, scrape.ScraperMeetups)
}

// RunEvents runs the event scraper with cfg and writes the summary to out
func RunEvents(ctx context.Context, cfg *config.Config, out io.Writer, format OutputFormat) error {
	return runScraper(ctx, cfg, out, format, scrape.ScraperEvents)
}

func runScraper(ctx context.Context, cfg *config.Config, out io.Writer, format OutputFormat, name string) error {
	// credentials are checked before anything is fetched or opened
	if err := cfg.RequireStore(); err != nil {
		return err
	}

	log := cfg.Logger()
	logger.SetDefault(log)

	runCfg, cleanup, err := buildRunConfig(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	var summary scrape.Summary
	if name == scrape.ScraperMeetups {
		summary, err = scrape.NewMeetupScraper(runCfg).Run(ctx)
	} else {
		summary, err = scrape.NewEventScraper(runCfg).Run(ctx)
	}
	if err != nil && len(summary.Outcomes) == 0 {
		return err
	}

	if cfg.PushgatewayURL != "" {
		if perr := runCfg.Metrics.Push(ctx, cfg.PushgatewayURL, "meetups_scrape_"+name); perr != nil {
			log.Warn("Pushing metrics failed", logger.Fields{"error": perr.Error()})
		}
	}

	if werr := WriteSummary(out, &summary, format); werr != nil {
		return fmt.Errorf("writing output: %w", werr)
	}
	return err
}

// buildRunConfig opens every collaborator a run needs. Optional sinks that
// fail to open are logged and replaced by no-ops; the store and the source
// list are required.
func buildRunConfig(ctx context.Context, cfg *config.Config, log *logger.Logger) (scrape.RunConfig, func(), error) {
	var closers []func() error
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				log.Warn("Closing resource failed", logger.Fields{"error": err.Error()})
			}
		}
	}

	sources, err := registry.Resolve(cfg.SourcesFile)
	if err != nil {
		return scrape.RunConfig{}, cleanup, err
	}

	st, err := backend.Open(ctx, cfg.StoreURL, cfg.StoreKey)
	if err != nil {
		return scrape.RunConfig{}, cleanup, fmt.Errorf("opening store: %w", err)
	}
	closers = append(closers, st.Close)

	var arch archive.Archiver = archive.Noop{}
	switch {
	case cfg.ArchiveBucket != "":
		s3, err := archive.NewS3(ctx, cfg.ArchiveBucket, cfg.ArchiveRegion, cfg.ArchiveEndpoint)
		if err != nil {
			log.Warn("Page archive disabled", logger.Fields{"error": err.Error()})
		} else {
			arch = s3
		}
	case cfg.ArchiveDir != "":
		fs, err := archive.NewFS(cfg.ArchiveDir)
		if err != nil {
			log.Warn("Page archive disabled", logger.Fields{"error": err.Error()})
		} else {
			arch = fs
		}
	}

	var pub publish.Publisher = publish.NoopPublisher{}
	if cfg.NATSURL != "" {
		nats, err := publish.NewNATSPublisher(cfg.NATSURL)
		if err != nil {
			log.Warn("Outcome publishing disabled", logger.Fields{"error": err.Error()})
		} else {
			pub = nats
			closers = append(closers, nats.Close)
		}
	}

	return scrape.RunConfig{
		Sources: sources,
		Store:   st,
		Fetcher: fetch.New(fetch.Options{
			Timeout:   cfg.FetchTimeout,
			UserAgent: cfg.UserAgent,
			NoSandbox: cfg.NoSandbox,
			ExecPath:  cfg.ChromePath,
		}),
		Archive:   arch,
		Publisher: pub,
		Metrics:   metrics.New(),
		Logger:    log,
		DryRun:    cfg.DryRun,
		Location:  cfg.Location,
	}, cleanup, nil
}
