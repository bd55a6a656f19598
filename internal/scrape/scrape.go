package scrape

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/torontotech/meetups/internal/archive"
	"github.com/torontotech/meetups/internal/fetch"
	"github.com/torontotech/meetups/internal/idgen"
	"github.com/torontotech/meetups/internal/logger"
	"github.com/torontotech/meetups/internal/meetup"
	"github.com/torontotech/meetups/internal/metrics"
	"github.com/torontotech/meetups/internal/publish"
	"github.com/torontotech/meetups/internal/site"
	"github.com/torontotech/meetups/internal/store"
)

// Scraper names, used in summaries and metrics labels
const (
	ScraperMeetups = "meetups"
	ScraperEvents  = "events"
)

// RunConfig is everything one run depends on
type RunConfig struct {
	Sources   []meetup.Source // registry; only read by the meetup scraper
	Store     store.Store
	Fetcher   fetch.Fetcher
	Archive   archive.Archiver  // optional
	Publisher publish.Publisher // optional
	Metrics   *metrics.Recorder // optional
	Logger    *logger.Logger    // optional
	DryRun    bool
	Location  *time.Location   // zone of wall-clock datetimes; default America/Toronto
	Now       func() time.Time // optional
}

func (c RunConfig) withDefaults() (RunConfig, error) {
	if c.Store == nil {
		return c, errors.New("run config: store is required")
	}
	if c.Fetcher == nil {
		return c, errors.New("run config: fetcher is required")
	}
	if c.Archive == nil {
		c.Archive = archive.Noop{}
	}
	if c.Publisher == nil {
		c.Publisher = publish.NoopPublisher{}
	}
	if c.Logger == nil {
		c.Logger = logger.Default()
	}
	if c.Location == nil {
		loc, err := meetup.LoadLocation(meetup.DefaultTimezone)
		if err != nil {
			return c, err
		}
		c.Location = loc
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.DryRun {
		if _, ok := c.Store.(*store.DryRun); !ok {
			c.Store = store.NewDryRun(c.Store)
		}
	}
	return c, nil
}

// Outcome is the result of processing one source
type Outcome struct {
	Source         string `json:"source"`
	Site           string `json:"site"`
	EventsFound    int    `json:"events_found,omitempty"`
	Rejected       int    `json:"rejected,omitempty"`
	ProfileUpdated bool   `json:"profile_updated,omitempty"`
	Inserted       bool   `json:"inserted,omitempty"`
	Skipped        bool   `json:"skipped,omitempty"`
	Success        bool   `json:"success"`
	Error          string `json:"error,omitempty"`
}

// Summary is the end-of-run report
type Summary struct {
	RunID      string        `json:"run_id"`
	Scraper    string        `json:"scraper"`
	DryRun     bool          `json:"dry_run"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Outcomes   []Outcome     `json:"outcomes"`
	Suppressed []store.Write `json:"suppressed_writes,omitempty"`
}

// Counts tallies a summary
type Counts struct {
	Sources   int `json:"sources"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
	Events    int `json:"events"`
	Rejected  int `json:"rejected"`
}

// Counts tallies the outcomes. Skipped sources count as neither success nor failure.
func (s *Summary) Counts() Counts {
	c := Counts{Sources: len(s.Outcomes)}
	for _, o := range s.Outcomes {
		switch {
		case o.Skipped:
			c.Skipped++
		case o.Success:
			c.Succeeded++
		default:
			c.Failed++
		}
		c.Events += o.EventsFound
		c.Rejected += o.Rejected
	}
	return c
}

// OutcomeMessage is published on publish.TopicOutcome after every source
type OutcomeMessage struct {
	RunID   string  `json:"run_id"`
	Scraper string  `json:"scraper"`
	DryRun  bool    `json:"dry_run"`
	Outcome Outcome `json:"outcome"`
}

// SummaryMessage is published on publish.TopicSummary at the end of a run
type SummaryMessage struct {
	RunID      string    `json:"run_id"`
	Scraper    string    `json:"scraper"`
	DryRun     bool      `json:"dry_run"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Counts     Counts    `json:"counts"`
}

// run holds the per-run state shared by both scrapers
type run struct {
	cfg     RunConfig
	scraper string
	log     *logger.Logger
	summary Summary
}

func newRun(cfg RunConfig, scraper string) (*run, error) {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}
	runID, err := idgen.NewRunID()
	if err != nil {
		return nil, err
	}
	return &run{
		cfg:     cfg,
		scraper: scraper,
		log:     cfg.Logger.With(logger.Fields{"run_id": runID, "scraper": scraper}),
		summary: Summary{
			RunID:     runID,
			Scraper:   scraper,
			DryRun:    cfg.DryRun,
			StartedAt: cfg.Now().UTC(),
			Outcomes:  []Outcome{},
		},
	}, nil
}

func (r *run) start() {
	msg := "Starting " + r.scraper + " scraper"
	if r.cfg.DryRun {
		msg += " (Dry Run)"
	}
	r.log.Info(msg, nil)
}

// fetch retrieves one page, timing it and archiving the body
func (r *run) fetch(ctx context.Context, kind site.Kind, url string, get func(context.Context, string) (fetch.Page, error)) (fetch.Page, error) {
	started := time.Now()
	page, err := get(ctx, url)
	r.cfg.Metrics.Fetch(kind.String(), time.Since(started))
	if err != nil {
		return page, err
	}

	if err := r.cfg.Archive.Put(ctx, r.summary.RunID, kind.String(), url, []byte(page.Body)); err != nil {
		r.log.Warn("Archiving page failed", logger.Fields{"source": url, "error": err.Error()})
	}
	return page, nil
}

// record appends an outcome, counts it and publishes it
func (r *run) record(ctx context.Context, o Outcome) {
	r.summary.Outcomes = append(r.summary.Outcomes, o)

	result := metrics.ResultFailure
	switch {
	case o.Skipped:
		result = metrics.ResultSkipped
	case o.Success:
		result = metrics.ResultSuccess
	}
	r.cfg.Metrics.Source(r.scraper, o.Site, result)

	r.publish(ctx, publish.TopicOutcome, OutcomeMessage{
		RunID:   r.summary.RunID,
		Scraper: r.scraper,
		DryRun:  r.cfg.DryRun,
		Outcome: o,
	})
}

func (r *run) fail(ctx context.Context, o Outcome, message string, err error) {
	o.Success = false
	o.Error = err.Error()
	r.log.Error(message, logger.Fields{"source": o.Source, "site": o.Site}, err)
	r.record(ctx, o)
}

func (r *run) skip(ctx context.Context, o Outcome) {
	o.Skipped = true
	o.Success = true
	r.log.Warn("Skipping unknown website", logger.Fields{"source": o.Source, "site": o.Site})
	r.record(ctx, o)
}

func (r *run) publish(ctx context.Context, topic string, v any) {
	if err := r.cfg.Publisher.Publish(ctx, topic, v); err != nil {
		r.log.Warn("Publishing failed", logger.Fields{"topic": topic, "error": err.Error()})
	}
}

// finish stamps the summary and publishes it
func (r *run) finish(ctx context.Context) Summary {
	r.summary.FinishedAt = r.cfg.Now().UTC()
	if dry, ok := r.cfg.Store.(*store.DryRun); ok {
		r.summary.Suppressed = dry.Writes()
	}
	r.cfg.Metrics.RunFinished(r.scraper, r.summary.FinishedAt)

	counts := r.summary.Counts()
	r.publish(ctx, publish.TopicSummary, SummaryMessage{
		RunID:      r.summary.RunID,
		Scraper:    r.scraper,
		DryRun:     r.cfg.DryRun,
		StartedAt:  r.summary.StartedAt,
		FinishedAt: r.summary.FinishedAt,
		Counts:     counts,
	})
	r.log.Info("Scraping completed", logger.Fields{
		"sources":   counts.Sources,
		"succeeded": counts.Succeeded,
		"failed":    counts.Failed,
		"skipped":   counts.Skipped,
	})
	return r.summary
}

// interrupted records the remaining sources as failed when ctx is done
func (r *run) interrupted(ctx context.Context, remaining []string) error {
	err := ctx.Err()
	if err == nil {
		return nil
	}
	for _, url := range remaining {
		r.summary.Outcomes = append(r.summary.Outcomes, Outcome{
			Source: url,
			Site:   site.Classify(url).String(),
			Error:  fmt.Sprintf("not processed: %v", err),
		})
	}
	return err
}
