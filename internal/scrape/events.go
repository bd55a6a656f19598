package scrape

import (
	"context"
	"errors"
	"fmt"

	"github.com/torontotech/meetups/internal/extract"
	"github.com/torontotech/meetups/internal/fetch"
	"github.com/torontotech/meetups/internal/logger"
	"github.com/torontotech/meetups/internal/meetup"
	"github.com/torontotech/meetups/internal/site"
)

// EventScraper refreshes the events of every stored meetup
type EventScraper struct {
	cfg RunConfig
}

// NewEventScraper creates an EventScraper
func NewEventScraper(cfg RunConfig) *EventScraper {
	return &EventScraper{cfg: cfg}
}

// Run scrapes the events page of every meetup in the store. The stored
// meetups, not the registry, drive the run, so a source is only visited once
// the meetup scraper has created its row. A failure to list the meetups is
// logged and ends the run with no outcomes.
func (s *EventScraper) Run(ctx context.Context) (Summary, error) {
	r, err := newRun(s.cfg, ScraperEvents)
	if err != nil {
		return Summary{}, err
	}
	r.start()

	meetups, err := r.cfg.Store.ListMeetups(ctx)
	if err != nil {
		// nothing to visit; the run still completes with an empty summary
		r.log.Error("Listing meetups failed", nil, fmt.Errorf("listing meetups: %w", err))
		return r.finish(ctx), nil
	}

	for i, m := range meetups {
		if ctx.Err() != nil {
			remaining := make([]string, 0, len(meetups)-i)
			for _, rest := range meetups[i:] {
				remaining = append(remaining, rest.URL)
			}
			err := r.interrupted(ctx, remaining)
			return r.finish(context.WithoutCancel(ctx)), err
		}
		s.scrapeMeetup(ctx, r, m)
	}
	return r.finish(ctx), nil
}

func (s *EventScraper) scrapeMeetup(ctx context.Context, r *run, m meetup.Meetup) {
	kind := site.Classify(m.URL)
	o := Outcome{Source: m.URL, Site: kind.String()}
	fields := logger.Fields{"source": m.URL, "site": o.Site}

	extractor, _ := extract.For(kind)
	if extractor == nil {
		r.skip(ctx, o)
		return
	}

	url := site.EventsURL(kind, m.URL)
	r.log.Info("Scraping events", logger.Fields{"source": m.URL, "site": o.Site, "url": url})

	page, err := r.fetch(ctx, kind, url, func(ctx context.Context, url string) (fetch.Page, error) {
		return r.cfg.Fetcher.Fetch(ctx, kind, url)
	})
	if err != nil {
		r.fail(ctx, o, "Fetching events page failed", err)
		return
	}

	raws, err := extractor.Events(page)
	switch {
	case errors.Is(err, extract.ErrNoStructuredData):
		r.log.Warn("No event data found on page", fields)
	case err != nil:
		r.fail(ctx, o, "Extracting events failed", err)
		return
	}

	batch := meetup.NormalizeAll(raws, m.ID, r.cfg.Location)
	for _, rej := range batch.Rejected {
		r.log.Warn("Rejected event with unparseable datetime", logger.Fields{
			"source":   m.URL,
			"site":     o.Site,
			"title":    rej.Title,
			"datetime": rej.Value,
			"reason":   rej.Reason,
		})
	}
	o.Rejected = len(batch.Rejected)
	r.cfg.Metrics.Rejected(o.Site, o.Rejected)

	if len(batch.Events) > 0 {
		if err := r.cfg.Store.UpsertEvents(ctx, batch.Events); err != nil {
			r.fail(ctx, o, "Upserting events failed", fmt.Errorf("upserting events: %w", err))
			return
		}
	}
	r.cfg.Metrics.Records(r.scraper, o.Site, len(batch.Events))

	o.EventsFound = len(batch.Events)
	o.Success = true
	verb := "Updated"
	if r.cfg.DryRun {
		verb = "(Dry Run) Would update"
	}
	r.log.Info(fmt.Sprintf("%s %d events for %s", verb, o.EventsFound, m.URL), logger.Fields{
		"source": m.URL,
		"site":   o.Site,
		"count":  o.EventsFound,
	})
	r.record(ctx, o)
}
