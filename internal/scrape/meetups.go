package scrape

import (
	"context"
	"errors"
	"fmt"

	"github.com/torontotech/meetups/internal/extract"
	"github.com/torontotech/meetups/internal/logger"
	"github.com/torontotech/meetups/internal/meetup"
	"github.com/torontotech/meetups/internal/site"
	"github.com/torontotech/meetups/internal/store"
)

// MeetupScraper refreshes the profile of every registered source
type MeetupScraper struct {
	cfg RunConfig
}

// NewMeetupScraper creates a MeetupScraper
func NewMeetupScraper(cfg RunConfig) *MeetupScraper {
	return &MeetupScraper{cfg: cfg}
}

// Run scrapes every source in order. The returned error is non-nil only when
// the run could not start or ctx was cancelled; per-source failures are in
// the summary.
func (s *MeetupScraper) Run(ctx context.Context) (Summary, error) {
	r, err := newRun(s.cfg, ScraperMeetups)
	if err != nil {
		return Summary{}, err
	}
	r.start()

	for i, src := range r.cfg.Sources {
		if ctx.Err() != nil {
			remaining := make([]string, 0, len(r.cfg.Sources)-i)
			for _, rest := range r.cfg.Sources[i:] {
				remaining = append(remaining, rest.URL)
			}
			err := r.interrupted(ctx, remaining)
			return r.finish(context.WithoutCancel(ctx)), err
		}
		s.scrapeSource(ctx, r, src)
	}
	return r.finish(ctx), nil
}

func (s *MeetupScraper) scrapeSource(ctx context.Context, r *run, src meetup.Source) {
	kind := site.Classify(src.URL)
	o := Outcome{Source: src.URL, Site: kind.String()}
	fields := logger.Fields{"source": src.URL, "site": o.Site}

	_, profiler := extract.For(kind)
	if profiler == nil {
		r.skip(ctx, o)
		return
	}

	r.log.Info("Scraping meetup profile", fields)
	page, err := r.fetch(ctx, kind, src.URL, r.cfg.Fetcher.Get)
	if err != nil {
		r.fail(ctx, o, "Fetching profile page failed", err)
		return
	}

	profile, err := profiler.Profile(page)
	switch {
	case errors.Is(err, extract.ErrNoStructuredData):
		r.log.Warn("No profile data found on page", fields)
		profile = meetup.Profile{}
	case err != nil:
		r.fail(ctx, o, "Extracting profile failed", err)
		return
	}
	if !profile.IsEmpty() {
		r.cfg.Metrics.Records(r.scraper, o.Site, 1)
	}

	now := r.cfg.Now()
	_, err = r.cfg.Store.FindMeetupByURL(ctx, src.URL)
	switch {
	case errors.Is(err, store.ErrNotFound):
		if err := r.cfg.Store.InsertMeetup(ctx, meetup.NewMeetup(src, profile, now)); err != nil {
			r.fail(ctx, o, "Inserting meetup failed", fmt.Errorf("inserting meetup: %w", err))
			return
		}
		o.Inserted = true
	case err != nil:
		r.fail(ctx, o, "Looking up meetup failed", fmt.Errorf("looking up meetup: %w", err))
		return
	default:
		patch := meetup.MeetupPatch{Profile: profile, LastScrapedAt: now}
		if err := r.cfg.Store.UpdateMeetup(ctx, src.URL, patch); err != nil {
			r.fail(ctx, o, "Updating meetup failed", fmt.Errorf("updating meetup: %w", err))
			return
		}
	}

	o.ProfileUpdated = true
	o.Success = true
	msg := "Updated meetup profile"
	switch {
	case r.cfg.DryRun && o.Inserted:
		msg = "(Dry Run) Would insert meetup profile"
	case r.cfg.DryRun:
		msg = "(Dry Run) Would update meetup profile"
	case o.Inserted:
		msg = "Inserted meetup profile"
	}
	r.log.Info(msg, logger.Fields{"source": src.URL, "site": o.Site, "name": profile.Name})
	r.record(ctx, o)
}
