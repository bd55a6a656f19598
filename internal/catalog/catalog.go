package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/torontotech/meetups/internal/logger"
	"github.com/torontotech/meetups/internal/meetup"
	"github.com/torontotech/meetups/internal/store"
)

// Cache keys, one per logical query
const (
	KeyMeetups = "meetups"
	KeyEvents  = "events"
)

// Reader is the subset of store.Store the catalog reads from
type Reader interface {
	ListMeetups(ctx context.Context) ([]meetup.Meetup, error)
	ListEvents(ctx context.Context, q store.EventQuery) ([]meetup.Event, error)
}

// Group is one category of meetups
type Group struct {
	Category meetup.Category `json:"type"`
	Meetups  []meetup.Meetup `json:"items"`
}

// Event is an upcoming event as served to readers. Logo already carries the
// parent meetup's logo when the event has none, and Link is empty when the
// stored link was derived rather than scraped.
type Event struct {
	ID          string    `json:"id,omitempty"`
	MeetupID    string    `json:"meetup_id"`
	Title       string    `json:"title"`
	Datetime    time.Time `json:"datetime"`
	Venue       string    `json:"venue,omitempty"`
	Description string    `json:"description,omitempty"`
	Logo        *string   `json:"logo"`
	Link        string    `json:"link,omitempty"`
}

// Catalog serves the read queries
type Catalog struct {
	reader Reader
	cache  *Cache
	loc    *time.Location
	log    *logger.Logger
}

// New creates a Catalog. cache may be nil to always read through; loc is the
// zone whose midnight bounds "upcoming".
func New(r Reader, cache *Cache, loc *time.Location, log *logger.Logger) *Catalog {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = logger.Default()
	}
	return &Catalog{reader: r, cache: cache, loc: loc, log: log}
}

// Groups returns meetups ordered by name and grouped by category. Known
// categories come first in display order, then any others alphabetically;
// empty categories are omitted.
func (c *Catalog) Groups(ctx context.Context) ([]Group, error) {
	meetups, stale, err := cached(c.cache, KeyMeetups, func() ([]meetup.Meetup, error) {
		return c.reader.ListMeetups(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("listing meetups: %w", err)
	}
	if stale {
		c.log.Warn("Serving stale meetups after store read failed", nil)
	}
	return GroupByCategory(meetups), nil
}

// GroupByCategory groups meetups, preserving a name ordering within each group
func GroupByCategory(meetups []meetup.Meetup) []Group {
	sorted := make([]meetup.Meetup, len(meetups))
	copy(sorted, meetups)
	sort.SliceStable(sorted, func(i, j int) bool {
		return strings.ToLower(sorted[i].Name) < strings.ToLower(sorted[j].Name)
	})

	byCategory := make(map[meetup.Category][]meetup.Meetup)
	for _, m := range sorted {
		byCategory[m.Category] = append(byCategory[m.Category], m)
	}

	order := make([]meetup.Category, 0, len(byCategory))
	known := make(map[meetup.Category]bool, len(meetup.Categories))
	for _, cat := range meetup.Categories {
		known[cat] = true
		if len(byCategory[cat]) > 0 {
			order = append(order, cat)
		}
	}
	var extra []meetup.Category
	for cat := range byCategory {
		if !known[cat] {
			extra = append(extra, cat)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	order = append(order, extra...)

	groups := make([]Group, 0, len(order))
	for _, cat := range order {
		groups = append(groups, Group{Category: cat, Meetups: byCategory[cat]})
	}
	return groups
}

// Upcoming returns events starting on or after the start of now's day,
// ascending. The filter is applied again to cached results, so an entry
// cached yesterday never shows yesterday's events.
func (c *Catalog) Upcoming(ctx context.Context, now time.Time) ([]Event, error) {
	since := meetup.StartOfDay(now, c.loc)

	events, stale, err := cached(c.cache, KeyEvents, func() ([]Event, error) {
		return c.upcoming(ctx, since)
	})
	if err != nil {
		return nil, fmt.Errorf("listing upcoming events: %w", err)
	}
	if stale {
		c.log.Warn("Serving stale events after store read failed", nil)
	}

	kept := events[:0]
	for _, e := range events {
		if !e.Datetime.Before(since) {
			kept = append(kept, e)
		}
	}
	return kept, nil
}

func (c *Catalog) upcoming(ctx context.Context, since time.Time) ([]Event, error) {
	events, err := c.reader.ListEvents(ctx, store.EventQuery{Since: since})
	if err != nil {
		return nil, err
	}
	meetups, err := c.reader.ListMeetups(ctx)
	if err != nil {
		return nil, err
	}

	logos := make(map[string]*string, len(meetups))
	for _, m := range meetups {
		logos[m.ID] = m.Logo
	}

	out := make([]Event, 0, len(events))
	for _, e := range events {
		view := Event{
			ID:          e.ID,
			MeetupID:    e.MeetupID,
			Title:       e.Title,
			Datetime:    e.Datetime,
			Venue:       e.Venue,
			Description: e.Description,
			Logo:        e.Logo,
			Link:        e.Link,
		}
		if view.Logo == nil {
			view.Logo = logos[e.MeetupID]
		}
		if e.HasSyntheticLink() {
			view.Link = ""
		}
		out = append(out, view)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Datetime.Before(out[j].Datetime) })
	return out, nil
}
