package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/torontotech/meetups/internal/meetup"
)

func sampleEvent(link string, at time.Time) meetup.Event {
	return meetup.Event{
		MeetupID: "m-1",
		Title:    "Event " + link,
		Datetime: at,
		Venue:    meetup.NoVenue,
		Link:     link,
	}
}

func TestMemoryMeetups(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	_, err := s.FindMeetupByURL(ctx, "https://example.com/a")
	require.ErrorIs(t, err, ErrNotFound)

	b := &meetup.Meetup{URL: "https://example.com/b", Name: "Beta", Category: meetup.CategoryMeetups}
	a := &meetup.Meetup{URL: "https://example.com/a", Name: "Alpha", Category: meetup.CategoryOthers}
	require.NoError(t, s.InsertMeetup(ctx, b))
	require.NoError(t, s.InsertMeetup(ctx, a))
	require.NotEmpty(t, a.ID)
	require.Error(t, s.InsertMeetup(ctx, &meetup.Meetup{URL: a.URL}))

	list, err := s.ListMeetups(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "Alpha", list[0].Name)

	scraped := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.UpdateMeetup(ctx, a.URL, meetup.MeetupPatch{
		Profile:       meetup.Profile{Description: "new"},
		LastScrapedAt: scraped,
	}))

	got, err := s.FindMeetupByURL(ctx, a.URL)
	require.NoError(t, err)
	require.Equal(t, "Alpha", got.Name, "empty patch fields must not clobber")
	require.Equal(t, "new", got.Description)
	require.True(t, got.LastScrapedAt.Equal(scraped))

	err = s.UpdateMeetup(ctx, "https://missing.example/", meetup.MeetupPatch{})
	require.True(t, errors.Is(err, ErrNotFound))
}

func TestMemoryUpsertEventsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	day := time.Date(2025, 5, 1, 22, 0, 0, 0, time.UTC)

	batch := []meetup.Event{sampleEvent("https://e/1", day), sampleEvent("https://e/2", day.Add(time.Hour))}
	require.NoError(t, s.UpsertEvents(ctx, batch))
	require.NoError(t, s.UpsertEvents(ctx, batch))

	list, err := s.ListEvents(ctx, EventQuery{})
	require.NoError(t, err)
	require.Len(t, list, 2)

	changed := sampleEvent("https://e/1", day)
	changed.Title = "Renamed"
	require.NoError(t, s.UpsertEvents(ctx, []meetup.Event{changed}))

	list, err = s.ListEvents(ctx, EventQuery{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "Renamed", list[0].Title)
}

func TestMemoryUpsertEventsRejectsMissingLink(t *testing.T) {
	s := NewMemory()
	err := s.UpsertEvents(context.Background(), []meetup.Event{
		sampleEvent("https://e/1", time.Now()),
		sampleEvent("", time.Now()),
	})
	require.Error(t, err)

	list, err := s.ListEvents(context.Background(), EventQuery{})
	require.NoError(t, err)
	require.Empty(t, list, "a failed batch must not be partially applied")
}

func TestMemoryListEventsFilters(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	other := sampleEvent("https://e/other", base.Add(48*time.Hour))
	other.MeetupID = "m-2"
	require.NoError(t, s.UpsertEvents(ctx, []meetup.Event{
		sampleEvent("https://e/late", base.Add(24*time.Hour)),
		sampleEvent("https://e/past", base.Add(-time.Hour)),
		sampleEvent("https://e/edge", base),
		other,
	}))

	list, err := s.ListEvents(ctx, EventQuery{Since: base, MeetupID: "m-1"})
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "https://e/edge", list[0].Link)
	require.Equal(t, "https://e/late", list[1].Link)
}

func TestDryRunSuppressesWrites(t *testing.T) {
	ctx := context.Background()
	inner := NewMemory()
	require.NoError(t, inner.InsertMeetup(ctx, &meetup.Meetup{URL: "https://example.com/a", Name: "A"}))

	d := NewDryRun(inner)
	require.NoError(t, d.InsertMeetup(ctx, &meetup.Meetup{URL: "https://example.com/b"}))
	require.NoError(t, d.UpdateMeetup(ctx, "https://example.com/a", meetup.MeetupPatch{Profile: meetup.Profile{Name: "Changed"}}))
	require.NoError(t, d.UpsertEvents(ctx, []meetup.Event{sampleEvent("https://e/1", time.Now())}))

	list, err := d.ListMeetups(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "A", list[0].Name)

	events, err := inner.ListEvents(ctx, EventQuery{})
	require.NoError(t, err)
	require.Empty(t, events)

	require.Equal(t, []Write{
		{Op: "insert_meetup", Key: "https://example.com/b", Count: 1},
		{Op: "update_meetup", Key: "https://example.com/a", Count: 1},
		{Op: "upsert_events", Key: "m-1", Count: 1},
	}, d.Writes())
}
