package store

import (
	"context"
	"errors"
	"time"

	"github.com/torontotech/meetups/internal/meetup"
)

// ErrNotFound is returned when a lookup matches no row
var ErrNotFound = errors.New("not found")

// EventQuery filters ListEvents. Zero values disable the filter.
type EventQuery struct {
	Since    time.Time // datetime >= Since
	MeetupID string
}

// Store persists meetups and events
type Store interface {
	// ListMeetups returns every meetup ordered by name
	ListMeetups(ctx context.Context) ([]meetup.Meetup, error)
	// FindMeetupByURL returns ErrNotFound when no meetup has url
	FindMeetupByURL(ctx context.Context, url string) (*meetup.Meetup, error)
	// InsertMeetup stores a new meetup and sets its ID
	InsertMeetup(ctx context.Context, m *meetup.Meetup) error
	// UpdateMeetup applies patch to the meetup with url
	UpdateMeetup(ctx context.Context, url string, patch meetup.MeetupPatch) error
	// UpsertEvents writes events atomically, overwriting rows with the same link
	UpsertEvents(ctx context.Context, events []meetup.Event) error
	// ListEvents returns matching events ordered by datetime ascending
	ListEvents(ctx context.Context, q EventQuery) ([]meetup.Event, error)
	Close() error
}
