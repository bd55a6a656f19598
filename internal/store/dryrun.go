package store

import (
	"context"
	"sync"

	"github.com/torontotech/meetups/internal/meetup"
)

// Write describes a mutation suppressed by DryRun
type Write struct {
	Op    string `json:"op"`
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// DryRun wraps a Store, serving reads from it while recording and
// discarding every write
type DryRun struct {
	inner Store

	mu     sync.Mutex
	writes []Write
}

var _ Store = (*DryRun)(nil)

// NewDryRun creates a dry-run wrapper around inner
func NewDryRun(inner Store) *DryRun {
	return &DryRun{inner: inner}
}

// Writes returns the suppressed writes in call order
func (d *DryRun) Writes() []Write {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Write(nil), d.writes...)
}

func (d *DryRun) record(op, key string, count int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.writes = append(d.writes, Write{Op: op, Key: key, Count: count})
}

func (d *DryRun) ListMeetups(ctx context.Context) ([]meetup.Meetup, error) {
	return d.inner.ListMeetups(ctx)
}

func (d *DryRun) FindMeetupByURL(ctx context.Context, url string) (*meetup.Meetup, error) {
	return d.inner.FindMeetupByURL(ctx, url)
}

func (d *DryRun) InsertMeetup(_ context.Context, m *meetup.Meetup) error {
	d.record("insert_meetup", m.URL, 1)
	return nil
}

func (d *DryRun) UpdateMeetup(_ context.Context, url string, _ meetup.MeetupPatch) error {
	d.record("update_meetup", url, 1)
	return nil
}

func (d *DryRun) UpsertEvents(_ context.Context, events []meetup.Event) error {
	key := ""
	if len(events) > 0 {
		key = events[0].MeetupID
	}
	d.record("upsert_events", key, len(events))
	return nil
}

func (d *DryRun) ListEvents(ctx context.Context, q EventQuery) ([]meetup.Event, error) {
	return d.inner.ListEvents(ctx, q)
}

// Close closes the wrapped store
func (d *DryRun) Close() error {
	return d.inner.Close()
}
