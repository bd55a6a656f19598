package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/torontotech/meetups/internal/meetup"
)

// Memory is an in-process Store used by tests and by dry runs that have no
// backing database
type Memory struct {
	mu      sync.RWMutex
	meetups map[string]meetup.Meetup // by url
	events  map[string]meetup.Event  // by link
	nextID  int
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{
		meetups: make(map[string]meetup.Meetup),
		events:  make(map[string]meetup.Event),
	}
}

func (s *Memory) ListMeetups(_ context.Context) ([]meetup.Meetup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]meetup.Meetup, 0, len(s.meetups))
	for _, m := range s.meetups {
		list = append(list, m)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Name != list[j].Name {
			return list[i].Name < list[j].Name
		}
		return list[i].URL < list[j].URL
	})
	return list, nil
}

func (s *Memory) FindMeetupByURL(_ context.Context, url string) (*meetup.Meetup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.meetups[url]
	if !ok {
		return nil, ErrNotFound
	}
	return &m, nil
}

func (s *Memory) InsertMeetup(_ context.Context, m *meetup.Meetup) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.meetups[m.URL]; exists {
		return fmt.Errorf("insert meetup %s: duplicate url", m.URL)
	}
	s.nextID++
	m.ID = fmt.Sprintf("mem-%d", s.nextID)
	s.meetups[m.URL] = *m
	return nil
}

func (s *Memory) UpdateMeetup(_ context.Context, url string, patch meetup.MeetupPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.meetups[url]
	if !ok {
		return ErrNotFound
	}
	patch.Apply(&m)
	s.meetups[url] = m
	return nil
}

func (s *Memory) UpsertEvents(_ context.Context, events []meetup.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range events {
		if e.Link == "" {
			return fmt.Errorf("upsert events: event %q has no link", e.Title)
		}
	}
	for _, e := range events {
		if prev, ok := s.events[e.Link]; ok {
			e.ID = prev.ID
		} else {
			s.nextID++
			e.ID = fmt.Sprintf("mem-%d", s.nextID)
		}
		e.Datetime = e.Datetime.UTC()
		s.events[e.Link] = e
	}
	return nil
}

func (s *Memory) ListEvents(_ context.Context, q EventQuery) ([]meetup.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]meetup.Event, 0, len(s.events))
	for _, e := range s.events {
		if !q.Since.IsZero() && e.Datetime.Before(q.Since) {
			continue
		}
		if q.MeetupID != "" && e.MeetupID != q.MeetupID {
			continue
		}
		list = append(list, e)
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].Datetime.Equal(list[j].Datetime) {
			return list[i].Datetime.Before(list[j].Datetime)
		}
		return list[i].Link < list[j].Link
	})
	return list, nil
}

func (s *Memory) Close() error { return nil }
