// Package postgrest implements store.Store against a Supabase project's REST
// gateway using the service role key.
package postgrest

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/torontotech/meetups/internal/meetup"
	"github.com/torontotech/meetups/internal/store"
)

const (
	restPath       = "/rest/v1"
	defaultTimeout = 30 * time.Second
)

// Store talks to PostgREST over HTTP
type Store struct {
	client *resty.Client
}

var _ store.Store = (*Store)(nil)

// New creates a REST store for the project at baseURL
func New(baseURL, serviceKey string) (*Store, error) {
	if baseURL == "" || serviceKey == "" {
		return nil, fmt.Errorf("postgrest: url and service key are required")
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")+restPath).
		SetTimeout(defaultTimeout).
		SetHeader("apikey", serviceKey).
		SetAuthToken(serviceKey).
		SetHeader("Accept", "application/json")

	return &Store{client: client}, nil
}

// apiError is the error body returned by PostgREST
type apiError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func checkResponse(op string, resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if resp.IsSuccess() {
		return nil
	}
	if apiErr, ok := resp.Error().(*apiError); ok && apiErr.Message != "" {
		return fmt.Errorf("%s: %s (status %d, code %s)", op, apiErr.Message, resp.StatusCode(), apiErr.Code)
	}
	return fmt.Errorf("%s: unexpected status code: %d", op, resp.StatusCode())
}

// meetupRow mirrors the meetups table
type meetupRow struct {
	ID            string     `json:"id,omitempty"`
	URL           string     `json:"url"`
	Name          string     `json:"name"`
	Description   *string    `json:"description"`
	Logo          *string    `json:"logo"`
	Platform      string     `json:"platform"`
	Type          string     `json:"type"`
	LastScrapedAt *time.Time `json:"last_scraped_at,omitempty"`
}

func toMeetupRow(m *meetup.Meetup) meetupRow {
	row := meetupRow{
		URL:         m.URL,
		Name:        m.Name,
		Description: meetup.String(m.Description),
		Logo:        m.Logo,
		Platform:    string(m.Platform),
		Type:        string(m.Category),
	}
	if !m.LastScrapedAt.IsZero() {
		t := m.LastScrapedAt.UTC()
		row.LastScrapedAt = &t
	}
	return row
}

func (r meetupRow) toMeetup() meetup.Meetup {
	m := meetup.Meetup{
		ID:       r.ID,
		URL:      r.URL,
		Name:     r.Name,
		Logo:     r.Logo,
		Platform: meetup.Platform(r.Platform),
		Category: meetup.Category(r.Type),
	}
	if r.Description != nil {
		m.Description = *r.Description
	}
	if r.LastScrapedAt != nil {
		m.LastScrapedAt = r.LastScrapedAt.UTC()
	}
	return m
}

// eventRow mirrors the events table
type eventRow struct {
	ID          string    `json:"id,omitempty"`
	MeetupID    string    `json:"meetup_id"`
	Title       string    `json:"title"`
	Datetime    time.Time `json:"datetime"`
	Venue       *string   `json:"venue"`
	Description *string   `json:"description"`
	Logo        *string   `json:"logo"`
	Link        string    `json:"link"`
}

func toEventRow(e meetup.Event) eventRow {
	return eventRow{
		MeetupID:    e.MeetupID,
		Title:       e.Title,
		Datetime:    e.Datetime.UTC(),
		Venue:       meetup.String(e.Venue),
		Description: meetup.String(e.Description),
		Logo:        e.Logo,
		Link:        e.Link,
	}
}

func (r eventRow) toEvent() meetup.Event {
	e := meetup.Event{
		ID:       r.ID,
		MeetupID: r.MeetupID,
		Title:    r.Title,
		Datetime: r.Datetime.UTC(),
		Logo:     r.Logo,
		Link:     r.Link,
	}
	if r.Venue != nil {
		e.Venue = *r.Venue
	}
	if r.Description != nil {
		e.Description = *r.Description
	}
	return e
}

func (s *Store) ListMeetups(ctx context.Context) ([]meetup.Meetup, error) {
	var rows []meetupRow
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("select", "*").
		SetQueryParam("order", "name.asc,url.asc").
		SetResult(&rows).
		SetError(&apiError{}).
		Get("/meetups")
	if err := checkResponse("list meetups", resp, err); err != nil {
		return nil, err
	}

	list := make([]meetup.Meetup, 0, len(rows))
	for _, r := range rows {
		list = append(list, r.toMeetup())
	}
	return list, nil
}

func (s *Store) FindMeetupByURL(ctx context.Context, url string) (*meetup.Meetup, error) {
	var rows []meetupRow
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("select", "*").
		SetQueryParam("url", "eq."+url).
		SetQueryParam("limit", "1").
		SetResult(&rows).
		SetError(&apiError{}).
		Get("/meetups")
	if err := checkResponse("find meetup "+url, resp, err); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, store.ErrNotFound
	}
	m := rows[0].toMeetup()
	return &m, nil
}

func (s *Store) InsertMeetup(ctx context.Context, m *meetup.Meetup) error {
	var rows []meetupRow
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Prefer", "return=representation").
		SetBody([]meetupRow{toMeetupRow(m)}).
		SetResult(&rows).
		SetError(&apiError{}).
		Post("/meetups")
	if err := checkResponse("insert meetup "+m.URL, resp, err); err != nil {
		return err
	}
	if len(rows) > 0 {
		m.ID = rows[0].ID
	}
	return nil
}

// UpdateMeetup sends only the non-empty patch fields
func (s *Store) UpdateMeetup(ctx context.Context, url string, patch meetup.MeetupPatch) error {
	body := make(map[string]any)
	if patch.Name != "" {
		body["name"] = patch.Name
	}
	if patch.Description != "" {
		body["description"] = patch.Description
	}
	if patch.Logo != nil {
		body["logo"] = *patch.Logo
	}
	if !patch.LastScrapedAt.IsZero() {
		body["last_scraped_at"] = patch.LastScrapedAt.UTC()
	}

	var rows []meetupRow
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Prefer", "return=representation").
		SetQueryParam("url", "eq."+url).
		SetBody(body).
		SetResult(&rows).
		SetError(&apiError{}).
		Patch("/meetups")
	if err := checkResponse("update meetup "+url, resp, err); err != nil {
		return err
	}
	if len(rows) == 0 {
		return store.ErrNotFound
	}
	return nil
}

// UpsertEvents posts the whole batch in one request; PostgREST applies it
// in a single statement
func (s *Store) UpsertEvents(ctx context.Context, events []meetup.Event) error {
	if len(events) == 0 {
		return nil
	}

	rows := make([]eventRow, 0, len(events))
	for _, e := range events {
		if e.Link == "" {
			return fmt.Errorf("upsert event %q: missing link", e.Title)
		}
		rows = append(rows, toEventRow(e))
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Prefer", "resolution=merge-duplicates,return=minimal").
		SetQueryParam("on_conflict", "link").
		SetBody(rows).
		SetError(&apiError{}).
		Post("/events")
	return checkResponse("upsert events", resp, err)
}

func (s *Store) ListEvents(ctx context.Context, q store.EventQuery) ([]meetup.Event, error) {
	req := s.client.R().
		SetContext(ctx).
		SetQueryParam("select", "*").
		SetQueryParam("order", "datetime.asc,link.asc")
	if !q.Since.IsZero() {
		req.SetQueryParam("datetime", "gte."+q.Since.UTC().Format(time.RFC3339))
	}
	if q.MeetupID != "" {
		req.SetQueryParam("meetup_id", "eq."+q.MeetupID)
	}

	var rows []eventRow
	resp, err := req.
		SetResult(&rows).
		SetError(&apiError{}).
		Get("/events")
	if err := checkResponse("list events", resp, err); err != nil {
		return nil, err
	}

	list := make([]meetup.Event, 0, len(rows))
	for _, r := range rows {
		list = append(list, r.toEvent())
	}
	return list, nil
}

// Close releases idle connections
func (s *Store) Close() error {
	if t, ok := s.client.GetClient().Transport.(*http.Transport); ok {
		t.CloseIdleConnections()
	}
	return nil
}
