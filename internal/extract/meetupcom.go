package extract

import (
	"encoding/json"
	"strings"

	"github.com/torontotech/meetups/internal/fetch"
	"github.com/torontotech/meetups/internal/meetup"
)

// MeetupCom reads the Apollo cache that meetup.com embeds in its group and
// events pages
type MeetupCom struct{}

type apolloEvent struct {
	Title              *string         `json:"title"`
	DateTime           *string         `json:"dateTime"`
	Description        *string         `json:"description"`
	EventURL           *string         `json:"eventUrl"`
	Venue              json.RawMessage `json:"venue"`
	FeaturedEventPhoto json.RawMessage `json:"featuredEventPhoto"`
}

type apolloVenue struct {
	apolloRef
	Name    string `json:"name"`
	Address string `json:"address"`
	City    string `json:"city"`
}

type apolloGroup struct {
	Name          string     `json:"name"`
	Description   string     `json:"description"`
	KeyGroupPhoto *apolloRef `json:"keyGroupPhoto"`
}

// Events implements EventExtractor
func (MeetupCom) Events(page fetch.Page) ([]meetup.RawEvent, error) {
	doc, err := parse(page)
	if err != nil {
		return nil, err
	}
	state, err := nextData(doc)
	if err != nil {
		return nil, err
	}

	events := make([]meetup.RawEvent, 0)
	for _, key := range state.withPrefix("Event:") {
		var e apolloEvent
		if !state.lookup(key, &e) {
			continue
		}

		raw := meetup.RawEvent{
			Title:       deref(e.Title, meetup.NoTitle),
			Datetime:    deref(e.DateTime, meetup.NoDatetime),
			Venue:       state.venue(e.Venue),
			Description: deref(e.Description, meetup.NoDescription),
			Logo:        state.eventPhoto(e.FeaturedEventPhoto),
		}
		if e.EventURL != nil {
			raw.Link = ResolveURL(page.URL, *e.EventURL)
		}
		events = append(events, raw)
	}
	return events, nil
}

// Profile implements ProfileExtractor
func (MeetupCom) Profile(page fetch.Page) (meetup.Profile, error) {
	doc, err := parse(page)
	if err != nil {
		return meetup.Profile{}, err
	}
	state, err := nextData(doc)
	if err != nil {
		return meetup.Profile{}, err
	}

	keys := state.withPrefix("Group:")
	if len(keys) == 0 {
		return meetup.Profile{}, nil
	}

	var g apolloGroup
	if !state.lookup(keys[0], &g) {
		return meetup.Profile{}, nil
	}

	profile := meetup.Profile{
		Name:        strings.TrimSpace(g.Name),
		Description: strings.TrimSpace(g.Description),
	}
	var photo apolloPhoto
	if state.lookup(g.KeyGroupPhoto.key(state, "PhotoInfo"), &photo) {
		profile.Logo = meetup.String(photo.url())
	}
	return profile, nil
}

// venue resolves an event's venue reference, or reads it inline
func (s *apolloState) venue(raw json.RawMessage) string {
	if len(raw) == 0 {
		return meetup.NoVenue
	}
	var inline apolloVenue
	if err := json.Unmarshal(raw, &inline); err != nil {
		return meetup.NoVenue
	}

	var v apolloVenue
	if s.lookup(inline.key(s, "Venue"), &v) {
		return meetup.JoinVenue(v.Name, v.Address, v.City)
	}
	if inline.Name != "" {
		return meetup.JoinVenue(inline.Name, inline.Address, inline.City)
	}
	return meetup.NoVenue
}

func (s *apolloState) eventPhoto(raw json.RawMessage) *string {
	if len(raw) == 0 {
		return nil
	}
	var inline struct {
		apolloRef
		apolloPhoto
	}
	if err := json.Unmarshal(raw, &inline); err != nil {
		return nil
	}

	var photo apolloPhoto
	if s.lookup(inline.key(s, "PhotoInfo"), &photo) {
		return meetup.String(photo.url())
	}
	return meetup.String(inline.HighResURL)
}

func deref(s *string, fallback string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return fallback
	}
	return strings.TrimSpace(*s)
}
