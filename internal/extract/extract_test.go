package extract

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/torontotech/meetups/internal/fetch"
	"github.com/torontotech/meetups/internal/meetup"
	"github.com/torontotech/meetups/internal/site"
)

func loadPage(t *testing.T, name, url string) fetch.Page {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("failed to load test fixture: %v", err)
	}
	return fetch.Page{URL: url, Body: string(data)}
}

func ptr(s string) *string { return &s }

func TestFor(t *testing.T) {
	tests := []struct {
		kind        site.Kind
		wantEvents  bool
		wantProfile bool
	}{
		{site.Meetup, true, true},
		{site.RubyCommunity, true, true},
		{site.AiAggregator, true, true},
		{site.Storefront, false, true},
		{site.Unknown, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			events, profile := For(tt.kind)
			if (events != nil) != tt.wantEvents {
				t.Errorf("events extractor present = %v, expected %v", events != nil, tt.wantEvents)
			}
			if (profile != nil) != tt.wantProfile {
				t.Errorf("profile extractor present = %v, expected %v", profile != nil, tt.wantProfile)
			}
		})
	}
}

func TestMeetupComEvents(t *testing.T) {
	page := loadPage(t, "meetup_events.html", "https://www.meetup.com/toronto-go/events/")

	events, err := MeetupCom{}.Events(page)
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}

	want := []meetup.RawEvent{
		{
			Title:       "Go Night: Generics in Practice",
			Datetime:    "2025-01-15T18:30-05:00",
			Venue:       "Shopify, 620 King St W, Toronto",
			Description: "Talks and pizza.",
			Logo:        ptr("https://secure.meetupstatic.com/photos/event/901.jpeg"),
			Link:        "https://www.meetup.com/toronto-go/events/301/",
		},
		{
			Title:       "Online Hack Hour",
			Datetime:    "2025-02-05T12:00-05:00",
			Venue:       "Online event",
			Description: meetup.NoDescription,
			Link:        "https://www.meetup.com/toronto-go/events/302/",
		},
		{
			Title:       meetup.NoTitle,
			Datetime:    "2025-03-01T10:00-05:00",
			Venue:       meetup.NoVenue,
			Description: meetup.NoDescription,
			Link:        "https://www.meetup.com/toronto-go/events/303/",
		},
	}
	if diff := cmp.Diff(want, events); diff != "" {
		t.Errorf("Events mismatch (-want +got):\n%s", diff)
	}
}

func TestMeetupComProfile(t *testing.T) {
	page := loadPage(t, "meetup_events.html", "https://www.meetup.com/toronto-go/")

	profile, err := MeetupCom{}.Profile(page)
	if err != nil {
		t.Fatalf("Profile failed: %v", err)
	}

	want := meetup.Profile{
		Name:        "Toronto Go",
		Description: "Gophers in Toronto.",
		Logo:        ptr("https://secure.meetupstatic.com/photos/group/highres_900.jpeg"),
	}
	if diff := cmp.Diff(want, profile); diff != "" {
		t.Errorf("Profile mismatch (-want +got):\n%s", diff)
	}
}

func TestMeetupComMissingState(t *testing.T) {
	page := loadPage(t, "meetup_no_state.html", "https://www.meetup.com/toronto-go/events/")

	_, err := MeetupCom{}.Events(page)
	if !errors.Is(err, ErrNoStructuredData) {
		t.Fatalf("expected ErrNoStructuredData, got %v", err)
	}
	_, err = MeetupCom{}.Profile(page)
	if !errors.Is(err, ErrNoStructuredData) {
		t.Fatalf("expected ErrNoStructuredData, got %v", err)
	}
}

func TestRubyCommunityEvents(t *testing.T) {
	page := loadPage(t, "ruby_events.html", "https://toronto-ruby.com/events")

	events, err := RubyCommunity{Name: "Toronto Ruby"}.Events(page)
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}

	first := events[0]
	if first.Title != "January Meetup" {
		t.Errorf("unexpected title %q", first.Title)
	}
	if first.Link != "https://toronto-ruby.com/events/41-january-meetup" {
		t.Errorf("expected absolute link, got %q", first.Link)
	}
	if first.Venue != "Shopify Toronto, 620 King St W" {
		t.Errorf("unexpected venue %q", first.Venue)
	}
	if first.Description != "Two talks about Rails 8.\nDrinks after." {
		t.Errorf("unexpected description %q", first.Description)
	}
	if first.Layout != RubyLayout {
		t.Errorf("expected layout %q, got %q", RubyLayout, first.Layout)
	}

	second := events[1]
	if second.Venue != meetup.NoVenue || second.Description != meetup.NoDescription {
		t.Errorf("expected placeholders, got venue=%q description=%q", second.Venue, second.Description)
	}

	// extraction keeps the unparseable date; normalization rejects it
	batch := meetup.NormalizeAll(events, "m-1", mustLoad(t))
	if len(batch.Events) != 2 || len(batch.Rejected) != 1 {
		t.Fatalf("expected 2 accepted and 1 rejected, got %d and %d", len(batch.Events), len(batch.Rejected))
	}
	if got := batch.Events[0].Datetime; !got.Equal(time.Date(2025, 1, 5, 23, 30, 0, 0, time.UTC)) {
		t.Errorf("unexpected January datetime %s", got)
	}
	if got := batch.Events[1].Datetime; !got.Equal(time.Date(2025, 7, 10, 23, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected July datetime %s", got)
	}
}

func TestRubyCommunityProfile(t *testing.T) {
	page := loadPage(t, "ruby_events.html", "https://toronto-ruby.com/")

	profile, err := RubyCommunity{Name: "Toronto Ruby"}.Profile(page)
	if err != nil {
		t.Fatalf("Profile failed: %v", err)
	}

	want := meetup.Profile{
		Name:        "Toronto Ruby",
		Description: "A friendly monthly meetup for Rubyists in Toronto.",
		Logo:        ptr("https://toronto-ruby.com/assets/logo-abc123.png"),
	}
	if diff := cmp.Diff(want, profile); diff != "" {
		t.Errorf("Profile mismatch (-want +got):\n%s", diff)
	}
}

func TestRubyCommunityProfileFallsBackToParagraph(t *testing.T) {
	page := fetch.Page{
		URL:  "https://toronto-ruby.com/",
		Body: `<html><body><p>  First   paragraph. </p><p>Second</p></body></html>`,
	}

	profile, err := RubyCommunity{Name: "Toronto Ruby"}.Profile(page)
	if err != nil {
		t.Fatalf("Profile failed: %v", err)
	}
	if profile.Description != "First paragraph." {
		t.Errorf("unexpected description %q", profile.Description)
	}
	if profile.Logo != nil {
		t.Errorf("expected nil logo, got %q", *profile.Logo)
	}
}

func TestAiAggregatorEvents(t *testing.T) {
	page := loadPage(t, "aitinkerers.html", "https://toronto.aitinkerers.org/")

	events, err := AiAggregator{}.Events(page)
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}

	batch := meetup.NormalizeAll(events, "m-ai", mustLoad(t))
	if len(batch.Events) != 1 {
		t.Fatalf("expected exactly 1 event, got %d", len(batch.Events))
	}

	got := batch.Events[0]
	if got.Venue != "MaRS Discovery District, 101 College St, Toronto" {
		t.Errorf("unexpected venue %q", got.Venue)
	}
	if got.Title != "AI Tinkerers Toronto: February Demos" {
		t.Errorf("unexpected title %q", got.Title)
	}
	if !got.Datetime.Equal(time.Date(2025, 2, 20, 23, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected datetime %s", got.Datetime)
	}
	if got.Link != "https://toronto.aitinkerers.org/p/february-demos" {
		t.Errorf("unexpected link %q", got.Link)
	}
	if got.Logo == nil || *got.Logo != "https://toronto.aitinkerers.org/img/feb.png" {
		t.Errorf("unexpected logo %v", got.Logo)
	}
}

func TestAiAggregatorEventShapes(t *testing.T) {
	tests := []struct {
		name      string
		block     string
		wantVenue string
		wantCount int
	}{
		{
			name:      "graph wrapper",
			block:     `{"@graph":[{"@type":"ItemList","itemListElement":[{"item":{"@type":"Event","name":"A","startDate":"2025-01-01T10:00:00Z"}}]}]}`,
			wantVenue: meetup.NoVenue,
			wantCount: 1,
		},
		{
			name:      "array of nodes with string address",
			block:     `[{"@type":"ItemList","itemListElement":[{"item":{"@type":["Event","SocialEvent"],"name":"B","startDate":"2025-01-01T10:00:00Z","location":{"name":"Hub","address":"1 Main St"}}}]}]`,
			wantVenue: "Hub, 1 Main St",
			wantCount: 1,
		},
		{
			name:      "list items typed directly",
			block:     `{"itemListElement":[{"@type":"Event","name":"C","startDate":"2025-01-01T10:00:00Z"}]}`,
			wantVenue: meetup.NoVenue,
			wantCount: 1,
		},
		{
			name:      "no events",
			block:     `{"@type":"Organization","name":"AI Tinkerers"}`,
			wantCount: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := fetch.Page{
				URL:  "https://toronto.aitinkerers.org/",
				Body: `<html><head><script type="application/ld+json">` + tt.block + `</script></head></html>`,
			}
			events, err := AiAggregator{}.Events(page)
			if err != nil {
				t.Fatalf("Events failed: %v", err)
			}
			if len(events) != tt.wantCount {
				t.Fatalf("expected %d events, got %d", tt.wantCount, len(events))
			}
			if tt.wantCount > 0 && events[0].Venue != tt.wantVenue {
				t.Errorf("expected venue %q, got %q", tt.wantVenue, events[0].Venue)
			}
		})
	}
}

func TestAiAggregatorProfile(t *testing.T) {
	page := loadPage(t, "aitinkerers.html", "https://toronto.aitinkerers.org/")

	profile, err := AiAggregator{}.Profile(page)
	if err != nil {
		t.Fatalf("Profile failed: %v", err)
	}

	want := meetup.Profile{
		Name:        "AI Tinkerers - Toronto",
		Description: "Builders working with foundation models.",
		Logo:        ptr("https://toronto.aitinkerers.org/images/toronto.png"),
	}
	if diff := cmp.Diff(want, profile); diff != "" {
		t.Errorf("Profile mismatch (-want +got):\n%s", diff)
	}
}

func TestStorefrontProfile(t *testing.T) {
	page := loadPage(t, "buildersundays.html", "https://builder-sundays.myshopify.com/")

	profile, err := Storefront{Name: "Builder Sundays"}.Profile(page)
	if err != nil {
		t.Fatalf("Profile failed: %v", err)
	}

	want := meetup.Profile{
		Name: "Builder Sundays",
		Description: "Co-working for builders every Sunday.\n\nBring a laptop." +
			"\n\nLocations:\nDowntown: 123 Queen St W\nMidtown: 2 Bloor St E",
		Logo: ptr("https://builder-sundays.myshopify.com/cdn/shop/files/logo.png"),
	}
	if diff := cmp.Diff(want, profile); diff != "" {
		t.Errorf("Profile mismatch (-want +got):\n%s", diff)
	}
}

func TestStorefrontProfileWithoutLogo(t *testing.T) {
	page := fetch.Page{URL: "https://builder-sundays.myshopify.com/", Body: `<html><body></body></html>`}

	profile, err := Storefront{Name: "Builder Sundays"}.Profile(page)
	if err != nil {
		t.Fatalf("Profile failed: %v", err)
	}
	if profile.Name != "Builder Sundays" {
		t.Errorf("expected fallback name, got %q", profile.Name)
	}
	if profile.Description != "" || profile.Logo != nil {
		t.Errorf("expected empty description and logo, got %+v", profile)
	}
}

func TestResolveURL(t *testing.T) {
	tests := []struct {
		base, ref, expected string
	}{
		{"https://toronto-ruby.com/events", "/events/1", "https://toronto-ruby.com/events/1"},
		{"https://toronto-ruby.com/events/", "2", "https://toronto-ruby.com/events/2"},
		{"https://shop.example/", "//cdn.example/logo.png", "https://cdn.example/logo.png"},
		{"https://a.example/", "https://b.example/x", "https://b.example/x"},
		{"https://a.example/", "  ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			if got := ResolveURL(tt.base, tt.ref); got != tt.expected {
				t.Errorf("ResolveURL(%q, %q) = %q, expected %q", tt.base, tt.ref, got, tt.expected)
			}
		})
	}
}

func TestCleanText(t *testing.T) {
	got := cleanText("\n   Line   one \n\n\t line two\t\n  ")
	if got != "Line one\nline two" {
		t.Errorf("cleanText = %q", got)
	}
}

func mustLoad(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Toronto")
	if err != nil {
		t.Skipf("timezone database unavailable: %v", err)
	}
	return loc
}
