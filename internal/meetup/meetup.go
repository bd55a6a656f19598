package meetup

import (
	"fmt"
	"strings"
	"time"
)

// Platform is a rough hint of where a community is hosted
type Platform string

const (
	PlatformMeetup Platform = "meetup"
	PlatformOther  Platform = "other"
)

// Category groups meetups for display
type Category string

const (
	CategoryMeetups Category = "meetups"
	CategoryOthers  Category = "others"
)

// Categories lists every category in display order
var Categories = []Category{CategoryMeetups, CategoryOthers}

// Source is one registered community page
type Source struct {
	URL      string   `json:"url" toml:"url"`
	Platform Platform `json:"platform" toml:"platform"`
	Category Category `json:"category" toml:"category"`
}

// Validate checks that the platform and category are known values
func (s Source) Validate() error {
	switch s.Platform {
	case PlatformMeetup, PlatformOther:
	default:
		return fmt.Errorf("source %s: unknown platform %q", s.URL, s.Platform)
	}
	switch s.Category {
	case CategoryMeetups, CategoryOthers:
	default:
		return fmt.Errorf("source %s: unknown category %q", s.URL, s.Category)
	}
	if !strings.HasPrefix(s.URL, "http://") && !strings.HasPrefix(s.URL, "https://") {
		return fmt.Errorf("source %s: url must be absolute http(s)", s.URL)
	}
	return nil
}

// Meetup is a persisted community profile, keyed by URL
type Meetup struct {
	ID            string    `json:"id"`
	URL           string    `json:"url"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	Logo          *string   `json:"logo"`
	Platform      Platform  `json:"platform"`
	Category      Category  `json:"category"`
	LastScrapedAt time.Time `json:"last_scraped_at"`
}

// Profile is what a profile extractor reads from a community landing page.
// Empty fields mean "not found" and never overwrite stored values.
type Profile struct {
	Name        string  `json:"name,omitempty"`
	Description string  `json:"description,omitempty"`
	Logo        *string `json:"logo,omitempty"`
}

// IsEmpty reports whether nothing was extracted
func (p Profile) IsEmpty() bool {
	return p.Name == "" && p.Description == "" && p.Logo == nil
}

// NewMeetup builds the row inserted the first time a source is scraped
func NewMeetup(src Source, p Profile, scrapedAt time.Time) *Meetup {
	name := p.Name
	if name == "" {
		name = src.URL
	}
	return &Meetup{
		URL:           src.URL,
		Name:          name,
		Description:   p.Description,
		Logo:          p.Logo,
		Platform:      src.Platform,
		Category:      src.Category,
		LastScrapedAt: scrapedAt.UTC(),
	}
}

// MeetupPatch is an in-place update of an existing meetup.
// Zero-valued profile fields are left untouched.
type MeetupPatch struct {
	Profile
	LastScrapedAt time.Time
}

// Apply merges the patch into m
func (p MeetupPatch) Apply(m *Meetup) {
	if p.Name != "" {
		m.Name = p.Name
	}
	if p.Description != "" {
		m.Description = p.Description
	}
	if p.Logo != nil {
		m.Logo = p.Logo
	}
	if !p.LastScrapedAt.IsZero() {
		m.LastScrapedAt = p.LastScrapedAt.UTC()
	}
}

// String returns a pointer to s, or nil when s is empty
func String(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
