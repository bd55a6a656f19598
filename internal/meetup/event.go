package meetup

import (
	"crypto/sha1"
	"fmt"
	"strings"
	"time"
)

// Placeholders used by extractors when a field cannot be located
const (
	NoTitle       = "No title found"
	NoDatetime    = "No datetime found"
	NoVenue       = "No venue found"
	NoDescription = "No description"
)

// SyntheticLinkPrefix marks links derived by GenerateLink rather than read from a page
const SyntheticLinkPrefix = "urn:meetup-event:"

// RawEvent is an event as read from a page, before normalization
type RawEvent struct {
	Title       string
	Datetime    string // raw text as found on the page
	Layout      string // Go time layout for wall-clock text; empty means ISO 8601
	Venue       string
	Description string
	Logo        *string
	Link        string // empty when the page has no stable link
}

// Event is a persisted, normalized event keyed by Link
type Event struct {
	ID          string    `json:"id,omitempty"`
	MeetupID    string    `json:"meetup_id"`
	Title       string    `json:"title"`
	Datetime    time.Time `json:"datetime"`
	Venue       string    `json:"venue,omitempty"`
	Description string    `json:"description,omitempty"`
	Logo        *string   `json:"logo"`
	Link        string    `json:"link"`
}

// HasSyntheticLink reports whether the link was derived rather than scraped
func (e *Event) HasSyntheticLink() bool {
	return IsSyntheticLink(e.Link)
}

// IsSyntheticLink reports whether link was produced by GenerateLink
func IsSyntheticLink(link string) bool {
	return strings.HasPrefix(link, SyntheticLinkPrefix)
}

// GenerateLink derives a deterministic dedup key for an event that has no link.
// The key only depends on the owning meetup, the normalized title and the start
// instant, so re-scraping the same event yields the same key.
func GenerateLink(meetupID, title string, start time.Time) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(title), " "))

	h := sha1.New()
	h.Write([]byte(meetupID + "|" + normalized + "|" + start.UTC().Format(time.RFC3339)))
	return fmt.Sprintf("%s%x", SyntheticLinkPrefix, h.Sum(nil))
}

// JoinVenue joins the non-empty parts with ", ", or returns NoVenue
func JoinVenue(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return NoVenue
	}
	return strings.Join(kept, ", ")
}
