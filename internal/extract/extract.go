package extract

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/torontotech/meetups/internal/fetch"
	"github.com/torontotech/meetups/internal/meetup"
	"github.com/torontotech/meetups/internal/site"
)

// ErrNoStructuredData is returned when a page lacks the embedded data block
// its extractor reads. Callers treat it as an empty result worth a warning.
var ErrNoStructuredData = errors.New("no structured data on page")

// EventExtractor reads the events listed on a page
type EventExtractor interface {
	Events(page fetch.Page) ([]meetup.RawEvent, error)
}

// ProfileExtractor reads a community's name, description and logo
type ProfileExtractor interface {
	Profile(page fetch.Page) (meetup.Profile, error)
}

// For returns the extractors for kind. Either may be nil when the site does
// not publish that kind of data; both are nil for site.Unknown.
func For(kind site.Kind) (EventExtractor, ProfileExtractor) {
	switch kind {
	case site.Meetup:
		return MeetupCom{}, MeetupCom{}
	case site.RubyCommunity:
		ruby := RubyCommunity{Name: "Toronto Ruby"}
		return ruby, ruby
	case site.AiAggregator:
		return AiAggregator{}, AiAggregator{}
	case site.Storefront:
		return nil, Storefront{Name: "Builder Sundays"}
	default:
		return nil, nil
	}
}

func parse(page fetch.Page) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.Body))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	return doc, nil
}

// ResolveURL resolves ref against base. An empty ref yields "", and a ref
// that cannot be parsed is returned unchanged.
func ResolveURL(base, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}

// cleanText trims every line, collapses runs of blanks inside a line and
// drops empty lines
func cleanText(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

// attrURL reads an attribute holding a URL and resolves it against the page
func attrURL(page fetch.Page, sel *goquery.Selection, attr string) *string {
	v, ok := sel.Attr(attr)
	if !ok {
		return nil
	}
	return meetup.String(ResolveURL(page.URL, v))
}

func metaContent(doc *goquery.Document, property string) string {
	v, _ := doc.Find(fmt.Sprintf(`meta[property=%q]`, property)).First().Attr("content")
	return strings.TrimSpace(v)
}
