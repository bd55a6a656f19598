package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/torontotech/meetups/internal/fetch"
	"github.com/torontotech/meetups/internal/meetup"
)

// RubyLayout is the wall-clock format of event dates on the Ruby community site
const RubyLayout = "Jan 02, 2006 @ 03:04PM"

// RubyCommunity reads the rendered event list of a Rails community site.
// Each event lives in a container whose id starts with "event_".
type RubyCommunity struct {
	Name string
}

// Events implements EventExtractor
func (RubyCommunity) Events(page fetch.Page) ([]meetup.RawEvent, error) {
	doc, err := parse(page)
	if err != nil {
		return nil, err
	}

	events := make([]meetup.RawEvent, 0)
	doc.Find(`div[id^="event_"]`).Each(func(_ int, sel *goquery.Selection) {
		heading := sel.Find("h2 a").First()
		content := sel.Find(".trix-content")

		raw := meetup.RawEvent{
			Title:       orPlaceholder(heading.Text(), meetup.NoTitle),
			Datetime:    orPlaceholder(sel.Find("span.font-medium").First().Text(), meetup.NoDatetime),
			Layout:      RubyLayout,
			Venue:       orPlaceholder(content.Eq(0).Text(), meetup.NoVenue),
			Description: orPlaceholder(content.Eq(1).Text(), meetup.NoDescription),
		}
		if href, ok := heading.Attr("href"); ok {
			raw.Link = ResolveURL(page.URL, href)
		}
		events = append(events, raw)
	})
	return events, nil
}

// Profile implements ProfileExtractor
func (r RubyCommunity) Profile(page fetch.Page) (meetup.Profile, error) {
	doc, err := parse(page)
	if err != nil {
		return meetup.Profile{}, err
	}

	description := metaContent(doc, "og:description")
	if description == "" {
		description = cleanText(doc.Find("p").First().Text())
	}

	return meetup.Profile{
		Name:        r.Name,
		Description: description,
		Logo:        attrURL(page, doc.Find(`img[alt="`+r.Name+`"]`).First(), "src"),
	}, nil
}

func orPlaceholder(s, placeholder string) string {
	if s = cleanText(s); s != "" {
		return s
	}
	return placeholder
}

// joinParagraphs returns the cleaned text of each selected element, joined
// by blank lines
func joinParagraphs(sel *goquery.Selection) string {
	var parts []string
	sel.Each(func(_ int, p *goquery.Selection) {
		if text := cleanText(p.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, "\n\n")
}
