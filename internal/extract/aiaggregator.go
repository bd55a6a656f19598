package extract

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/torontotech/meetups/internal/fetch"
	"github.com/torontotech/meetups/internal/meetup"
)

// AiAggregator reads schema.org JSON-LD event listings
type AiAggregator struct{}

type ldNode struct {
	Type            json.RawMessage `json:"@type"`
	Graph           []ldNode        `json:"@graph"`
	ItemListElement []ldListItem    `json:"itemListElement"`

	Name        string          `json:"name"`
	StartDate   string          `json:"startDate"`
	Description string          `json:"description"`
	URL         string          `json:"url"`
	Image       json.RawMessage `json:"image"`
	Location    *ldPlace        `json:"location"`
}

type ldListItem struct {
	ldNode
	Item *ldNode `json:"item"`
}

type ldPlace struct {
	Name    string          `json:"name"`
	Address json.RawMessage `json:"address"`
}

type ldAddress struct {
	StreetAddress   string `json:"streetAddress"`
	AddressLocality string `json:"addressLocality"`
}

func (n *ldNode) is(typename string) bool {
	var one string
	if json.Unmarshal(n.Type, &one) == nil {
		return one == typename
	}
	var many []string
	if json.Unmarshal(n.Type, &many) == nil {
		for _, t := range many {
			if t == typename {
				return true
			}
		}
	}
	return false
}

// Events implements EventExtractor. Blocks that are not valid JSON are
// skipped.
func (AiAggregator) Events(page fetch.Page) ([]meetup.RawEvent, error) {
	doc, err := parse(page)
	if err != nil {
		return nil, err
	}

	events := make([]meetup.RawEvent, 0)
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		for _, node := range decodeLD(sel.Text()) {
			for _, evt := range node.events() {
				events = append(events, evt.rawEvent(page))
			}
		}
	})
	return events, nil
}

// decodeLD accepts a single node or an array of nodes
func decodeLD(text string) []ldNode {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "[") {
		var nodes []ldNode
		if json.Unmarshal([]byte(text), &nodes) != nil {
			return nil
		}
		return nodes
	}
	var node ldNode
	if json.Unmarshal([]byte(text), &node) != nil {
		return nil
	}
	return []ldNode{node}
}

// events returns the Event nodes listed by n
func (n *ldNode) events() []*ldNode {
	var found []*ldNode
	for i := range n.ItemListElement {
		entry := &n.ItemListElement[i]
		switch {
		case entry.Item != nil && entry.Item.is("Event"):
			found = append(found, entry.Item)
		case entry.Item == nil && entry.is("Event"):
			found = append(found, &entry.ldNode)
		}
	}
	for i := range n.Graph {
		found = append(found, n.Graph[i].events()...)
	}
	return found
}

func (n *ldNode) rawEvent(page fetch.Page) meetup.RawEvent {
	raw := meetup.RawEvent{
		Title:       orPlaceholder(n.Name, meetup.NoTitle),
		Datetime:    orPlaceholder(n.StartDate, meetup.NoDatetime),
		Venue:       meetup.NoVenue,
		Description: orPlaceholder(n.Description, meetup.NoDescription),
		Logo:        meetup.String(ResolveURL(page.URL, ldImage(n.Image))),
		Link:        ResolveURL(page.URL, n.URL),
	}
	if n.Location != nil {
		var street, locality string
		var addr ldAddress
		if json.Unmarshal(n.Location.Address, &addr) == nil {
			street, locality = addr.StreetAddress, addr.AddressLocality
		} else {
			_ = json.Unmarshal(n.Location.Address, &street)
		}
		raw.Venue = meetup.JoinVenue(n.Location.Name, street, locality)
	}
	return raw
}

// ldImage reads an image given as a URL, a list of URLs or an ImageObject
func ldImage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var list []json.RawMessage
	if json.Unmarshal(raw, &list) == nil {
		for _, item := range list {
			if s := ldImage(item); s != "" {
				return s
			}
		}
		return ""
	}
	var obj struct {
		URL string `json:"url"`
	}
	if json.Unmarshal(raw, &obj) == nil {
		return obj.URL
	}
	return ""
}

// Profile implements ProfileExtractor from the page's OpenGraph tags
func (AiAggregator) Profile(page fetch.Page) (meetup.Profile, error) {
	doc, err := parse(page)
	if err != nil {
		return meetup.Profile{}, err
	}

	name := metaContent(doc, "og:site_name")
	if name == "" {
		name = metaContent(doc, "og:title")
	}
	if name == "" {
		name = cleanText(doc.Find("title").First().Text())
	}

	var logo *string
	if image := metaContent(doc, "og:image"); image != "" {
		logo = meetup.String(ResolveURL(page.URL, image))
	}

	return meetup.Profile{
		Name:        name,
		Description: metaContent(doc, "og:description"),
		Logo:        logo,
	}, nil
}
