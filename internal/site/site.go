// Package site maps a community URL to the extraction strategy for it.
package site

import (
	"strings"
)

// Kind identifies which extractor understands a site
type Kind int

const (
	Unknown Kind = iota
	Meetup
	RubyCommunity
	AiAggregator
	Storefront
)

var kindNames = map[Kind]string{
	Unknown:       "unknown",
	Meetup:        "meetup",
	RubyCommunity: "ruby-community",
	AiAggregator:  "ai-aggregator",
	Storefront:    "storefront",
}

// String returns the lowercase name of the kind
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// patterns are checked in order; the first substring found in the URL wins
var patterns = []struct {
	substr string
	kind   Kind
}{
	{"meetup.com", Meetup},
	{"toronto-ruby.com", RubyCommunity},
	{"aitinkerers.org", AiAggregator},
	{"builder-sundays", Storefront},
	{"buildersundays", Storefront},
}

// Classify returns the Kind for url, or Unknown
func Classify(url string) Kind {
	lower := strings.ToLower(url)
	for _, p := range patterns {
		if strings.Contains(lower, p.substr) {
			return p.kind
		}
	}
	return Unknown
}

// EventsURL returns the page listing events for a community URL
func EventsURL(kind Kind, url string) string {
	if kind != Meetup {
		return url
	}
	if strings.HasSuffix(url, "/") {
		return url + "events/"
	}
	return url + "/events/"
}

// NeedsRender reports whether event pages of kind are client-rendered and
// must be loaded in a headless browser
func NeedsRender(kind Kind) bool {
	return kind == RubyCommunity
}
