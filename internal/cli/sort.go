package cli

import (
	"sort"
	"strings"

	"github.com/torontotech/meetups/internal/meetup"
	"github.com/torontotech/meetups/internal/site"
)

// SortOrder represents the available sorting options for the sources listing
type SortOrder string

const (
	SortByURL      SortOrder = "url"
	SortByCategory SortOrder = "category"
	SortBySite     SortOrder = "site"
)

func (o SortOrder) valid() bool {
	switch o {
	case SortByURL, SortByCategory, SortBySite:
		return true
	}
	return false
}

// sortSources sorts sources in place based on the specified sort order
func sortSources(sources []meetup.Source, order SortOrder) {
	switch order {
	case SortByURL:
		sort.SliceStable(sources, func(i, j int) bool {
			return compareByURL(sources[i], sources[j])
		})
	case SortByCategory:
		sort.SliceStable(sources, func(i, j int) bool {
			if sources[i].Category != sources[j].Category {
				return categoryRank(sources[i].Category) < categoryRank(sources[j].Category)
			}
			// If categories are equal, sort by URL
			return compareByURL(sources[i], sources[j])
		})
	case SortBySite:
		sort.SliceStable(sources, func(i, j int) bool {
			ki, kj := site.Classify(sources[i].URL), site.Classify(sources[j].URL)
			if ki != kj {
				return ki.String() < kj.String()
			}
			return compareByURL(sources[i], sources[j])
		})
	}
}

// compareByURL orders case-insensitively, ignoring the scheme and a trailing slash
func compareByURL(a, b meetup.Source) bool {
	return urlKey(a.URL) < urlKey(b.URL)
}

func urlKey(u string) string {
	u = strings.ToLower(u)
	u = strings.TrimPrefix(u, "https://")
	u = strings.TrimPrefix(u, "http://")
	u = strings.TrimPrefix(u, "www.")
	return strings.TrimSuffix(u, "/")
}

// categoryRank puts known categories first, in display order
func categoryRank(c meetup.Category) int {
	for i, known := range meetup.Categories {
		if c == known {
			return i
		}
	}
	return len(meetup.Categories)
}
