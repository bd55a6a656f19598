// Package registry holds the list of community pages the scrapers visit.
//
// The built-in list is compiled into the binary. A TOML file with the same
// shape can replace it at runtime:
//
//	[[source]]
//	url = "https://www.meetup.com/go-toronto/"
//	platform = "meetup"
//	category = "meetups"
package registry

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/torontotech/meetups/internal/meetup"
)

// file is the on-disk layout of a sources file
type file struct {
	Sources []meetup.Source `toml:"source"`
}

// Load reads and validates a TOML sources file
func Load(path string) ([]meetup.Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading sources file: %w", err)
	}

	var f file
	if _, err := toml.Decode(string(data), &f); err != nil {
		return nil, fmt.Errorf("parsing sources file %s: %w", path, err)
	}

	if err := Validate(f.Sources); err != nil {
		return nil, err
	}
	return f.Sources, nil
}

// Resolve returns the sources in path, or the built-in list when path is empty
func Resolve(path string) ([]meetup.Source, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// Validate checks every source and rejects duplicate URLs
func Validate(sources []meetup.Source) error {
	if len(sources) == 0 {
		return fmt.Errorf("no sources defined")
	}

	seen := make(map[string]bool, len(sources))
	for _, src := range sources {
		if err := src.Validate(); err != nil {
			return err
		}
		key := strings.TrimSuffix(strings.ToLower(src.URL), "/")
		if seen[key] {
			return fmt.Errorf("duplicate source url: %s", src.URL)
		}
		seen[key] = true
	}
	return nil
}

// Default returns a copy of the built-in source list
func Default() []meetup.Source {
	out := make([]meetup.Source, len(defaultSources))
	copy(out, defaultSources)
	return out
}

func meetupGroup(url string) meetup.Source {
	return meetup.Source{URL: url, Platform: meetup.PlatformMeetup, Category: meetup.CategoryMeetups}
}

var defaultSources = []meetup.Source{
	meetupGroup("https://www.meetup.com/techtank-to/"),
	meetupGroup("https://www.meetup.com/torontojs/"),
	meetupGroup("https://www.meetup.com/go-toronto/"),
	meetupGroup("https://www.meetup.com/toronto-java-users-group/"),
	meetupGroup("https://www.meetup.com/k8s-ca/"),
	meetupGroup("https://www.meetup.com/drupalto/"),
	meetupGroup("https://www.meetup.com/toronto-aws-users-united/"),
	meetupGroup("https://www.meetup.com/elastic-toronto-user-group/"),
	meetupGroup("https://www.meetup.com/toronto-tech-stack-exchange/"),
	meetupGroup("https://www.meetup.com/machine-learning-to-meetup/"),
	{URL: "https://toronto-ruby.com/", Platform: meetup.PlatformOther, Category: meetup.CategoryMeetups},
	{URL: "https://builder-sundays.myshopify.com/", Platform: meetup.PlatformOther, Category: meetup.CategoryOthers},
	meetupGroup("https://www.meetup.com/brainstation-toronto-tech-skills-and-careers/"),
	meetupGroup("https://www.meetup.com/metro-toronto-azure-community/"),
	meetupGroup("https://www.meetup.com/pragmatic-tech/"),
	meetupGroup("https://www.meetup.com/laravel-toronto/"),
	meetupGroup("https://www.meetup.com/vue-toronto/"),
	meetupGroup("https://www.meetup.com/toronto-modern-data/"),
	meetupGroup("https://www.meetup.com/cloud-architecture-meetup-group/"),
	meetupGroup("https://www.meetup.com/aittg-toronto/"),
	meetupGroup("https://www.meetup.com/digitalnatives/"),
	meetupGroup("https://www.meetup.com/mindstone-toronto-ai-meetup/"),
	{URL: "https://toronto.aitinkerers.org/", Platform: meetup.PlatformOther, Category: meetup.CategoryMeetups},
	meetupGroup("https://www.meetup.com/toronto-ai-aligners/"),
	meetupGroup("https://www.meetup.com/data-drinks-toronto/"),
	meetupGroup("https://www.meetup.com/ai-human-flourishing-meetup/"),
}
