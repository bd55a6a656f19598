package meetup

import (
	"testing"
	"time"
)

func TestSourceValidate(t *testing.T) {
	tests := []struct {
		name    string
		src     Source
		wantErr bool
	}{
		{"valid", Source{URL: "https://www.meetup.com/go-toronto/", Platform: PlatformMeetup, Category: CategoryMeetups}, false},
		{"bad platform", Source{URL: "https://x.com/", Platform: "myspace", Category: CategoryMeetups}, true},
		{"bad category", Source{URL: "https://x.com/", Platform: PlatformOther, Category: "misc"}, true},
		{"relative url", Source{URL: "www.meetup.com/go-toronto", Platform: PlatformMeetup, Category: CategoryMeetups}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.src.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewMeetup(t *testing.T) {
	src := Source{URL: "https://toronto-ruby.com/", Platform: PlatformOther, Category: CategoryMeetups}
	now := time.Now()

	m := NewMeetup(src, Profile{Name: "Toronto Ruby", Logo: String("https://toronto-ruby.com/logo.png")}, now)
	if m.Name != "Toronto Ruby" || m.URL != src.URL || m.Category != CategoryMeetups {
		t.Errorf("NewMeetup() = %+v", m)
	}

	unnamed := NewMeetup(src, Profile{}, now)
	if unnamed.Name != src.URL {
		t.Errorf("unnamed meetup should fall back to its URL, got %q", unnamed.Name)
	}
	if unnamed.Logo != nil {
		t.Errorf("Logo = %v, want nil", unnamed.Logo)
	}
}

func TestMeetupPatchApply(t *testing.T) {
	m := &Meetup{Name: "Old", Description: "Old description", Logo: String("old.png")}
	scraped := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	MeetupPatch{Profile: Profile{Name: "New"}, LastScrapedAt: scraped}.Apply(m)

	if m.Name != "New" {
		t.Errorf("Name = %q, want New", m.Name)
	}
	if m.Description != "Old description" {
		t.Errorf("empty patch fields must not clobber, Description = %q", m.Description)
	}
	if m.Logo == nil || *m.Logo != "old.png" {
		t.Errorf("Logo = %v, want old.png", m.Logo)
	}
	if !m.LastScrapedAt.Equal(scraped) {
		t.Errorf("LastScrapedAt = %v", m.LastScrapedAt)
	}
}

func TestProfileIsEmpty(t *testing.T) {
	if !(Profile{}).IsEmpty() {
		t.Error("zero Profile should be empty")
	}
	if (Profile{Description: "x"}).IsEmpty() {
		t.Error("Profile with description should not be empty")
	}
	if String("") != nil {
		t.Error("String(\"\") should be nil")
	}
}
