package site

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		url  string
		want Kind
	}{
		{"https://www.meetup.com/go-toronto/", Meetup},
		{"https://WWW.MEETUP.COM/torontojs", Meetup},
		{"https://toronto-ruby.com/", RubyCommunity},
		{"https://toronto.aitinkerers.org/", AiAggregator},
		{"https://aitinkerers.org/p/welcome", AiAggregator},
		{"https://builder-sundays.myshopify.com/", Storefront},
		{"https://buildersundays.com/", Storefront},
		{"https://www.techto.org", Unknown},
		{"", Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if got := Classify(tt.url); got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

func TestEventsURL(t *testing.T) {
	tests := []struct {
		kind Kind
		url  string
		want string
	}{
		{Meetup, "https://www.meetup.com/go-toronto/", "https://www.meetup.com/go-toronto/events/"},
		{Meetup, "https://www.meetup.com/go-toronto", "https://www.meetup.com/go-toronto/events/"},
		{RubyCommunity, "https://toronto-ruby.com/", "https://toronto-ruby.com/"},
		{AiAggregator, "https://toronto.aitinkerers.org/", "https://toronto.aitinkerers.org/"},
	}

	for _, tt := range tests {
		if got := EventsURL(tt.kind, tt.url); got != tt.want {
			t.Errorf("EventsURL(%v, %q) = %q, want %q", tt.kind, tt.url, got, tt.want)
		}
	}
}

func TestKindString(t *testing.T) {
	if Meetup.String() != "meetup" {
		t.Errorf("Meetup.String() = %q", Meetup.String())
	}
	if Kind(99).String() != "unknown" {
		t.Errorf("Kind(99).String() = %q", Kind(99).String())
	}
	if !NeedsRender(RubyCommunity) || NeedsRender(Meetup) {
		t.Error("only the Ruby community site needs a rendered fetch")
	}
}
