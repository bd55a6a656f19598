package meetup

import (
	"errors"
	"testing"
	"time"
)

const rubyLayout = "Jan 02, 2006 @ 03:04PM"

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("loading %s: %v", name, err)
	}
	return loc
}

func TestParseWallClock(t *testing.T) {
	toronto := mustLoad(t, "America/Toronto")

	tests := []struct {
		name    string
		text    string
		want    time.Time
		wantErr bool
	}{
		{
			name: "winter date uses EST offset",
			text: "Jan 05, 2025 @ 06:30PM",
			want: time.Date(2025, time.January, 5, 23, 30, 0, 0, time.UTC),
		},
		{
			name: "summer date uses EDT offset",
			text: "Jul 10, 2025 @ 06:30PM",
			want: time.Date(2025, time.July, 10, 22, 30, 0, 0, time.UTC),
		},
		{
			name: "lowercase meridiem",
			text: "Mar 20, 2025 @ 07:00pm",
			want: time.Date(2025, time.March, 20, 23, 0, 0, 0, time.UTC),
		},
		{
			name: "extra whitespace is collapsed",
			text: "  Jan 05,  2025 @ 06:30PM \n",
			want: time.Date(2025, time.January, 5, 23, 30, 0, 0, time.UTC),
		},
		{
			name: "morning time",
			text: "Feb 01, 2025 @ 09:15AM",
			want: time.Date(2025, time.February, 1, 14, 15, 0, 0, time.UTC),
		},
		{
			name: "unpadded day and hour",
			text: "Jan 5, 2025 @ 6:30PM",
			want: time.Date(2025, time.January, 5, 23, 30, 0, 0, time.UTC),
		},
		{
			name: "two digit day with unpadded hour",
			text: "Jan 15, 2025 @ 6:30PM",
			want: time.Date(2025, time.January, 15, 23, 30, 0, 0, time.UTC),
		},
		{
			name: "unpadded day with padded hour",
			text: "Jan 5, 2025 @ 11:05am",
			want: time.Date(2025, time.January, 5, 16, 5, 0, 0, time.UTC),
		},
		{
			name:    "placeholder is rejected",
			text:    NoDatetime,
			wantErr: true,
		},
		{
			name:    "wrong format",
			text:    "2025-01-05 18:30",
			wantErr: true,
		},
		{
			name:    "empty",
			text:    "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseWallClock(tt.text, rubyLayout, toronto)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseWallClock(%q) expected error, got %v", tt.text, got)
				}
				if !errors.Is(err, ErrInvalidDatetime) {
					t.Errorf("error %v should wrap ErrInvalidDatetime", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseWallClock(%q) error = %v", tt.text, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseWallClock(%q) = %v, want %v", tt.text, got, tt.want)
			}
			if got.Location() != time.UTC {
				t.Errorf("result location = %v, want UTC", got.Location())
			}
		})
	}
}

func TestParseInstant(t *testing.T) {
	toronto := mustLoad(t, "America/Toronto")

	tests := []struct {
		text    string
		want    time.Time
		wantErr bool
	}{
		{"2025-02-20T18:00:00-05:00", time.Date(2025, 2, 20, 23, 0, 0, 0, time.UTC), false},
		{"2025-02-20T18:00-05:00", time.Date(2025, 2, 20, 23, 0, 0, 0, time.UTC), false},
		{"2025-02-20T23:00:00Z", time.Date(2025, 2, 20, 23, 0, 0, 0, time.UTC), false},
		{"2025-02-20T23:00:00.500Z", time.Date(2025, 2, 20, 23, 0, 0, 500000000, time.UTC), false},
		{"2025-06-20T18:00:00", time.Date(2025, 6, 20, 22, 0, 0, 0, time.UTC), false},
		{"2025-06-20T18:00", time.Date(2025, 6, 20, 22, 0, 0, 0, time.UTC), false},
		{"2025-06-20", time.Date(2025, 6, 20, 4, 0, 0, 0, time.UTC), false},
		{NoDatetime, time.Time{}, true},
		{"next tuesday", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, err := ParseInstant(tt.text, toronto)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseInstant(%q) error = %v, wantErr %v", tt.text, err, tt.wantErr)
			}
			if !tt.wantErr && !got.Equal(tt.want) {
				t.Errorf("ParseInstant(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestStartOfDay(t *testing.T) {
	toronto := mustLoad(t, "America/Toronto")

	// 02:00 UTC on the 6th is still the evening of the 5th in Toronto
	now := time.Date(2025, time.January, 6, 2, 0, 0, 0, time.UTC)
	got := StartOfDay(now, toronto)
	want := time.Date(2025, time.January, 5, 5, 0, 0, 0, time.UTC)

	if !got.Equal(want) {
		t.Errorf("StartOfDay() = %v, want %v", got.UTC(), want)
	}
}

func TestLoadLocation(t *testing.T) {
	loc, err := LoadLocation("")
	if err != nil {
		t.Fatalf("LoadLocation(\"\") error = %v", err)
	}
	if loc.String() != DefaultTimezone {
		t.Errorf("LoadLocation(\"\") = %s, want %s", loc, DefaultTimezone)
	}

	if _, err := LoadLocation("Mars/Olympus_Mons"); err == nil {
		t.Error("LoadLocation() expected error for unknown zone")
	}
}
