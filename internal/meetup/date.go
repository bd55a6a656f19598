package meetup

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidDatetime is returned when a raw datetime does not parse
var ErrInvalidDatetime = errors.New("invalid datetime")

// DefaultTimezone is the zone wall-clock times are interpreted in
const DefaultTimezone = "America/Toronto"

// instantLayouts are tried in order for ISO 8601 text carrying an offset
var instantLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04Z07:00",
}

// localLayouts are ISO 8601 forms without an offset, read in the source zone
var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseWallClock parses text with layout as wall-clock time in loc and
// returns the UTC instant. AM/PM markers are accepted in either case.
func ParseWallClock(text, layout string, loc *time.Location) (time.Time, error) {
	value := strings.Join(strings.Fields(text), " ")
	if value == "" || value == NoDatetime {
		return time.Time{}, fmt.Errorf("%w: empty", ErrInvalidDatetime)
	}
	if strings.Contains(layout, "PM") {
		// month and weekday names match case-insensitively, the meridiem does not
		value = strings.ToUpper(value)
	}

	t, err := time.ParseInLocation(layout, value, loc)
	if err != nil {
		// sites drop the leading zero of days and hours ("Jan 5, 2025 @ 6:30PM")
		unpadded := unpad.Replace(layout)
		if unpadded == layout {
			return time.Time{}, fmt.Errorf("%w: %q does not match %q", ErrInvalidDatetime, text, layout)
		}
		if t, err = time.ParseInLocation(unpadded, value, loc); err != nil {
			return time.Time{}, fmt.Errorf("%w: %q does not match %q", ErrInvalidDatetime, text, layout)
		}
	}
	return t.UTC(), nil
}

// unpad turns the zero-padded day and 12-hour elements into their one-or-two
// digit forms
var unpad = strings.NewReplacer("02", "2", "03", "3")

// ParseInstant parses ISO 8601 text. Text without an offset is read as
// wall-clock time in loc.
func ParseInstant(text string, loc *time.Location) (time.Time, error) {
	value := strings.TrimSpace(text)
	if value == "" || value == NoDatetime {
		return time.Time{}, fmt.Errorf("%w: empty", ErrInvalidDatetime)
	}

	for _, layout := range instantLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q is not ISO 8601", ErrInvalidDatetime, text)
}

// StartOfDay returns midnight of t's calendar day in loc
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// LoadLocation loads name, defaulting to DefaultTimezone when name is empty
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", name, err)
	}
	return loc, nil
}
