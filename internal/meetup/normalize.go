package meetup

import (
	"strings"
	"time"
)

// Rejection is a raw event that could not be normalized
type Rejection struct {
	Raw    RawEvent `json:"-"`
	Title  string   `json:"title"`
	Value  string   `json:"datetime"`
	Reason string   `json:"reason"`
}

// Batch is the result of normalizing every raw event found on one page
type Batch struct {
	Events   []Event
	Rejected []Rejection
}

// Normalize converts raw into an Event owned by meetupID. Missing text fields
// fall back to the placeholders; a datetime that does not parse is an error
// wrapping ErrInvalidDatetime.
func Normalize(raw RawEvent, meetupID string, loc *time.Location) (Event, error) {
	var (
		start time.Time
		err   error
	)
	if raw.Layout != "" {
		start, err = ParseWallClock(raw.Datetime, raw.Layout, loc)
	} else {
		start, err = ParseInstant(raw.Datetime, loc)
	}
	if err != nil {
		return Event{}, err
	}

	evt := Event{
		MeetupID:    meetupID,
		Title:       orDefault(raw.Title, NoTitle),
		Datetime:    start,
		Venue:       orDefault(raw.Venue, NoVenue),
		Description: orDefault(raw.Description, NoDescription),
		Logo:        raw.Logo,
		Link:        strings.TrimSpace(raw.Link),
	}
	if evt.Link == "" {
		evt.Link = GenerateLink(meetupID, evt.Title, evt.Datetime)
	}
	return evt, nil
}

// NormalizeAll normalizes raws, collecting rejections instead of stopping.
// Events sharing a link are collapsed so one batch never writes a row twice;
// the last occurrence wins and keeps the position of the first.
func NormalizeAll(raws []RawEvent, meetupID string, loc *time.Location) Batch {
	batch := Batch{Events: make([]Event, 0, len(raws))}
	index := make(map[string]int, len(raws))

	for _, raw := range raws {
		evt, err := Normalize(raw, meetupID, loc)
		if err != nil {
			batch.Rejected = append(batch.Rejected, Rejection{
				Raw:    raw,
				Title:  raw.Title,
				Value:  raw.Datetime,
				Reason: err.Error(),
			})
			continue
		}
		if i, seen := index[evt.Link]; seen {
			batch.Events[i] = evt
			continue
		}
		index[evt.Link] = len(batch.Events)
		batch.Events = append(batch.Events, evt)
	}

	return batch
}

func orDefault(s, fallback string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return fallback
}
