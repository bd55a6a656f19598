// Package calendar renders upcoming events as an iCalendar feed.
package calendar

import (
	"crypto/sha1"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/torontotech/meetups/internal/meetup"
)

const (
	CalendarName = "Toronto Tech Meetups"
	// DefaultDuration is used for DTEND since pages never publish an end time
	DefaultDuration = 2 * time.Hour

	uidDomain   = "meetups.torontotech"
	maxLineSize = 75 // octets, before CRLF
)

// GenerateICS generates one VCALENDAR holding a VEVENT per event. meetups
// supplies the group name shown in each description; unknown IDs are fine.
func GenerateICS(events []meetup.Event, meetups []meetup.Meetup) string {
	names := make(map[string]string, len(meetups))
	for _, m := range meetups {
		names[m.ID] = m.Name
	}

	var ics strings.Builder
	writeLine(&ics, "BEGIN:VCALENDAR")
	writeLine(&ics, "VERSION:2.0")
	writeLine(&ics, "PRODID:-//Toronto Tech//meetups//EN")
	writeLine(&ics, "CALSCALE:GREGORIAN")
	writeLine(&ics, "METHOD:PUBLISH")
	writeLine(&ics, "X-WR-CALNAME:"+escapeICS(CalendarName))

	stamp := formatICSTime(time.Now())
	for i := range events {
		writeEvent(&ics, &events[i], names[events[i].MeetupID], stamp)
	}

	writeLine(&ics, "END:VCALENDAR")
	return ics.String()
}

func writeEvent(ics *strings.Builder, evt *meetup.Event, group, stamp string) {
	writeLine(ics, "BEGIN:VEVENT")
	writeLine(ics, "UID:"+UID(evt.Link))
	writeLine(ics, "DTSTAMP:"+stamp)
	writeLine(ics, "DTSTART:"+formatICSTime(evt.Datetime))
	writeLine(ics, "DTEND:"+formatICSTime(evt.Datetime.Add(DefaultDuration)))
	writeLine(ics, "SUMMARY:"+escapeICS(evt.Title))

	if evt.Venue != "" && evt.Venue != meetup.NoVenue {
		writeLine(ics, "LOCATION:"+escapeICS(evt.Venue))
	}

	var desc []string
	if group != "" {
		desc = append(desc, group)
	}
	if evt.Description != "" && evt.Description != meetup.NoDescription {
		desc = append(desc, evt.Description)
	}
	if len(desc) > 0 {
		writeLine(ics, "DESCRIPTION:"+escapeICS(strings.Join(desc, "\n\n")))
	}

	if !evt.HasSyntheticLink() {
		writeLine(ics, "URL:"+evt.Link)
	}
	writeLine(ics, "STATUS:CONFIRMED")
	writeLine(ics, "TRANSP:OPAQUE")
	writeLine(ics, "END:VEVENT")
}

// UID derives a stable identifier from an event's link
func UID(link string) string {
	return fmt.Sprintf("%x@%s", sha1.Sum([]byte(link)), uidDomain)
}

// writeLine folds line at 75 octets, never splitting a UTF-8 sequence,
// and terminates every physical line with CRLF
func writeLine(ics *strings.Builder, line string) {
	limit := maxLineSize
	for len(line) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(line[cut]) {
			cut--
		}
		ics.WriteString(line[:cut])
		ics.WriteString("\r\n ")
		line = line[cut:]
		// continuation lines lose one octet to the leading space
		limit = maxLineSize - 1
	}
	ics.WriteString(line)
	ics.WriteString("\r\n")
}

// formatICSTime formats a time.Time as an iCalendar datetime string
func formatICSTime(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

// escapeICS escapes special characters for iCalendar format
func escapeICS(s string) string {
	// Replace special characters according to RFC 5545
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, ";", "\\;")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}
