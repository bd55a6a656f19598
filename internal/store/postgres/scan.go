package postgres

import (
	"database/sql"
	"time"

	"github.com/torontotech/meetups/internal/meetup"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows
type scannable interface {
	Scan(dest ...any) error
}

// scanMeetup reads the columns listed in meetupColumns
func scanMeetup(row scannable) (*meetup.Meetup, error) {
	var (
		m           meetup.Meetup
		description sql.NullString
		logo        sql.NullString
		scrapedAt   sql.NullTime
	)
	err := row.Scan(
		&m.ID,
		&m.URL,
		&m.Name,
		&description,
		&logo,
		&m.Platform,
		&m.Category,
		&scrapedAt,
	)
	if err != nil {
		return nil, err
	}

	m.Description = description.String
	m.Logo = stringPtr(logo)
	if scrapedAt.Valid {
		m.LastScrapedAt = scrapedAt.Time.UTC()
	}
	return &m, nil
}

// scanEvent reads the columns listed in eventColumns
func scanEvent(row scannable) (*meetup.Event, error) {
	var (
		e           meetup.Event
		venue       sql.NullString
		description sql.NullString
		logo        sql.NullString
	)
	err := row.Scan(
		&e.ID,
		&e.MeetupID,
		&e.Title,
		&e.Datetime,
		&venue,
		&description,
		&logo,
		&e.Link,
	)
	if err != nil {
		return nil, err
	}

	e.Datetime = e.Datetime.UTC()
	e.Venue = venue.String
	e.Description = description.String
	e.Logo = stringPtr(logo)
	return &e, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t.UTC(), Valid: !t.IsZero()}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
