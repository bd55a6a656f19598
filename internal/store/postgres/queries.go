package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/torontotech/meetups/internal/meetup"
	"github.com/torontotech/meetups/internal/store"
)

const meetupColumns = `id, url, name, description, logo, platform, type, last_scraped_at`

const eventColumns = `id, meetup_id, title, datetime, venue, description, logo, link`

// executor is the interface satisfied by both *sql.DB and *sql.Tx
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

func queryListMeetups(ctx context.Context, db executor) ([]meetup.Meetup, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+meetupColumns+` FROM meetups ORDER BY name, url`)
	if err != nil {
		return nil, fmt.Errorf("list meetups: %w", err)
	}
	defer rows.Close()

	var list []meetup.Meetup
	for rows.Next() {
		m, err := scanMeetup(rows)
		if err != nil {
			return nil, fmt.Errorf("scan meetup: %w", err)
		}
		list = append(list, *m)
	}
	return list, rows.Err()
}

func queryFindMeetupByURL(ctx context.Context, db executor, url string) (*meetup.Meetup, error) {
	row := db.QueryRowContext(ctx, `SELECT `+meetupColumns+` FROM meetups WHERE url = $1`, url)
	m, err := scanMeetup(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find meetup %s: %w", url, err)
	}
	return m, nil
}

func queryInsertMeetup(ctx context.Context, db executor, m *meetup.Meetup) error {
	err := db.QueryRowContext(ctx, `
		INSERT INTO meetups (url, name, description, logo, platform, type, last_scraped_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		m.URL,
		m.Name,
		nullString(m.Description),
		m.Logo,
		string(m.Platform),
		string(m.Category),
		nullTime(m.LastScrapedAt),
	).Scan(&m.ID)
	if err != nil {
		return fmt.Errorf("insert meetup %s: %w", m.URL, err)
	}
	return nil
}

// queryUpdateMeetup leaves a column untouched when its patch field is empty
func queryUpdateMeetup(ctx context.Context, db executor, url string, p meetup.MeetupPatch) error {
	res, err := db.ExecContext(ctx, `
		UPDATE meetups SET
			name = COALESCE($2, name),
			description = COALESCE($3, description),
			logo = COALESCE($4, logo),
			last_scraped_at = COALESCE($5, last_scraped_at)
		WHERE url = $1`,
		url,
		nullString(p.Name),
		nullString(p.Description),
		p.Logo,
		nullTime(p.LastScrapedAt),
	)
	if err != nil {
		return fmt.Errorf("update meetup %s: %w", url, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update meetup %s: %w", url, err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

const upsertEventSQL = `
	INSERT INTO events (meetup_id, title, datetime, venue, description, logo, link)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (link) DO UPDATE SET
		meetup_id = EXCLUDED.meetup_id,
		title = EXCLUDED.title,
		datetime = EXCLUDED.datetime,
		venue = EXCLUDED.venue,
		description = EXCLUDED.description,
		logo = EXCLUDED.logo,
		updated_at = now()`

func queryUpsertEvents(ctx context.Context, db executor, events []meetup.Event) error {
	stmt, err := db.PrepareContext(ctx, upsertEventSQL)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, e := range events {
		if e.Link == "" {
			return fmt.Errorf("upsert event %q: missing link", e.Title)
		}
		_, err := stmt.ExecContext(ctx,
			e.MeetupID,
			e.Title,
			e.Datetime.UTC(),
			nullString(e.Venue),
			nullString(e.Description),
			e.Logo,
			e.Link,
		)
		if err != nil {
			return fmt.Errorf("upsert event %s: %w", e.Link, err)
		}
	}
	return nil
}

func queryListEvents(ctx context.Context, db executor, q store.EventQuery) ([]meetup.Event, error) {
	var (
		where []string
		args  []any
	)
	if !q.Since.IsZero() {
		args = append(args, q.Since.UTC())
		where = append(where, fmt.Sprintf("datetime >= $%d", len(args)))
	}
	if q.MeetupID != "" {
		args = append(args, q.MeetupID)
		where = append(where, fmt.Sprintf("meetup_id = $%d", len(args)))
	}

	query := `SELECT ` + eventColumns + ` FROM events`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY datetime ASC, link ASC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var list []meetup.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		list = append(list, *e)
	}
	return list, rows.Err()
}
