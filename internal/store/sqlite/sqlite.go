// Package sqlite implements store.Store on a local SQLite file through bun.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/torontotech/meetups/internal/idgen"
	"github.com/torontotech/meetups/internal/meetup"
	"github.com/torontotech/meetups/internal/store"
)

type meetupModel struct {
	bun.BaseModel `bun:"table:meetups"`

	ID            string    `bun:"id,pk,notnull"`
	URL           string    `bun:"url,notnull,unique"`
	Name          string    `bun:"name,notnull"`
	Description   string    `bun:"description"`
	Logo          *string   `bun:"logo"`
	Platform      string    `bun:"platform,notnull"`
	Type          string    `bun:"type,notnull"`
	LastScrapedAt time.Time `bun:"last_scraped_at,nullzero"`
}

type eventModel struct {
	bun.BaseModel `bun:"table:events"`

	ID          string    `bun:"id,pk,notnull"`
	MeetupID    string    `bun:"meetup_id,notnull"`
	Title       string    `bun:"title,notnull"`
	Datetime    time.Time `bun:"datetime,notnull"`
	Venue       string    `bun:"venue"`
	Description string    `bun:"description"`
	Logo        *string   `bun:"logo"`
	Link        string    `bun:"link,notnull,unique"`
	UpdatedAt   time.Time `bun:"updated_at,notnull"`
}

// Store implements store.Store on SQLite
type Store struct {
	db  *bun.DB
	now func() time.Time
}

var _ store.Store = (*Store)(nil)

// New opens (creating if needed) the database at dsn and its schema.
// Use ":memory:" for a throwaway database.
func New(ctx context.Context, dsn string) (*Store, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one connection so an in-memory database is shared by every query
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	if err := createSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, now: time.Now}, nil
}

func createSchema(ctx context.Context, db *bun.DB) error {
	if err := db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		for _, model := range []interface{}{
			(*meetupModel)(nil),
			(*eventModel)(nil),
		} {
			if _, err := tx.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
				return err
			}
		}
		_, err := tx.NewCreateIndex().
			Model((*eventModel)(nil)).
			Index("events_datetime_idx").
			Column("datetime").
			IfNotExists().
			Exec(ctx)
		return err
	}); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ListMeetups(ctx context.Context) ([]meetup.Meetup, error) {
	var models []meetupModel
	if err := s.db.NewSelect().Model(&models).Order("name ASC", "url ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list meetups: %w", err)
	}

	list := make([]meetup.Meetup, 0, len(models))
	for _, m := range models {
		list = append(list, m.toMeetup())
	}
	return list, nil
}

func (s *Store) FindMeetupByURL(ctx context.Context, url string) (*meetup.Meetup, error) {
	var m meetupModel
	err := s.db.NewSelect().Model(&m).Where("url = ?", url).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find meetup %s: %w", url, err)
	}
	out := m.toMeetup()
	return &out, nil
}

func (s *Store) InsertMeetup(ctx context.Context, m *meetup.Meetup) error {
	id, err := idgen.WithPrefix(idgen.MeetupPrefix)
	if err != nil {
		return err
	}

	model := fromMeetup(m)
	model.ID = id
	if _, err := s.db.NewInsert().Model(&model).Exec(ctx); err != nil {
		return fmt.Errorf("insert meetup %s: %w", m.URL, err)
	}
	m.ID = id
	return nil
}

func (s *Store) UpdateMeetup(ctx context.Context, url string, patch meetup.MeetupPatch) error {
	return s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var model meetupModel
		err := tx.NewSelect().Model(&model).Where("url = ?", url).Limit(1).Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("update meetup %s: %w", url, err)
		}

		m := model.toMeetup()
		patch.Apply(&m)
		updated := fromMeetup(&m)
		updated.ID = model.ID

		if _, err := tx.NewUpdate().Model(&updated).WherePK().Exec(ctx); err != nil {
			return fmt.Errorf("update meetup %s: %w", url, err)
		}
		return nil
	})
}

// UpsertEvents writes the batch in one transaction. An existing row keeps
// its ID and is otherwise overwritten.
func (s *Store) UpsertEvents(ctx context.Context, events []meetup.Event) error {
	if len(events) == 0 {
		return nil
	}

	now := s.now().UTC()
	models := make([]eventModel, 0, len(events))
	for _, e := range events {
		if e.Link == "" {
			return fmt.Errorf("upsert event %q: missing link", e.Title)
		}
		id, err := idgen.WithPrefix(idgen.EventPrefix)
		if err != nil {
			return err
		}
		model := fromEvent(e)
		model.ID = id
		model.UpdatedAt = now
		models = append(models, model)
	}

	return s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().
			Model(&models).
			On("CONFLICT (link) DO UPDATE").
			Set("meetup_id = EXCLUDED.meetup_id").
			Set("title = EXCLUDED.title").
			Set("datetime = EXCLUDED.datetime").
			Set("venue = EXCLUDED.venue").
			Set("description = EXCLUDED.description").
			Set("logo = EXCLUDED.logo").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("upsert events: %w", err)
		}
		return nil
	})
}

func (s *Store) ListEvents(ctx context.Context, q store.EventQuery) ([]meetup.Event, error) {
	var models []eventModel
	query := s.db.NewSelect().Model(&models)
	if !q.Since.IsZero() {
		query = query.Where("datetime >= ?", q.Since.UTC())
	}
	if q.MeetupID != "" {
		query = query.Where("meetup_id = ?", q.MeetupID)
	}
	if err := query.Order("datetime ASC", "link ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	list := make([]meetup.Event, 0, len(models))
	for _, m := range models {
		list = append(list, m.toEvent())
	}
	return list, nil
}

func fromMeetup(m *meetup.Meetup) meetupModel {
	return meetupModel{
		ID:            m.ID,
		URL:           m.URL,
		Name:          m.Name,
		Description:   m.Description,
		Logo:          m.Logo,
		Platform:      string(m.Platform),
		Type:          string(m.Category),
		LastScrapedAt: m.LastScrapedAt.UTC(),
	}
}

func (m meetupModel) toMeetup() meetup.Meetup {
	out := meetup.Meetup{
		ID:          m.ID,
		URL:         m.URL,
		Name:        m.Name,
		Description: m.Description,
		Logo:        m.Logo,
		Platform:    meetup.Platform(m.Platform),
		Category:    meetup.Category(m.Type),
	}
	if !m.LastScrapedAt.IsZero() {
		out.LastScrapedAt = m.LastScrapedAt.UTC()
	}
	return out
}

func fromEvent(e meetup.Event) eventModel {
	return eventModel{
		MeetupID:    e.MeetupID,
		Title:       e.Title,
		Datetime:    e.Datetime.UTC(),
		Venue:       e.Venue,
		Description: e.Description,
		Logo:        e.Logo,
		Link:        e.Link,
	}
}

func (m eventModel) toEvent() meetup.Event {
	return meetup.Event{
		ID:          m.ID,
		MeetupID:    m.MeetupID,
		Title:       m.Title,
		Datetime:    m.Datetime.UTC(),
		Venue:       m.Venue,
		Description: m.Description,
		Logo:        m.Logo,
		Link:        m.Link,
	}
}
