// Package backend opens the store.Store implementation selected by a
// connection URL.
package backend

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/torontotech/meetups/internal/store"
	"github.com/torontotech/meetups/internal/store/postgres"
	"github.com/torontotech/meetups/internal/store/postgrest"
	"github.com/torontotech/meetups/internal/store/sqlite"
)

// Kind names a store implementation
type Kind string

const (
	KindPostgREST Kind = "postgrest"
	KindPostgres  Kind = "postgres"
	KindSQLite    Kind = "sqlite"
	KindMemory    Kind = "memory"
)

// ErrMissingKey is returned when a REST store is configured without a key
var ErrMissingKey = errors.New("service key is required for the REST store")

// Detect maps a connection URL to a store kind:
//
//	https://<project>.supabase.co   REST gateway
//	postgres://... postgresql://... direct SQL
//	sqlite:<path>  file:<path>      local file
//	memory:                         in-process, lost on exit
func Detect(rawURL string) (Kind, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parsing store url: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return KindPostgREST, nil
	case "postgres", "postgresql":
		return KindPostgres, nil
	case "sqlite", "file":
		return KindSQLite, nil
	case "memory":
		return KindMemory, nil
	default:
		return "", fmt.Errorf("unsupported store url scheme %q", u.Scheme)
	}
}

// Open connects to the store at rawURL. key is only used by the REST store.
func Open(ctx context.Context, rawURL, key string) (store.Store, error) {
	kind, err := Detect(rawURL)
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindPostgREST:
		if key == "" {
			return nil, ErrMissingKey
		}
		return postgrest.New(rawURL, key)
	case KindPostgres:
		return postgres.New(ctx, rawURL)
	case KindSQLite:
		return sqlite.New(ctx, sqlitePath(rawURL))
	default:
		return store.NewMemory(), nil
	}
}

// sqlitePath strips the scheme, keeping any query string for the driver
func sqlitePath(rawURL string) string {
	if strings.HasPrefix(rawURL, "file:") {
		return rawURL
	}
	path := strings.TrimPrefix(rawURL, "sqlite:")
	return strings.TrimPrefix(path, "//")
}
