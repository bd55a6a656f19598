// Package archive keeps a copy of every fetched page so extractor changes can
// be replayed against real content. Archiving is best effort: callers log a
// failed Put and carry on.
package archive

import (
	"context"
	"crypto/sha1"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Archiver stores raw page bodies
type Archiver interface {
	Put(ctx context.Context, runID, kind, url string, body []byte) error
}

// Key returns the object key for a page: <runID>/<kind>/<sha1(url)>.html
func Key(runID, kind, url string) string {
	return fmt.Sprintf("%s/%s/%x.html", runID, kind, sha1.Sum([]byte(url)))
}

// Noop discards everything
type Noop struct{}

func (Noop) Put(context.Context, string, string, string, []byte) error { return nil }

// FS writes pages under a local directory
type FS struct {
	dir string
}

// NewFS creates the archive directory if needed. A leading ~/ is expanded.
func NewFS(dir string) (*FS, error) {
	if strings.HasPrefix(dir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, dir[2:])
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating archive directory: %w", err)
	}
	return &FS{dir: dir}, nil
}

// Put writes body to <dir>/<key>
func (a *FS) Put(_ context.Context, runID, kind, url string, body []byte) error {
	path := filepath.Join(a.dir, filepath.FromSlash(Key(runID, kind, url)))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating archive directory: %w", err)
	}
	if err := os.WriteFile(path, body, 0644); err != nil {
		return fmt.Errorf("writing archived page: %w", err)
	}
	return nil
}
