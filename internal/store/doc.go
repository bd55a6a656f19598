// Package store defines the persistence contract shared by the scrapers and
// the read API.
//
// Meetups are keyed by their source URL and events by their link; writing an
// event whose link already exists overwrites the stored row. Backends live in
// sub-packages: postgres (direct SQL), postgrest (the hosted REST gateway) and
// sqlite (a local file, handy for development). The backend sub-package picks
// one from a connection URL.
package store
