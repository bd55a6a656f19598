// Package catalog implements the read side consumed by the web front end:
// meetups grouped by category and the upcoming events list.
//
// Results are cached as one timestamped JSON blob per query. A fresh blob is
// served without touching the store; a stale one is served when the store
// read fails, so a store outage only surfaces when nothing was ever cached.
package catalog
