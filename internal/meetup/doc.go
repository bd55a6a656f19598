// Package meetup provides the domain types shared by the scrapers, the store
// backends and the read API.
//
// A Source is one registered community page. Scraping a Source produces a
// Profile (name, description, logo) that is written to a Meetup row, and zero
// or more RawEvents that are normalized into Events. Events are deduplicated
// on their Link; events published without a link get a deterministic
// SHA1-based synthetic link so repeated runs overwrite instead of duplicating.
package meetup
