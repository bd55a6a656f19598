// Package cli implements the command-line interface for the meetups pipeline.
//
// The cli package provides the Cobra-based CLI: the two scrapers, the read
// API server, a registry listing and an iCalendar export. It wires the
// configured store, fetcher, archive, publisher and metrics into the scrape
// package and renders run summaries as text tables or JSON.
package cli
