// Package scrape runs the two batch jobs: the meetup scraper refreshes
// community profiles from the registry, and the event scraper refreshes the
// events of every stored meetup.
//
// Sources are processed one at a time. A failure is recorded in that
// source's Outcome and the run moves on; only a failure to start the run
// (for example listing the stored meetups) is returned as an error.
package scrape
