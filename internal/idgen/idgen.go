// Package idgen generates short, URL-safe identifiers backed by nanoid.
package idgen

import (
	"fmt"

	nanoid "github.com/matoous/go-nanoid/v2"
)

const (
	alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	length   = 10
)

// Prefixes for the kinds of IDs the pipeline mints
const (
	RunPrefix    = "run-"
	MeetupPrefix = "mtg-"
	EventPrefix  = "evt-"
)

// NewRunID returns an identifier for one scraper run
func NewRunID() (string, error) {
	return WithPrefix(RunPrefix)
}

// WithPrefix returns prefix followed by random characters
func WithPrefix(prefix string) (string, error) {
	id, err := nanoid.Generate(alphabet, length)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return prefix + id, nil
}
