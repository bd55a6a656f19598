// Package publish fans scraper outcomes out to other services over NATS.
// Publishing is best effort: a failed publish is logged by the caller and
// never fails a run.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// Subjects
const (
	TopicOutcome = "meetups.scrape.outcome"
	TopicSummary = "meetups.scrape.summary"
)

const flushTimeout = 5 * time.Second

// Publisher emits JSON-encoded messages
type Publisher interface {
	Publish(ctx context.Context, topic string, v any) error
	Close() error
}

// NATSPublisher publishes to NATS subjects
type NATSPublisher struct {
	conn *nats.Conn
}

// NewNATSPublisher connects to the server at url
func NewNATSPublisher(url string, opts ...nats.Option) (*NATSPublisher, error) {
	defaults := []nats.Option{nats.Name("meetups-scraper")}
	nc, err := nats.Connect(url, append(defaults, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}
	return &NATSPublisher{conn: nc}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, topic string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling message: %w", err)
	}
	if err := p.conn.Publish(topic, data); err != nil {
		return fmt.Errorf("publishing to %s: %w", topic, err)
	}
	return nil
}

// Close flushes buffered messages before disconnecting, since scraper
// processes exit right after their last publish
func (p *NATSPublisher) Close() error {
	err := p.conn.FlushTimeout(flushTimeout)
	p.conn.Close()
	if err != nil {
		return fmt.Errorf("flushing NATS connection: %w", err)
	}
	return nil
}

// NoopPublisher is a Publisher that does nothing (used when NATS is not configured)
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, any) error { return nil }

func (NoopPublisher) Close() error { return nil }
