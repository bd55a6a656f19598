package fetch

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
)

// Static fetches pages with a plain HTTP GET
type Static struct {
	client *resty.Client
}

// NewStatic creates a static fetcher
func NewStatic(opts Options) *Static {
	opts = opts.withDefaults()
	client := resty.New().
		SetTimeout(opts.Timeout).
		SetHeader("User-Agent", opts.UserAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml")
	return &Static{client: client}
}

// Get fetches url and returns the full body as text
func (s *Static) Get(ctx context.Context, url string) (Page, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return Page{}, fmt.Errorf("fetching page: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return Page{}, fmt.Errorf("fetching page: unexpected status code: %d", resp.StatusCode())
	}

	final := url
	if raw := resp.RawResponse; raw != nil && raw.Request != nil && raw.Request.URL != nil {
		final = raw.Request.URL.String()
	}

	return Page{URL: final, Body: resp.String()}, nil
}
