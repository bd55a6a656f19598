package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/torontotech/meetups/internal/site"
)

const (
	UserAgent = "meetups-scraper/1.0 (+https://github.com/torontotech/meetups)"
	Timeout   = 60 * time.Second
)

// Page is the raw content of one fetched URL
type Page struct {
	URL      string // final URL, used as the base for relative links
	Body     string
	Rendered bool
}

// Options configures both fetch strategies
type Options struct {
	Timeout   time.Duration
	UserAgent string
	NoSandbox bool   // launch Chrome without its sandbox (containers, CI)
	ExecPath  string // explicit Chrome binary; empty uses the default lookup
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = Timeout
	}
	if o.UserAgent == "" {
		o.UserAgent = UserAgent
	}
	return o
}

// Getter performs a static fetch
type Getter interface {
	Get(ctx context.Context, url string) (Page, error)
}

// Renderer loads a page in a browser and returns its rendered DOM
type Renderer interface {
	Render(ctx context.Context, url string) (Page, error)
}

// Fetcher retrieves event pages with the strategy suited to their site kind.
// Profile pages are always fetched statically through Get.
type Fetcher interface {
	Getter
	Fetch(ctx context.Context, kind site.Kind, url string) (Page, error)
}

// Router dispatches to the static or rendered strategy per site kind
type Router struct {
	static   Getter
	renderer Renderer
}

// NewRouter creates a Router. renderer may be nil when no site needs one.
func NewRouter(static Getter, renderer Renderer) *Router {
	return &Router{static: static, renderer: renderer}
}

// New creates a Router backed by resty and chromedp
func New(opts Options) *Router {
	return NewRouter(NewStatic(opts), NewBrowser(opts))
}

// Get fetches url statically
func (r *Router) Get(ctx context.Context, url string) (Page, error) {
	return r.static.Get(ctx, url)
}

// Fetch implements Fetcher
func (r *Router) Fetch(ctx context.Context, kind site.Kind, url string) (Page, error) {
	if site.NeedsRender(kind) {
		if r.renderer == nil {
			return Page{}, fmt.Errorf("rendered fetch of %s: no browser configured", url)
		}
		return r.renderer.Render(ctx, url)
	}
	return r.static.Get(ctx, url)
}
