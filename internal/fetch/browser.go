package fetch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

const (
	// idleQuiet is how long the network must stay quiet before the page counts as settled
	idleQuiet = 500 * time.Millisecond
	// idleMaxInflight requests may remain open on a settled page (long polls, analytics)
	idleMaxInflight = 2
	idlePoll        = 100 * time.Millisecond
)

// Browser renders pages in a headless Chrome started per call
type Browser struct {
	opts Options
}

// NewBrowser creates a Browser. Chrome is not started until Render is called.
func NewBrowser(opts Options) *Browser {
	return &Browser{opts: opts.withDefaults()}
}

func (b *Browser) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.UserAgent(b.opts.UserAgent),
	)
	if b.opts.NoSandbox {
		opts = append(opts, chromedp.NoSandbox, chromedp.Flag("disable-setuid-sandbox", true))
	}
	if b.opts.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(b.opts.ExecPath))
	}
	return opts
}

// Render loads url, waits for network activity to settle and returns the
// rendered DOM. The browser process is released before Render returns on
// every path, including timeouts and navigation errors.
func (b *Browser) Render(ctx context.Context, url string) (Page, error) {
	ctx, cancel := context.WithTimeout(ctx, b.opts.Timeout)
	defer cancel()

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, b.allocatorOptions()...)
	defer cancelAlloc()

	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	defer cancelTab()

	idle := newIdleWatcher(idleQuiet, idleMaxInflight)
	chromedp.ListenTarget(tabCtx, idle.observe)

	var html, location string
	err := chromedp.Run(tabCtx,
		network.Enable(),
		chromedp.Navigate(url),
		chromedp.ActionFunc(idle.wait),
		chromedp.Location(&location),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return Page{}, fmt.Errorf("rendering %s: %w", url, err)
	}

	if location == "" {
		location = url
	}
	return Page{URL: location, Body: html, Rendered: true}, nil
}

// idleWatcher tracks in-flight requests reported by the browser
type idleWatcher struct {
	mu          sync.Mutex
	inflight    map[network.RequestID]struct{}
	lastChange  time.Time
	quiet       time.Duration
	maxInflight int
	now         func() time.Time
}

func newIdleWatcher(quiet time.Duration, maxInflight int) *idleWatcher {
	return &idleWatcher{
		inflight:    make(map[network.RequestID]struct{}),
		lastChange:  time.Now(),
		quiet:       quiet,
		maxInflight: maxInflight,
		now:         time.Now,
	}
}

func (w *idleWatcher) observe(ev interface{}) {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch e := ev.(type) {
	case *network.EventRequestWillBeSent:
		w.inflight[e.RequestID] = struct{}{}
	case *network.EventLoadingFinished:
		delete(w.inflight, e.RequestID)
	case *network.EventLoadingFailed:
		delete(w.inflight, e.RequestID)
	default:
		return
	}
	w.lastChange = w.now()
}

func (w *idleWatcher) idle() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.inflight) <= w.maxInflight && w.now().Sub(w.lastChange) >= w.quiet
}

// wait blocks until the network is idle or ctx is done
func (w *idleWatcher) wait(ctx context.Context) error {
	ticker := time.NewTicker(idlePoll)
	defer ticker.Stop()

	for {
		if w.idle() {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for network idle: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}
