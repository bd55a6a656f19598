// Package metrics records scraper run statistics in a Prometheus registry.
//
// Each run owns its Recorder. A nil *Recorder is valid and records nothing.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "meetups"

// Result label values for SourcesTotal
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultSkipped = "skipped"
)

// Recorder holds the collectors for one process
type Recorder struct {
	registry *prometheus.Registry

	sources  *prometheus.CounterVec
	records  *prometheus.CounterVec
	rejected *prometheus.CounterVec
	fetch    *prometheus.HistogramVec
	lastRun  *prometheus.GaugeVec
}

// New creates a Recorder with its own registry
func New() *Recorder {
	r := &Recorder{registry: prometheus.NewRegistry()}

	r.sources = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scrape_sources_total",
		Help:      "Sources processed by result",
	}, []string{"scraper", "site", "result"})
	r.records = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scrape_records_total",
		Help:      "Events or profiles extracted",
	}, []string{"scraper", "site"})
	r.rejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scrape_rejected_total",
		Help:      "Events dropped because their datetime did not parse",
	}, []string{"site"})
	r.fetch = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "scrape_fetch_seconds",
		Help:      "Time spent fetching one page",
		Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 60},
	}, []string{"site"})
	r.lastRun = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "scrape_last_run_timestamp_seconds",
		Help:      "Unix timestamp of the last completed run",
	}, []string{"scraper"})

	r.registry.MustRegister(r.sources, r.records, r.rejected, r.fetch, r.lastRun)
	return r
}

// WithRuntime adds the Go runtime and process collectors, for long-running servers
func (r *Recorder) WithRuntime() *Recorder {
	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Registry exposes the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Source counts one processed source
func (r *Recorder) Source(scraper, site, result string) {
	if r == nil {
		return
	}
	r.sources.WithLabelValues(scraper, site, result).Inc()
}

// Records adds n extracted records
func (r *Recorder) Records(scraper, site string, n int) {
	if r == nil || n <= 0 {
		return
	}
	r.records.WithLabelValues(scraper, site).Add(float64(n))
}

// Rejected adds n events whose datetime was rejected
func (r *Recorder) Rejected(site string, n int) {
	if r == nil || n <= 0 {
		return
	}
	r.rejected.WithLabelValues(site).Add(float64(n))
}

// Fetch observes one page fetch
func (r *Recorder) Fetch(site string, d time.Duration) {
	if r == nil {
		return
	}
	r.fetch.WithLabelValues(site).Observe(d.Seconds())
}

// RunFinished stamps the completion time of a run
func (r *Recorder) RunFinished(scraper string, at time.Time) {
	if r == nil {
		return
	}
	r.lastRun.WithLabelValues(scraper).Set(float64(at.Unix()))
}

// Handler serves the registry in the Prometheus exposition format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Push sends the registry to a Pushgateway under job, replacing the
// previous push for that job
func (r *Recorder) Push(ctx context.Context, gatewayURL, job string) error {
	if r == nil {
		return nil
	}
	if err := push.New(gatewayURL, job).Gatherer(r.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("pushing metrics: %w", err)
	}
	return nil
}
