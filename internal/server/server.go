// Package server exposes the read API used by the web front end: grouped
// meetups, upcoming events, an iCalendar feed and Prometheus metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/torontotech/meetups/internal/calendar"
	"github.com/torontotech/meetups/internal/catalog"
	"github.com/torontotech/meetups/internal/logger"
	"github.com/torontotech/meetups/internal/meetup"
	"github.com/torontotech/meetups/internal/metrics"
	"github.com/torontotech/meetups/internal/store"
)

const shutdownTimeout = 10 * time.Second

// Options configures a Server
type Options struct {
	Reader   catalog.Reader
	Cache    *catalog.Cache    // optional
	Metrics  *metrics.Recorder // optional; /metrics is not served without it
	Logger   *logger.Logger
	Location *time.Location
	Now      func() time.Time
}

// Server serves the read API
type Server struct {
	reader  catalog.Reader
	catalog *catalog.Catalog
	metrics *metrics.Recorder
	log     *logger.Logger
	loc     *time.Location
	now     func() time.Time
}

// New creates a Server
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = logger.Default()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Server{
		reader:  opts.Reader,
		catalog: catalog.New(opts.Reader, opts.Cache, opts.Location, opts.Logger),
		metrics: opts.Metrics,
		log:     opts.Logger,
		loc:     opts.Location,
		now:     opts.Now,
	}
}

// Handler returns the routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/meetups", s.handleMeetups)
	mux.HandleFunc("GET /api/events", s.handleEvents)
	mux.HandleFunc("GET /events.ics", s.handleICS)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}
	return s.logRequests(mux)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("Read API listening", logger.Fields{"addr": addr})
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving http: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	s.log.Info("Shutting down read API", nil)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	return nil
}

func (s *Server) handleMeetups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.catalog.Groups(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if groups == nil {
		groups = []catalog.Group{}
	}
	writeJSON(w, http.StatusOK, groups)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.catalog.Upcoming(r.Context(), s.now())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if events == nil {
		events = []catalog.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) handleICS(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	since := meetup.StartOfDay(s.now(), s.loc)

	events, err := s.reader.ListEvents(ctx, store.EventQuery{Since: since})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	meetups, err := s.reader.ListMeetups(ctx)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="meetups.ics"`)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(calendar.GenerateICS(events, meetups)))
}

// fail logs the cause and answers with a generic message
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	s.log.Error("Read request failed", logger.Fields{"path": r.URL.Path}, err)
	writeJSON(w, http.StatusBadGateway, map[string]string{"error": "Failed to load data"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		w.Header().Set("Access-Control-Allow-Origin", "*")
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Debug("HTTP request", logger.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(started).String(),
		})
	})
}
