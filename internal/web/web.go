package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"fwtonight/internal/calendar"
	"fwtonight/internal/config"
	appLog "fwtonight/internal/log"
	"fwtonight/internal/metrics"
	"fwtonight/internal/poller"
	"fwtonight/internal/sensor"
)

const calendarName = "Fireworks"

// SnapshotSource is the read side of a poller.
type SnapshotSource interface {
	Snapshot() (poller.Snapshot, bool)
}

// Server exposes the cached pipeline results over HTTP. It never calls the
// upstream itself; everything is served from the pollers' snapshots.
type Server struct {
	cfg     *config.Config
	today   SnapshotSource
	week    SnapshotSource
	metrics *metrics.Metrics
	loc     *time.Location
	now     func() time.Time
	mux     *http.ServeMux
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, today, week SnapshotSource, m *metrics.Metrics) *Server {
	s := &Server{
		cfg:     cfg,
		today:   today,
		week:    week,
		metrics: m,
		loc:     calendar.ResolveLocation(cfg.Timezone),
		now:     time.Now,
		mux:     http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// Run serves on cfg.Listen until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Empty username or password means auth is off.
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="fwtonight", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/today", s.handleToday)
	s.mux.HandleFunc("/api/events", s.handleEvents)
	s.mux.HandleFunc("/api/next", s.handleNext)
	s.mux.HandleFunc("/calendar.ics", s.handleCalendar)
	s.mux.Handle("/metrics", s.metrics.Handler())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleToday returns the sensor view: today's events near home, their
// count and the closest one.
func (s *Server) handleToday(w http.ResponseWriter, _ *http.Request) {
	snap, ok := s.today.Snapshot()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "no data yet")
		return
	}
	now := s.now().In(s.loc)
	writeJSON(w, http.StatusOK, sensor.Build(snap.Set, now, s.cfg.Postcode, s.cfg.MaxDistance, snap.UpdatedAt))
}

// handleEvents returns the cached week of events restricted to a window.
//
// GET /api/events?days=3
//   - days: number of days starting today, 1..7 (default 7)
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.week.Snapshot()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "no data yet")
		return
	}

	days := parseIntDefault(r.URL.Query().Get("days"), 7)
	if days < 1 || days > 7 {
		days = 7
	}

	writeJSON(w, http.StatusOK, calendar.InWindow(snap.Set, s.now().In(s.loc), days))
}

// handleNext returns the next calendar entry that has not ended yet.
func (s *Server) handleNext(w http.ResponseWriter, _ *http.Request) {
	snap, ok := s.week.Snapshot()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "no data yet")
		return
	}

	next, found := calendar.Next(calendar.Entries(snap.Set.Events, s.loc), s.now())
	if !found {
		writeError(w, http.StatusNotFound, "no upcoming events")
		return
	}
	writeJSON(w, http.StatusOK, next)
}

// handleCalendar serves the cached week as an iCalendar feed.
func (s *Server) handleCalendar(w http.ResponseWriter, _ *http.Request) {
	snap, ok := s.week.Snapshot()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "no data yet")
		return
	}

	entries := calendar.Entries(snap.Set.Events, s.loc)
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := calendar.WriteICS(w, calendarName, entries, snap.UpdatedAt); err != nil {
		appLog.Error("failed to write calendar", err)
	}
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
