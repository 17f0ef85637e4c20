package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fwtonight/internal/calendar"
	"fwtonight/internal/config"
	"fwtonight/internal/metrics"
	"fwtonight/internal/model"
	"fwtonight/internal/poller"
	"fwtonight/internal/sensor"
)

type stubSnapshots struct {
	snap poller.Snapshot
	ok   bool
}

func (s stubSnapshots) Snapshot() (poller.Snapshot, bool) {
	return s.snap, s.ok
}

var (
	fixedNow = time.Date(2025, 11, 25, 19, 0, 0, 0, time.UTC)
	updated  = fixedNow.Add(-10 * time.Minute)
)

func weekSet() model.EventSet {
	return model.NewEventSet([]model.NormalizedEvent{
		{Title: "Harbour", Location: "Darling Harbour", Date: "2025-11-25", StartTime: "20:15", EndTime: "20:45", DistanceKm: 5.64, EventID: "1"},
		{Title: "Park", Location: "Luna Park", Date: "2025-11-25", StartTime: "18:00", EndTime: "18:30", DistanceKm: 2.1, EventID: "2"},
		{Title: "Later", Location: "Manly", Date: "2025-11-28", StartTime: "21:00", EndTime: "21:15", DistanceKm: 9.9, EventID: "3"},
	})
}

func newTestServer(t *testing.T, cfg *config.Config, today, week SnapshotSource) *Server {
	t.Helper()
	if cfg == nil {
		cfg = config.DefaultConfig()
		cfg.Postcode = "2000"
		cfg.Timezone = "UTC"
	}
	s := NewServer(cfg, today, week, metrics.New())
	s.now = func() time.Time { return fixedNow }
	return s
}

func readyServer(t *testing.T) *Server {
	snap := stubSnapshots{snap: poller.Snapshot{Set: weekSet(), UpdatedAt: updated, Refreshes: 1}, ok: true}
	return newTestServer(t, nil, snap, snap)
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHealth(t *testing.T) {
	rec := get(t, readyServer(t).Handler(), "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestToday(t *testing.T) {
	rec := get(t, readyServer(t).Handler(), "/api/today")
	require.Equal(t, http.StatusOK, rec.Code)

	var st sensor.State
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, "2000", st.Postcode)
	assert.Equal(t, 10.0, st.MaxDistanceKm)
	assert.Equal(t, 2, st.EventCount)
	assert.Equal(t, "2 events", st.State)
	require.NotNil(t, st.Closest)
	assert.Equal(t, "Park", st.Closest.Title)
	assert.True(t, updated.Equal(st.LastUpdated))
}

func TestEventsWindow(t *testing.T) {
	h := readyServer(t).Handler()

	tests := []struct {
		query string
		want  int
	}{
		{"", 3},
		{"?days=1", 2},
		{"?days=3", 2},
		{"?days=4", 3},
		{"?days=0", 3},
		{"?days=30", 3},
		{"?days=abc", 3},
	}
	for _, tt := range tests {
		rec := get(t, h, "/api/events"+tt.query)
		require.Equal(t, http.StatusOK, rec.Code)

		var set model.EventSet
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &set))
		assert.Equal(t, tt.want, set.EventCount, "query %q", tt.query)
		assert.Len(t, set.Events, set.EventCount)
	}
}

func TestNext(t *testing.T) {
	rec := get(t, readyServer(t).Handler(), "/api/next")
	require.Equal(t, http.StatusOK, rec.Code)

	var e calendar.Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
	assert.Equal(t, "fireworks_1", e.UID)
	assert.Equal(t, "Darling Harbour", e.Summary)

	empty := stubSnapshots{snap: poller.Snapshot{Set: model.Empty()}, ok: true}
	rec = get(t, newTestServer(t, nil, empty, empty).Handler(), "/api/next")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCalendarFeed(t *testing.T) {
	rec := get(t, readyServer(t).Handler(), "/calendar.ics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/calendar")

	cal, err := ical.ParseCalendar(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	assert.Len(t, cal.Events(), 3)
}

func TestNoDataYet(t *testing.T) {
	h := newTestServer(t, nil, stubSnapshots{}, stubSnapshots{}).Handler()
	for _, path := range []string{"/api/today", "/api/events", "/api/next", "/calendar.ics"} {
		rec := get(t, h, path)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, path)
		assert.JSONEq(t, `{"error":"no data yet"}`, rec.Body.String(), path)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	rec := get(t, readyServer(t).Handler(), "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBasicAuth(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Postcode = "2000"
	cfg.BasicAuth = &config.BasicAuthConfig{Username: "admin", Password: "secret"}
	snap := stubSnapshots{snap: poller.Snapshot{Set: weekSet()}, ok: true}
	h := newTestServer(t, cfg, snap, snap).Handler()

	assert.Equal(t, http.StatusOK, get(t, h, "/health").Code)

	rec := get(t, h, "/api/today")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))

	req := httptest.NewRequest(http.MethodGet, "/api/today", nil)
	req.SetBasicAuth("admin", "wrong")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/today", nil)
	req.SetBasicAuth("admin", "secret")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
