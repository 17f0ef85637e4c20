package fireworks

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// fakeUpstream mimics the three upstream endpoints and counts calls.
type fakeUpstream struct {
	mu sync.Mutex

	search       []string
	exact        []map[string]any
	events       any
	eventsStatus int

	calls     map[string]int
	lastQuery map[string]string
}

func newFakeUpstream(t *testing.T) (*fakeUpstream, *httptest.Server) {
	t.Helper()
	f := &fakeUpstream{
		calls:     map[string]int{},
		lastQuery: map[string]string{},
	}
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeUpstream) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	q := r.URL.Query()
	var body any
	status := http.StatusOK

	switch r.URL.Path {
	case "/api/v1/locations":
		if q.Has("startswith") {
			f.calls["search"]++
			f.lastQuery["search"] = r.URL.RawQuery
			body = nonNil(f.search)
		} else {
			f.calls["exact"]++
			f.lastQuery["exact"] = r.URL.RawQuery
			body = nonNil(f.exact)
		}
	case "/api/v1/events":
		f.calls["events"]++
		f.lastQuery["events"] = r.URL.RawQuery
		body = f.events
		if body == nil {
			body = []any{}
		}
		if f.eventsStatus != 0 {
			status = f.eventsStatus
		}
	default:
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func (f *fakeUpstream) callCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeUpstream) query(name string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastQuery[name]
}

func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}

func apiBase(srv *httptest.Server) string {
	return srv.URL + "/api/v1/"
}

// sydney is the standard fixture: postcode 2000 resolves to location 42.
func sydney(f *fakeUpstream) {
	f.search = []string{"Sydney, 2000"}
	f.exact = []map[string]any{{"id": 42, "locality": "sydney", "postcode": "2000"}}
}

func event(id int, name string, lat, lon any) map[string]any {
	return map[string]any{
		"id":          id,
		"name":        name,
		"rawlocation": "Darling Harbour",
		"location": map[string]any{
			"locality": "Sydney",
			"coordinates": map[string]any{
				"latitude":  lat,
				"longitude": lon,
			},
		},
		"date":        "2025-11-25",
		"start_time":  "20:15",
		"end_time":    "20:45",
		"description": "Saturday night fireworks",
		"source":      "council",
	}
}
