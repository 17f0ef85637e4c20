package calendar

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	appLog "fwtonight/internal/log"
	"fwtonight/internal/model"
)

// Entry is a nearby event placed on the calendar.
type Entry struct {
	UID         string    `json:"uid"`
	Summary     string    `json:"summary"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
}

// Entries converts events into calendar entries in loc, sorted by start.
// Events lacking a date, start or end time are skipped; unparseable ones
// are skipped with a warning.
func Entries(events []model.NormalizedEvent, loc *time.Location) []Entry {
	out := make([]Entry, 0, len(events))
	for _, ev := range events {
		if ev.Date == "" || ev.StartTime == "" || ev.EndTime == "" {
			continue
		}

		start, err := ParseDateTime(ev.Date, ev.StartTime, loc)
		if err != nil {
			appLog.Warn("could not parse event start", "title", ev.Title, "reason", err)
			continue
		}
		end, err := ParseDateTime(ev.Date, ev.EndTime, loc)
		if err != nil {
			appLog.Warn("could not parse event end", "title", ev.Title, "reason", err)
			continue
		}

		out = append(out, Entry{
			UID:         entryUID(ev),
			Summary:     summary(ev),
			Description: describe(ev),
			Location:    ev.Location,
			Start:       start,
			End:         end,
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

// Next returns the earliest entry that has not ended at now.
func Next(entries []Entry, now time.Time) (Entry, bool) {
	var (
		best  Entry
		found bool
	)
	for _, e := range entries {
		if !e.End.After(now) {
			continue
		}
		if !found || e.Start.Before(best.Start) {
			best, found = e, true
		}
	}
	return best, found
}

// Between returns the entries overlapping [start, end).
func Between(entries []Entry, start, end time.Time) []Entry {
	out := make([]Entry, 0)
	for _, e := range entries {
		if e.Start.Before(end) && e.End.After(start) {
			out = append(out, e)
		}
	}
	return out
}

// The location reads better than the upstream event name on a calendar.
func summary(ev model.NormalizedEvent) string {
	if ev.Location == "" {
		return "Fireworks Event"
	}
	return ev.Location
}

func describe(ev model.NormalizedEvent) string {
	parts := make([]string, 0, 3)
	if ev.Description != "" {
		parts = append(parts, ev.Description)
	}
	parts = append(parts, fmt.Sprintf("Distance: %.1f km from home", ev.DistanceKm))
	if ev.Coordinates.Latitude != 0 && ev.Coordinates.Longitude != 0 {
		parts = append(parts, fmt.Sprintf("Coordinates: %v, %v", ev.Coordinates.Latitude, ev.Coordinates.Longitude))
	}
	return strings.Join(parts, "\n\n")
}

// entryUID is stable across refreshes: the upstream id when present,
// otherwise a name-based UUID of the whole record.
func entryUID(ev model.NormalizedEvent) string {
	if ev.EventID != "" {
		return "fireworks_" + ev.EventID
	}
	data, _ := json.Marshal(ev)
	return "fireworks_" + uuid.NewSHA1(uuid.NameSpaceURL, data).String()
}
