// Package sensor derives the "tonight" view of nearby fireworks: how many
// displays are on today and which one is closest.
package sensor

import (
	"strconv"
	"time"

	"fwtonight/internal/model"
)

// State is the sensor view published by the API.
type State struct {
	Postcode      string                  `json:"postcode"`
	MaxDistanceKm float64                 `json:"max_distance_km"`
	EventCount    int                     `json:"event_count"`
	State         string                  `json:"state"`
	Events        []model.NormalizedEvent `json:"events"`
	Closest       *model.NormalizedEvent  `json:"closest,omitempty"`
	LastUpdated   time.Time               `json:"last_updated"`
}

// TodaysEvents keeps the events dated on now's calendar day.
func TodaysEvents(set model.EventSet, now time.Time) []model.NormalizedEvent {
	today := now.Format("2006-01-02")
	out := make([]model.NormalizedEvent, 0, len(set.Events))
	for _, ev := range set.Events {
		if ev.Date == today {
			out = append(out, ev)
		}
	}
	return out
}

// CountState renders a count as "No events", "1 event" or "N events".
func CountState(n int) string {
	switch n {
	case 0:
		return "No events"
	case 1:
		return "1 event"
	default:
		return strconv.Itoa(n) + " events"
	}
}

// Closest returns the event with the smallest distance; ties keep the
// earlier one.
func Closest(events []model.NormalizedEvent) (model.NormalizedEvent, bool) {
	if len(events) == 0 {
		return model.NormalizedEvent{}, false
	}
	best := events[0]
	for _, ev := range events[1:] {
		if ev.DistanceKm < best.DistanceKm {
			best = ev
		}
	}
	return best, true
}

// Build assembles the sensor State for set as seen at now.
func Build(set model.EventSet, now time.Time, postcode string, maxDistanceKm float64, updated time.Time) State {
	today := TodaysEvents(set, now)
	st := State{
		Postcode:      postcode,
		MaxDistanceKm: maxDistanceKm,
		EventCount:    len(today),
		State:         CountState(len(today)),
		Events:        today,
		LastUpdated:   updated,
	}
	if c, ok := Closest(today); ok {
		st.Closest = &c
	}
	return st
}
