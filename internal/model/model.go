package model

// Coordinate is a WGS84 point in decimal degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
}

// NormalizedEvent is a nearby fireworks display in the stable shape handed
// to sensors, the calendar and the HTTP API. DistanceKm is already rounded
// to two decimals and never exceeds the radius it was filtered with.
type NormalizedEvent struct {
	Title       string     `json:"title"`
	Location    string     `json:"location"`
	Locality    string     `json:"locality"`
	Coordinates Coordinate `json:"coordinates"`
	DistanceKm  float64    `json:"distance_km"`

	// Date is YYYY-MM-DD; StartTime/EndTime are passed through as sent
	// upstream (HH:MM or HH:MM:SS).
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`

	Description string `json:"description"`
	Source      string `json:"source"`
	EventID     string `json:"event_id,omitempty"`
}

// EventSet is the result of one pipeline run. EventCount always equals
// len(Events).
type EventSet struct {
	EventCount int               `json:"event_count"`
	Events     []NormalizedEvent `json:"events"`
}

// NewEventSet builds an EventSet from events, keeping EventCount in sync.
func NewEventSet(events []NormalizedEvent) EventSet {
	if events == nil {
		events = []NormalizedEvent{}
	}
	return EventSet{EventCount: len(events), Events: events}
}

// Empty is the result returned whenever nothing could be found or fetched.
func Empty() EventSet {
	return NewEventSet(nil)
}
