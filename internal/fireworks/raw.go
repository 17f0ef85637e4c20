package fireworks

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"fwtonight/internal/model"
)

// RawEvent is an upstream event record as sent by the events endpoint. The
// upstream has no fixed contract, so every field is optional and lenient:
// a field of the wrong JSON type reads as missing rather than failing the
// whole response. A record or nested location that is not a JSON object
// decodes to the zero value, so it carries no coordinates and is dropped by
// the distance filter while its siblings survive.
type RawEvent struct {
	ID          text         `json:"id"`
	Name        text         `json:"name"`
	Title       text         `json:"title"`
	RawLocation text         `json:"rawlocation"`
	Location    *RawLocation `json:"location"`
	Date        text         `json:"date"`
	StartTime   text         `json:"start_time"`
	EndTime     text         `json:"end_time"`
	Description text         `json:"description"`
	Source      text         `json:"source"`
}

type RawLocation struct {
	Locality    text            `json:"locality"`
	Coordinates *RawCoordinates `json:"coordinates"`
}

type RawCoordinates struct {
	Latitude  optFloat `json:"latitude"`
	Longitude optFloat `json:"longitude"`
}

func (e *RawEvent) UnmarshalJSON(b []byte) error {
	*e = RawEvent{}
	if !isObject(b) {
		return nil
	}
	type plain RawEvent
	return json.Unmarshal(b, (*plain)(e))
}

func (l *RawLocation) UnmarshalJSON(b []byte) error {
	*l = RawLocation{}
	if !isObject(b) {
		return nil
	}
	type plain RawLocation
	return json.Unmarshal(b, (*plain)(l))
}

func (c *RawCoordinates) UnmarshalJSON(b []byte) error {
	*c = RawCoordinates{}
	if !isObject(b) {
		return nil
	}
	type plain RawCoordinates
	return json.Unmarshal(b, (*plain)(c))
}

func isObject(b []byte) bool {
	b = bytes.TrimSpace(b)
	return len(b) > 0 && b[0] == '{'
}

// Coordinate returns the event position, or false when latitude or
// longitude is absent.
func (e RawEvent) Coordinate() (model.Coordinate, bool) {
	if e.Location == nil || e.Location.Coordinates == nil {
		return model.Coordinate{}, false
	}
	lat, lon := e.Location.Coordinates.Latitude, e.Location.Coordinates.Longitude
	if !lat.Valid || !lon.Valid {
		return model.Coordinate{}, false
	}
	return model.Coordinate{Latitude: lat.Value, Longitude: lon.Value}, true
}

// text decodes a JSON string, number or boolean into its textual form.
// null, objects and arrays decode to "".
type text string

func (t *text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		*t = ""
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = text(s)
	case '{', '[', 'n':
		*t = ""
	default:
		*t = text(b)
	}
	return nil
}

// optFloat is a number that may be missing. Numeric strings are accepted.
type optFloat struct {
	Value float64
	Valid bool
}

func (f *optFloat) UnmarshalJSON(b []byte) error {
	*f = optFloat{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil
	}

	s := string(b)
	if b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		s = strings.TrimSpace(s)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	*f = optFloat{Value: v, Valid: true}
	return nil
}
