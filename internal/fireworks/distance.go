package fireworks

import (
	"math"

	"fwtonight/internal/model"
)

// EarthRadiusKm is the mean Earth radius used for great-circle distances.
const EarthRadiusKm = 6371.0

// Haversine returns the great-circle distance between a and b in km.
func Haversine(a, b model.Coordinate) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lon1 := a.Longitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	lon2 := b.Longitude * math.Pi / 180

	dlat := lat2 - lat1
	dlon := lon2 - lon1
	sinLat := math.Sin(dlat / 2)
	sinLon := math.Sin(dlon / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon

	return 2 * math.Asin(math.Sqrt(math.Min(h, 1))) * EarthRadiusKm
}

// RoundKm rounds a distance to two decimals.
func RoundKm(d float64) float64 {
	return math.Round(d*100) / 100
}

// Nearby is a raw event that passed the distance filter, with its rounded
// distance from the origin.
type Nearby struct {
	Event      RawEvent
	DistanceKm float64
}

// FilterByDistance keeps the events within radiusKm of origin, in input
// order. Events without both coordinates are dropped. The rounded distance
// is what gets compared, so an attached distance never exceeds radiusKm.
func FilterByDistance(origin model.Coordinate, radiusKm float64, events []RawEvent) []Nearby {
	out := make([]Nearby, 0, len(events))
	for _, ev := range events {
		pos, ok := ev.Coordinate()
		if !ok {
			continue
		}
		d := RoundKm(Haversine(origin, pos))
		if d <= radiusKm {
			out = append(out, Nearby{Event: ev, DistanceKm: d})
		}
	}
	return out
}
