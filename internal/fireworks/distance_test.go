package fireworks

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fwtonight/internal/model"
)

var home = model.Coordinate{Latitude: -33.8, Longitude: 151.2}

// northOf returns the point km kilometres due north of c along its meridian.
func northOf(c model.Coordinate, km float64) model.Coordinate {
	return model.Coordinate{
		Latitude:  c.Latitude + km/EarthRadiusKm*180/math.Pi,
		Longitude: c.Longitude,
	}
}

func rawAt(name string, c model.Coordinate) RawEvent {
	return RawEvent{
		Name: text(name),
		Location: &RawLocation{Coordinates: &RawCoordinates{
			Latitude:  optFloat{Value: c.Latitude, Valid: true},
			Longitude: optFloat{Value: c.Longitude, Valid: true},
		}},
	}
}

func TestHaversine(t *testing.T) {
	a := home
	b := model.Coordinate{Latitude: -33.85, Longitude: 151.21}
	c := model.Coordinate{Latitude: 51.5074, Longitude: -0.1278}

	assert.Equal(t, 0.0, Haversine(a, a))
	assert.Equal(t, Haversine(a, b), Haversine(b, a))
	assert.Equal(t, Haversine(a, c), Haversine(c, a))

	assert.InDelta(t, 5.64, Haversine(a, b), 0.05)
	// Sydney to London.
	assert.InDelta(t, 16990, Haversine(a, c), 100)
	assert.InDelta(t, 25.0, Haversine(a, northOf(a, 25)), 1e-9)
}

func TestRoundKm(t *testing.T) {
	assert.Equal(t, 5.64, RoundKm(5.6391))
	assert.Equal(t, 10.0, RoundKm(10.004))
	assert.Equal(t, 10.01, RoundKm(10.0099))
}

func TestFilterByDistance(t *testing.T) {
	events := []RawEvent{
		rawAt("near", model.Coordinate{Latitude: -33.85, Longitude: 151.21}),
		rawAt("edge", northOf(home, 10)),
		rawAt("outside", northOf(home, 10.01)),
		{Name: "no location"},
		{Name: "no coordinates", Location: &RawLocation{Locality: "Sydney"}},
		{Name: "no longitude", Location: &RawLocation{Coordinates: &RawCoordinates{
			Latitude: optFloat{Value: -33.8, Valid: true},
		}}},
	}

	got := FilterByDistance(home, 10, events)
	require.Len(t, got, 2)
	assert.Equal(t, text("near"), got[0].Event.Name)
	assert.Equal(t, 5.64, got[0].DistanceKm)
	assert.Equal(t, text("edge"), got[1].Event.Name)
	assert.Equal(t, 10.0, got[1].DistanceKm)
}

func TestFilterByDistanceNeverKeepsMissingCoordinates(t *testing.T) {
	missing := []RawEvent{
		{Name: "a"},
		{Name: "b", Location: &RawLocation{Coordinates: &RawCoordinates{
			Longitude: optFloat{Value: 151.2, Valid: true},
		}}},
	}
	for _, radius := range []float64{0, 1, 10, 1e6} {
		assert.Empty(t, FilterByDistance(home, radius, missing), "radius %g", radius)
	}
}

func TestFilterByDistanceRespectsRadius(t *testing.T) {
	var events []RawEvent
	for km := 0.0; km <= 30; km += 0.37 {
		events = append(events, rawAt("e", northOf(home, km)))
	}
	for _, radius := range []float64{0.5, 3, 9.99, 10, 25} {
		for _, n := range FilterByDistance(home, radius, events) {
			assert.LessOrEqual(t, n.DistanceKm, radius)
		}
	}
}

func TestFilterByDistanceComparesRoundedDistance(t *testing.T) {
	events := []RawEvent{
		rawAt("rounds down to radius", northOf(home, 10.004)),
		rawAt("rounds up past radius", northOf(home, 10.006)),
	}

	got := FilterByDistance(home, 10, events)
	require.Len(t, got, 1)
	assert.Equal(t, text("rounds down to radius"), got[0].Event.Name)
	assert.Greater(t, Haversine(home, northOf(home, 10.004)), 10.0)
	assert.Equal(t, 10.0, got[0].DistanceKm)
}
