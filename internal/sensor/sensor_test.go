package sensor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fwtonight/internal/model"
)

var now = time.Date(2025, 11, 25, 18, 0, 0, 0, time.UTC)

func fixture() model.EventSet {
	return model.NewEventSet([]model.NormalizedEvent{
		{Title: "yesterday", Date: "2025-11-24", DistanceKm: 0.5},
		{Title: "far", Date: "2025-11-25", DistanceKm: 8.2},
		{Title: "near", Date: "2025-11-25", DistanceKm: 1.75},
		{Title: "also near", Date: "2025-11-25", DistanceKm: 1.75},
		{Title: "tomorrow", Date: "2025-11-26", DistanceKm: 0.1},
	})
}

func TestTodaysEvents(t *testing.T) {
	got := TodaysEvents(fixture(), now)
	require.Len(t, got, 3)
	assert.Equal(t, "far", got[0].Title)
	assert.Empty(t, TodaysEvents(model.Empty(), now))
}

func TestCountState(t *testing.T) {
	assert.Equal(t, "No events", CountState(0))
	assert.Equal(t, "1 event", CountState(1))
	assert.Equal(t, "12 events", CountState(12))
}

func TestClosest(t *testing.T) {
	c, ok := Closest(TodaysEvents(fixture(), now))
	require.True(t, ok)
	assert.Equal(t, "near", c.Title)

	_, ok = Closest(nil)
	assert.False(t, ok)
}

func TestBuild(t *testing.T) {
	st := Build(fixture(), now, "2000", 10, now.Add(-time.Minute))
	assert.Equal(t, "2000", st.Postcode)
	assert.Equal(t, 10.0, st.MaxDistanceKm)
	assert.Equal(t, 3, st.EventCount)
	assert.Equal(t, "3 events", st.State)
	require.NotNil(t, st.Closest)
	assert.Equal(t, "near", st.Closest.Title)

	empty := Build(model.Empty(), now, "2000", 10, now)
	assert.Equal(t, "No events", empty.State)
	assert.Nil(t, empty.Closest)
	assert.NotNil(t, empty.Events)
}
