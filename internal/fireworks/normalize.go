package fireworks

import "fwtonight/internal/model"

const (
	unknownEvent    = "Unknown Event"
	unknownLocation = "Unknown Location"
	unknownLocality = "Unknown"
)

// Normalize maps a raw upstream record onto NormalizedEvent. Every field
// gets a default, so it never fails.
func Normalize(raw RawEvent, distanceKm float64) model.NormalizedEvent {
	title := firstNonEmpty(string(raw.Name), string(raw.Title), unknownEvent)
	locality := unknownLocality
	if raw.Location != nil {
		locality = firstNonEmpty(string(raw.Location.Locality), unknownLocality)
	}
	pos, _ := raw.Coordinate()

	return model.NormalizedEvent{
		Title:       title,
		Location:    firstNonEmpty(string(raw.RawLocation), unknownLocation),
		Locality:    locality,
		Coordinates: pos,
		DistanceKm:  distanceKm,
		Date:        string(raw.Date),
		StartTime:   string(raw.StartTime),
		EndTime:     string(raw.EndTime),
		Description: string(raw.Description),
		Source:      string(raw.Source),
		EventID:     string(raw.ID),
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
