package fireworks

import (
	"context"
	"net/url"
	"strconv"

	appLog "fwtonight/internal/log"
)

// EventSource returns the raw upstream events for a location.
type EventSource interface {
	Fetch(ctx context.Context, loc LocationRef, days int) ([]RawEvent, error)
}

// EventFetcher queries the upstream events endpoint.
type EventFetcher struct {
	client *Client
}

func NewEventFetcher(c *Client) *EventFetcher {
	return &EventFetcher{client: c}
}

// Fetch returns the events scheduled for loc over the next days days. On
// failure the error is logged and returned together with a nil slice.
func (f *EventFetcher) Fetch(ctx context.Context, loc LocationRef, days int) ([]RawEvent, error) {
	if days <= 0 {
		days = 1
	}

	q := url.Values{}
	q.Set("location", strconv.FormatInt(loc.ID, 10))
	q.Set("days", strconv.Itoa(days))

	var events []RawEvent
	if err := f.client.getJSON(ctx, "events", q, &events); err != nil {
		appLog.Error("events request failed", err, "location_id", loc.ID, "days", days)
		return nil, err
	}

	appLog.Debug("events fetched", "location_id", loc.ID, "days", days, "count", len(events))
	return events, nil
}
