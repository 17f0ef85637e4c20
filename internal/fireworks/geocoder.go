package fireworks

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	appLog "fwtonight/internal/log"
)

// LocationRef is the upstream identifier of a resolved locality/postcode
// pair. It is only meaningful to the events endpoint.
type LocationRef struct {
	ID       int64
	Locality string
	Postcode string
}

// LocationResolver turns a postcode into a LocationRef.
type LocationResolver interface {
	Resolve(ctx context.Context, postcode string) (LocationRef, error)
}

// Geocoder resolves postcodes with the upstream two-step lookup: a fuzzy
// prefix search yielding "Locality, Postcode", then an exact match on both
// parts yielding the location id.
type Geocoder struct {
	client *Client
}

func NewGeocoder(c *Client) *Geocoder {
	return &Geocoder{client: c}
}

// Resolve never returns anything but a LocationRef or a LOCATION_NOT_FOUND
// error. Upstream failures are reported as not found with the upstream
// error as cause; logging is left to the caller.
func (g *Geocoder) Resolve(ctx context.Context, postcode string) (LocationRef, error) {
	postcode = strings.TrimSpace(postcode)

	var matches []string
	q := url.Values{}
	q.Set("startswith", postcode)
	if err := g.client.getJSON(ctx, "locations", q, &matches); err != nil {
		return LocationRef{}, NewLocationNotFoundError("location search failed", err)
	}
	if len(matches) == 0 {
		return LocationRef{}, NewLocationNotFoundError("no location matches postcode "+postcode, nil)
	}

	locality, code, ok := splitLocation(matches[0])
	if !ok {
		return LocationRef{}, NewLocationNotFoundError("unexpected location format "+strconv.Quote(matches[0]), nil)
	}

	var exact []struct {
		ID int64 `json:"id"`
	}
	q = url.Values{}
	q.Set("locality", locality)
	q.Set("postcode", code)
	if err := g.client.getJSON(ctx, "locations", q, &exact); err != nil {
		return LocationRef{}, NewLocationNotFoundError("location lookup failed", err)
	}
	if len(exact) == 0 {
		return LocationRef{}, NewLocationNotFoundError("no exact location for "+locality+", "+code, nil)
	}

	appLog.Debug("location resolved", "postcode", postcode, "locality", locality, "location_id", exact[0].ID)
	return LocationRef{ID: exact[0].ID, Locality: locality, Postcode: code}, nil
}

// splitLocation splits "Sydney, 2000" into ("sydney", "2000").
func splitLocation(s string) (locality, postcode string, ok bool) {
	name, code, found := strings.Cut(s, ",")
	if !found {
		return "", "", false
	}
	locality = strings.ToLower(strings.TrimSpace(name))
	postcode = strings.TrimSpace(code)
	if locality == "" || postcode == "" {
		return "", "", false
	}
	return locality, postcode, true
}
