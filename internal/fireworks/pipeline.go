package fireworks

import (
	"context"
	"errors"
	"fmt"

	appLog "fwtonight/internal/log"
	"fwtonight/internal/metrics"
	"fwtonight/internal/model"
)

const (
	DefaultRadiusKm = 10.0
	TodayDays       = 1
	WeekDays        = 7
)

// Query is what a consumer asks the pipeline for.
type Query struct {
	Postcode string
	Origin   model.Coordinate
	RadiusKm float64
}

// Pipeline composes Geocoder, EventFetcher, the distance filter and the
// normalizer. It holds no per-call state and is safe for concurrent use.
type Pipeline struct {
	resolver LocationResolver
	source   EventSource
	metrics  *metrics.Metrics
}

// NewPipeline wires the upstream-backed stages over a shared Client.
func NewPipeline(c *Client) *Pipeline {
	return NewPipelineWith(NewGeocoder(c), NewEventFetcher(c), c.Metrics())
}

func NewPipelineWith(resolver LocationResolver, source EventSource, m *metrics.Metrics) *Pipeline {
	return &Pipeline{resolver: resolver, source: source, metrics: m}
}

// FetchToday returns nearby events for today only.
func (p *Pipeline) FetchToday(ctx context.Context, q Query) model.EventSet {
	return p.Fetch(ctx, q.Postcode, q.Origin, q.RadiusKm, TodayDays)
}

// FetchWeek returns nearby events for the coming seven days.
func (p *Pipeline) FetchWeek(ctx context.Context, q Query) model.EventSet {
	return p.Fetch(ctx, q.Postcode, q.Origin, q.RadiusKm, WeekDays)
}

// Fetch never fails: an unresolvable postcode, an unreachable upstream or
// anything unexpected all yield the empty EventSet. Only the logs tell
// these cases apart.
func (p *Pipeline) Fetch(ctx context.Context, postcode string, origin model.Coordinate, radiusKm float64, days int) (set model.EventSet) {
	defer func() {
		if r := recover(); r != nil {
			appLog.Error("pipeline failed unexpectedly", fmt.Errorf("panic: %v", r), "postcode", postcode, "days", days)
			p.metrics.ObservePipeline(days, metrics.OutcomeError, 0)
			set = model.Empty()
		}
	}()

	if radiusKm <= 0 {
		radiusKm = DefaultRadiusKm
	}

	ref, err := p.resolver.Resolve(ctx, postcode)
	if err != nil {
		if IsNotFound(err) {
			if cause := errors.Unwrap(err); cause != nil {
				appLog.Error("location lookup failed", cause, "postcode", postcode)
			} else {
				appLog.Warn("could not find location for postcode", "postcode", postcode, "reason", err)
			}
			p.metrics.ObservePipeline(days, metrics.OutcomeNotFound, 0)
		} else {
			appLog.Error("location resolution failed", err, "postcode", postcode)
			p.metrics.ObservePipeline(days, metrics.OutcomeError, 0)
		}
		return model.Empty()
	}

	raw, err := p.source.Fetch(ctx, ref, days)
	if err != nil {
		p.metrics.ObservePipeline(days, metrics.OutcomeError, 0)
		return model.Empty()
	}

	nearby := FilterByDistance(origin, radiusKm, raw)
	events := make([]model.NormalizedEvent, 0, len(nearby))
	for _, n := range nearby {
		events = append(events, Normalize(n.Event, n.DistanceKm))
	}

	appLog.Info("nearby events fetched",
		"postcode", postcode,
		"location_id", ref.ID,
		"days", days,
		"upstream_count", len(raw),
		"nearby_count", len(events),
		"radius_km", radiusKm,
	)
	p.metrics.ObservePipeline(days, metrics.OutcomeOK, len(events))
	return model.NewEventSet(events)
}
