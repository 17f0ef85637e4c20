// Package metrics exposes Prometheus collectors for upstream calls and
// pipeline runs. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fwtonight"

// Pipeline run outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

type Metrics struct {
	registry *prometheus.Registry

	upstreamRequests *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	pipelineRuns     *prometheus.CounterVec
	eventsReturned   *prometheus.GaugeVec
	lastRefresh      *prometheus.GaugeVec
}

// New creates a Metrics instance backed by its own registry, so several
// instances (e.g. in tests) never collide.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		upstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Upstream API requests by endpoint and outcome",
		}, []string{"endpoint", "outcome"}),
		upstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Latency of upstream API requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		pipelineRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_runs_total",
			Help:      "Pipeline invocations by day window and outcome",
		}, []string{"days", "outcome"}),
		eventsReturned: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "events_returned",
			Help:      "Number of nearby events returned by the last pipeline run",
		}, []string{"days"}),
		lastRefresh: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_refresh_timestamp_seconds",
			Help:      "Unix timestamp of the last completed poller refresh",
		}, []string{"window"}),
	}

	m.registry.MustRegister(
		m.upstreamRequests,
		m.upstreamDuration,
		m.pipelineRuns,
		m.eventsReturned,
		m.lastRefresh,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveUpstream(endpoint, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.upstreamRequests.WithLabelValues(endpoint, outcome).Inc()
	m.upstreamDuration.WithLabelValues(endpoint).Observe(took.Seconds())
}

func (m *Metrics) ObservePipeline(days int, outcome string, events int) {
	if m == nil {
		return
	}
	d := strconv.Itoa(days)
	m.pipelineRuns.WithLabelValues(d, outcome).Inc()
	m.eventsReturned.WithLabelValues(d).Set(float64(events))
}

func (m *Metrics) MarkRefresh(window string, at time.Time) {
	if m == nil {
		return
	}
	m.lastRefresh.WithLabelValues(window).Set(float64(at.Unix()))
}
