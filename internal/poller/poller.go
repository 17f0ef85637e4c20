// Package poller refreshes pipeline results on a cron schedule and keeps
// the last result of each window in memory for readers.
package poller

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	appLog "fwtonight/internal/log"
	"fwtonight/internal/metrics"
	"fwtonight/internal/model"
)

// FetchFunc produces a fresh EventSet. It must not fail; the pipeline's
// FetchToday/FetchWeek fit as-is once bound to a query.
type FetchFunc func(ctx context.Context) model.EventSet

// Snapshot is the cached result of the last refresh.
type Snapshot struct {
	Set       model.EventSet `json:"set"`
	UpdatedAt time.Time      `json:"updated_at"`
	Refreshes int            `json:"refreshes"`
}

// Poller caches the result of one fetch window (e.g. "today", "week").
type Poller struct {
	name    string
	fetch   FetchFunc
	metrics *metrics.Metrics
	now     func() time.Time

	running atomic.Bool

	mu   sync.RWMutex
	snap Snapshot
	has  bool
}

func New(name string, fetch FetchFunc, m *metrics.Metrics) *Poller {
	return &Poller{
		name:    name,
		fetch:   fetch,
		metrics: m,
		now:     time.Now,
	}
}

func (p *Poller) Name() string { return p.name }

// Refresh runs the fetch and replaces the snapshot. It reports false when
// another refresh of the same poller was still in flight and this one was
// skipped.
func (p *Poller) Refresh(ctx context.Context) bool {
	if !p.running.CompareAndSwap(false, true) {
		appLog.Info("refresh skipped; previous run still in progress", "window", p.name)
		return false
	}
	defer p.running.Store(false)

	start := p.now()
	set := p.fetch(ctx)
	done := p.now()

	p.mu.Lock()
	p.snap = Snapshot{
		Set:       set,
		UpdatedAt: done,
		Refreshes: p.snap.Refreshes + 1,
	}
	p.has = true
	p.mu.Unlock()

	p.metrics.MarkRefresh(p.name, done)
	appLog.Info("refresh completed", "window", p.name, "event_count", set.EventCount, "took", done.Sub(start))
	return true
}

// Snapshot returns the cached result; ok is false before the first refresh.
func (p *Poller) Snapshot() (Snapshot, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snap, p.has
}

// Scheduler drives a set of pollers from one cron schedule.
type Scheduler struct {
	spec    string
	cron    *cron.Cron
	pollers []*Poller
}

// NewScheduler validates spec (standard 5-field cron or a descriptor such as
// "@hourly") and prepares a scheduler for pollers.
func NewScheduler(spec string, loc *time.Location, pollers ...*Poller) (*Scheduler, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", spec, err)
	}
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		spec:    spec,
		cron:    cron.New(cron.WithLocation(loc)),
		pollers: pollers,
	}, nil
}

// Start refreshes every poller once, synchronously, so readers have data
// immediately, then hands them to cron. Jobs use ctx for their fetches.
func (s *Scheduler) Start(ctx context.Context) error {
	for _, p := range s.pollers {
		p.Refresh(ctx)
	}

	for _, p := range s.pollers {
		p := p
		if _, err := s.cron.AddFunc(s.spec, func() { p.Refresh(ctx) }); err != nil {
			return fmt.Errorf("schedule %s: %w", p.Name(), err)
		}
	}

	s.cron.Start()
	appLog.Info("scheduler started", "refresh", s.spec, "pollers", len(s.pollers))
	return nil
}

// Stop halts the schedule and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	appLog.Info("scheduler stopped")
}
