package calendar

import (
	"time"

	"github.com/teambition/rrule-go"

	appLog "fwtonight/internal/log"
	"fwtonight/internal/model"
)

const dateLayout = "2006-01-02"

// WindowDates lists the YYYY-MM-DD dates of the days-long window starting
// on start's calendar day.
func WindowDates(start time.Time, days int) []string {
	if days <= 0 {
		return []string{}
	}
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())

	r, err := rrule.NewRRule(rrule.ROption{
		Freq:    rrule.DAILY,
		Count:   days,
		Dtstart: day,
	})
	if err != nil {
		appLog.Error("window: failed to build daily rule", err, "days", days)
		return []string{}
	}

	occ := r.All()
	out := make([]string, 0, len(occ))
	for _, t := range occ {
		out = append(out, t.Format(dateLayout))
	}
	return out
}

// InWindow keeps the events dated within the days-long window starting at
// start, preserving order.
func InWindow(set model.EventSet, start time.Time, days int) model.EventSet {
	dates := make(map[string]struct{}, days)
	for _, d := range WindowDates(start, days) {
		dates[d] = struct{}{}
	}

	out := make([]model.NormalizedEvent, 0, len(set.Events))
	for _, ev := range set.Events {
		if _, ok := dates[ev.Date]; ok {
			out = append(out, ev)
		}
	}
	return model.NewEventSet(out)
}
