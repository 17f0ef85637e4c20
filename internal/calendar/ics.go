package calendar

import (
	"io"
	"time"

	ical "github.com/arran4/golang-ical"
)

const productID = "-//fwtonight//Fireworks Tonight//EN"

// WriteICS serializes entries as a VCALENDAR named name.
func WriteICS(w io.Writer, name string, entries []Entry, stamp time.Time) error {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	if name != "" {
		cal.SetXWRCalName(name)
	}

	for _, e := range entries {
		ev := cal.AddEvent(e.UID)
		ev.SetDtStampTime(stamp)
		ev.SetStartAt(e.Start)
		ev.SetEndAt(e.End)
		ev.SetSummary(e.Summary)
		if e.Location != "" {
			ev.SetLocation(e.Location)
		}
		if e.Description != "" {
			ev.SetDescription(e.Description)
		}
	}

	_, err := io.WriteString(w, cal.Serialize())
	return err
}
