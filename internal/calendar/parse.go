package calendar

import (
	"fmt"
	"strings"
	"time"

	appLog "fwtonight/internal/log"
)

// dateTimeLayouts are tried in order against "<date> <time>"; the first
// layout that parses wins.
var dateTimeLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"02-01-2006 15:04",
	"02/01/2006 15:04",
}

// ParseDateTime combines an upstream date and wall-clock time into an
// instant in loc. The upstream does not say which zone it means; callers
// pass the configured display zone, which is assumed rather than known.
func ParseDateTime(date, clock string, loc *time.Location) (time.Time, error) {
	date, clock = strings.TrimSpace(date), strings.TrimSpace(clock)
	if date == "" || clock == "" {
		return time.Time{}, fmt.Errorf("missing date or time: %q %q", date, clock)
	}
	if loc == nil {
		loc = time.Local
	}

	combined := date + " " + clock
	for _, layout := range dateTimeLayouts {
		if t, err := time.ParseInLocation(layout, combined, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported date/time: %q", combined)
}

// ResolveLocation loads an IANA zone, falling back to time.Local when the
// name is empty or unknown.
func ResolveLocation(name string) *time.Location {
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", name)
		return time.Local
	}
	return loc
}
