package service

import (
	"fmt"
	"time"
)

// FormatLocalClock converts an instant into the caller's zone and renders a
// 12-hour clock string with the zone abbreviation, e.g. "2:30 PM EST".
// Hours 0 and 12 both render as "12".
func FormatLocalClock(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	zone, _ := local.Zone()
	return fmt.Sprintf("%s %s", formatTwelveHour(local.Hour(), local.Minute()), zone)
}

func formatTwelveHour(hour, minute int) string {
	hour = ((hour % 24) + 24) % 24

	suffix := "AM"
	if hour >= 12 {
		suffix = "PM"
	}

	display := hour % 12
	if display == 0 {
		display = 12
	}

	return fmt.Sprintf("%d:%02d %s", display, minute, suffix)
}

// ResolveZone loads the caller's IANA zone, falling back to the company zone
// when the name is empty or unknown.
func ResolveZone(name string, fallback *time.Location) *time.Location {
	if name == "" {
		return fallback
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return fallback
	}
	return loc
}
