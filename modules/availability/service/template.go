package service

import (
	"fmt"
	"time"
)

// Slot is the internal, instant-based form of a template slot. The dto layer
// renders it into wall-clock strings.
type Slot struct {
	ID        string
	Start     time.Time
	End       time.Time
	Available bool
}

// SlotTemplate generates the canonical bookable slots for a calendar day:
// one slot per hour across [OpenHour, CloseHour) in the company timezone.
type SlotTemplate struct {
	OpenHour  int
	CloseHour int
	Location  *time.Location
}

func NewSlotTemplate(openHour, closeHour int, loc *time.Location) *SlotTemplate {
	if loc == nil {
		loc = time.UTC
	}
	return &SlotTemplate{
		OpenHour:  openHour,
		CloseHour: closeHour,
		Location:  loc,
	}
}

// Generate builds the day's template, every slot initially available. The
// date's time-of-day component is ignored.
func (t *SlotTemplate) Generate(date time.Time) []Slot {
	day := date.In(t.Location)
	slots := make([]Slot, 0, t.CloseHour-t.OpenHour)

	for hour := t.OpenHour; hour < t.CloseHour; hour++ {
		start := time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, t.Location)
		slots = append(slots, Slot{
			ID:        fmt.Sprintf("%s-%d", start.Format("2006-01-02"), hour),
			Start:     start,
			End:       start.Add(time.Hour),
			Available: true,
		})
	}

	return slots
}

// DayWindow returns the full-day query window for the upstream free/busy
// call, midnight to end of day in the company timezone.
func (t *SlotTemplate) DayWindow(date time.Time) (time.Time, time.Time) {
	day := date.In(t.Location)
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, t.Location)
	end := time.Date(day.Year(), day.Month(), day.Day(), 23, 59, 59, int(999*time.Millisecond), t.Location)
	return start, end
}
