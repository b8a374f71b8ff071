package dto

// TimeSlot is one bookable hour of the business day. Start/End are wall-clock
// "HH:00" strings in the company timezone; the display fields carry the
// caller-zone 12-hour rendering.
type TimeSlot struct {
	ID           string `json:"id"`
	StartTime    string `json:"startTime"`
	EndTime      string `json:"endTime"`
	IsAvailable  bool   `json:"isAvailable"`
	DisplayStart string `json:"displayStart,omitempty"`
	DisplayEnd   string `json:"displayEnd,omitempty"`
}

// BusyInterval is one occupied range from the upstream free/busy report,
// RFC3339 timestamps.
type BusyInterval struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type AvailableSlotsRequest struct {
	Date          string `json:"date" query:"date" validate:"required"` // YYYY-MM-DD or RFC3339
	CalendarID    string `json:"calendarId" query:"calendarId"`
	Timezone      string `json:"timezone" query:"timezone"` // caller's display zone, IANA name
	AllowFallback bool   `json:"allowFallback" query:"allowFallback"`
}

// AvailableSlotsResponse carries the marked template. Fallback is true only
// when the upstream free/busy query failed and the caller opted into the
// template-only answer; those slots are fabricated availability, not calendar
// truth.
type AvailableSlotsResponse struct {
	Date     string     `json:"date"`
	Timezone string     `json:"timezone"`
	Slots    []TimeSlot `json:"slots"`
	Fallback bool       `json:"fallback"`
}
