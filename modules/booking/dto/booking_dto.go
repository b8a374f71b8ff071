package dto

import caldto "booking-gateway/modules/calendar/dto"

// BookAppointmentRequest carries one booking submission from the widget. The
// visitor's contact details are folded into the calendar event and not stored
// anywhere else.
type BookAppointmentRequest struct {
	CalendarID  string `json:"calendarId,omitempty"`
	StartTime   string `json:"startTime"` // RFC3339
	EndTime     string `json:"endTime"`   // RFC3339
	Summary     string `json:"summary,omitempty"`
	Description string `json:"description,omitempty"`

	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Notes string `json:"notes,omitempty"`
}

type BookAppointmentResponse struct {
	Event      *caldto.Event `json:"event"`
	Reference  string        `json:"reference"`
	BookingURL string        `json:"booking_url,omitempty"`
}
