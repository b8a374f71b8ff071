package dto

// BusyPeriod is one occupied range from the free/busy report, RFC3339.
type BusyPeriod struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// FreeBusyRequest is the upstream query body.
type FreeBusyRequest struct {
	TimeMin string             `json:"timeMin"`
	TimeMax string             `json:"timeMax"`
	Items   []FreeBusyCalendar `json:"items"`
}

type FreeBusyCalendar struct {
	ID string `json:"id"`
}

type FreeBusyResponse struct {
	Calendars map[string]struct {
		Busy []BusyPeriod `json:"busy"`
	} `json:"calendars"`
}

// EventTime follows the calendar API's nested dateTime shape.
type EventTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone,omitempty"`
}

type EventRequest struct {
	Summary     string    `json:"summary"`
	Description string    `json:"description,omitempty"`
	Start       EventTime `json:"start"`
	End         EventTime `json:"end"`
}

// Event is the created event as returned by the provider.
type Event struct {
	ID          string    `json:"id"`
	Status      string    `json:"status"`
	HTMLLink    string    `json:"htmlLink"`
	Summary     string    `json:"summary"`
	Description string    `json:"description"`
	Start       EventTime `json:"start"`
	End         EventTime `json:"end"`
}
