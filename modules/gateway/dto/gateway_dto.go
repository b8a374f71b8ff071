package dto

// Action tags accepted by the dispatch endpoint.
const (
	ActionGetAvailableSlots  = "getAvailableSlots"
	ActionBookAppointment    = "bookAppointment"
	ActionGetAuthURL         = "getAuthUrl"
	ActionGetToken           = "getToken"
	ActionHandleAuthCallback = "handleAuthCallback"
)

// GatewayRequest is the single dispatch envelope the widget posts. Only the
// fields relevant to the named action are read; the rest are ignored.
type GatewayRequest struct {
	Action string `json:"action"`

	// getAvailableSlots
	Date          string `json:"date,omitempty"`
	CalendarID    string `json:"calendarId,omitempty"`
	Timezone      string `json:"timezone,omitempty"`
	AllowFallback bool   `json:"allowFallback,omitempty"`

	// bookAppointment
	StartTime   string `json:"startTime,omitempty"`
	EndTime     string `json:"endTime,omitempty"`
	Summary     string `json:"summary,omitempty"`
	Description string `json:"description,omitempty"`
	Name        string `json:"name,omitempty"`
	Email       string `json:"email,omitempty"`
	Notes       string `json:"notes,omitempty"`

	// getToken / handleAuthCallback
	Code  string `json:"code,omitempty"`
	State string `json:"state,omitempty"`
}

// ErrorEnvelope is the normalized failure shape: the upstream or validation
// message plus, when available, an operator-actionable hint.
type ErrorEnvelope struct {
	Error string `json:"error"`
	Help  string `json:"help,omitempty"`
}
