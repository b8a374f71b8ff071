package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"booking-gateway/core/errors"
	availservice "booking-gateway/modules/availability/service"
	bookingservice "booking-gateway/modules/booking/service"
	caldto "booking-gateway/modules/calendar/dto"
	"booking-gateway/modules/gateway/dto"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFreeBusy struct {
	periods []caldto.BusyPeriod
	err     *errors.AppError
}

func (f *fakeFreeBusy) FreeBusy(ctx context.Context, calendarID string, start, end time.Time) ([]caldto.BusyPeriod, *errors.AppError) {
	if f.err != nil {
		return nil, f.err
	}
	return f.periods, nil
}

type fakeCreator struct {
	event *caldto.Event
	err   *errors.AppError
}

func (f *fakeCreator) CreateEvent(ctx context.Context, calendarID string, req *caldto.EventRequest) (*caldto.Event, *errors.AppError) {
	if f.err != nil {
		return nil, f.err
	}
	return f.event, nil
}

func newTestController(freeBusy *fakeFreeBusy, creator *fakeCreator) *GatewayController {
	template := availservice.NewSlotTemplate(9, 17, time.UTC)
	availability := availservice.NewAvailabilityService(template, freeBusy, nil, "primary")
	booking := bookingservice.NewBookingService(creator, nil, "primary")
	return NewGatewayController(availability, booking, nil)
}

func dispatch(t *testing.T, ctrl *GatewayController, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/public/gateway", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	require.NoError(t, ctrl.Dispatch(e.NewContext(req, rec)))

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &parsed))
	return rec, parsed
}

// A busy hour on the upstream calendar must come back as exactly one
// unavailable slot.
func TestDispatchGetAvailableSlotsEndToEnd(t *testing.T) {
	freeBusy := &fakeFreeBusy{periods: []caldto.BusyPeriod{
		{Start: "2024-06-10T14:00:00Z", End: "2024-06-10T15:00:00Z"},
	}}
	ctrl := newTestController(freeBusy, &fakeCreator{})

	rec, parsed := dispatch(t, ctrl, `{"action":"getAvailableSlots","date":"2024-06-10","calendarId":"primary"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	slots := parsed["slots"].([]any)
	require.Len(t, slots, 8)

	unavailable := 0
	for _, raw := range slots {
		slot := raw.(map[string]any)
		if slot["isAvailable"] == false {
			unavailable++
			assert.Equal(t, "2024-06-10-14", slot["id"])
		}
	}
	assert.Equal(t, 1, unavailable)
	assert.Equal(t, false, parsed["fallback"])
}

func TestDispatchBookAppointment(t *testing.T) {
	creator := &fakeCreator{event: &caldto.Event{ID: "evt-9", Status: "confirmed"}}
	ctrl := newTestController(&fakeFreeBusy{}, creator)

	rec, parsed := dispatch(t, ctrl, `{
		"action":"bookAppointment",
		"startTime":"2024-06-10T14:00:00Z",
		"endTime":"2024-06-10T15:00:00Z",
		"name":"Ada Lovelace",
		"email":"ada@example.com"
	}`)
	require.Equal(t, http.StatusOK, rec.Code)

	event := parsed["event"].(map[string]any)
	assert.Equal(t, "evt-9", event["id"])
	assert.NotEmpty(t, parsed["reference"])
}

func TestDispatchBookingFailureIsTruthful(t *testing.T) {
	creator := &fakeCreator{err: errors.NewAppError(errors.ErrUpstreamAPI, "calendar API error (409): slot taken", nil)}
	ctrl := newTestController(&fakeFreeBusy{}, creator)

	rec, parsed := dispatch(t, ctrl, `{
		"action":"bookAppointment",
		"startTime":"2024-06-10T14:00:00Z",
		"endTime":"2024-06-10T15:00:00Z"
	}`)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, parsed["error"], "slot taken")
}

func TestDispatchUpstreamErrorEnvelope(t *testing.T) {
	freeBusy := &fakeFreeBusy{err: errors.NewAppError(errors.ErrUpstreamTimeout, "calendar API call timed out", nil)}
	ctrl := newTestController(freeBusy, &fakeCreator{})

	rec, parsed := dispatch(t, ctrl, `{"action":"getAvailableSlots","date":"2024-06-10"}`)

	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.Equal(t, "calendar API call timed out", parsed["error"])
}

func TestDispatchValidationErrorBeforeUpstream(t *testing.T) {
	ctrl := newTestController(&fakeFreeBusy{}, &fakeCreator{})

	rec, parsed := dispatch(t, ctrl, `{"action":"getAvailableSlots"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, parsed["error"], "date is required")
}

func TestDispatchUnknownAction(t *testing.T) {
	ctrl := newTestController(&fakeFreeBusy{}, &fakeCreator{})

	rec, parsed := dispatch(t, ctrl, `{"action":"dropTables"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, parsed["error"], "unknown action")
}

func TestGetAvailabilityRESTAlias(t *testing.T) {
	freeBusy := &fakeFreeBusy{err: errors.NewAppError(errors.ErrUpstreamAPI, "boom", nil)}
	ctrl := newTestController(freeBusy, &fakeCreator{})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/public/availability?date=2024-06-10&allowFallback=true", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, ctrl.GetAvailability(e.NewContext(req, rec)))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp dto.ErrorEnvelope
	// Fallback succeeded, so this must not be an error envelope.
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Error)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &parsed))
	assert.Equal(t, true, parsed["fallback"])
	assert.Len(t, parsed["slots"].([]any), 8)
}

func TestCreateBookingRESTAlias(t *testing.T) {
	creator := &fakeCreator{event: &caldto.Event{ID: "evt-10"}}
	ctrl := newTestController(&fakeFreeBusy{}, creator)

	e := echo.New()
	body := `{"startTime":"2024-06-10T09:00:00Z","endTime":"2024-06-10T10:00:00Z","name":"Ada"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/public/bookings", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	require.NoError(t, ctrl.CreateBooking(e.NewContext(req, rec)))

	require.Equal(t, http.StatusOK, rec.Code)
	var parsed map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &parsed))
	assert.Equal(t, "evt-10", parsed["event"].(map[string]any)["id"])
}
