package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"booking-gateway/core/errors"
	"booking-gateway/modules/calendar/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticTokens struct {
	token string
	err   *errors.AppError
}

func (s *staticTokens) AccessToken(ctx context.Context) (string, *errors.AppError) {
	if s.err != nil {
		return "", s.err
	}
	return s.token, nil
}

func TestFreeBusyParsesBusyPeriods(t *testing.T) {
	var gotAuth string
	var gotReq dto.FreeBusyRequest
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/freeBusy", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		json.NewEncoder(w).Encode(map[string]any{
			"calendars": map[string]any{
				"primary": map[string]any{
					"busy": []map[string]string{
						{"start": "2024-06-10T14:00:00Z", "end": "2024-06-10T15:00:00Z"},
					},
				},
			},
		})
	}))
	defer upstream.Close()

	svc := NewCalendarServiceWithBase(&staticTokens{token: "tok-123"}, upstream.Client(), upstream.URL)

	start := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 10, 23, 59, 59, 0, time.UTC)
	busy, appErr := svc.FreeBusy(context.Background(), "primary", start, end)

	require.Nil(t, appErr)
	require.Len(t, busy, 1)
	assert.Equal(t, "2024-06-10T14:00:00Z", busy[0].Start)
	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.Equal(t, "2024-06-10T00:00:00Z", gotReq.TimeMin)
	require.Len(t, gotReq.Items, 1)
	assert.Equal(t, "primary", gotReq.Items[0].ID)
}

func TestFreeBusyMissingCalendarReturnsEmpty(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"calendars": map[string]any{}})
	}))
	defer upstream.Close()

	svc := NewCalendarServiceWithBase(&staticTokens{token: "tok"}, upstream.Client(), upstream.URL)
	busy, appErr := svc.FreeBusy(context.Background(), "primary", time.Now(), time.Now().Add(time.Hour))

	require.Nil(t, appErr)
	assert.Empty(t, busy)
}

func TestFreeBusyUpstreamErrorPreservesMessage(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "Rate Limit Exceeded"},
		})
	}))
	defer upstream.Close()

	svc := NewCalendarServiceWithBase(&staticTokens{token: "tok"}, upstream.Client(), upstream.URL)
	_, appErr := svc.FreeBusy(context.Background(), "primary", time.Now(), time.Now().Add(time.Hour))

	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrUpstreamAPI, appErr.Code)
	assert.Contains(t, appErr.Message, "Rate Limit Exceeded")
}

func TestFreeBusyTokenErrorShortCircuits(t *testing.T) {
	tokenErr := errors.NewAppError(errors.ErrAuthExchange, "calendar is not connected", nil)
	svc := NewCalendarServiceWithBase(&staticTokens{err: tokenErr}, nil, "http://127.0.0.1:0")

	_, appErr := svc.FreeBusy(context.Background(), "primary", time.Now(), time.Now().Add(time.Hour))
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrAuthExchange, appErr.Code)
}

func TestCreateEventPostsToCalendarPath(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/calendars/primary/events", r.URL.Path)

		var req dto.EventRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(dto.Event{
			ID:      "evt-1",
			Status:  "confirmed",
			Summary: req.Summary,
			Start:   req.Start,
			End:     req.End,
		})
	}))
	defer upstream.Close()

	svc := NewCalendarServiceWithBase(&staticTokens{token: "tok"}, upstream.Client(), upstream.URL)

	event, appErr := svc.CreateEvent(context.Background(), "primary", &dto.EventRequest{
		Summary: "Appointment with Ada",
		Start:   dto.EventTime{DateTime: "2024-06-10T14:00:00Z"},
		End:     dto.EventTime{DateTime: "2024-06-10T15:00:00Z"},
	})

	require.Nil(t, appErr)
	assert.Equal(t, "evt-1", event.ID)
	assert.Equal(t, "confirmed", event.Status)
	assert.Equal(t, "Appointment with Ada", event.Summary)
}

func TestCreateEventUpstreamFailureIsTruthful(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "The requested time slot is no longer available"},
		})
	}))
	defer upstream.Close()

	svc := NewCalendarServiceWithBase(&staticTokens{token: "tok"}, upstream.Client(), upstream.URL)
	_, appErr := svc.CreateEvent(context.Background(), "primary", &dto.EventRequest{Summary: "x"})

	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrUpstreamAPI, appErr.Code)
	assert.Contains(t, appErr.Message, "no longer available")
}

func TestPostJSONTimeoutSurfacesAsTimeout(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer upstream.Close()

	svc := NewCalendarServiceWithBase(&staticTokens{token: "tok"}, upstream.Client(), upstream.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, appErr := svc.FreeBusy(ctx, "primary", time.Now(), time.Now().Add(time.Hour))

	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrUpstreamTimeout, appErr.Code)
}
