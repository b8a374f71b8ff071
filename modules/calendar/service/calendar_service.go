package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"booking-gateway/core/constants"
	"booking-gateway/core/errors"
	"booking-gateway/core/logger"
	"booking-gateway/modules/calendar/dto"
)

const defaultAPIBase = "https://www.googleapis.com/calendar/v3"

// AccessTokenSource supplies a valid bearer token for every upstream call,
// refreshing behind the scenes when needed. Satisfied by the OAuth service.
type AccessTokenSource interface {
	AccessToken(ctx context.Context) (string, *errors.AppError)
}

type CalendarService interface {
	FreeBusy(ctx context.Context, calendarID string, start, end time.Time) ([]dto.BusyPeriod, *errors.AppError)
	CreateEvent(ctx context.Context, calendarID string, req *dto.EventRequest) (*dto.Event, *errors.AppError)
}

type calendarService struct {
	tokens  AccessTokenSource
	client  *http.Client
	apiBase string
}

func NewCalendarService(tokens AccessTokenSource) CalendarService {
	return &calendarService{
		tokens:  tokens,
		client:  &http.Client{Timeout: constants.UpstreamHTTPTimeout},
		apiBase: defaultAPIBase,
	}
}

// NewCalendarServiceWithBase points the client at a fake upstream. Intended
// for tests.
func NewCalendarServiceWithBase(tokens AccessTokenSource, client *http.Client, apiBase string) CalendarService {
	if client == nil {
		client = &http.Client{Timeout: constants.UpstreamHTTPTimeout}
	}
	return &calendarService{tokens: tokens, client: client, apiBase: apiBase}
}

// FreeBusy queries the provider's free/busy feed for one calendar over the
// given window.
func (s *calendarService) FreeBusy(ctx context.Context, calendarID string, start, end time.Time) ([]dto.BusyPeriod, *errors.AppError) {
	ctx, cancel := context.WithTimeout(ctx, constants.DefaultRequestTimeout)
	defer cancel()

	accessToken, appErr := s.tokens.AccessToken(ctx)
	if appErr != nil {
		return nil, appErr
	}

	body := dto.FreeBusyRequest{
		TimeMin: start.Format(time.RFC3339),
		TimeMax: end.Format(time.RFC3339),
		Items:   []dto.FreeBusyCalendar{{ID: calendarID}},
	}

	var result dto.FreeBusyResponse
	if appErr := s.postJSON(ctx, s.apiBase+"/freeBusy", accessToken, body, &result); appErr != nil {
		return nil, appErr
	}

	cal, ok := result.Calendars[calendarID]
	if !ok {
		logger.Warn("CalendarService:FreeBusy:CalendarMissingFromResponse", "calendar_id", calendarID)
		return nil, nil
	}
	return cal.Busy, nil
}

// CreateEvent inserts a single event. Not retried: a retry after an ambiguous
// failure could double-book the slot.
func (s *calendarService) CreateEvent(ctx context.Context, calendarID string, req *dto.EventRequest) (*dto.Event, *errors.AppError) {
	ctx, cancel := context.WithTimeout(ctx, constants.DefaultRequestTimeout)
	defer cancel()

	accessToken, appErr := s.tokens.AccessToken(ctx)
	if appErr != nil {
		return nil, appErr
	}

	endpoint := fmt.Sprintf("%s/calendars/%s/events", s.apiBase, url.PathEscape(calendarID))

	var event dto.Event
	if appErr := s.postJSON(ctx, endpoint, accessToken, req, &event); appErr != nil {
		return nil, appErr
	}

	logger.Info("CalendarService:CreateEvent:Success",
		"calendar_id", calendarID, "event_id", event.ID, "start", req.Start.DateTime)
	return &event, nil
}

func (s *calendarService) postJSON(ctx context.Context, endpoint, accessToken string, body any, dest any) *errors.AppError {
	payload, err := json.Marshal(body)
	if err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "failed to encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "failed to create request", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return errors.NewAppError(errors.ErrUpstreamTimeout, "calendar API call timed out", err)
		}
		return errors.NewAppError(errors.ErrUpstreamAPI, "calendar API call failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		raw, _ := io.ReadAll(resp.Body)
		logger.Error("CalendarService:postJSON:UpstreamError",
			"endpoint", endpoint, "status", resp.StatusCode, "body", string(raw))
		return errors.NewAppError(errors.ErrUpstreamAPI,
			fmt.Sprintf("calendar API error (%d): %s", resp.StatusCode, upstreamMessage(raw)), nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return errors.NewAppError(errors.ErrUpstreamAPI, "failed to parse calendar API response", err)
	}
	return nil
}

// upstreamMessage pulls the human-readable message out of a Google error
// body, falling back to the raw body.
func upstreamMessage(raw []byte) string {
	var parsed struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &parsed); err == nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	return string(raw)
}
