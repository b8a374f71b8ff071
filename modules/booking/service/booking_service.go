package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"booking-gateway/core/config"
	"booking-gateway/core/errors"
	"booking-gateway/core/logger"
	"booking-gateway/core/queue"
	"booking-gateway/core/utils"
	"booking-gateway/modules/booking/dto"
	caldto "booking-gateway/modules/calendar/dto"

	"github.com/gosimple/slug"
)

// EventCreator is the upstream event insert, satisfied by the calendar
// service.
type EventCreator interface {
	CreateEvent(ctx context.Context, calendarID string, req *caldto.EventRequest) (*caldto.Event, *errors.AppError)
}

type BookingService interface {
	BookAppointment(ctx context.Context, req *dto.BookAppointmentRequest) (*dto.BookAppointmentResponse, *errors.AppError)
}

type bookingService struct {
	creator    EventCreator
	enqueuer   queue.Enqueuer
	calendarID string
}

func NewBookingService(creator EventCreator, enqueuer queue.Enqueuer, defaultCalendarID string) BookingService {
	return &bookingService{
		creator:    creator,
		enqueuer:   enqueuer,
		calendarID: defaultCalendarID,
	}
}

// BookAppointment creates one event on the company calendar. Upstream
// failures are returned as-is; the event either exists or it does not, and
// the caller is told which. No retries: a second insert would double-book.
func (s *bookingService) BookAppointment(ctx context.Context, req *dto.BookAppointmentRequest) (*dto.BookAppointmentResponse, *errors.AppError) {
	start, end, appErr := validateWindow(req.StartTime, req.EndTime)
	if appErr != nil {
		return nil, appErr
	}
	if req.Email != "" {
		if _, err := mail.ParseAddress(req.Email); err != nil {
			return nil, errors.NewAppError(errors.ErrInvalidInput, "invalid email address", err)
		}
	}

	calendarID := req.CalendarID
	if calendarID == "" {
		calendarID = s.calendarID
	}

	eventReq := &caldto.EventRequest{
		Summary:     summaryFor(req),
		Description: descriptionFor(req),
		Start:       caldto.EventTime{DateTime: start.Format(time.RFC3339)},
		End:         caldto.EventTime{DateTime: end.Format(time.RFC3339)},
	}

	event, appErr := s.creator.CreateEvent(ctx, calendarID, eventReq)
	if appErr != nil {
		logger.Error("BookingService:BookAppointment:CreateEvent:Error",
			"calendar_id", calendarID, "start", req.StartTime, "error", appErr)
		return nil, appErr
	}

	reference := utils.GenerateBookingReference()
	logger.Info("BookingService:BookAppointment:Created",
		"reference", reference, "event_id", event.ID, "start", req.StartTime)

	if s.enqueuer != nil {
		payload := &queue.BookingConfirmationPayload{
			Reference: reference,
			EventID:   event.ID,
			Summary:   event.Summary,
			StartTime: req.StartTime,
			EndTime:   req.EndTime,
		}
		if err := s.enqueuer.EnqueueBookingConfirmation(payload); err != nil {
			// The event exists; a lost notification must not fail the booking.
			logger.Warn("BookingService:BookAppointment:EnqueueError", "reference", reference, "error", err)
		}
	}

	return &dto.BookAppointmentResponse{
		Event:      event,
		Reference:  reference,
		BookingURL: bookingURL(reference),
	}, nil
}

func validateWindow(startStr, endStr string) (time.Time, time.Time, *errors.AppError) {
	if startStr == "" || endStr == "" {
		return time.Time{}, time.Time{}, errors.NewAppError(errors.ErrInvalidInput, "startTime and endTime are required", nil)
	}
	start, err := time.Parse(time.RFC3339, startStr)
	if err != nil {
		return time.Time{}, time.Time{}, errors.NewAppError(errors.ErrInvalidInput, "invalid startTime, expected RFC3339", err)
	}
	end, err := time.Parse(time.RFC3339, endStr)
	if err != nil {
		return time.Time{}, time.Time{}, errors.NewAppError(errors.ErrInvalidInput, "invalid endTime, expected RFC3339", err)
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, errors.NewAppError(errors.ErrInvalidInput, "endTime must be after startTime", nil)
	}
	return start, end, nil
}

func summaryFor(req *dto.BookAppointmentRequest) string {
	if req.Summary != "" {
		return req.Summary
	}
	if req.Name != "" {
		return fmt.Sprintf("Appointment with %s", req.Name)
	}
	return "Appointment"
}

func descriptionFor(req *dto.BookAppointmentRequest) string {
	if req.Description != "" {
		return req.Description
	}
	var parts []string
	if req.Name != "" {
		parts = append(parts, "Name: "+req.Name)
	}
	if req.Email != "" {
		parts = append(parts, "Email: "+req.Email)
	}
	if req.Notes != "" {
		parts = append(parts, "Notes: "+req.Notes)
	}
	return strings.Join(parts, "\n")
}

// bookingURL is the public widget path for the company, derived from the
// configured company name.
func bookingURL(reference string) string {
	cfg, ok := config.GetSafe()
	if !ok || cfg.Company.Name == "" {
		return ""
	}
	return fmt.Sprintf("/book/%s?ref=%s", slug.Make(cfg.Company.Name), reference)
}
