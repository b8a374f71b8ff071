package service

import (
	"context"
	"fmt"
	"time"

	"booking-gateway/core/cache"
	"booking-gateway/core/errors"
	"booking-gateway/core/logger"
	"booking-gateway/modules/availability/dto"
	caldto "booking-gateway/modules/calendar/dto"
)

// FreeBusySource is the upstream free/busy query, satisfied by the calendar
// service.
type FreeBusySource interface {
	FreeBusy(ctx context.Context, calendarID string, start, end time.Time) ([]caldto.BusyPeriod, *errors.AppError)
}

type AvailabilityService interface {
	GetAvailableSlots(ctx context.Context, req *dto.AvailableSlotsRequest) (*dto.AvailableSlotsResponse, *errors.AppError)
}

type availabilityService struct {
	template   *SlotTemplate
	source     FreeBusySource
	cache      cache.Cache
	calendarID string
}

func NewAvailabilityService(template *SlotTemplate, source FreeBusySource, c cache.Cache, defaultCalendarID string) AvailabilityService {
	return &availabilityService{
		template:   template,
		source:     source,
		cache:      c,
		calendarID: defaultCalendarID,
	}
}

func (s *availabilityService) GetAvailableSlots(ctx context.Context, req *dto.AvailableSlotsRequest) (*dto.AvailableSlotsResponse, *errors.AppError) {
	if req.Date == "" {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "date is required", nil)
	}

	date, err := parseDate(req.Date, s.template.Location)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "invalid date format, expected YYYY-MM-DD", err)
	}

	calendarID := req.CalendarID
	if calendarID == "" {
		calendarID = s.calendarID
	}

	displayZone := ResolveZone(req.Timezone, s.template.Location)
	slots := s.template.Generate(date)

	busy, appErr := s.fetchBusy(ctx, calendarID, date)
	if appErr != nil {
		if !req.AllowFallback {
			return nil, appErr
		}
		// Availability-over-correctness: the caller asked for the bare
		// template when the calendar is unreachable. Flagged so the widget
		// can tell fabricated availability from the real thing.
		logger.Warn("AvailabilityService:GetAvailableSlots:Fallback",
			"date", req.Date, "calendar_id", calendarID, "error", appErr)
		return s.render(date, slots, displayZone, true), nil
	}

	marked := MarkBusy(slots, busy)
	return s.render(date, marked, displayZone, false), nil
}

func (s *availabilityService) fetchBusy(ctx context.Context, calendarID string, date time.Time) ([]Interval, *errors.AppError) {
	start, end := s.template.DayWindow(date)
	cacheKey := fmt.Sprintf("%s:%s", calendarID, start.Format("2006-01-02"))

	var periods []caldto.BusyPeriod
	if s.cache != nil {
		if hit, err := s.cache.GetBusyIntervals(ctx, cacheKey, &periods); err == nil && hit {
			return toIntervals(periods), nil
		}
	}

	periods, appErr := s.source.FreeBusy(ctx, calendarID, start, end)
	if appErr != nil {
		return nil, appErr
	}

	if s.cache != nil {
		if err := s.cache.SetBusyIntervals(ctx, cacheKey, periods); err != nil {
			logger.Warn("AvailabilityService:fetchBusy:CacheSetError", "key", cacheKey, "error", err)
		}
	}

	return toIntervals(periods), nil
}

func (s *availabilityService) render(date time.Time, slots []Slot, displayZone *time.Location, fallback bool) *dto.AvailableSlotsResponse {
	out := make([]dto.TimeSlot, len(slots))
	for i, slot := range slots {
		out[i] = dto.TimeSlot{
			ID:           slot.ID,
			StartTime:    fmt.Sprintf("%d:00", slot.Start.In(s.template.Location).Hour()),
			EndTime:      fmt.Sprintf("%d:00", slot.End.In(s.template.Location).Hour()),
			IsAvailable:  slot.Available,
			DisplayStart: FormatLocalClock(slot.Start, displayZone),
			DisplayEnd:   FormatLocalClock(slot.End, displayZone),
		}
	}

	return &dto.AvailableSlotsResponse{
		Date:     date.In(s.template.Location).Format("2006-01-02"),
		Timezone: displayZone.String(),
		Slots:    out,
		Fallback: fallback,
	}
}

func toIntervals(periods []caldto.BusyPeriod) []Interval {
	var intervals []Interval
	for _, p := range periods {
		start, err1 := time.Parse(time.RFC3339, p.Start)
		end, err2 := time.Parse(time.RFC3339, p.End)
		if err1 != nil || err2 != nil {
			logger.Warn("AvailabilityService:toIntervals:SkipUnparsable", "start", p.Start, "end", p.End)
			continue
		}
		intervals = append(intervals, Interval{Start: start, End: end})
	}
	return intervals
}

func parseDate(value string, loc *time.Location) (time.Time, error) {
	if t, err := time.ParseInLocation("2006-01-02", value, loc); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}
