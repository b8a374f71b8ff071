package controller

import (
	"net/http"
	"strconv"

	corecontroller "booking-gateway/core/controller"
	"booking-gateway/core/errors"
	"booking-gateway/core/logger"
	authservice "booking-gateway/modules/auth/service"
	availdto "booking-gateway/modules/availability/dto"
	availservice "booking-gateway/modules/availability/service"
	bookingdto "booking-gateway/modules/booking/dto"
	bookingservice "booking-gateway/modules/booking/service"
	"booking-gateway/modules/gateway/dto"

	"github.com/labstack/echo/v4"
)

// GatewayController is the widget's single entry point: one action-dispatch
// endpoint plus plain REST aliases for the two public operations.
type GatewayController struct {
	corecontroller.BaseController
	availability availservice.AvailabilityService
	booking      bookingservice.BookingService
	oauth        *authservice.OAuthService
}

func NewGatewayController(availability availservice.AvailabilityService, booking bookingservice.BookingService, oauth *authservice.OAuthService) *GatewayController {
	return &GatewayController{
		BaseController: corecontroller.NewBaseController(),
		availability:   availability,
		booking:        booking,
		oauth:          oauth,
	}
}

// Dispatch routes one envelope to the named operation and normalizes the
// result. Failures always come back as {"error": ..., "help": ...} with the
// taxonomy-mapped HTTP status.
// POST /api/v1/public/gateway
func (c *GatewayController) Dispatch(ctx echo.Context) error {
	var req dto.GatewayRequest
	if err := ctx.Bind(&req); err != nil {
		return envelopeError(ctx, errors.NewAppError(errors.ErrInvalidRequestData, "invalid request body", err))
	}

	switch req.Action {
	case dto.ActionGetAvailableSlots:
		resp, appErr := c.availability.GetAvailableSlots(ctx.Request().Context(), &availdto.AvailableSlotsRequest{
			Date:          req.Date,
			CalendarID:    req.CalendarID,
			Timezone:      req.Timezone,
			AllowFallback: req.AllowFallback,
		})
		if appErr != nil {
			return envelopeError(ctx, appErr)
		}
		return ctx.JSON(http.StatusOK, resp)

	case dto.ActionBookAppointment:
		resp, appErr := c.booking.BookAppointment(ctx.Request().Context(), &bookingdto.BookAppointmentRequest{
			CalendarID:  req.CalendarID,
			StartTime:   req.StartTime,
			EndTime:     req.EndTime,
			Summary:     req.Summary,
			Description: req.Description,
			Name:        req.Name,
			Email:       req.Email,
			Notes:       req.Notes,
		})
		if appErr != nil {
			return envelopeError(ctx, appErr)
		}
		return ctx.JSON(http.StatusOK, resp)

	case dto.ActionGetAuthURL:
		resp, appErr := c.oauth.GetAuthURL(ctx.Request().Context())
		if appErr != nil {
			return envelopeError(ctx, appErr)
		}
		return ctx.JSON(http.StatusOK, resp)

	case dto.ActionGetToken, dto.ActionHandleAuthCallback:
		resp, appErr := c.oauth.ExchangeCode(ctx.Request().Context(), req.Code, req.State)
		if appErr != nil {
			return envelopeError(ctx, appErr)
		}
		return ctx.JSON(http.StatusOK, resp)

	default:
		return envelopeError(ctx, errors.NewAppError(errors.ErrInvalidInput, "unknown action: "+req.Action, nil))
	}
}

// GetAvailability is the REST alias for getAvailableSlots.
// GET /api/v1/public/availability?date=&calendarId=&timezone=&allowFallback=
func (c *GatewayController) GetAvailability(ctx echo.Context) error {
	allowFallback, _ := strconv.ParseBool(ctx.QueryParam("allowFallback"))
	req := &availdto.AvailableSlotsRequest{
		Date:          ctx.QueryParam("date"),
		CalendarID:    ctx.QueryParam("calendarId"),
		Timezone:      ctx.QueryParam("timezone"),
		AllowFallback: allowFallback,
	}

	resp, appErr := c.availability.GetAvailableSlots(ctx.Request().Context(), req)
	if appErr != nil {
		return envelopeError(ctx, appErr)
	}
	return ctx.JSON(http.StatusOK, resp)
}

// CreateBooking is the REST alias for bookAppointment.
// POST /api/v1/public/bookings
func (c *GatewayController) CreateBooking(ctx echo.Context) error {
	var req bookingdto.BookAppointmentRequest
	if err := ctx.Bind(&req); err != nil {
		return envelopeError(ctx, errors.NewAppError(errors.ErrInvalidRequestData, "invalid request body", err))
	}

	resp, appErr := c.booking.BookAppointment(ctx.Request().Context(), &req)
	if appErr != nil {
		return envelopeError(ctx, appErr)
	}
	return ctx.JSON(http.StatusOK, resp)
}

func envelopeError(ctx echo.Context, appErr *errors.AppError) error {
	logger.Error("GatewayController:Error",
		"code", appErr.Code,
		"message", appErr.Message,
	)
	return ctx.JSON(corecontroller.HTTPStatusFor(appErr.Code), &dto.ErrorEnvelope{
		Error: appErr.Message,
		Help:  appErr.Help,
	})
}
