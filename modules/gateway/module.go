package gateway

import (
	"time"

	"booking-gateway/core/cache"
	"booking-gateway/core/config"
	"booking-gateway/core/middleware"
	"booking-gateway/core/queue"
	authservice "booking-gateway/modules/auth/service"
	availservice "booking-gateway/modules/availability/service"
	bookingservice "booking-gateway/modules/booking/service"
	calservice "booking-gateway/modules/calendar/service"
	"booking-gateway/modules/gateway/controller"
	"booking-gateway/modules/gateway/router"

	"github.com/labstack/echo/v4"
)

// Init wires the public gateway surface: the slot pipeline, the booking path,
// and the dispatch endpoint in front of both.
func Init(e *echo.Echo, cfg *config.Config, cacheClient cache.Cache, oauth *authservice.OAuthService, enqueuer queue.Enqueuer) {
	calendar := calservice.NewCalendarService(oauth)

	loc := availservice.ResolveZone(cfg.Company.Timezone, time.UTC)
	template := availservice.NewSlotTemplate(cfg.Company.OpenHour, cfg.Company.CloseHour, loc)
	availability := availservice.NewAvailabilityService(template, calendar, cacheClient, cfg.GoogleAPI.CalendarID)
	booking := bookingservice.NewBookingService(calendar, enqueuer, cfg.GoogleAPI.CalendarID)

	ctrl := controller.NewGatewayController(availability, booking, oauth)
	mw := middleware.NewMiddleware()
	router.NewGatewayRouter(ctrl).Setup(e, mw)
}
