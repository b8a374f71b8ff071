package router

import (
	"booking-gateway/core/middleware"
	"booking-gateway/modules/gateway/controller"

	"github.com/labstack/echo/v4"
)

type GatewayRouter struct {
	controller *controller.GatewayController
}

func NewGatewayRouter(controller *controller.GatewayController) *GatewayRouter {
	return &GatewayRouter{controller: controller}
}

func (r *GatewayRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	public := e.Group("/api/v1/public")

	public.POST("/gateway", r.controller.Dispatch)
	public.GET("/availability", r.controller.GetAvailability)
	public.POST("/bookings", r.controller.CreateBooking)
}
