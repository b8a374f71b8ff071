package router

import (
	"booking-gateway/core/middleware"
	"booking-gateway/modules/auth/controller"

	"github.com/labstack/echo/v4"
)

type AuthRouter struct {
	controller *controller.AuthController
}

func NewAuthRouter(controller *controller.AuthController) *AuthRouter {
	return &AuthRouter{controller: controller}
}

func (r *AuthRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	v1 := e.Group("/api/v1")

	public := v1.Group("/public")
	public.GET("/auth/google", r.controller.GetGoogleAuthURL)
	public.GET("/auth/google/callback", r.controller.HandleGoogleCallback)
	public.POST("/admin/login", r.controller.Login)

	private := v1.Group("/private/admin")
	private.Use(mw.AuthMiddleware())
	private.GET("/token-status", r.controller.TokenStatus)
	private.POST("/revoke", r.controller.Revoke)
}
