package auth

import (
	"booking-gateway/core/cache"
	"booking-gateway/core/database"
	"booking-gateway/core/middleware"
	"booking-gateway/modules/auth/controller"
	"booking-gateway/modules/auth/repository"
	"booking-gateway/modules/auth/router"
	"booking-gateway/modules/auth/service"

	"github.com/labstack/echo/v4"
)

// Init wires the auth module and returns the OAuth service so other modules
// can use it as their access-token source.
func Init(e *echo.Echo, db database.Database, cacheClient cache.Cache) *service.OAuthService {
	repo := repository.NewCredentialRepository(db)
	svc := service.NewOAuthService(repo, cacheClient)

	ctrl := controller.NewAuthController(svc)
	mw := middleware.NewMiddleware()
	router.NewAuthRouter(ctrl).Setup(e, mw)

	return svc
}
