package notification

import (
	"booking-gateway/core/database"
	"booking-gateway/core/middleware"
	"booking-gateway/core/storage"
	"booking-gateway/modules/notification/controller"
	"booking-gateway/modules/notification/repository"
	"booking-gateway/modules/notification/router"
	"booking-gateway/modules/notification/service"

	"github.com/labstack/echo/v4"
)

// Init wires the notification module and returns the service so the worker
// can write to it.
func Init(e *echo.Echo, db database.Database, uploader *storage.Uploader) *service.NotificationService {
	repo := repository.NewNotificationRepository(db)
	svc := service.NewNotificationService(repo, uploader)

	ctrl := controller.NewNotificationController(svc)
	mw := middleware.NewMiddleware()
	router.NewNotificationRouter(ctrl).Setup(e, mw)

	return svc
}
