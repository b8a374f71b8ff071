package controller

import (
	"booking-gateway/core/controller"
	"booking-gateway/core/errors"
	"booking-gateway/core/params"
	"booking-gateway/modules/notification/dto"
	"booking-gateway/modules/notification/service"

	"github.com/labstack/echo/v4"
)

type NotificationController struct {
	service *service.NotificationService
	controller.BaseController
}

func NewNotificationController(service *service.NotificationService) *NotificationController {
	return &NotificationController{
		service:        service,
		BaseController: controller.NewBaseController(),
	}
}

// List returns the operator's notification log, newest first.
// GET /api/v1/private/notifications
func (c *NotificationController) List(ctx echo.Context) error {
	queryParams := params.NewQueryParams(ctx)
	result, err := c.service.List(ctx.Request().Context(), *queryParams)
	if err != nil {
		return c.InternalServerError(errors.ErrInternalServer, "Failed to get notifications", nil)
	}
	return c.SuccessResponse(ctx, result, "Notifications retrieved successfully")
}

// MarkAsRead marks specific notifications as read.
// PUT /api/v1/private/notifications/mark-read
func (c *NotificationController) MarkAsRead(ctx echo.Context) error {
	req := new(dto.MarkAsReadRequest)
	if err := ctx.Bind(req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid request body", nil)
	}

	if err := c.service.MarkAsRead(ctx.Request().Context(), req.IDs); err != nil {
		return c.InternalServerError(errors.ErrInternalServer, "Failed to mark as read", nil)
	}
	return c.SuccessResponse(ctx, nil, "Marked as read successfully")
}

// CountUnread returns the unread notification count.
// GET /api/v1/private/notifications/unread-count
func (c *NotificationController) CountUnread(ctx echo.Context) error {
	count, err := c.service.CountUnread(ctx.Request().Context())
	if err != nil {
		return c.InternalServerError(errors.ErrInternalServer, "Failed to count unread", nil)
	}
	return c.SuccessResponse(ctx, map[string]int{"count": count}, "Unread count retrieved")
}

// Export uploads the full notification log to object storage.
// POST /api/v1/private/notifications/export
func (c *NotificationController) Export(ctx echo.Context) error {
	result, err := c.service.Export(ctx.Request().Context())
	if err != nil {
		return c.InternalServerError(errors.ErrInternalServer, "Failed to export notifications", nil)
	}
	return c.SuccessResponse(ctx, result, "Export completed")
}
