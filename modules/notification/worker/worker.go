package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"booking-gateway/core/constants"
	"booking-gateway/core/logger"
	"booking-gateway/core/queue"
	"booking-gateway/modules/notification/dto"
	"booking-gateway/modules/notification/entity"
	"booking-gateway/modules/notification/service"

	"github.com/hibiken/asynq"
)

// Handler drains booking-confirmation tasks into the notification log.
type Handler struct {
	notifications *service.NotificationService
}

func NewHandler(notifications *service.NotificationService) *Handler {
	return &Handler{notifications: notifications}
}

func (h *Handler) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(constants.TaskBookingConfirmation, h.HandleBookingConfirmation)
}

func (h *Handler) HandleBookingConfirmation(ctx context.Context, task *asynq.Task) error {
	var payload queue.BookingConfirmationPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal booking confirmation: %w", err)
	}

	req := &dto.CreateNotificationRequest{
		Title:   "New booking",
		Message: fmt.Sprintf("%s (%s – %s)", payload.Summary, payload.StartTime, payload.EndTime),
		Type:    entity.TypeBookingConfirmed,
		Data: map[string]interface{}{
			"reference":  payload.Reference,
			"event_id":   payload.EventID,
			"start_time": payload.StartTime,
			"end_time":   payload.EndTime,
		},
	}
	if err := h.notifications.Create(ctx, req); err != nil {
		logger.Error("NotificationWorker:HandleBookingConfirmation:Error",
			"reference", payload.Reference, "error", err)
		return err
	}

	logger.Info("NotificationWorker:HandleBookingConfirmation:Recorded",
		"reference", payload.Reference, "event_id", payload.EventID)
	return nil
}
