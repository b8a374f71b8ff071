package queue

import (
	"encoding/json"
	"fmt"

	"booking-gateway/core/config"
	"booking-gateway/core/constants"
	"booking-gateway/core/logger"

	"github.com/hibiken/asynq"
)

// BookingConfirmationPayload is what the worker needs to record the booking
// for the operator. Visitor contact details stay in the calendar event, not
// in the queue.
type BookingConfirmationPayload struct {
	Reference string `json:"reference"`
	EventID   string `json:"event_id"`
	Summary   string `json:"summary"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// Enqueuer is the producer side. Services depend on this rather than on
// asynq directly so tests can capture enqueued tasks.
type Enqueuer interface {
	EnqueueBookingConfirmation(payload *BookingConfirmationPayload) error
	Close() error
}

type client struct {
	asynq *asynq.Client
}

func NewClient(cfg config.RedisConfig) Enqueuer {
	return &client{
		asynq: asynq.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
	}
}

func (c *client) EnqueueBookingConfirmation(payload *BookingConfirmationPayload) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal booking confirmation: %w", err)
	}

	// MaxRetry 0: booking creation is non-idempotent and the event already
	// exists by the time this is enqueued; a lost notification is recoverable
	// from the calendar itself.
	task := asynq.NewTask(constants.TaskBookingConfirmation, raw, asynq.MaxRetry(0))
	info, err := c.asynq.Enqueue(task, asynq.Queue(constants.QueueDefault))
	if err != nil {
		return err
	}

	logger.Info("Queue:EnqueueBookingConfirmation", "task_id", info.ID, "reference", payload.Reference)
	return nil
}

func (c *client) Close() error {
	return c.asynq.Close()
}

// NewServer builds the worker that drains the booking-confirmation queue.
func NewServer(cfg config.RedisConfig) *asynq.Server {
	return asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		},
		asynq.Config{
			Concurrency: 5,
			Queues:      map[string]int{constants.QueueDefault: 1},
		},
	)
}
