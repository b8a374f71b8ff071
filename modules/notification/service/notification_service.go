package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	coreEntity "booking-gateway/core/entity"
	"booking-gateway/core/logger"
	"booking-gateway/core/params"
	"booking-gateway/core/storage"
	"booking-gateway/modules/notification/dto"
	"booking-gateway/modules/notification/entity"
	"booking-gateway/modules/notification/repository"
)

type NotificationService struct {
	repo     *repository.NotificationRepository
	uploader *storage.Uploader
}

func NewNotificationService(repo *repository.NotificationRepository, uploader *storage.Uploader) *NotificationService {
	return &NotificationService{repo: repo, uploader: uploader}
}

func (s *NotificationService) Create(ctx context.Context, req *dto.CreateNotificationRequest) error {
	notif := &entity.Notification{
		Title:   req.Title,
		Message: req.Message,
		Type:    req.Type,
		Data:    entity.JSONB(req.Data),
		IsRead:  false,
		BaseEntity: coreEntity.BaseEntity{
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		},
	}
	return s.repo.Create(ctx, notif)
}

func (s *NotificationService) List(ctx context.Context, queryParams params.QueryParams) (*entity.PaginatedNotificationEntity, error) {
	return s.repo.List(ctx, queryParams)
}

func (s *NotificationService) MarkAsRead(ctx context.Context, ids []string) error {
	return s.repo.MarkAsRead(ctx, ids)
}

func (s *NotificationService) CountUnread(ctx context.Context) (int, error) {
	return s.repo.CountUnread(ctx)
}

// Export uploads the full notification log to the configured bucket as JSON
// and returns its location.
func (s *NotificationService) Export(ctx context.Context) (*dto.ExportResponse, error) {
	if s.uploader == nil {
		return nil, fmt.Errorf("export storage is not configured")
	}

	notifications, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	body, err := json.MarshalIndent(notifications, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal export: %w", err)
	}

	key := fmt.Sprintf("exports/notifications-%s.json", time.Now().UTC().Format("20060102-150405"))
	location, err := s.uploader.Upload(ctx, key, body, "application/json")
	if err != nil {
		return nil, err
	}

	logger.Info("NotificationService:Export:Done", "location", location, "count", len(notifications))
	return &dto.ExportResponse{Location: location, Count: len(notifications)}, nil
}
