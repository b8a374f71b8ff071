package repository

import (
	"context"

	"booking-gateway/core/database"
	"booking-gateway/core/logger"
	"booking-gateway/core/params"
	"booking-gateway/modules/notification/entity"

	"github.com/jmoiron/sqlx"
)

type NotificationRepository struct {
	db database.Database
}

func NewNotificationRepository(db database.Database) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, notification *entity.Notification) error {
	query := `
		INSERT INTO notifications (title, message, type, data, is_read, created_at, updated_at)
		VALUES (:title, :message, :type, :data, :is_read, :created_at, :updated_at)
		RETURNING id
	`
	rows, err := r.db.NamedQueryContext(ctx, query, notification)
	if err != nil {
		logger.Error("NotificationRepository:Create:Error", "error", err)
		return err
	}
	defer rows.Close()

	if rows.Next() {
		return rows.Scan(&notification.ID)
	}
	return nil
}

func (r *NotificationRepository) List(ctx context.Context, queryParams params.QueryParams) (*entity.PaginatedNotificationEntity, error) {
	offset := (queryParams.PageNumber - 1) * queryParams.PageSize

	var totalItems int
	err := r.db.GetContext(ctx, &totalItems, `SELECT COUNT(*) FROM notifications`)
	if err != nil {
		logger.Error("NotificationRepository:List:Count:Error", "error", err)
		return nil, err
	}

	query := `
		SELECT * FROM notifications
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	var notifications []entity.Notification
	err = r.db.SelectContext(ctx, &notifications, query, queryParams.PageSize, offset)
	if err != nil {
		logger.Error("NotificationRepository:List:Select:Error", "error", err)
		return nil, err
	}

	return &entity.PaginatedNotificationEntity{
		Items:      notifications,
		TotalItems: totalItems,
		PageNumber: queryParams.PageNumber,
		PageSize:   queryParams.PageSize,
	}, nil
}

// ListAll returns every row for the export path, newest first.
func (r *NotificationRepository) ListAll(ctx context.Context) ([]entity.Notification, error) {
	var notifications []entity.Notification
	err := r.db.SelectContext(ctx, &notifications,
		`SELECT * FROM notifications ORDER BY created_at DESC`)
	if err != nil {
		logger.Error("NotificationRepository:ListAll:Error", "error", err)
		return nil, err
	}
	return notifications, nil
}

func (r *NotificationRepository) MarkAsRead(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	query, args, err := sqlx.In(`UPDATE notifications SET is_read = true WHERE id IN (?)`, ids)
	if err != nil {
		return err
	}

	query = r.db.SQLx().Rebind(query)
	if err := r.db.ExecContext(ctx, query, args...); err != nil {
		logger.Error("NotificationRepository:MarkAsRead:Error", "error", err)
		return err
	}
	return nil
}

func (r *NotificationRepository) CountUnread(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM notifications WHERE is_read = false`)
	if err != nil {
		logger.Error("NotificationRepository:CountUnread:Error", "error", err)
		return 0, err
	}
	return count, nil
}
