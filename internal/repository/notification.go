package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/quickmart/pos-server/internal/model"
)

type NotificationRepository interface {
	Create(ctx context.Context, params model.CreateNotificationParams) (*model.Notification, error)
	// ListActive returns undismissed, unexpired notifications visible to the
	// given audience, newest first.
	ListActive(ctx context.Context, audience model.NotificationAudience, limit, offset int) ([]model.Notification, error)
	Dismiss(ctx context.Context, id string) (bool, error)
	DeleteExpired(ctx context.Context) (int64, error)
}

type notificationRepo struct {
	db *sqlx.DB
}

func NewNotificationRepository(db *sqlx.DB) NotificationRepository {
	return &notificationRepo{db: db}
}

func (r *notificationRepo) Create(ctx context.Context, params model.CreateNotificationParams) (*model.Notification, error) {
	var n model.Notification
	err := r.db.GetContext(ctx, &n, `
		INSERT INTO notifications (id, title, message, severity, audience, display_duration_ms, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING *
	`, params.ID, params.Title, params.Message, params.Severity, params.Audience,
		params.DisplayDurationMs, params.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *notificationRepo) ListActive(ctx context.Context, audience model.NotificationAudience, limit, offset int) ([]model.Notification, error) {
	var notifications []model.Notification
	err := r.db.SelectContext(ctx, &notifications, `
		SELECT * FROM notifications
		WHERE dismissed = FALSE
		AND expires_at > NOW()
		AND audience IN ('all', $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, audience, limit, offset)
	return notifications, err
}

func (r *notificationRepo) Dismiss(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE notifications SET dismissed = TRUE
		WHERE id = $1 AND dismissed = FALSE
	`, id)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *notificationRepo) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM notifications
		WHERE expires_at < NOW() OR dismissed = TRUE
	`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
