package pgdb

import (
	"context"
	"time"

	"service-marketplace-api/internal/entity"
)

type NotificationRepo struct {
	*conn
}

var notificationColumns = []string{
	"id", "user_id", "type", "title", "body", "data", "click_action", "read", "created_at", "read_at",
}

func scanNotification(row rowScanner) (*entity.Notification, error) {
	var n entity.Notification
	err := row.Scan(&n.Id, &n.UserId, &n.Type, &n.Title, &n.Body, &n.Data, &n.ClickAction, &n.Read,
		&n.CreatedAt, &n.ReadAt)
	if err != nil {
		return nil, err
	}

	return &n, nil
}

func (r *NotificationRepo) CreateNotification(ctx context.Context, notification *entity.Notification) error {
	sqlReq, args, _ := r.SqlBuilder.
		Insert("notifications").
		Columns(notificationColumns...).
		Values(notification.Id, notification.UserId, notification.Type, notification.Title, notification.Body,
			notification.Data, notification.ClickAction, notification.Read, notification.CreatedAt, notification.ReadAt).
		ToSql()

	_, err := r.db().ExecContext(ctx, sqlReq, args...)

	return uniqueViolation(err)
}

func (r *NotificationRepo) GetNotificationById(ctx context.Context, id string) (*entity.Notification, error) {
	uuidForm, err := parseId(id)
	if err != nil {
		return nil, err
	}

	sqlReq, args, _ := r.SqlBuilder.
		Select(notificationColumns...).
		From("notifications").
		Where("id = ?", uuidForm).
		ToSql()

	notification, err := scanNotification(r.db().QueryRowContext(ctx, sqlReq, args...))
	if err != nil {
		return nil, notFound(err)
	}

	return notification, nil
}

func (r *NotificationRepo) GetUserNotifications(ctx context.Context, userId string, unreadOnly bool, pg *entity.PaginationInput) ([]entity.Notification, error) {
	uuidForm, err := parseId(userId)
	if err != nil {
		return make([]entity.Notification, 0), nil
	}

	builder := r.SqlBuilder.
		Select(notificationColumns...).
		From("notifications").
		Where("user_id = ?", uuidForm).
		OrderBy("created_at DESC", "id DESC")
	if unreadOnly {
		builder = builder.Where("read = false")
	}
	sqlReq, args, _ := paginate(builder, pg).ToSql()

	rows, err := r.db().QueryContext(ctx, sqlReq, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notifications := make([]entity.Notification, 0)
	for rows.Next() {
		notification, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, *notification)
	}

	return notifications, rows.Err()
}

func (r *NotificationRepo) MarkNotificationRead(ctx context.Context, id string, at time.Time) error {
	uuidForm, err := parseId(id)
	if err != nil {
		return err
	}

	sqlReq, args, _ := r.SqlBuilder.
		Update("notifications").
		Set("read", true).
		Set("read_at", at).
		Where("id = ?", uuidForm).
		Where("read = false").
		ToSql()

	res, err := r.db().ExecContext(ctx, sqlReq, args...)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil || n == 1 {
		return err
	}

	// already read, or missing
	_, err = r.GetNotificationById(ctx, id)

	return err
}

func (r *NotificationRepo) MarkAllNotificationsRead(ctx context.Context, userId string, at time.Time) (int, error) {
	uuidForm, err := parseId(userId)
	if err != nil {
		return 0, nil
	}

	sqlReq, args, _ := r.SqlBuilder.
		Update("notifications").
		Set("read", true).
		Set("read_at", at).
		Where("user_id = ?", uuidForm).
		Where("read = false").
		ToSql()

	res, err := r.db().ExecContext(ctx, sqlReq, args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()

	return int(n), err
}
