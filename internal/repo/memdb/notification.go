package memdb

import (
	"context"
	"time"

	"service-marketplace-api/internal/entity"
	"service-marketplace-api/internal/realtime"
	"service-marketplace-api/internal/repo/repo_errors"
)

type notificationRepo struct {
	*session
}

func notificationChange(n entity.Notification) realtime.Change {
	return realtime.Change{
		Collection: realtime.Notifications,
		DocumentId: n.Id.String(),
		UserIds:    []string{n.UserId.String()},
	}
}

func (r *notificationRepo) CreateNotification(ctx context.Context, notification *entity.Notification) error {
	return r.write(func(t *tables) ([]realtime.Change, error) {
		id := notification.Id.String()
		if _, ok := t.notifications[id]; ok {
			return nil, repo_errors.ErrAlreadyExists
		}
		t.notifications[id] = cloneNotification(*notification)

		return []realtime.Change{notificationChange(*notification)}, nil
	})
}

func (r *notificationRepo) GetNotificationById(ctx context.Context, id string) (*entity.Notification, error) {
	var notification entity.Notification
	err := r.read(func(t *tables) error {
		stored, ok := t.notifications[id]
		if !ok {
			return repo_errors.ErrNotFound
		}
		notification = cloneNotification(stored)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &notification, nil
}

func (r *notificationRepo) GetUserNotifications(ctx context.Context, userId string, unreadOnly bool, pg *entity.PaginationInput) ([]entity.Notification, error) {
	notifications := make([]entity.Notification, 0)
	_ = r.read(func(t *tables) error {
		for _, n := range t.notifications {
			if n.UserId.String() == userId && (!unreadOnly || !n.Read) {
				notifications = append(notifications, cloneNotification(n))
			}
		}

		return nil
	})
	sortNewestFirst(notifications, func(n entity.Notification) (int64, string) {
		return n.CreatedAt.UnixNano(), n.Id.String()
	})

	return paginate(notifications, pg), nil
}

func (r *notificationRepo) MarkNotificationRead(ctx context.Context, id string, at time.Time) error {
	return r.write(func(t *tables) ([]realtime.Change, error) {
		n, ok := t.notifications[id]
		if !ok {
			return nil, repo_errors.ErrNotFound
		}
		if n.Read {
			return nil, nil
		}
		n.Read = true
		n.ReadAt = &at
		t.notifications[id] = n

		return []realtime.Change{notificationChange(n)}, nil
	})
}

func (r *notificationRepo) MarkAllNotificationsRead(ctx context.Context, userId string, at time.Time) (int, error) {
	marked := 0
	err := r.write(func(t *tables) ([]realtime.Change, error) {
		changes := make([]realtime.Change, 0)
		for id, n := range t.notifications {
			if n.UserId.String() != userId || n.Read {
				continue
			}
			n.Read = true
			readAt := at
			n.ReadAt = &readAt
			t.notifications[id] = n
			marked++
			changes = append(changes, notificationChange(n))
		}

		return changes, nil
	})

	return marked, err
}
