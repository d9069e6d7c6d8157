package service

import (
	"context"
	"log/slog"

	"service-marketplace-api/internal/entity"
)

type dispatcher interface {
	SendNotification(ctx context.Context, userId string, kind string, params map[string]string) (*entity.NotificationOutputModel, error)
}

// notifier sends notifications on behalf of business operations. A failed
// notification is logged and never reported back to the operation.
type notifier struct {
	dispatcher dispatcher
	logger     *slog.Logger
}

func newNotifier(d dispatcher, logger *slog.Logger) *notifier {
	return &notifier{dispatcher: d, logger: logger}
}

// notify reports whether the notification was stored.
func (n *notifier) notify(ctx context.Context, userId string, kind string, params map[string]string) bool {
	// the triggering operation already committed; a caller hanging up must not drop the notification
	ctx = context.WithoutCancel(ctx)

	if _, err := n.dispatcher.SendNotification(ctx, userId, kind, params); err != nil {
		n.logger.Warn("notification not sent", "kind", kind, "user", userId, "error", err)
		return false
	}

	return true
}
