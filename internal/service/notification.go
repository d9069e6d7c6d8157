package service

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"service-marketplace-api/internal/entity"
	"service-marketplace-api/internal/realtime"
	"service-marketplace-api/internal/repo"

	"github.com/google/uuid"
)

// Notification kinds
const (
	KindRequestCreated      = "REQUEST_CREATED"
	KindNewRequestAvailable = "NEW_REQUEST_AVAILABLE"
	KindNewQuote            = "NEW_QUOTE"
	KindQuoteAccepted       = "QUOTE_ACCEPTED"
	KindInvoiceGenerated    = "INVOICE_GENERATED"
	KindPaymentCompleted    = "PAYMENT_COMPLETED"
	KindRequestUpdated      = "REQUEST_UPDATED"
	KindNewMessage          = "NEW_MESSAGE"
	KindPaymentReceived     = "PAYMENT_RECEIVED"
)

type template struct {
	title       string
	body        string
	clickAction string
}

var templates = map[string]template{
	KindRequestCreated: {
		title:       "Request published",
		body:        "Your request \"{requestTitle}\" is online, {providerCount} providers were notified",
		clickAction: "/requests/{requestId}",
	},
	KindNewRequestAvailable: {
		title:       "New request available",
		body:        "{requestTitle} ({serviceType}) in {area}",
		clickAction: "/provider/requests/{requestId}",
	},
	KindNewQuote: {
		title:       "New quote received",
		body:        "{providerName} quoted {amount} {currency} for \"{requestTitle}\"",
		clickAction: "/requests/{requestId}/quotes/{quoteId}",
	},
	KindQuoteAccepted: {
		title:       "Quote accepted",
		body:        "Your quote of {amount} {currency} for \"{requestTitle}\" was accepted",
		clickAction: "/provider/projects/{projectId}",
	},
	KindInvoiceGenerated: {
		title:       "New invoice",
		body:        "{providerName} sent you an invoice of {amount} {currency} for \"{projectTitle}\"",
		clickAction: "/invoices/{invoiceId}",
	},
	KindPaymentCompleted: {
		title:       "Invoice paid",
		body:        "The invoice of {amount} {currency} for \"{projectTitle}\" was paid",
		clickAction: "/provider/invoices/{invoiceId}",
	},
	KindRequestUpdated: {
		title:       "Request updated",
		body:        "\"{requestTitle}\" is now {status}",
		clickAction: "/requests/{requestId}",
	},
	KindNewMessage: {
		title:       "New message from {senderName}",
		body:        "{message}",
		clickAction: "/messages/{convId}",
	},
	KindPaymentReceived: {
		title:       "Payment received",
		body:        "We received your payment of {amount} {currency} for \"{requestTitle}\"",
		clickAction: "/invoices/{invoiceId}",
	},
}

var placeholder = regexp.MustCompile(`\{(\w+)\}`)

// braces are dropped from values so rendered text never carries a brace
var braces = strings.NewReplacer("{", "", "}", "")

// render substitutes every {key} occurrence. Keys missing from params render empty.
func render(s string, params map[string]string) string {
	return placeholder.ReplaceAllStringFunc(s, func(m string) string {
		return braces.Replace(params[m[1:len(m)-1]])
	})
}

type NotificationService struct {
	notificationRepo repo.Notification
	changes          realtime.Subscriber
	logger           *slog.Logger
	now              func() time.Time
}

func NewNotificationService(deps Dependencies) *NotificationService {
	return &NotificationService{
		notificationRepo: deps.Repos.Notification,
		changes:          deps.Changes,
		logger:           deps.Logger,
		now:              deps.Now,
	}
}

// SendNotification renders kind for userId and stores it unread. Delivery
// to devices happens separately, triggered by the stored record.
func (s *NotificationService) SendNotification(ctx context.Context, userId string, kind string, params map[string]string) (*entity.NotificationOutputModel, error) {
	tmpl, ok := templates[kind]
	if !ok {
		return nil, ErrUnknownNotificationKind
	}
	recipient, err := uuid.Parse(userId)
	if err != nil {
		return nil, ErrMissingRecipient
	}

	data := make(entity.StringMap, len(params))
	for k, v := range params {
		data[k] = v
	}

	notification := &entity.Notification{
		Id:          uuid.New(),
		UserId:      recipient,
		Type:        kind,
		Title:       render(tmpl.title, params),
		Body:        render(tmpl.body, params),
		Data:        data,
		ClickAction: render(tmpl.clickAction, params),
		Read:        false,
		CreatedAt:   s.now(),
	}
	if err := s.notificationRepo.CreateNotification(ctx, notification); err != nil {
		return nil, err
	}

	return mapNotification(notification), nil
}

func (s *NotificationService) ListNotifications(ctx context.Context, unreadOnly bool, pg *entity.PaginationInput) ([]entity.NotificationOutputModel, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}

	notifications, err := s.notificationRepo.GetUserNotifications(ctx, actor.UserId, unreadOnly, pg)
	if err != nil {
		return nil, err
	}

	return mapNotifications(notifications), nil
}

func (s *NotificationService) MarkNotificationRead(ctx context.Context, notificationId string) (*entity.NotificationOutputModel, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}

	notification, err := s.notificationRepo.GetNotificationById(ctx, notificationId)
	if err != nil {
		return nil, orNotFound(err, ErrNotificationNotFound)
	}
	if !actor.Is(notification.UserId.String()) {
		return nil, ErrNotNotificationUser
	}

	if err := s.notificationRepo.MarkNotificationRead(ctx, notificationId, s.now()); err != nil {
		return nil, orNotFound(err, ErrNotificationNotFound)
	}

	notification, err = s.notificationRepo.GetNotificationById(ctx, notificationId)
	if err != nil {
		return nil, err
	}

	return mapNotification(notification), nil
}

func (s *NotificationService) MarkAllNotificationsRead(ctx context.Context) (int, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return 0, err
	}

	return s.notificationRepo.MarkAllNotificationsRead(ctx, actor.UserId, s.now())
}

func (s *NotificationService) SubscribeToUserNotifications(ctx context.Context, fn func([]entity.NotificationOutputModel)) (func(), error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}

	return subscribe(ctx, s.changes, s.logger, realtime.Notifications, actor.UserId,
		func(ctx context.Context) ([]entity.NotificationOutputModel, error) {
			notifications, err := s.notificationRepo.GetUserNotifications(ctx, actor.UserId, false, nil)
			if err != nil {
				return nil, err
			}
			return mapNotifications(notifications), nil
		}, fn)
}
