package service

import (
	"context"
	"log/slog"
	"time"

	"service-marketplace-api/internal/entity"
	"service-marketplace-api/internal/realtime"
	"service-marketplace-api/internal/repo"
)

type Diagnostics interface {
	Ping(ctx context.Context) error
}

type Request interface {
	CreateRequest(ctx context.Context, input *entity.CreateRequestInput) (*entity.RequestOutputModel, error)
	GetRequestById(ctx context.Context, requestId string) (*entity.RequestOutputModel, error)
	UpdateRequest(ctx context.Context, requestId string, input *entity.UpdateRequestInput) (*entity.RequestOutputModel, error)

	CancelRequest(ctx context.Context, requestId string) (*entity.RequestOutputModel, error)
	CompleteRequest(ctx context.Context, requestId string) (*entity.RequestOutputModel, error)
	RateRequest(ctx context.Context, requestId string, rating int, review string) (*entity.RequestOutputModel, error)

	ListUserRequests(ctx context.Context, pg *entity.PaginationInput) ([]entity.RequestOutputModel, error)
	ListOpenRequests(ctx context.Context, serviceType string, pg *entity.PaginationInput) ([]entity.RequestOutputModel, error)
	SubscribeToUserRequests(ctx context.Context, fn func([]entity.RequestOutputModel)) (func(), error)
}

type Quote interface {
	SendQuote(ctx context.Context, input *entity.CreateQuoteInput) (*entity.QuoteOutputModel, error)
	GetQuoteById(ctx context.Context, quoteId string) (*entity.QuoteOutputModel, error)

	AcceptQuote(ctx context.Context, quoteId string) (*entity.AcceptQuoteOutputModel, error)
	RejectQuote(ctx context.Context, quoteId string) (*entity.QuoteOutputModel, error)
	WithdrawQuote(ctx context.Context, quoteId string) (*entity.QuoteOutputModel, error)

	GetQuotesForUser(ctx context.Context, pg *entity.PaginationInput) ([]entity.QuoteOutputModel, error)
	ListRequestQuotes(ctx context.Context, requestId string, pg *entity.PaginationInput) ([]entity.QuoteOutputModel, error)
	SubscribeToProviderQuotes(ctx context.Context, fn func([]entity.QuoteOutputModel)) (func(), error)
	SubscribeToClientQuotes(ctx context.Context, fn func([]entity.QuoteOutputModel)) (func(), error)
}

type Project interface {
	GetProjectById(ctx context.Context, projectId string) (*entity.ProjectOutputModel, error)
	ListUserProjects(ctx context.Context, pg *entity.PaginationInput) ([]entity.ProjectOutputModel, error)

	UpdateProjectProgress(ctx context.Context, projectId string, progress int, updates *entity.ProjectUpdatesInput) (*entity.ProjectOutputModel, error)
	AddProjectComment(ctx context.Context, projectId string, text string) (*entity.ProjectOutputModel, error)
	AddProjectPhoto(ctx context.Context, projectId string, photo entity.Photo) (*entity.ProjectOutputModel, error)

	SubscribeToUserProjects(ctx context.Context, fn func([]entity.ProjectOutputModel)) (func(), error)
}

type Invoice interface {
	GenerateInvoice(ctx context.Context, projectId string, overrides *entity.InvoiceOverridesInput) (*entity.InvoiceOutputModel, error)
	RegenerateInvoiceDocument(ctx context.Context, invoiceId string) (*entity.InvoiceOutputModel, error)
	MarkInvoicePaid(ctx context.Context, invoiceId string) (*entity.InvoiceOutputModel, error)

	GetInvoiceById(ctx context.Context, invoiceId string) (*entity.InvoiceOutputModel, error)
	ListUserInvoices(ctx context.Context, pg *entity.PaginationInput) ([]entity.InvoiceOutputModel, error)
	SubscribeToUserInvoices(ctx context.Context, fn func([]entity.InvoiceOutputModel)) (func(), error)
}

type Notification interface {
	SendNotification(ctx context.Context, userId string, kind string, params map[string]string) (*entity.NotificationOutputModel, error)

	ListNotifications(ctx context.Context, unreadOnly bool, pg *entity.PaginationInput) ([]entity.NotificationOutputModel, error)
	MarkNotificationRead(ctx context.Context, notificationId string) (*entity.NotificationOutputModel, error)
	MarkAllNotificationsRead(ctx context.Context) (int, error)
	SubscribeToUserNotifications(ctx context.Context, fn func([]entity.NotificationOutputModel)) (func(), error)
}

type Matching interface {
	GetMatchingProviders(ctx context.Context, serviceType string, area string) []entity.ProviderOutputModel
	BroadcastRequest(ctx context.Context, requestId string, area string) (int, error)
}

type Checkout interface {
	CreatePaymentIntent(ctx context.Context, quoteId string, methodRef string) (*entity.PaymentIntentOutputModel, error)
	HandlePaymentSuccess(ctx context.Context, input *entity.PaymentResultInput) (*entity.CheckoutOutputModel, error)
}

type Reconcile interface {
	Reconcile(ctx context.Context) (*entity.ReconcileReport, error)
}

// InvoiceRenderer lays an invoice out as a PDF document.
type InvoiceRenderer interface {
	Render(doc *entity.InvoiceDocument) ([]byte, error)
}

// BlobStore stores a document and returns the URL it can be fetched from.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

type PaymentGateway interface {
	CreateIntent(ctx context.Context, params entity.PaymentIntentParams) (*entity.PaymentIntent, error)
}

type Services struct {
	Diagnostics  Diagnostics
	Request      Request
	Quote        Quote
	Project      Project
	Invoice      Invoice
	Notification Notification
	Matching     Matching
	Checkout     Checkout
	Reconcile    Reconcile
}

type Dependencies struct {
	Repos    *repo.Repositories
	Changes  realtime.Subscriber
	Renderer InvoiceRenderer
	Blob     BlobStore
	Gateway  PaymentGateway
	Logger   *slog.Logger
	Now      func() time.Time
}

func NewServices(deps Dependencies) *Services {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Now == nil {
		deps.Now = func() time.Time { return time.Now().UTC() }
	}

	notifications := NewNotificationService(deps)
	notify := newNotifier(notifications, deps.Logger)
	quotes := NewQuoteService(deps, notify)
	invoices := NewInvoiceService(deps, notify)

	return &Services{
		Diagnostics:  NewDiagnosticsService(deps.Repos),
		Request:      NewRequestService(deps, notify),
		Quote:        quotes,
		Project:      NewProjectService(deps, notify),
		Invoice:      invoices,
		Notification: notifications,
		Matching:     NewMatchingService(deps, notify),
		Checkout:     NewCheckoutService(deps, quotes, invoices, notify),
		Reconcile:    NewReconcileService(deps, quotes, invoices),
	}
}
