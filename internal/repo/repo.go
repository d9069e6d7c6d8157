package repo

import (
	"context"
	"time"

	"service-marketplace-api/internal/entity"
)

type Diagnostics interface {
	Ping(ctx context.Context) error
}

type Request interface {
	CreateRequest(ctx context.Context, request *entity.Request) error
	GetRequestById(ctx context.Context, id string) (*entity.Request, error)
	// GetRequestByIdForUpdate locks the request until the surrounding transaction ends.
	GetRequestByIdForUpdate(ctx context.Context, id string) (*entity.Request, error)
	SaveRequest(ctx context.Context, request *entity.Request) error
	GetUserRequests(ctx context.Context, ownerId string, pg *entity.PaginationInput) ([]entity.Request, error)
	GetOpenRequests(ctx context.Context, serviceType string, pg *entity.PaginationInput) ([]entity.Request, error)
	GetPendingRequestsWithAcceptedQuote(ctx context.Context) ([]entity.Request, error)
}

type Quote interface {
	CreateQuote(ctx context.Context, quote *entity.Quote) error
	GetQuoteById(ctx context.Context, id string) (*entity.Quote, error)
	// UpdateQuoteStatusIf moves the quote to newStatus only when it currently holds fromStatus.
	UpdateQuoteStatusIf(ctx context.Context, id string, fromStatus string, newStatus string, at time.Time) (bool, error)
	GetProviderQuotes(ctx context.Context, providerId string, pg *entity.PaginationInput) ([]entity.Quote, error)
	GetClientQuotes(ctx context.Context, clientId string, pg *entity.PaginationInput) ([]entity.Quote, error)
	GetRequestQuotes(ctx context.Context, requestId string, pg *entity.PaginationInput) ([]entity.Quote, error)
}

type Project interface {
	CreateProject(ctx context.Context, project *entity.Project) error
	GetProjectById(ctx context.Context, id string) (*entity.Project, error)
	GetProjectByIdForUpdate(ctx context.Context, id string) (*entity.Project, error)
	GetProjectByQuoteId(ctx context.Context, quoteId string) (*entity.Project, error)
	SaveProject(ctx context.Context, project *entity.Project) error
	GetUserProjects(ctx context.Context, userId string, pg *entity.PaginationInput) ([]entity.Project, error)
}

type Invoice interface {
	CreateInvoice(ctx context.Context, invoice *entity.Invoice) error
	GetInvoiceById(ctx context.Context, id string) (*entity.Invoice, error)
	GetInvoiceByIdForUpdate(ctx context.Context, id string) (*entity.Invoice, error)
	SaveInvoice(ctx context.Context, invoice *entity.Invoice) error
	GetProjectInvoices(ctx context.Context, projectId string) ([]entity.Invoice, error)
	GetUserInvoices(ctx context.Context, userId string, pg *entity.PaginationInput) ([]entity.Invoice, error)
	GetInvoicesByStatus(ctx context.Context, status string, pg *entity.PaginationInput) ([]entity.Invoice, error)
	GetInvoicesWithoutDocument(ctx context.Context, pg *entity.PaginationInput) ([]entity.Invoice, error)
}

type Notification interface {
	CreateNotification(ctx context.Context, notification *entity.Notification) error
	GetNotificationById(ctx context.Context, id string) (*entity.Notification, error)
	GetUserNotifications(ctx context.Context, userId string, unreadOnly bool, pg *entity.PaginationInput) ([]entity.Notification, error)
	MarkNotificationRead(ctx context.Context, id string, at time.Time) error
	MarkAllNotificationsRead(ctx context.Context, userId string, at time.Time) (int, error)
}

type User interface {
	CreateUser(ctx context.Context, user *entity.User) error
	GetUserById(ctx context.Context, id string) (*entity.User, error)
	// GetProvidersByServiceType matches the legacy scalar service_type field.
	GetProvidersByServiceType(ctx context.Context, roles []string, serviceType string) ([]entity.User, error)
	// GetProvidersByService matches the services array field.
	GetProvidersByService(ctx context.Context, roles []string, service string) ([]entity.User, error)
	AddProviderRating(ctx context.Context, rating *entity.ProviderRating) error
	UpdateUserRating(ctx context.Context, userId string, average float64, count int) error
}

type Payment interface {
	CreatePayment(ctx context.Context, payment *entity.Payment) error
	GetPaymentById(ctx context.Context, id string) (*entity.Payment, error)
	SavePayment(ctx context.Context, payment *entity.Payment) error
}

// Transactor runs fn as one unit of work: every write made through the
// repositories handed to fn is committed together or not at all.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(repos *Repositories) error) error
}

type Repositories struct {
	Diagnostics
	Request
	Quote
	Project
	Invoice
	Notification
	User
	Payment
	Transactor
}
