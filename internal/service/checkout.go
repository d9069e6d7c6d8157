package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"service-marketplace-api/internal/common"
	"service-marketplace-api/internal/entity"
	"service-marketplace-api/internal/repo"
	"service-marketplace-api/internal/repo/repo_errors"

	"github.com/shopspring/decimal"
)

type CheckoutService struct {
	repos    *repo.Repositories
	gateway  PaymentGateway
	quotes   *QuoteService
	invoices *InvoiceService
	notify   *notifier
	logger   *slog.Logger
	now      func() time.Time
}

func NewCheckoutService(deps Dependencies, quotes *QuoteService, invoices *InvoiceService, notify *notifier) *CheckoutService {
	return &CheckoutService{
		repos:    deps.Repos,
		gateway:  deps.Gateway,
		quotes:   quotes,
		invoices: invoices,
		notify:   notify,
		logger:   deps.Logger,
		now:      deps.Now,
	}
}

func (s *CheckoutService) CreatePaymentIntent(ctx context.Context, quoteId string, methodRef string) (*entity.PaymentIntentOutputModel, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if s.gateway == nil {
		return nil, ErrNoPaymentGateway
	}

	quote, err := s.repos.GetQuoteById(ctx, quoteId)
	if err != nil {
		return nil, orNotFound(err, ErrQuoteNotFound)
	}
	if !actor.Is(quote.ClientId.String()) {
		return nil, ErrNotRequestOwner
	}
	if quote.Status != common.QuotePending && quote.Status != common.QuoteAccepted {
		return nil, ErrQuoteNotPayable
	}

	params := entity.PaymentIntentParams{
		QuoteId:   quote.Id.String(),
		Amount:    minorUnits(quote.Amount),
		Currency:  quote.Currency,
		MethodRef: methodRef,
	}
	intent, err := s.gateway.CreateIntent(ctx, params)
	if err != nil {
		return nil, err
	}

	return &entity.PaymentIntentOutputModel{
		PaymentId:    intent.Id,
		ClientSecret: intent.ClientSecret,
		Amount:       params.Amount,
		Currency:     params.Currency,
		Simulated:    intent.Simulated,
	}, nil
}

// HandlePaymentSuccess runs the purchase chain for a confirmed payment:
// accept the quote, invoice the project, mark the invoice paid. The payment
// id is stored in the same transaction that pays the invoice, so a retried
// callback either finishes an interrupted chain or returns the recorded
// result. A different payment for a project that is already settled fails
// with ErrProjectAlreadyPaid and is not recorded, leaving it to be refunded.
func (s *CheckoutService) HandlePaymentSuccess(ctx context.Context, input *entity.PaymentResultInput) (*entity.CheckoutOutputModel, error) {
	if _, err := actorFrom(ctx); err != nil {
		return nil, err
	}
	if input.Id == "" {
		return nil, ErrMissingPaymentId
	}

	if out, err := s.replay(ctx, input.Id); out != nil || err != nil {
		return out, err
	}

	if input.Status != common.PaymentSucceeded {
		return nil, ErrPaymentNotSucceeded
	}
	quote, err := s.repos.GetQuoteById(ctx, input.QuoteId)
	if err != nil {
		return nil, orNotFound(err, ErrQuoteNotFound)
	}
	if input.Amount != minorUnits(quote.Amount) {
		return nil, ErrPaymentMismatch
	}
	if quote.Status == common.QuoteAccepted {
		if err := s.ensureUnsettled(ctx, quote.Id.String()); err != nil {
			return nil, err
		}
	}

	accepted, err := s.quotes.accept(ctx, input.QuoteId)
	if err != nil {
		return nil, err
	}

	invoice, _, err := s.invoices.invoiceForCheckout(ctx, accepted.project.Id.String(), quote.Amount, quote.Currency)
	if err != nil {
		return nil, err
	}
	if invoice.InvoiceUrl == "" {
		if err := s.invoices.attachDocument(ctx, invoice); err != nil {
			// the reconciliation job retries missing documents
			s.logger.Warn("invoice document not stored", "invoice", invoice.Id, "error", err)
		}
	}

	record := &entity.Payment{
		Id:        input.Id,
		QuoteId:   quote.Id,
		Amount:    decimal.New(input.Amount, -2),
		Status:    input.Status,
		Simulated: input.Simulated,
		CreatedAt: s.now(),
	}
	paid, err := s.invoices.markPaid(ctx, invoice.Id.String(), record)
	if err != nil {
		if errors.Is(err, repo_errors.ErrAlreadyExists) {
			return s.replay(ctx, input.Id)
		}
		if errors.Is(err, ErrProjectAlreadyPaid) {
			s.logger.Warn("payment for settled project", "payment", input.Id, "quote", quote.Id)
		}
		return nil, err
	}

	s.notify.notify(ctx, quote.ClientId.String(), KindPaymentReceived, map[string]string{
		"amount":       record.Amount.StringFixed(2),
		"currency":     paid.invoice.Currency,
		"requestTitle": accepted.request.Title,
		"invoiceId":    paid.invoice.Id.String(),
		"paymentId":    record.Id,
	})

	return &entity.CheckoutOutputModel{
		PaymentId: record.Id,
		Quote:     mapQuote(accepted.quote),
		Invoice:   mapInvoice(paid.invoice),
	}, nil
}

// ensureUnsettled fails with ErrProjectAlreadyPaid when the project of an
// accepted quote already has a paid invoice.
func (s *CheckoutService) ensureUnsettled(ctx context.Context, quoteId string) error {
	project, err := s.repos.GetProjectByQuoteId(ctx, quoteId)
	if err != nil {
		if errors.Is(err, repo_errors.ErrNotFound) {
			return nil
		}
		return err
	}

	invoices, err := s.repos.GetProjectInvoices(ctx, project.Id.String())
	if err != nil {
		return err
	}
	for _, i := range invoices {
		if i.Status == common.InvoicePaid {
			return ErrProjectAlreadyPaid
		}
	}

	return nil
}

// replay returns the stored result of an already processed payment, or nil when the id is new.
func (s *CheckoutService) replay(ctx context.Context, paymentId string) (*entity.CheckoutOutputModel, error) {
	record, err := s.repos.GetPaymentById(ctx, paymentId)
	if err != nil {
		if errors.Is(err, repo_errors.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	out := &entity.CheckoutOutputModel{PaymentId: record.Id, Replayed: true}
	if quote, err := s.repos.GetQuoteById(ctx, record.QuoteId.String()); err == nil {
		out.Quote = mapQuote(quote)
	}
	if record.InvoiceId.Valid {
		if invoice, err := s.repos.GetInvoiceById(ctx, record.InvoiceId.UUID.String()); err == nil {
			out.Invoice = mapInvoice(invoice)
		}
	}

	return out, nil
}
