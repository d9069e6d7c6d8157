package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"service-marketplace-api/internal/common"
	"service-marketplace-api/internal/entity"
	"service-marketplace-api/internal/realtime"
	"service-marketplace-api/internal/repo"
	"service-marketplace-api/internal/repo/repo_errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const pdfContentType = "application/pdf"

type InvoiceService struct {
	repos    *repo.Repositories
	changes  realtime.Subscriber
	renderer InvoiceRenderer
	blob     BlobStore
	notify   *notifier
	logger   *slog.Logger
	now      func() time.Time
}

func NewInvoiceService(deps Dependencies, notify *notifier) *InvoiceService {
	return &InvoiceService{
		repos:    deps.Repos,
		changes:  deps.Changes,
		renderer: deps.Renderer,
		blob:     deps.Blob,
		notify:   notify,
		logger:   deps.Logger,
		now:      deps.Now,
	}
}

// GenerateInvoice bills a project. The amount is the override, else the
// project budget, else the accepted quote amount. When the PDF can't be
// stored the invoice stays committed without a URL and the returned error
// wraps ErrUploadFailure alongside the invoice.
func (s *InvoiceService) GenerateInvoice(ctx context.Context, projectId string, overrides *entity.InvoiceOverridesInput) (*entity.InvoiceOutputModel, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if overrides != nil && overrides.Amount != nil && overrides.Amount.IsNegative() {
		return nil, ErrNegativeAmount
	}

	project, err := s.repos.GetProjectById(ctx, projectId)
	if err != nil {
		return nil, orNotFound(err, ErrProjectNotFound)
	}
	if !actor.Is(project.ProviderId.String()) {
		return nil, ErrNotProjectProvider
	}

	existing, err := s.repos.GetProjectInvoices(ctx, projectId)
	if err != nil {
		return nil, err
	}
	for _, i := range existing {
		if i.Status == common.InvoicePaid {
			return nil, ErrProjectAlreadyPaid
		}
	}

	invoice, err := s.newInvoice(ctx, s.repos, project, overrides)
	if err != nil {
		return nil, err
	}
	s.announce(ctx, project, invoice)

	err = s.attachDocument(ctx, invoice)

	return mapInvoice(invoice), err
}

// newInvoice computes and stores a generated invoice for project through repos.
func (s *InvoiceService) newInvoice(ctx context.Context, repos *repo.Repositories, project *entity.Project, overrides *entity.InvoiceOverridesInput) (*entity.Invoice, error) {
	if overrides == nil {
		overrides = &entity.InvoiceOverridesInput{}
	}

	amount := project.Budget.Decimal
	switch {
	case overrides.Amount != nil:
		amount = *overrides.Amount
	case !project.Budget.Valid:
		quote, err := repos.GetQuoteById(ctx, project.QuoteId.String())
		if err != nil {
			return nil, orNotFound(err, ErrQuoteNotFound)
		}
		amount = quote.Amount
	}

	currency := project.Currency
	if overrides.Currency != nil && *overrides.Currency != "" {
		currency = *overrides.Currency
	}
	if currency == "" {
		currency = common.DefaultCurrency
	}
	note := ""
	if overrides.Note != nil {
		note = *overrides.Note
	}

	now := s.now()
	invoice := &entity.Invoice{
		Id:           uuid.New(),
		ProjectId:    project.Id,
		ProviderId:   project.ProviderId,
		OrderGiverId: project.ClientId,
		Amount:       amount,
		Currency:     currency,
		Note:         note,
		Status:       common.InvoiceGenerated,
		Date:         now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := repos.CreateInvoice(ctx, invoice); err != nil {
		return nil, err
	}

	return invoice, nil
}

func (s *InvoiceService) announce(ctx context.Context, project *entity.Project, invoice *entity.Invoice) {
	s.notify.notify(ctx, project.ClientId.String(), KindInvoiceGenerated, map[string]string{
		"providerName": lookupDisplayName(ctx, s.repos, project.ProviderId.String(), fallbackProviderName),
		"amount":       invoice.Amount.StringFixed(2),
		"currency":     invoice.Currency,
		"projectTitle": project.Title,
		"invoiceId":    invoice.Id.String(),
		"projectId":    project.Id.String(),
	})
}

// invoiceForCheckout returns the invoice a payment settles: the paid one if
// the project was settled already, else an outstanding one billing exactly
// amount in currency, else a new invoice for amount. Outstanding invoices
// for other amounts stay unpaid. The project row is locked while deciding
// so two concurrent callbacks can't both create one.
func (s *InvoiceService) invoiceForCheckout(ctx context.Context, projectId string, amount decimal.Decimal, currency string) (*entity.Invoice, bool, error) {
	if currency == "" {
		currency = common.DefaultCurrency
	}

	var (
		invoice *entity.Invoice
		project *entity.Project
		created bool
	)
	err := s.repos.WithinTransaction(ctx, func(tx *repo.Repositories) error {
		var err error
		project, err = tx.GetProjectByIdForUpdate(ctx, projectId)
		if err != nil {
			return orNotFound(err, ErrProjectNotFound)
		}

		existing, err := tx.GetProjectInvoices(ctx, projectId)
		if err != nil {
			return err
		}
		for i := range existing {
			if existing[i].Status == common.InvoicePaid {
				invoice = &existing[i]
				return nil
			}
		}
		for i := range existing {
			if existing[i].Amount.Equal(amount) && existing[i].Currency == currency {
				invoice = &existing[i]
				return nil
			}
		}

		invoice, err = s.newInvoice(ctx, tx, project, &entity.InvoiceOverridesInput{Amount: &amount, Currency: &currency})
		created = err == nil

		return err
	})
	if err != nil {
		return nil, false, err
	}
	if created {
		s.announce(ctx, project, invoice)
	}

	return invoice, created, nil
}

// attachDocument renders the invoice, uploads it and records the URL. invoice.InvoiceUrl is set on success.
func (s *InvoiceService) attachDocument(ctx context.Context, invoice *entity.Invoice) error {
	if s.renderer == nil || s.blob == nil {
		return ErrDocumentUpload
	}

	doc := &entity.InvoiceDocument{
		InvoiceId:    invoice.Id.String(),
		IssuedAt:     invoice.Date,
		ProviderName: lookupDisplayName(ctx, s.repos, invoice.ProviderId.String(), fallbackProviderName),
		ClientName:   lookupDisplayName(ctx, s.repos, invoice.OrderGiverId.String(), fallbackClientName),
		Currency:     invoice.Currency,
		Amount:       invoice.Amount,
		Note:         invoice.Note,
	}
	if project, err := s.repos.GetProjectById(ctx, invoice.ProjectId.String()); err == nil {
		doc.ProjectTitle = project.Title
		doc.ProjectDescription = project.Description
	}

	data, err := s.renderer.Render(doc)
	if err != nil {
		return fmt.Errorf("%w: render: %v", ErrDocumentUpload, err)
	}
	url, err := s.blob.Put(ctx, fmt.Sprintf("invoices/%s.pdf", invoice.Id), data, pdfContentType)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDocumentUpload, err)
	}

	err = s.repos.WithinTransaction(ctx, func(tx *repo.Repositories) error {
		stored, err := tx.GetInvoiceByIdForUpdate(ctx, invoice.Id.String())
		if err != nil {
			return orNotFound(err, ErrInvoiceNotFound)
		}
		stored.InvoiceUrl = url
		stored.UpdatedAt = s.now()
		return tx.SaveInvoice(ctx, stored)
	})
	if err != nil {
		return err
	}
	invoice.InvoiceUrl = url

	return nil
}

func (s *InvoiceService) RegenerateInvoiceDocument(ctx context.Context, invoiceId string) (*entity.InvoiceOutputModel, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}

	invoice, err := s.repos.GetInvoiceById(ctx, invoiceId)
	if err != nil {
		return nil, orNotFound(err, ErrInvoiceNotFound)
	}
	if !actor.Is(invoice.ProviderId.String()) {
		return nil, ErrNoAccessToInvoice
	}

	if err := s.attachDocument(ctx, invoice); err != nil {
		return nil, err
	}

	return mapInvoice(invoice), nil
}

type payment struct {
	invoice *entity.Invoice
	project *entity.Project
	request *entity.Request
	// fresh is false when the invoice had already been paid
	fresh bool
}

// MarkInvoicePaid is the transition that finishes a job: invoice, project
// and request complete in one transaction. Paying a paid invoice again
// changes nothing and returns it as stored. Paying any other invoice of a
// project that is already settled fails with ErrProjectAlreadyPaid.
func (s *InvoiceService) MarkInvoicePaid(ctx context.Context, invoiceId string) (*entity.InvoiceOutputModel, error) {
	p, err := s.markPaid(ctx, invoiceId, nil)
	if err != nil {
		return nil, err
	}

	return mapInvoice(p.invoice), nil
}

// markPaid settles invoiceId. When record is set the gateway payment is
// stored in the same transaction, and an invoice that was already paid
// fails with ErrProjectAlreadyPaid, or with repo_errors.ErrAlreadyExists
// when record itself settled it.
func (s *InvoiceService) markPaid(ctx context.Context, invoiceId string, record *entity.Payment) (*payment, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}

	var p *payment
	err = s.repos.WithinTransaction(ctx, func(tx *repo.Repositories) error {
		current, err := tx.GetInvoiceById(ctx, invoiceId)
		if err != nil {
			return orNotFound(err, ErrInvoiceNotFound)
		}
		// project before invoice, the order invoiceForCheckout locks in
		if _, err := tx.GetProjectByIdForUpdate(ctx, current.ProjectId.String()); err != nil {
			return orNotFound(err, ErrProjectNotFound)
		}
		invoice, err := tx.GetInvoiceByIdForUpdate(ctx, invoiceId)
		if err != nil {
			return orNotFound(err, ErrInvoiceNotFound)
		}
		if !actor.Is(invoice.OrderGiverId.String()) {
			return ErrNotInvoicePayer
		}

		if invoice.Status == common.InvoicePaid {
			if record == nil {
				p = &payment{invoice: invoice}
				return nil
			}
			_, err := tx.GetPaymentById(ctx, record.Id)
			switch {
			case err == nil:
				return repo_errors.ErrAlreadyExists
			case errors.Is(err, repo_errors.ErrNotFound):
				return ErrProjectAlreadyPaid
			default:
				return err
			}
		}

		siblings, err := tx.GetProjectInvoices(ctx, invoice.ProjectId.String())
		if err != nil {
			return err
		}
		for _, other := range siblings {
			if other.Id != invoice.Id && other.Status == common.InvoicePaid {
				return ErrProjectAlreadyPaid
			}
		}

		now := s.now()
		invoice.Status = common.InvoicePaid
		invoice.PaidAt = &now
		invoice.UpdatedAt = now
		if err := tx.SaveInvoice(ctx, invoice); err != nil {
			return err
		}

		project, request, _, err := s.completeCascade(ctx, tx, invoice, now)
		if err != nil {
			return err
		}

		if record != nil {
			record.InvoiceId = uuid.NullUUID{UUID: invoice.Id, Valid: true}
			if err := tx.CreatePayment(ctx, record); err != nil {
				return err
			}
		}
		p = &payment{invoice: invoice, project: project, request: request, fresh: true}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if p.fresh {
		s.notify.notify(ctx, p.invoice.ProviderId.String(), KindPaymentCompleted, map[string]string{
			"amount":       p.invoice.Amount.StringFixed(2),
			"currency":     p.invoice.Currency,
			"projectTitle": p.project.Title,
			"invoiceId":    p.invoice.Id.String(),
		})
		s.notify.notify(ctx, p.invoice.OrderGiverId.String(), KindRequestUpdated, map[string]string{
			"requestId":    p.request.Id.String(),
			"requestTitle": p.request.Title,
			"status":       p.request.Status,
		})
	}

	return p, nil
}

// completeCascade completes the project and request of a paid invoice. It
// reports whether anything had to change.
func (s *InvoiceService) completeCascade(ctx context.Context, tx *repo.Repositories, invoice *entity.Invoice, now time.Time) (*entity.Project, *entity.Request, bool, error) {
	changed := false

	project, err := tx.GetProjectByIdForUpdate(ctx, invoice.ProjectId.String())
	if err != nil {
		return nil, nil, false, orNotFound(err, ErrProjectNotFound)
	}
	if project.Status != common.ProjectCompleted || project.Progress != 100 {
		project.Status = common.ProjectCompleted
		project.Progress = 100
		if project.CompletedAt == nil {
			project.CompletedAt = &now
		}
		project.UpdatedAt = now
		if err := tx.SaveProject(ctx, project); err != nil {
			return nil, nil, false, err
		}
		changed = true
	}

	request, err := tx.GetRequestByIdForUpdate(ctx, project.RequestId.String())
	if err != nil {
		return nil, nil, false, orNotFound(err, ErrRequestNotFound)
	}
	if request.Status != common.RequestCompleted {
		if err := applyRequestStatus(request, common.RequestCompleted, now); err != nil {
			return nil, nil, false, err
		}
		if err := tx.SaveRequest(ctx, request); err != nil {
			return nil, nil, false, err
		}
		changed = true
	}

	return project, request, changed, nil
}

// repairCascade completes what a paid invoice should already have completed.
func (s *InvoiceService) repairCascade(ctx context.Context, invoiceId string) (bool, error) {
	repaired := false
	err := s.repos.WithinTransaction(ctx, func(tx *repo.Repositories) error {
		invoice, err := tx.GetInvoiceByIdForUpdate(ctx, invoiceId)
		if err != nil {
			return orNotFound(err, ErrInvoiceNotFound)
		}
		if invoice.Status != common.InvoicePaid {
			return nil
		}

		_, _, changed, err := s.completeCascade(ctx, tx, invoice, s.now())
		repaired = changed

		return err
	})

	return repaired, err
}

func (s *InvoiceService) GetInvoiceById(ctx context.Context, invoiceId string) (*entity.InvoiceOutputModel, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}

	invoice, err := s.repos.GetInvoiceById(ctx, invoiceId)
	if err != nil {
		return nil, orNotFound(err, ErrInvoiceNotFound)
	}
	if !actor.Is(invoice.ProviderId.String()) && !actor.Is(invoice.OrderGiverId.String()) {
		return nil, ErrNoAccessToInvoice
	}

	return mapInvoice(invoice), nil
}

func (s *InvoiceService) ListUserInvoices(ctx context.Context, pg *entity.PaginationInput) ([]entity.InvoiceOutputModel, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}

	invoices, err := s.repos.GetUserInvoices(ctx, actor.UserId, pg)
	if err != nil {
		return nil, err
	}

	return mapInvoices(invoices), nil
}

func (s *InvoiceService) SubscribeToUserInvoices(ctx context.Context, fn func([]entity.InvoiceOutputModel)) (func(), error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}

	return subscribe(ctx, s.changes, s.logger, realtime.Invoices, actor.UserId,
		func(ctx context.Context) ([]entity.InvoiceOutputModel, error) {
			invoices, err := s.repos.GetUserInvoices(ctx, actor.UserId, nil)
			if err != nil {
				return nil, err
			}
			return mapInvoices(invoices), nil
		}, fn)
}
