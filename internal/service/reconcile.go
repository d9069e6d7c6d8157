package service

import (
	"context"
	"log/slog"

	"service-marketplace-api/internal/auth"
	"service-marketplace-api/internal/common"
	"service-marketplace-api/internal/entity"
	"service-marketplace-api/internal/repo"
)

const reconcileBatch = 100

// ReconcileService finishes multi-step writes that were interrupted between
// their steps: acceptances whose request never left pending, paid invoices
// whose project or request never completed, and invoices whose document
// was never stored.
type ReconcileService struct {
	repos    *repo.Repositories
	quotes   *QuoteService
	invoices *InvoiceService
	logger   *slog.Logger
}

func NewReconcileService(deps Dependencies, quotes *QuoteService, invoices *InvoiceService) *ReconcileService {
	return &ReconcileService{
		repos:    deps.Repos,
		quotes:   quotes,
		invoices: invoices,
		logger:   deps.Logger,
	}
}

// Reconcile runs one pass. A failing repair is logged and counted and
// never stops the pass; the returned error only reports a failed listing.
func (s *ReconcileService) Reconcile(ctx context.Context) (*entity.ReconcileReport, error) {
	ctx = auth.WithActor(ctx, auth.System)
	report := &entity.ReconcileReport{}

	requests, err := s.repos.GetPendingRequestsWithAcceptedQuote(ctx)
	if err != nil {
		return report, err
	}
	for _, request := range requests {
		repaired, err := s.quotes.repairAcceptance(ctx, request.Id.String())
		if err != nil {
			report.Failures++
			s.logger.Error("acceptance repair failed", "request", request.Id, "error", err)
			continue
		}
		if repaired {
			report.AcceptancesRepaired++
			s.logger.Info("acceptance repaired", "request", request.Id)
		}
	}

	for offset := 0; ; offset += reconcileBatch {
		paid, err := s.repos.GetInvoicesByStatus(ctx, common.InvoicePaid, entity.NewPaginationInput(reconcileBatch, offset))
		if err != nil {
			return report, err
		}
		for _, invoice := range paid {
			repaired, err := s.invoices.repairCascade(ctx, invoice.Id.String())
			if err != nil {
				report.Failures++
				s.logger.Error("payment cascade repair failed", "invoice", invoice.Id, "error", err)
				continue
			}
			if repaired {
				report.CascadesRepaired++
				s.logger.Info("payment cascade repaired", "invoice", invoice.Id)
			}
		}
		if len(paid) < reconcileBatch {
			break
		}
	}

	// one batch per pass: stored documents leave the listing, so offsets would skip rows
	missing, err := s.repos.GetInvoicesWithoutDocument(ctx, entity.NewPaginationInput(reconcileBatch, 0))
	if err != nil {
		return report, err
	}
	for i := range missing {
		if err := s.invoices.attachDocument(ctx, &missing[i]); err != nil {
			report.Failures++
			s.logger.Warn("invoice document retry failed", "invoice", missing[i].Id, "error", err)
			continue
		}
		report.DocumentsRetried++
	}

	return report, nil
}
