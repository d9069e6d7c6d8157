package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"service-marketplace-api/internal/common"
)

func TestReconcileFinishesInterruptedPayment(t *testing.T) {
	f := newFixture(t)
	request, projectId := f.inProgress(t, "", "90")
	generated, err := f.svc.Invoice.GenerateInvoice(as(f.provider), projectId, nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	// the invoice write landed, the cascade didn't
	invoice := f.invoice(t, generated.Id)
	invoice.Status = common.InvoicePaid
	if err := f.repos.SaveInvoice(context.Background(), invoice); err != nil {
		t.Fatalf("save: %v", err)
	}

	report, err := f.svc.Reconcile.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if report.CascadesRepaired != 1 || report.Failures != 0 {
		t.Fatalf("report = %+v", report)
	}
	if got := f.project(t, projectId); got.Status != common.ProjectCompleted || got.Progress != 100 {
		t.Fatalf("project = %s/%d", got.Status, got.Progress)
	}
	if got := f.request(t, request.Id); got.Status != common.RequestCompleted {
		t.Fatalf("request = %s", got.Status)
	}

	again, err := f.svc.Reconcile.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("second reconcile: %v", err)
	}
	if again.CascadesRepaired != 0 {
		t.Fatalf("second pass repaired %d cascades", again.CascadesRepaired)
	}
}

func TestReconcileFinishesInterruptedAcceptance(t *testing.T) {
	f := newFixture(t)
	request := f.createRequest(t, "")
	quote := f.sendQuote(t, f.provider, request.Id, "70")

	// the request names its quote but nothing else happened
	stored := f.request(t, request.Id)
	stored.AcceptedQuoteId = uuid.NullUUID{UUID: uuid.MustParse(quote.Id), Valid: true}
	if err := f.repos.SaveRequest(context.Background(), stored); err != nil {
		t.Fatalf("save: %v", err)
	}

	report, err := f.svc.Reconcile.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if report.AcceptancesRepaired != 1 {
		t.Fatalf("report = %+v", report)
	}

	repaired := f.request(t, request.Id)
	if repaired.Status != common.RequestInProgress || !repaired.ProviderAssigned || repaired.AcceptedQuote == nil {
		t.Fatalf("request = %+v", repaired)
	}
	if _, err := f.repos.GetProjectByQuoteId(context.Background(), quote.Id); err != nil {
		t.Fatalf("project not opened: %v", err)
	}
	q, err := f.repos.GetQuoteById(context.Background(), quote.Id)
	if err != nil {
		t.Fatalf("get quote: %v", err)
	}
	if q.Status != common.QuoteAccepted {
		t.Fatalf("quote = %s", q.Status)
	}
}

func TestReconcileRetriesMissingDocuments(t *testing.T) {
	f := newFixture(t)
	_, projectId := f.inProgress(t, "", "90")
	f.blob.fail(errors.New("bucket unavailable"))
	generated, err := f.svc.Invoice.GenerateInvoice(as(f.provider), projectId, nil)
	expectErr(t, err, ErrUploadFailure)

	report, err := f.svc.Reconcile.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if report.DocumentsRetried != 0 || report.Failures != 1 {
		t.Fatalf("report while the store is down = %+v", report)
	}

	f.blob.fail(nil)
	report, err = f.svc.Reconcile.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if report.DocumentsRetried != 1 {
		t.Fatalf("report = %+v", report)
	}
	if got := f.invoice(t, generated.Id); got.InvoiceUrl == "" {
		t.Fatalf("document still missing")
	}
}
