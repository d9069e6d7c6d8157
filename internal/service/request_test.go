package service

import (
	"context"
	"testing"

	"service-marketplace-api/internal/common"
	"service-marketplace-api/internal/entity"
)

func TestCreateRequestRoundTrip(t *testing.T) {
	f := newFixture(t)

	lat, lng := 48.86, 2.35
	input := &entity.CreateRequestInput{
		Title:        "Boiler service",
		Description:  "Yearly maintenance",
		ServiceType:  "plomberie_chauffage",
		Priority:     common.PriorityMajorWorks,
		Location:     entity.Location{Address: "3 rue Oberkampf, Paris", Lat: &lat, Lng: &lng},
		BudgetAmount: money("250.50"),
		Contact:      entity.Contact{Person: "Claire", Phone: "+33611111111", Email: "claire@example.com"},
		Files:        []string{"https://files.test/boiler.jpg"},
	}
	created, err := f.svc.Request.CreateRequest(as(f.client), input)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := f.svc.Request.GetRequestById(as(f.client), created.Id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != common.RequestPending {
		t.Errorf("status = %s, want pending", got.Status)
	}
	if got.Title != input.Title || got.Description != input.Description || got.ServiceType != input.ServiceType || got.Priority != input.Priority {
		t.Errorf("scalar fields differ: %+v", got)
	}
	if got.Location.Address != input.Location.Address || got.Location.Lat == nil || *got.Location.Lat != lat {
		t.Errorf("location = %+v", got.Location)
	}
	if !got.Budget.Amount.Valid || !got.Budget.Amount.Decimal.Equal(*input.BudgetAmount) || got.Budget.Currency != common.DefaultCurrency {
		t.Errorf("budget = %+v", got.Budget)
	}
	if got.Contact != input.Contact {
		t.Errorf("contact = %+v", got.Contact)
	}
	if len(got.Files) != 1 || got.Files[0] != input.Files[0] {
		t.Errorf("files = %v", got.Files)
	}
	if got.CreatedBy != f.client.Id.String() || got.ProviderAssigned || got.ProviderId != nil || got.AcceptedQuote != nil {
		t.Errorf("ownership fields = %+v", got)
	}
}

func TestCreateRequestRejectsNegativeBudget(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Request.CreateRequest(as(f.client), &entity.CreateRequestInput{Title: "x", BudgetAmount: money("-1")})
	expectErr(t, err, ErrNegativeAmount)
	expectErr(t, err, ErrInvalidInput)
}

func TestCreateRequestNeedsActor(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Request.CreateRequest(context.Background(), &entity.CreateRequestInput{Title: "x"})
	expectErr(t, err, ErrAuthRequired)
}

func TestRequestVisibility(t *testing.T) {
	f := newFixture(t)
	stranger := f.addUser(t, "Someone Else", common.RoleOrderGiver, nil)
	request := f.createRequest(t, "")

	if _, err := f.svc.Request.GetRequestById(as(f.provider), request.Id); err != nil {
		t.Fatalf("provider should see an open request: %v", err)
	}
	_, err := f.svc.Request.GetRequestById(as(stranger), request.Id)
	expectErr(t, err, ErrForbidden)

	_, err = f.svc.Request.GetRequestById(as(f.client), "not-a-uuid")
	expectErr(t, err, ErrNotFound)
}

func TestTerminalRequestsNeverMove(t *testing.T) {
	f := newFixture(t)
	request := f.createRequest(t, "")
	ctx := as(f.client)

	cancelled, err := f.svc.Request.CancelRequest(ctx, request.Id)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != common.RequestCancelled || cancelled.CancelledAt == nil {
		t.Fatalf("unexpected cancelled request %+v", cancelled)
	}

	_, err = f.svc.Request.CompleteRequest(ctx, request.Id)
	expectErr(t, err, ErrRequestTransition)
	_, err = f.svc.Request.CancelRequest(ctx, request.Id)
	expectErr(t, err, ErrInvalidState)

	title := "renamed"
	_, err = f.svc.Request.UpdateRequest(ctx, request.Id, &entity.UpdateRequestInput{Title: &title})
	expectErr(t, err, ErrRequestClosed)

	_, err = f.svc.Quote.SendQuote(as(f.provider), &entity.CreateQuoteInput{RequestId: request.Id, Amount: *money("10")})
	expectErr(t, err, ErrRequestNotOpen)

	if got := f.request(t, request.Id); got.Status != common.RequestCancelled || got.Title != request.Title {
		t.Fatalf("cancelled request changed: %+v", got)
	}
}

func TestPendingRequestCannotComplete(t *testing.T) {
	f := newFixture(t)
	request := f.createRequest(t, "")

	_, err := f.svc.Request.CompleteRequest(as(f.client), request.Id)
	expectErr(t, err, ErrRequestTransition)
}

func TestUpdateRequestMergesFields(t *testing.T) {
	f := newFixture(t)
	request := f.createRequest(t, "100")

	_, err := f.svc.Request.UpdateRequest(as(f.client), request.Id, &entity.UpdateRequestInput{})
	expectErr(t, err, ErrNoNewChanges)

	_, err = f.svc.Request.UpdateRequest(as(f.provider), request.Id, &entity.UpdateRequestInput{Title: new(string)})
	expectErr(t, err, ErrNotRequestOwner)

	description := "Both taps drip"
	updated, err := f.svc.Request.UpdateRequest(as(f.client), request.Id, &entity.UpdateRequestInput{
		Description:  &description,
		BudgetAmount: money("150"),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != request.Title || updated.Description != description || !updated.Budget.Amount.Decimal.Equal(*money("150")) {
		t.Fatalf("unexpected merge %+v", updated)
	}
}

func TestRateRequest(t *testing.T) {
	f := newFixture(t)
	request := f.createRequest(t, "")
	quote := f.sendQuote(t, f.provider, request.Id, "80")
	accepted := f.accept(t, quote.Id)

	_, err := f.svc.Request.RateRequest(as(f.client), request.Id, 5, "great")
	expectErr(t, err, ErrRequestNotRateable)

	invoice, err := f.svc.Invoice.GenerateInvoice(as(f.provider), accepted.Project.Id, nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := f.svc.Invoice.MarkInvoicePaid(as(f.client), invoice.Id); err != nil {
		t.Fatalf("pay: %v", err)
	}

	_, err = f.svc.Request.RateRequest(as(f.client), request.Id, 6, "")
	expectErr(t, err, ErrInvalidRating)

	rated, err := f.svc.Request.RateRequest(as(f.client), request.Id, 4, "on time")
	if err != nil {
		t.Fatalf("rate: %v", err)
	}
	if rated.Rating == nil || *rated.Rating != 4 || rated.Review != "on time" {
		t.Fatalf("unexpected rating %+v", rated)
	}

	_, err = f.svc.Request.RateRequest(as(f.client), request.Id, 5, "again")
	expectErr(t, err, ErrRequestAlreadyRated)

	provider, err := f.repos.GetUserById(context.Background(), f.provider.Id.String())
	if err != nil {
		t.Fatalf("get provider: %v", err)
	}
	if provider.RatingCount != 1 || provider.RatingAverage != 4 {
		t.Fatalf("aggregate = %v/%d", provider.RatingAverage, provider.RatingCount)
	}
}

func TestListOpenRequestsHidesAssigned(t *testing.T) {
	f := newFixture(t)
	open := f.createRequest(t, "")
	taken := f.createRequest(t, "")
	f.accept(t, f.sendQuote(t, f.provider, taken.Id, "50").Id)

	requests, err := f.svc.Request.ListOpenRequests(as(f.provider), "plomberie", nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(requests) != 1 || requests[0].Id != open.Id {
		t.Fatalf("unexpected open requests %+v", requests)
	}

	mine, err := f.svc.Request.ListUserRequests(as(f.client), entity.NewPaginationInput(1, 0))
	if err != nil {
		t.Fatalf("list mine: %v", err)
	}
	if len(mine) != 1 || mine[0].Id != taken.Id {
		t.Fatalf("expected the newest request first, got %+v", mine)
	}
}
