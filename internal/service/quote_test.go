package service

import (
	"context"
	"strings"
	"sync"
	"testing"

	"service-marketplace-api/internal/common"
	"service-marketplace-api/internal/entity"
)

func TestSendQuoteRules(t *testing.T) {
	f := newFixture(t)
	request := f.createRequest(t, "")

	_, err := f.svc.Quote.SendQuote(as(f.client), &entity.CreateQuoteInput{RequestId: request.Id, Amount: *money("10")})
	expectErr(t, err, ErrProviderRequired)

	_, err = f.svc.Quote.SendQuote(as(f.provider), &entity.CreateQuoteInput{RequestId: request.Id, Amount: *money("-10")})
	expectErr(t, err, ErrNegativeAmount)

	_, err = f.svc.Quote.SendQuote(as(f.provider), &entity.CreateQuoteInput{RequestId: request.Id, Amount: *money("10"), Package: "gold"})
	expectErr(t, err, ErrUnknownPackage)

	_, err = f.svc.Quote.SendQuote(as(f.provider), &entity.CreateQuoteInput{RequestId: request.Id, Amount: *money("10"), DeliverySpeed: "teleport"})
	expectErr(t, err, ErrUnknownDeliverySpeed)

	_, err = f.svc.Quote.SendQuote(as(f.provider), &entity.CreateQuoteInput{RequestId: "00000000-0000-0000-0000-000000000000", Amount: *money("10")})
	expectErr(t, err, ErrRequestNotFound)
}

func TestProviderCannotQuoteOwnRequest(t *testing.T) {
	f := newFixture(t)

	own, err := f.svc.Request.CreateRequest(as(f.provider), &entity.CreateRequestInput{Title: "Van repair"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err = f.svc.Quote.SendQuote(as(f.provider), &entity.CreateQuoteInput{RequestId: own.Id, Amount: *money("10")})
	expectErr(t, err, ErrQuoteOwnRequest)
}

func TestSendQuoteNotifiesClient(t *testing.T) {
	f := newFixture(t)
	request := f.createRequest(t, "")
	quote := f.sendQuote(t, f.provider, request.Id, "120")

	if quote.Status != common.QuotePending || quote.ClientId != f.client.Id.String() || quote.Currency != common.DefaultCurrency {
		t.Fatalf("unexpected quote %+v", quote)
	}

	sent := f.notifications(t, f.client, KindNewQuote)
	if len(sent) != 1 {
		t.Fatalf("expected 1 NEW_QUOTE, got %d", len(sent))
	}
	n := sent[0]
	noPlaceholders(t, n)
	if !strings.Contains(n.Body, "Plomberie Durand") || !strings.Contains(n.Body, "120.00 EUR") {
		t.Fatalf("body = %q", n.Body)
	}
	if n.Data["quoteId"] != quote.Id || n.Read {
		t.Fatalf("unexpected notification %+v", n)
	}
}

func TestAcceptQuoteAssignsProvider(t *testing.T) {
	f := newFixture(t)
	request := f.createRequest(t, "500")
	quote := f.sendQuote(t, f.provider, request.Id, "450")

	accepted := f.accept(t, quote.Id)

	if accepted.Quote.Status != common.QuoteAccepted {
		t.Errorf("quote status = %s", accepted.Quote.Status)
	}
	r := accepted.Request
	if r.Status != common.RequestInProgress || !r.ProviderAssigned || r.ProviderId == nil || *r.ProviderId != f.provider.Id.String() {
		t.Errorf("request not assigned: %+v", r)
	}
	if r.AcceptedQuoteId == nil || *r.AcceptedQuoteId != quote.Id {
		t.Errorf("acceptedQuoteId = %v", r.AcceptedQuoteId)
	}
	if r.AcceptedQuote == nil || r.AcceptedQuote.ProviderName != f.provider.DisplayName || !r.AcceptedQuote.Price.Equal(*money("450")) {
		t.Errorf("snapshot = %+v", r.AcceptedQuote)
	}

	p := accepted.Project
	if p.Status != common.ProjectActive || p.Progress != 0 || p.QuoteId != quote.Id || p.ProviderId != f.provider.Id.String() || p.ClientId != f.client.Id.String() {
		t.Errorf("unexpected project %+v", p)
	}
	if !p.Budget.Valid || !p.Budget.Decimal.Equal(*money("500")) {
		t.Errorf("project budget = %v, want the request budget", p.Budget)
	}

	sent := f.notifications(t, f.provider, KindQuoteAccepted)
	if len(sent) != 1 {
		t.Fatalf("expected 1 QUOTE_ACCEPTED, got %d", len(sent))
	}
	noPlaceholders(t, sent[0])
}

func TestAcceptQuoteTwiceReturnsSameProject(t *testing.T) {
	f := newFixture(t)
	request := f.createRequest(t, "")
	quote := f.sendQuote(t, f.provider, request.Id, "90")

	first := f.accept(t, quote.Id)
	second := f.accept(t, quote.Id)

	if first.Project.Id != second.Project.Id {
		t.Fatalf("accepting twice opened a second project")
	}
	projects, err := f.svc.Project.ListUserProjects(as(f.client), nil)
	if err != nil {
		t.Fatalf("list projects: %v", err)
	}
	if len(projects) != 1 {
		t.Fatalf("expected 1 project, got %d", len(projects))
	}
	if n := len(f.notifications(t, f.provider, KindQuoteAccepted)); n != 1 {
		t.Fatalf("expected 1 QUOTE_ACCEPTED, got %d", n)
	}
}

func TestSecondQuoteOfRequestCannotBeAccepted(t *testing.T) {
	f := newFixture(t)
	rival := f.addUser(t, "Tuyaux & Co", common.RoleCompany, nil)
	request := f.createRequest(t, "")
	first := f.sendQuote(t, f.provider, request.Id, "100")
	second := f.sendQuote(t, rival, request.Id, "95")

	f.accept(t, first.Id)

	_, err := f.svc.Quote.AcceptQuote(as(f.client), second.Id)
	expectErr(t, err, ErrRequestNotOpen)

	got, err := f.repos.GetQuoteById(context.Background(), second.Id)
	if err != nil {
		t.Fatalf("get quote: %v", err)
	}
	if got.Status != common.QuotePending {
		t.Fatalf("losing quote moved to %s", got.Status)
	}
}

func TestConcurrentAcceptsPickOneWinner(t *testing.T) {
	f := newFixture(t)
	request := f.createRequest(t, "")
	quotes := []*entity.QuoteOutputModel{
		f.sendQuote(t, f.provider, request.Id, "100"),
		f.sendQuote(t, f.addUser(t, "Agence Bleue", common.RoleAgency, nil), request.Id, "110"),
		f.sendQuote(t, f.addUser(t, "Atelier Nord", common.RoleContractor, nil), request.Id, "120"),
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for _, q := range quotes {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if _, err := f.svc.Quote.AcceptQuote(as(f.client), id); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}(q.Id)
	}
	wg.Wait()

	if successes != 1 {
		t.Fatalf("expected exactly one accepted quote, got %d", successes)
	}
	accepted := 0
	for _, q := range quotes {
		got, err := f.repos.GetQuoteById(context.Background(), q.Id)
		if err != nil {
			t.Fatalf("get quote: %v", err)
		}
		if got.Status == common.QuoteAccepted {
			accepted++
		}
	}
	if accepted != 1 {
		t.Fatalf("%d quotes stored as accepted", accepted)
	}
}

func TestOnlyClientAcceptsOrRejects(t *testing.T) {
	f := newFixture(t)
	request := f.createRequest(t, "")
	quote := f.sendQuote(t, f.provider, request.Id, "60")

	_, err := f.svc.Quote.AcceptQuote(as(f.provider), quote.Id)
	expectErr(t, err, ErrForbidden)
	_, err = f.svc.Quote.RejectQuote(as(f.provider), quote.Id)
	expectErr(t, err, ErrForbidden)

	rejected, err := f.svc.Quote.RejectQuote(as(f.client), quote.Id)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.Status != common.QuoteRejected {
		t.Fatalf("status = %s", rejected.Status)
	}

	_, err = f.svc.Quote.AcceptQuote(as(f.client), quote.Id)
	expectErr(t, err, ErrQuoteNotPending)
	_, err = f.svc.Quote.WithdrawQuote(as(f.provider), quote.Id)
	expectErr(t, err, ErrQuoteNotPending)
}

func TestListRequestQuotesVisibility(t *testing.T) {
	f := newFixture(t)
	rival := f.addUser(t, "Tuyaux & Co", common.RoleCompany, nil)
	request := f.createRequest(t, "")
	mine := f.sendQuote(t, f.provider, request.Id, "100")
	f.sendQuote(t, rival, request.Id, "95")

	all, err := f.svc.Quote.ListRequestQuotes(as(f.client), request.Id, nil)
	if err != nil {
		t.Fatalf("owner list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("owner sees %d quotes, want 2", len(all))
	}

	own, err := f.svc.Quote.ListRequestQuotes(as(f.provider), request.Id, nil)
	if err != nil {
		t.Fatalf("provider list: %v", err)
	}
	if len(own) != 1 || own[0].Id != mine.Id {
		t.Fatalf("provider sees %+v", own)
	}

	sent, err := f.svc.Quote.GetQuotesForUser(as(f.provider), nil)
	if err != nil {
		t.Fatalf("sent quotes: %v", err)
	}
	received, err := f.svc.Quote.GetQuotesForUser(as(f.client), nil)
	if err != nil {
		t.Fatalf("received quotes: %v", err)
	}
	if len(sent) != 1 || len(received) != 2 {
		t.Fatalf("sent %d, received %d", len(sent), len(received))
	}
}
