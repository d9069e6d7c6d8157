package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"service-marketplace-api/internal/auth"
	"service-marketplace-api/internal/common"
	"service-marketplace-api/internal/entity"
	"service-marketplace-api/internal/realtime"
	"service-marketplace-api/internal/repo"
	"service-marketplace-api/internal/repo/memdb"
)

type fakeRenderer struct {
	err error
}

func (r *fakeRenderer) Render(doc *entity.InvoiceDocument) ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}

	return []byte("%PDF-1.3 " + doc.InvoiceId), nil
}

type memBlob struct {
	mu      sync.Mutex
	err     error
	objects map[string][]byte
}

func (b *memBlob) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return "", b.err
	}
	b.objects[key] = data

	return "https://files.test/" + key, nil
}

func (b *memBlob) fail(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.err = err
}

type fakeGateway struct{}

func (fakeGateway) CreateIntent(ctx context.Context, params entity.PaymentIntentParams) (*entity.PaymentIntent, error) {
	return &entity.PaymentIntent{Id: "pi_" + params.QuoteId, ClientSecret: "secret_" + params.QuoteId, Simulated: true}, nil
}

// clock ticks one second per reading so creation order is always observable.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)

	return c.t
}

type fixture struct {
	repos    *repo.Repositories
	hub      *realtime.Hub
	blob     *memBlob
	svc      *Services
	client   entity.User
	provider entity.User
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWith(t, nil)
}

// newFixtureWith lets a test swap repositories before the services are built.
func newFixtureWith(t *testing.T, wrap func(*repo.Repositories) *repo.Repositories) *fixture {
	t.Helper()

	hub := realtime.NewHub(nil)
	base := memdb.NewRepositories(memdb.New(hub))
	f := &fixture{
		repos: base,
		hub:   hub,
		blob:  &memBlob{objects: make(map[string][]byte)},
	}

	repos := base
	if wrap != nil {
		repos = wrap(base)
	}
	f.svc = NewServices(Dependencies{
		Repos:    repos,
		Changes:  hub,
		Renderer: &fakeRenderer{},
		Blob:     f.blob,
		Gateway:  fakeGateway{},
		Now:      (&clock{t: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}).now,
	})

	f.client = f.addUser(t, "Claire Martin", common.RoleOrderGiver, nil)
	f.provider = f.addUser(t, "Plomberie Durand", common.RoleServiceProvider, func(u *entity.User) {
		u.ServiceType = "plomberie"
	})

	return f
}

func (f *fixture) addUser(t *testing.T, name string, role string, edit func(*entity.User)) entity.User {
	t.Helper()

	u := entity.User{
		Id:          uuid.New(),
		DisplayName: name,
		Role:        role,
		CreatedAt:   time.Now(),
	}
	if edit != nil {
		edit(&u)
	}
	if err := f.repos.CreateUser(context.Background(), &u); err != nil {
		t.Fatalf("create user: %v", err)
	}

	return u
}

func as(u entity.User) context.Context {
	return auth.WithActor(context.Background(), auth.Actor{UserId: u.Id.String(), Role: u.Role})
}

func asSystem() context.Context {
	return auth.WithActor(context.Background(), auth.System)
}

func money(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

// createRequest publishes a request owned by the fixture client. An empty budget leaves it unset.
func (f *fixture) createRequest(t *testing.T, budget string) *entity.RequestOutputModel {
	t.Helper()

	input := &entity.CreateRequestInput{
		Title:       "Leaking tap",
		Description: "Kitchen tap drips",
		ServiceType: "plomberie",
		Priority:    common.PriorityEmergencyRepair,
		Location:    entity.Location{Address: "12 rue de Rivoli, Paris"},
		Contact:     entity.Contact{Person: "Claire", Phone: "+33600000000"},
	}
	if budget != "" {
		input.BudgetAmount = money(budget)
	}
	request, err := f.svc.Request.CreateRequest(as(f.client), input)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}

	return request
}

func (f *fixture) sendQuote(t *testing.T, provider entity.User, requestId string, amount string) *entity.QuoteOutputModel {
	t.Helper()

	quote, err := f.svc.Quote.SendQuote(as(provider), &entity.CreateQuoteInput{
		RequestId: requestId,
		Amount:    *money(amount),
		Duration:  "2 days",
		Package:   common.PackageStandard,
	})
	if err != nil {
		t.Fatalf("send quote: %v", err)
	}

	return quote
}

func (f *fixture) accept(t *testing.T, quoteId string) *entity.AcceptQuoteOutputModel {
	t.Helper()

	accepted, err := f.svc.Quote.AcceptQuote(as(f.client), quoteId)
	if err != nil {
		t.Fatalf("accept quote: %v", err)
	}

	return accepted
}

func (f *fixture) notifications(t *testing.T, u entity.User, kind string) []entity.NotificationOutputModel {
	t.Helper()

	all, err := f.svc.Notification.ListNotifications(as(u), false, nil)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	matching := make([]entity.NotificationOutputModel, 0)
	for _, n := range all {
		if n.Type == kind {
			matching = append(matching, n)
		}
	}

	return matching
}

func (f *fixture) request(t *testing.T, id string) *entity.Request {
	t.Helper()

	r, err := f.repos.GetRequestById(context.Background(), id)
	if err != nil {
		t.Fatalf("get request: %v", err)
	}

	return r
}

func (f *fixture) project(t *testing.T, id string) *entity.Project {
	t.Helper()

	p, err := f.repos.GetProjectById(context.Background(), id)
	if err != nil {
		t.Fatalf("get project: %v", err)
	}

	return p
}

func (f *fixture) invoice(t *testing.T, id string) *entity.Invoice {
	t.Helper()

	i, err := f.repos.GetInvoiceById(context.Background(), id)
	if err != nil {
		t.Fatalf("get invoice: %v", err)
	}

	return i
}

func expectErr(t *testing.T, err error, want error) {
	t.Helper()

	if !errors.Is(err, want) {
		t.Fatalf("expected %v, got %v", want, err)
	}
}

func noPlaceholders(t *testing.T, n entity.NotificationOutputModel) {
	t.Helper()

	for _, s := range []string{n.Title, n.Body, n.ClickAction} {
		if strings.ContainsAny(s, "{}") {
			t.Fatalf("unrendered placeholder in %q", s)
		}
	}
}

// eventually polls cond until it holds; subscriptions deliver asynchronously.
func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
