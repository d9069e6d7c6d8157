package controller

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo"

	"service-marketplace-api/internal/auth"
	"service-marketplace-api/internal/blob"
	"service-marketplace-api/internal/common"
	"service-marketplace-api/internal/entity"
	"service-marketplace-api/internal/invoicepdf"
	"service-marketplace-api/internal/payment"
	"service-marketplace-api/internal/realtime"
	"service-marketplace-api/internal/repo/memdb"
	"service-marketplace-api/internal/service"
)

const testCallbackSecret = "cb-secret"

type env struct {
	echo          *echo.Echo
	client        entity.User
	provider      entity.User
	clientToken   string
	providerToken string
}

func newEnv(t *testing.T) *env {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := realtime.NewHub(logger)
	repos := memdb.NewRepositories(memdb.New(hub))
	files, err := blob.NewFileStore(t.TempDir(), "http://localhost:8080/files")
	if err != nil {
		t.Fatalf("blob store: %v", err)
	}
	services := service.NewServices(service.Dependencies{
		Repos:    repos,
		Changes:  hub,
		Renderer: invoicepdf.New("Marketplace"),
		Blob:     files,
		Gateway:  payment.NewSimulated(logger),
		Logger:   logger,
	})
	tokens := auth.NewTokens("test-secret", time.Hour)

	e := &env{
		echo: echo.New(),
		client: entity.User{
			Id: uuid.New(), DisplayName: "Claire Martin", Role: common.RoleOrderGiver, CreatedAt: time.Now(),
		},
		provider: entity.User{
			Id: uuid.New(), DisplayName: "Plomberie Durand", Role: common.RoleCompany,
			Services: []string{"plomberie"}, ServiceArea: "Paris", CreatedAt: time.Now(),
		},
	}
	for _, u := range []*entity.User{&e.client, &e.provider} {
		if err := repos.CreateUser(context.Background(), u); err != nil {
			t.Fatalf("create user: %v", err)
		}
	}
	if e.clientToken, err = tokens.Issue(e.client.Id.String(), e.client.Role); err != nil {
		t.Fatal(err)
	}
	if e.providerToken, err = tokens.Issue(e.provider.Id.String(), e.provider.Role); err != nil {
		t.Fatal(err)
	}

	SetupRoutesHandlers(e.echo, Options{
		Services:       services,
		Tokens:         tokens,
		CallbackSecret: testCallbackSecret,
		Logger:         logger,
	})

	return e
}

func (e *env) do(t *testing.T, method string, path string, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.echo.ServeHTTP(rec, req)

	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}

	return out
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d, body %s", rec.Code, want, rec.Body.String())
	}
}

func (e *env) createRequest(t *testing.T) postRequestOutput {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/api/requests/new", e.clientToken, map[string]any{
		"title":       "Leaking tap",
		"serviceType": "plomberie",
		"location":    map[string]any{"address": "12 rue de Rivoli, Paris"},
		"budget":      map[string]any{"amount": "150.00"},
		"area":        "Paris",
	})
	expectStatus(t, rec, http.StatusOK)

	return decode[postRequestOutput](t, rec)
}

func TestPing(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodGet, "/api/ping", "", nil)
	expectStatus(t, rec, http.StatusOK)
	if got := strings.TrimSpace(rec.Body.String()); got != `"ok"` {
		t.Errorf("body = %s", got)
	}
}

func TestTokenRequired(t *testing.T) {
	e := newEnv(t)

	expectStatus(t, e.do(t, http.MethodGet, "/api/requests/my", "", nil), http.StatusUnauthorized)
	expectStatus(t, e.do(t, http.MethodGet, "/api/requests/my", "not-a-token", nil), http.StatusUnauthorized)
	expectStatus(t, e.do(t, http.MethodGet, "/api/requests/my", e.clientToken, nil), http.StatusOK)
}

func TestPostRequestValidation(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodPost, "/api/requests/new", e.clientToken, map[string]any{
		"serviceType": "plomberie",
		"priority":    "whenever",
		"location":    map[string]any{"address": "Paris"},
	})
	expectStatus(t, rec, http.StatusBadRequest)

	reason := decode[errorResponse](t, rec).Reason
	for _, want := range []string{"'Title': this field is required", "'Priority': should have value in"} {
		if !strings.Contains(reason, want) {
			t.Errorf("reason %q lacks %q", reason, want)
		}
	}
}

func TestRequestQuoteCheckoutFlow(t *testing.T) {
	e := newEnv(t)

	created := e.createRequest(t)
	if created.NotifiedProviders != 1 {
		t.Errorf("notified = %d, want 1", created.NotifiedProviders)
	}
	requestId := created.Request.Id

	open := decode[[]entity.RequestOutputModel](t, e.do(t, http.MethodGet, "/api/requests/open?serviceType=plomberie", e.providerToken, nil))
	if len(open) != 1 || open[0].Id != requestId {
		t.Fatalf("open requests = %+v", open)
	}

	rec := e.do(t, http.MethodPost, "/api/quotes/new", e.providerToken, map[string]any{
		"requestId": requestId,
		"amount":    "140.00",
		"package":   "standard",
	})
	expectStatus(t, rec, http.StatusOK)
	quote := decode[entity.QuoteOutputModel](t, rec)

	// the order giver can't send quotes
	rec = e.do(t, http.MethodPost, "/api/quotes/new", e.clientToken, map[string]any{"requestId": requestId, "amount": "1"})
	expectStatus(t, rec, http.StatusForbidden)

	rec = e.do(t, http.MethodPost, "/api/quotes/"+quote.Id+"/payment_intent", e.clientToken, map[string]any{"methodRef": "card"})
	expectStatus(t, rec, http.StatusOK)
	intent := decode[entity.PaymentIntentOutputModel](t, rec)
	if intent.Amount != 14000 {
		t.Errorf("intent amount = %d", intent.Amount)
	}

	callback := map[string]any{
		"id": intent.PaymentId, "quoteId": quote.Id, "amount": intent.Amount, "status": "succeeded", "simulated": true,
	}
	expectStatus(t, e.do(t, http.MethodPost, "/api/payments/callback", "", callback), http.StatusUnauthorized)

	post := func() entity.CheckoutOutputModel {
		req := httptest.NewRequest(http.MethodPost, "/api/payments/callback", strings.NewReader(mustJSON(t, callback)))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		req.Header.Set(callbackSecretHeader, testCallbackSecret)
		rec := httptest.NewRecorder()
		e.echo.ServeHTTP(rec, req)
		expectStatus(t, rec, http.StatusOK)
		return decode[entity.CheckoutOutputModel](t, rec)
	}

	first := post()
	if first.Replayed || first.Invoice == nil || first.Invoice.Status != common.InvoicePaid {
		t.Fatalf("checkout = %+v", first)
	}
	if again := post(); !again.Replayed || again.Invoice == nil || again.Invoice.Id != first.Invoice.Id {
		t.Errorf("replay = %+v", again)
	}

	request := decode[entity.RequestOutputModel](t, e.do(t, http.MethodGet, "/api/requests/"+requestId, e.clientToken, nil))
	if request.Status != common.RequestCompleted {
		t.Errorf("request status = %s", request.Status)
	}

	rec = e.do(t, http.MethodPut, "/api/requests/"+requestId+"/rate", e.clientToken, map[string]any{"rating": 5, "review": "Quick and clean"})
	expectStatus(t, rec, http.StatusOK)
	expectStatus(t, e.do(t, http.MethodPut, "/api/requests/"+requestId+"/rate", e.clientToken, map[string]any{"rating": 4}), http.StatusConflict)

	unread := decode[[]entity.NotificationOutputModel](t, e.do(t, http.MethodGet, "/api/notifications?unread=true", e.clientToken, nil))
	if len(unread) == 0 {
		t.Fatal("client has no notifications")
	}
	marked := decode[markAllReadOutput](t, e.do(t, http.MethodPut, "/api/notifications/read_all", e.clientToken, nil))
	if marked.Updated != len(unread) {
		t.Errorf("marked %d of %d", marked.Updated, len(unread))
	}
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}

	return string(data)
}

func TestErrorStatuses(t *testing.T) {
	e := newEnv(t)
	requestId := e.createRequest(t).Request.Id

	expectStatus(t, e.do(t, http.MethodGet, "/api/requests/"+uuid.NewString(), e.clientToken, nil), http.StatusNotFound)
	expectStatus(t, e.do(t, http.MethodPut, "/api/requests/"+requestId+"/complete", e.clientToken, nil), http.StatusConflict)
	expectStatus(t, e.do(t, http.MethodPut, "/api/requests/"+requestId+"/cancel", e.providerToken, nil), http.StatusForbidden)
	expectStatus(t, e.do(t, http.MethodPut, "/api/requests/"+requestId+"/cancel", e.clientToken, nil), http.StatusOK)

	cases := []struct {
		err  error
		want int
	}{
		{service.ErrQuoteNotFound, http.StatusNotFound},
		{service.ErrNoActor, http.StatusUnauthorized},
		{service.ErrNotQuoteProvider, http.StatusForbidden},
		{service.ErrRequestNotOpen, http.StatusConflict},
		{service.ErrInvalidRating, http.StatusBadRequest},
		{service.ErrUnknownNotificationKind, http.StatusBadRequest},
		{service.ErrDocumentUpload, http.StatusBadGateway},
		{io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := statusFor(tc.err); got != tc.want {
			t.Errorf("statusFor(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestMessageNotification(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodPost, "/api/notifications/message", e.clientToken, map[string]any{
		"recipientId":    e.provider.Id.String(),
		"senderName":     "Claire",
		"conversationId": "conv-1",
		"message":        "Are you free on Monday?",
	})
	expectStatus(t, rec, http.StatusOK)

	n := decode[entity.NotificationOutputModel](t, rec)
	if n.Title != "New message from Claire" || n.Body != "Are you free on Monday?" || n.ClickAction != "/messages/conv-1" {
		t.Errorf("notification = %+v", n)
	}
}

func TestDashboard(t *testing.T) {
	e := newEnv(t)
	e.createRequest(t)

	out := decode[struct {
		Role  string         `json:"role"`
		Stats map[string]any `json:"stats"`
	}](t, e.do(t, http.MethodGet, "/api/dashboard", e.clientToken, nil))
	if out.Role != common.RoleOrderGiver || out.Stats["totalRequests"] != float64(1) {
		t.Errorf("dashboard = %+v", out)
	}

	out = decode[struct {
		Role  string         `json:"role"`
		Stats map[string]any `json:"stats"`
	}](t, e.do(t, http.MethodGet, "/api/dashboard", e.providerToken, nil))
	if out.Role != common.RoleCompany || out.Stats["quotesSent"] != float64(0) {
		t.Errorf("provider dashboard = %+v", out)
	}
}

func TestDashboardStream(t *testing.T) {
	e := newEnv(t)
	server := httptest.NewServer(e.echo)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/api/dashboard/stream?access_token="+e.clientToken, nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get(echo.HeaderContentType); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}

	events := make(chan map[string]any)
	go func() {
		defer close(events)
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			var stats map[string]any
			if json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &stats) == nil {
				select {
				case events <- stats:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	waitFor := func(total float64) {
		t.Helper()
		for {
			select {
			case stats, ok := <-events:
				if !ok {
					t.Fatalf("stream ended before totalRequests reached %v", total)
				}
				if stats["totalRequests"] == total {
					return
				}
			case <-ctx.Done():
				t.Fatalf("no event with totalRequests %v", total)
			}
		}
	}

	waitFor(0)
	e.createRequest(t)
	waitFor(1)
}
