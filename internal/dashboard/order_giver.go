package dashboard

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"service-marketplace-api/internal/auth"
	"service-marketplace-api/internal/common"
	"service-marketplace-api/internal/entity"
	"service-marketplace-api/internal/service"
)

type OrderGiverStats struct {
	RequestsByStatus    map[string]int  `json:"requestsByStatus"`
	TotalRequests       int             `json:"totalRequests"`
	QuotesReceived      int             `json:"quotesReceived"`
	QuotesPending       int             `json:"quotesPending"`
	TotalSpent          decimal.Decimal `json:"totalSpent"`
	OutstandingInvoices int             `json:"outstandingInvoices"`
}

type OrderGiverContext struct {
	ctx     context.Context
	userId  string
	svc     *service.Services
	onStats func(OrderGiverStats)
	subs    subscriptions

	mu       sync.Mutex
	requests []entity.RequestOutputModel
	quotes   []entity.QuoteOutputModel
	invoices []entity.InvoiceOutputModel
	stats    OrderGiverStats
}

// NewOrderGiverContext opens the view of the actor in ctx. onStats, when
// set, is called with fresh stats after every change.
func NewOrderGiverContext(ctx context.Context, svc *service.Services, onStats func(OrderGiverStats)) (*OrderGiverContext, error) {
	actor, ok := auth.ActorFromContext(ctx)
	if !ok {
		return nil, service.ErrNoActor
	}

	c := &OrderGiverContext{
		ctx:     detach(ctx),
		userId:  actor.UserId,
		svc:     svc,
		onStats: onStats,
		stats:   computeOrderGiverStats(actor.UserId, nil, nil, nil),
	}
	err := c.subs.subscribe(
		func() (func(), error) {
			return svc.Request.SubscribeToUserRequests(c.ctx, func(r []entity.RequestOutputModel) {
				c.update(func() { c.requests = r })
			})
		},
		func() (func(), error) {
			return svc.Quote.SubscribeToClientQuotes(c.ctx, func(q []entity.QuoteOutputModel) {
				c.update(func() { c.quotes = q })
			})
		},
		func() (func(), error) {
			return svc.Invoice.SubscribeToUserInvoices(c.ctx, func(i []entity.InvoiceOutputModel) {
				c.update(func() { c.invoices = i })
			})
		},
	)
	if err != nil {
		return nil, err
	}

	return c, nil
}

func (c *OrderGiverContext) update(set func()) {
	c.mu.Lock()
	set()
	c.stats = computeOrderGiverStats(c.userId, c.requests, c.quotes, c.invoices)
	stats := c.stats
	c.mu.Unlock()

	if c.onStats != nil {
		c.onStats(stats)
	}
}

func computeOrderGiverStats(userId string, requests []entity.RequestOutputModel, quotes []entity.QuoteOutputModel, invoices []entity.InvoiceOutputModel) OrderGiverStats {
	stats := OrderGiverStats{
		RequestsByStatus: make(map[string]int),
		TotalRequests:    len(requests),
		QuotesReceived:   len(quotes),
		TotalSpent:       decimal.Zero,
	}
	for _, r := range requests {
		stats.RequestsByStatus[r.Status]++
	}
	for _, q := range quotes {
		if q.Status == common.QuotePending {
			stats.QuotesPending++
		}
	}
	for _, i := range invoices {
		if i.OrderGiverId != userId {
			continue
		}
		switch i.Status {
		case common.InvoicePaid:
			stats.TotalSpent = stats.TotalSpent.Add(i.Amount)
		case common.InvoiceGenerated:
			stats.OutstandingInvoices++
		}
	}

	return stats
}

func (c *OrderGiverContext) Stats() OrderGiverStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.stats
}

func (c *OrderGiverContext) Requests() []entity.RequestOutputModel {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]entity.RequestOutputModel(nil), c.requests...)
}

// CreateRequest publishes a request and announces it to the providers serving area.
func (c *OrderGiverContext) CreateRequest(input *entity.CreateRequestInput, area string) (*entity.RequestOutputModel, int, error) {
	request, err := c.svc.Request.CreateRequest(c.ctx, input)
	if err != nil {
		return nil, 0, err
	}
	notified, err := c.svc.Matching.BroadcastRequest(c.ctx, request.Id, area)
	if err != nil {
		return request, 0, err
	}

	return request, notified, nil
}

func (c *OrderGiverContext) CancelRequest(requestId string) (*entity.RequestOutputModel, error) {
	return c.svc.Request.CancelRequest(c.ctx, requestId)
}

func (c *OrderGiverContext) AcceptQuote(quoteId string) (*entity.AcceptQuoteOutputModel, error) {
	return c.svc.Quote.AcceptQuote(c.ctx, quoteId)
}

func (c *OrderGiverContext) RejectQuote(quoteId string) (*entity.QuoteOutputModel, error) {
	return c.svc.Quote.RejectQuote(c.ctx, quoteId)
}

func (c *OrderGiverContext) PayInvoice(invoiceId string) (*entity.InvoiceOutputModel, error) {
	return c.svc.Invoice.MarkInvoicePaid(c.ctx, invoiceId)
}

func (c *OrderGiverContext) RateRequest(requestId string, rating int, review string) (*entity.RequestOutputModel, error) {
	return c.svc.Request.RateRequest(c.ctx, requestId, rating, review)
}

// Close unsubscribes everything. Calling it again does nothing.
func (c *OrderGiverContext) Close() {
	c.subs.close()
}
