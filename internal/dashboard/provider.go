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

type ProviderStats struct {
	QuotesSent        int             `json:"quotesSent"`
	QuotesAccepted    int             `json:"quotesAccepted"`
	QuotesPending     int             `json:"quotesPending"`
	AcceptanceRate    float64         `json:"acceptanceRate"`
	ActiveProjects    int             `json:"activeProjects"`
	CompletedProjects int             `json:"completedProjects"`
	Earnings          decimal.Decimal `json:"earnings"`
	Outstanding       decimal.Decimal `json:"outstanding"`
}

type ProviderContext struct {
	ctx     context.Context
	userId  string
	svc     *service.Services
	onStats func(ProviderStats)
	subs    subscriptions

	mu       sync.Mutex
	quotes   []entity.QuoteOutputModel
	projects []entity.ProjectOutputModel
	invoices []entity.InvoiceOutputModel
	stats    ProviderStats
}

func NewProviderContext(ctx context.Context, svc *service.Services, onStats func(ProviderStats)) (*ProviderContext, error) {
	actor, ok := auth.ActorFromContext(ctx)
	if !ok {
		return nil, service.ErrNoActor
	}
	if !common.IsProviderRole(actor.Role) {
		return nil, service.ErrProviderRequired
	}

	c := &ProviderContext{
		ctx:     detach(ctx),
		userId:  actor.UserId,
		svc:     svc,
		onStats: onStats,
		stats:   computeProviderStats(actor.UserId, nil, nil, nil),
	}
	err := c.subs.subscribe(
		func() (func(), error) {
			return svc.Quote.SubscribeToProviderQuotes(c.ctx, func(q []entity.QuoteOutputModel) {
				c.update(func() { c.quotes = q })
			})
		},
		func() (func(), error) {
			return svc.Project.SubscribeToUserProjects(c.ctx, func(p []entity.ProjectOutputModel) {
				c.update(func() { c.projects = p })
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

func (c *ProviderContext) update(set func()) {
	c.mu.Lock()
	set()
	c.stats = computeProviderStats(c.userId, c.quotes, c.projects, c.invoices)
	stats := c.stats
	c.mu.Unlock()

	if c.onStats != nil {
		c.onStats(stats)
	}
}

func computeProviderStats(userId string, quotes []entity.QuoteOutputModel, projects []entity.ProjectOutputModel, invoices []entity.InvoiceOutputModel) ProviderStats {
	stats := ProviderStats{
		QuotesSent:  len(quotes),
		Earnings:    decimal.Zero,
		Outstanding: decimal.Zero,
	}
	for _, q := range quotes {
		switch q.Status {
		case common.QuoteAccepted:
			stats.QuotesAccepted++
		case common.QuotePending:
			stats.QuotesPending++
		}
	}
	if stats.QuotesSent > 0 {
		stats.AcceptanceRate = float64(stats.QuotesAccepted) / float64(stats.QuotesSent)
	}
	for _, p := range projects {
		if p.ProviderId != userId {
			continue
		}
		if p.Status == common.ProjectCompleted {
			stats.CompletedProjects++
		} else {
			stats.ActiveProjects++
		}
	}
	for _, i := range invoices {
		if i.ProviderId != userId {
			continue
		}
		switch i.Status {
		case common.InvoicePaid:
			stats.Earnings = stats.Earnings.Add(i.Amount)
		case common.InvoiceGenerated:
			stats.Outstanding = stats.Outstanding.Add(i.Amount)
		}
	}

	return stats
}

func (c *ProviderContext) Stats() ProviderStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.stats
}

func (c *ProviderContext) Projects() []entity.ProjectOutputModel {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]entity.ProjectOutputModel(nil), c.projects...)
}

func (c *ProviderContext) SendQuote(input *entity.CreateQuoteInput) (*entity.QuoteOutputModel, error) {
	return c.svc.Quote.SendQuote(c.ctx, input)
}

func (c *ProviderContext) WithdrawQuote(quoteId string) (*entity.QuoteOutputModel, error) {
	return c.svc.Quote.WithdrawQuote(c.ctx, quoteId)
}

func (c *ProviderContext) UpdateProgress(projectId string, progress int, updates *entity.ProjectUpdatesInput) (*entity.ProjectOutputModel, error) {
	return c.svc.Project.UpdateProjectProgress(c.ctx, projectId, progress, updates)
}

func (c *ProviderContext) GenerateInvoice(projectId string, overrides *entity.InvoiceOverridesInput) (*entity.InvoiceOutputModel, error) {
	return c.svc.Invoice.GenerateInvoice(c.ctx, projectId, overrides)
}

func (c *ProviderContext) Close() {
	c.subs.close()
}
