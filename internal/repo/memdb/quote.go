package memdb

import (
	"context"
	"time"

	"service-marketplace-api/internal/entity"
	"service-marketplace-api/internal/realtime"
	"service-marketplace-api/internal/repo/repo_errors"
)

type quoteRepo struct {
	*session
}

func quoteChange(q entity.Quote) realtime.Change {
	return realtime.Change{
		Collection: realtime.Quotes,
		DocumentId: q.Id.String(),
		UserIds:    []string{q.ProviderId.String(), q.ClientId.String()},
	}
}

func (r *quoteRepo) CreateQuote(ctx context.Context, quote *entity.Quote) error {
	return r.write(func(t *tables) ([]realtime.Change, error) {
		id := quote.Id.String()
		if _, ok := t.quotes[id]; ok {
			return nil, repo_errors.ErrAlreadyExists
		}
		t.quotes[id] = cloneQuote(*quote)

		return []realtime.Change{quoteChange(*quote)}, nil
	})
}

func (r *quoteRepo) GetQuoteById(ctx context.Context, id string) (*entity.Quote, error) {
	var quote entity.Quote
	err := r.read(func(t *tables) error {
		stored, ok := t.quotes[id]
		if !ok {
			return repo_errors.ErrNotFound
		}
		quote = cloneQuote(stored)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &quote, nil
}

func (r *quoteRepo) UpdateQuoteStatusIf(ctx context.Context, id string, fromStatus string, newStatus string, at time.Time) (bool, error) {
	updated := false
	err := r.write(func(t *tables) ([]realtime.Change, error) {
		quote, ok := t.quotes[id]
		if !ok {
			return nil, repo_errors.ErrNotFound
		}
		if quote.Status != fromStatus {
			return nil, nil
		}
		quote.Status = newStatus
		quote.UpdatedAt = at
		t.quotes[id] = quote
		updated = true

		return []realtime.Change{quoteChange(quote)}, nil
	})

	return updated, err
}

func (r *quoteRepo) list(pg *entity.PaginationInput, keep func(entity.Quote) bool) []entity.Quote {
	quotes := make([]entity.Quote, 0)
	_ = r.read(func(t *tables) error {
		for _, quote := range t.quotes {
			if keep(quote) {
				quotes = append(quotes, cloneQuote(quote))
			}
		}

		return nil
	})
	sortNewestFirst(quotes, func(q entity.Quote) (int64, string) {
		return q.CreatedAt.UnixNano(), q.Id.String()
	})

	return paginate(quotes, pg)
}

func (r *quoteRepo) GetProviderQuotes(ctx context.Context, providerId string, pg *entity.PaginationInput) ([]entity.Quote, error) {
	return r.list(pg, func(q entity.Quote) bool { return q.ProviderId.String() == providerId }), nil
}

func (r *quoteRepo) GetClientQuotes(ctx context.Context, clientId string, pg *entity.PaginationInput) ([]entity.Quote, error) {
	return r.list(pg, func(q entity.Quote) bool { return q.ClientId.String() == clientId }), nil
}

func (r *quoteRepo) GetRequestQuotes(ctx context.Context, requestId string, pg *entity.PaginationInput) ([]entity.Quote, error) {
	return r.list(pg, func(q entity.Quote) bool { return q.RequestId.String() == requestId }), nil
}
