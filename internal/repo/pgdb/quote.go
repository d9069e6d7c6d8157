package pgdb

import (
	"context"
	"time"

	"service-marketplace-api/internal/entity"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"
)

type QuoteRepo struct {
	*conn
}

var quoteColumns = []string{
	"id", "request_id", "provider_id", "client_id", "amount", "currency", "duration", "note", "package",
	"delivery_speed", "revisions", "include_materials", "attachments", "status", "created_at", "updated_at",
}

func scanQuote(row rowScanner) (*entity.Quote, error) {
	var q entity.Quote
	err := row.Scan(&q.Id, &q.RequestId, &q.ProviderId, &q.ClientId, &q.Amount, &q.Currency, &q.Duration, &q.Note,
		&q.Package, &q.DeliverySpeed, &q.Revisions, &q.IncludeMaterials, pq.Array(&q.Attachments), &q.Status,
		&q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, err
	}

	return &q, nil
}

func (r *QuoteRepo) CreateQuote(ctx context.Context, quote *entity.Quote) error {
	sqlReq, args, _ := r.SqlBuilder.
		Insert("quotes").
		Columns(quoteColumns...).
		Values(quote.Id, quote.RequestId, quote.ProviderId, quote.ClientId, quote.Amount, quote.Currency, quote.Duration,
			quote.Note, quote.Package, quote.DeliverySpeed, quote.Revisions, quote.IncludeMaterials,
			pq.Array(quote.Attachments), quote.Status, quote.CreatedAt, quote.UpdatedAt).
		ToSql()

	_, err := r.db().ExecContext(ctx, sqlReq, args...)

	return uniqueViolation(err)
}

func (r *QuoteRepo) GetQuoteById(ctx context.Context, id string) (*entity.Quote, error) {
	uuidForm, err := parseId(id)
	if err != nil {
		return nil, err
	}

	sqlReq, args, _ := r.SqlBuilder.
		Select(quoteColumns...).
		From("quotes").
		Where("id = ?", uuidForm).
		ToSql()

	quote, err := scanQuote(r.db().QueryRowContext(ctx, sqlReq, args...))
	if err != nil {
		return nil, notFound(err)
	}

	return quote, nil
}

func (r *QuoteRepo) UpdateQuoteStatusIf(ctx context.Context, id string, fromStatus string, newStatus string, at time.Time) (bool, error) {
	uuidForm, err := parseId(id)
	if err != nil {
		return false, err
	}

	sqlReq, args, _ := r.SqlBuilder.
		Update("quotes").
		Set("status", newStatus).
		Set("updated_at", at).
		Where("id = ?", uuidForm).
		Where("status = ?", fromStatus).
		ToSql()

	res, err := r.db().ExecContext(ctx, sqlReq, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 1 {
		return true, nil
	}

	// tell a status mismatch apart from a missing quote
	if _, err := r.GetQuoteById(ctx, id); err != nil {
		return false, err
	}

	return false, nil
}

func (r *QuoteRepo) list(ctx context.Context, column string, id string, pg *entity.PaginationInput) ([]entity.Quote, error) {
	uuidForm, err := parseId(id)
	if err != nil {
		return make([]entity.Quote, 0), nil
	}

	builder := r.SqlBuilder.
		Select(quoteColumns...).
		From("quotes").
		Where(squirrel.Eq{column: uuidForm}).
		OrderBy("created_at DESC", "id DESC")
	sqlReq, args, _ := paginate(builder, pg).ToSql()

	rows, err := r.db().QueryContext(ctx, sqlReq, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	quotes := make([]entity.Quote, 0)
	for rows.Next() {
		quote, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		quotes = append(quotes, *quote)
	}

	return quotes, rows.Err()
}

func (r *QuoteRepo) GetProviderQuotes(ctx context.Context, providerId string, pg *entity.PaginationInput) ([]entity.Quote, error) {
	return r.list(ctx, "provider_id", providerId, pg)
}

func (r *QuoteRepo) GetClientQuotes(ctx context.Context, clientId string, pg *entity.PaginationInput) ([]entity.Quote, error) {
	return r.list(ctx, "client_id", clientId, pg)
}

func (r *QuoteRepo) GetRequestQuotes(ctx context.Context, requestId string, pg *entity.PaginationInput) ([]entity.Quote, error) {
	return r.list(ctx, "request_id", requestId, pg)
}
