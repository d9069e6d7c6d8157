package pgdb

import (
	"context"

	"service-marketplace-api/internal/common"
	"service-marketplace-api/internal/entity"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"
)

type RequestRepo struct {
	*conn
}

var requestColumns = []string{
	"id", "title", "description", "service_type", "priority", "status", "location",
	"budget_amount", "budget_currency", "contact", "files", "created_by", "provider_assigned",
	"provider_id", "accepted_quote_id", "accepted_quote", "rating", "review", "rated_at",
	"created_at", "updated_at", "completed_at", "cancelled_at",
}

func scanRequest(row rowScanner) (*entity.Request, error) {
	var r entity.Request
	err := row.Scan(&r.Id, &r.Title, &r.Description, &r.ServiceType, &r.Priority, &r.Status, &r.Location,
		&r.BudgetAmount, &r.BudgetCurrency, &r.Contact, pq.Array(&r.Files), &r.CreatedBy, &r.ProviderAssigned,
		&r.ProviderId, &r.AcceptedQuoteId, &r.AcceptedQuote, &r.Rating, &r.Review, &r.RatedAt,
		&r.CreatedAt, &r.UpdatedAt, &r.CompletedAt, &r.CancelledAt)
	if err != nil {
		return nil, err
	}

	return &r, nil
}

func (r *RequestRepo) CreateRequest(ctx context.Context, request *entity.Request) error {
	sqlReq, args, _ := r.SqlBuilder.
		Insert("requests").
		Columns(requestColumns...).
		Values(request.Id, request.Title, request.Description, request.ServiceType, request.Priority, request.Status,
			request.Location, request.BudgetAmount, request.BudgetCurrency, request.Contact, pq.Array(request.Files),
			request.CreatedBy, request.ProviderAssigned, request.ProviderId, request.AcceptedQuoteId, request.AcceptedQuote,
			request.Rating, request.Review, request.RatedAt, request.CreatedAt, request.UpdatedAt,
			request.CompletedAt, request.CancelledAt).
		ToSql()

	_, err := r.db().ExecContext(ctx, sqlReq, args...)

	return uniqueViolation(err)
}

func (r *RequestRepo) getById(ctx context.Context, id string, forUpdate bool) (*entity.Request, error) {
	uuidForm, err := parseId(id)
	if err != nil {
		return nil, err
	}

	builder := r.SqlBuilder.
		Select(requestColumns...).
		From("requests").
		Where("id = ?", uuidForm)
	if forUpdate {
		builder = builder.Suffix("FOR UPDATE")
	}
	sqlReq, args, _ := builder.ToSql()

	request, err := scanRequest(r.db().QueryRowContext(ctx, sqlReq, args...))
	if err != nil {
		return nil, notFound(err)
	}

	return request, nil
}

func (r *RequestRepo) GetRequestById(ctx context.Context, id string) (*entity.Request, error) {
	return r.getById(ctx, id, false)
}

func (r *RequestRepo) GetRequestByIdForUpdate(ctx context.Context, id string) (*entity.Request, error) {
	return r.getById(ctx, id, true)
}

func (r *RequestRepo) SaveRequest(ctx context.Context, request *entity.Request) error {
	sqlReq, args, _ := r.SqlBuilder.
		Update("requests").
		SetMap(map[string]any{
			"title":             request.Title,
			"description":       request.Description,
			"service_type":      request.ServiceType,
			"priority":          request.Priority,
			"status":            request.Status,
			"location":          request.Location,
			"budget_amount":     request.BudgetAmount,
			"budget_currency":   request.BudgetCurrency,
			"contact":           request.Contact,
			"files":             pq.Array(request.Files),
			"provider_assigned": request.ProviderAssigned,
			"provider_id":       request.ProviderId,
			"accepted_quote_id": request.AcceptedQuoteId,
			"accepted_quote":    request.AcceptedQuote,
			"rating":            request.Rating,
			"review":            request.Review,
			"rated_at":          request.RatedAt,
			"updated_at":        request.UpdatedAt,
			"completed_at":      request.CompletedAt,
			"cancelled_at":      request.CancelledAt,
		}).
		Where("id = ?", request.Id).
		ToSql()

	res, err := r.db().ExecContext(ctx, sqlReq, args...)
	if err != nil {
		return err
	}

	return affectedOrNotFound(res)
}

func (r *RequestRepo) list(ctx context.Context, where squirrel.Sqlizer, pg *entity.PaginationInput) ([]entity.Request, error) {
	builder := r.SqlBuilder.
		Select(requestColumns...).
		From("requests").
		Where(where).
		OrderBy("created_at DESC", "id DESC")
	builder = paginate(builder, pg)
	sqlReq, args, _ := builder.ToSql()

	rows, err := r.db().QueryContext(ctx, sqlReq, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := make([]entity.Request, 0)
	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *request)
	}

	return requests, rows.Err()
}

func (r *RequestRepo) GetUserRequests(ctx context.Context, ownerId string, pg *entity.PaginationInput) ([]entity.Request, error) {
	uuidForm, err := parseId(ownerId)
	if err != nil {
		return make([]entity.Request, 0), nil
	}

	return r.list(ctx, squirrel.Eq{"created_by": uuidForm}, pg)
}

func (r *RequestRepo) GetOpenRequests(ctx context.Context, serviceType string, pg *entity.PaginationInput) ([]entity.Request, error) {
	where := squirrel.And{squirrel.Eq{"status": common.RequestPending}}
	if serviceType != "" {
		where = append(where, squirrel.Eq{"service_type": serviceType})
	}

	return r.list(ctx, where, pg)
}

func (r *RequestRepo) GetPendingRequestsWithAcceptedQuote(ctx context.Context) ([]entity.Request, error) {
	return r.list(ctx, squirrel.And{
		squirrel.Eq{"status": common.RequestPending},
		squirrel.NotEq{"accepted_quote_id": nil},
	}, nil)
}

func paginate(builder squirrel.SelectBuilder, pg *entity.PaginationInput) squirrel.SelectBuilder {
	if pg == nil {
		return builder
	}
	if pg.Limit > 0 {
		builder = builder.Limit(uint64(pg.Limit))
	}
	if pg.Offset > 0 {
		builder = builder.Offset(uint64(pg.Offset))
	}

	return builder
}
