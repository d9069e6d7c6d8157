package pgdb

import (
	"context"

	"service-marketplace-api/internal/entity"

	"github.com/Masterminds/squirrel"
)

type InvoiceRepo struct {
	*conn
}

var invoiceColumns = []string{
	"id", "project_id", "provider_id", "order_giver_id", "amount", "currency", "note", "status", "date",
	"invoice_url", "paid_at", "created_at", "updated_at",
}

func scanInvoice(row rowScanner) (*entity.Invoice, error) {
	var i entity.Invoice
	err := row.Scan(&i.Id, &i.ProjectId, &i.ProviderId, &i.OrderGiverId, &i.Amount, &i.Currency, &i.Note,
		&i.Status, &i.Date, &i.InvoiceUrl, &i.PaidAt, &i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		return nil, err
	}

	return &i, nil
}

func (r *InvoiceRepo) CreateInvoice(ctx context.Context, invoice *entity.Invoice) error {
	sqlReq, args, _ := r.SqlBuilder.
		Insert("invoices").
		Columns(invoiceColumns...).
		Values(invoice.Id, invoice.ProjectId, invoice.ProviderId, invoice.OrderGiverId, invoice.Amount,
			invoice.Currency, invoice.Note, invoice.Status, invoice.Date, invoice.InvoiceUrl, invoice.PaidAt,
			invoice.CreatedAt, invoice.UpdatedAt).
		ToSql()

	_, err := r.db().ExecContext(ctx, sqlReq, args...)

	return uniqueViolation(err)
}

func (r *InvoiceRepo) getById(ctx context.Context, id string, forUpdate bool) (*entity.Invoice, error) {
	uuidForm, err := parseId(id)
	if err != nil {
		return nil, err
	}

	builder := r.SqlBuilder.
		Select(invoiceColumns...).
		From("invoices").
		Where("id = ?", uuidForm)
	if forUpdate {
		builder = builder.Suffix("FOR UPDATE")
	}
	sqlReq, args, _ := builder.ToSql()

	invoice, err := scanInvoice(r.db().QueryRowContext(ctx, sqlReq, args...))
	if err != nil {
		return nil, notFound(err)
	}

	return invoice, nil
}

func (r *InvoiceRepo) GetInvoiceById(ctx context.Context, id string) (*entity.Invoice, error) {
	return r.getById(ctx, id, false)
}

func (r *InvoiceRepo) GetInvoiceByIdForUpdate(ctx context.Context, id string) (*entity.Invoice, error) {
	return r.getById(ctx, id, true)
}

func (r *InvoiceRepo) SaveInvoice(ctx context.Context, invoice *entity.Invoice) error {
	sqlReq, args, _ := r.SqlBuilder.
		Update("invoices").
		SetMap(map[string]any{
			"amount":      invoice.Amount,
			"currency":    invoice.Currency,
			"note":        invoice.Note,
			"status":      invoice.Status,
			"invoice_url": invoice.InvoiceUrl,
			"paid_at":     invoice.PaidAt,
			"updated_at":  invoice.UpdatedAt,
		}).
		Where("id = ?", invoice.Id).
		ToSql()

	res, err := r.db().ExecContext(ctx, sqlReq, args...)
	if err != nil {
		return err
	}

	return affectedOrNotFound(res)
}

func (r *InvoiceRepo) list(ctx context.Context, where squirrel.Sqlizer, pg *entity.PaginationInput) ([]entity.Invoice, error) {
	builder := r.SqlBuilder.
		Select(invoiceColumns...).
		From("invoices").
		Where(where).
		OrderBy("created_at DESC", "id DESC")
	sqlReq, args, _ := paginate(builder, pg).ToSql()

	rows, err := r.db().QueryContext(ctx, sqlReq, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invoices := make([]entity.Invoice, 0)
	for rows.Next() {
		invoice, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, *invoice)
	}

	return invoices, rows.Err()
}

func (r *InvoiceRepo) GetProjectInvoices(ctx context.Context, projectId string) ([]entity.Invoice, error) {
	uuidForm, err := parseId(projectId)
	if err != nil {
		return make([]entity.Invoice, 0), nil
	}

	return r.list(ctx, squirrel.Eq{"project_id": uuidForm}, nil)
}

func (r *InvoiceRepo) GetUserInvoices(ctx context.Context, userId string, pg *entity.PaginationInput) ([]entity.Invoice, error) {
	uuidForm, err := parseId(userId)
	if err != nil {
		return make([]entity.Invoice, 0), nil
	}

	return r.list(ctx, squirrel.Or{squirrel.Eq{"provider_id": uuidForm}, squirrel.Eq{"order_giver_id": uuidForm}}, pg)
}

func (r *InvoiceRepo) GetInvoicesByStatus(ctx context.Context, status string, pg *entity.PaginationInput) ([]entity.Invoice, error) {
	return r.list(ctx, squirrel.Eq{"status": status}, pg)
}

func (r *InvoiceRepo) GetInvoicesWithoutDocument(ctx context.Context, pg *entity.PaginationInput) ([]entity.Invoice, error) {
	return r.list(ctx, squirrel.Eq{"invoice_url": ""}, pg)
}
