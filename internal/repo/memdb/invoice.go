package memdb

import (
	"context"

	"service-marketplace-api/internal/entity"
	"service-marketplace-api/internal/realtime"
	"service-marketplace-api/internal/repo/repo_errors"
)

type invoiceRepo struct {
	*session
}

func invoiceChange(i entity.Invoice) realtime.Change {
	return realtime.Change{
		Collection: realtime.Invoices,
		DocumentId: i.Id.String(),
		UserIds:    []string{i.ProviderId.String(), i.OrderGiverId.String()},
	}
}

func (r *invoiceRepo) CreateInvoice(ctx context.Context, invoice *entity.Invoice) error {
	return r.write(func(t *tables) ([]realtime.Change, error) {
		id := invoice.Id.String()
		if _, ok := t.invoices[id]; ok {
			return nil, repo_errors.ErrAlreadyExists
		}
		t.invoices[id] = cloneInvoice(*invoice)

		return []realtime.Change{invoiceChange(*invoice)}, nil
	})
}

func (r *invoiceRepo) GetInvoiceById(ctx context.Context, id string) (*entity.Invoice, error) {
	var invoice entity.Invoice
	err := r.read(func(t *tables) error {
		stored, ok := t.invoices[id]
		if !ok {
			return repo_errors.ErrNotFound
		}
		invoice = cloneInvoice(stored)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &invoice, nil
}

func (r *invoiceRepo) GetInvoiceByIdForUpdate(ctx context.Context, id string) (*entity.Invoice, error) {
	return r.GetInvoiceById(ctx, id)
}

func (r *invoiceRepo) SaveInvoice(ctx context.Context, invoice *entity.Invoice) error {
	return r.write(func(t *tables) ([]realtime.Change, error) {
		id := invoice.Id.String()
		if _, ok := t.invoices[id]; !ok {
			return nil, repo_errors.ErrNotFound
		}
		t.invoices[id] = cloneInvoice(*invoice)

		return []realtime.Change{invoiceChange(*invoice)}, nil
	})
}

func (r *invoiceRepo) list(pg *entity.PaginationInput, keep func(entity.Invoice) bool) []entity.Invoice {
	invoices := make([]entity.Invoice, 0)
	_ = r.read(func(t *tables) error {
		for _, invoice := range t.invoices {
			if keep(invoice) {
				invoices = append(invoices, cloneInvoice(invoice))
			}
		}

		return nil
	})
	sortNewestFirst(invoices, func(i entity.Invoice) (int64, string) {
		return i.CreatedAt.UnixNano(), i.Id.String()
	})

	return paginate(invoices, pg)
}

func (r *invoiceRepo) GetProjectInvoices(ctx context.Context, projectId string) ([]entity.Invoice, error) {
	return r.list(nil, func(i entity.Invoice) bool { return i.ProjectId.String() == projectId }), nil
}

func (r *invoiceRepo) GetUserInvoices(ctx context.Context, userId string, pg *entity.PaginationInput) ([]entity.Invoice, error) {
	return r.list(pg, func(i entity.Invoice) bool {
		return i.ProviderId.String() == userId || i.OrderGiverId.String() == userId
	}), nil
}

func (r *invoiceRepo) GetInvoicesByStatus(ctx context.Context, status string, pg *entity.PaginationInput) ([]entity.Invoice, error) {
	return r.list(pg, func(i entity.Invoice) bool { return i.Status == status }), nil
}

func (r *invoiceRepo) GetInvoicesWithoutDocument(ctx context.Context, pg *entity.PaginationInput) ([]entity.Invoice, error) {
	return r.list(pg, func(i entity.Invoice) bool { return i.InvoiceUrl == "" }), nil
}
