package pgdb

import (
	"context"

	"service-marketplace-api/internal/entity"
)

type PaymentRepo struct {
	*conn
}

var paymentColumns = []string{"id", "quote_id", "amount", "status", "simulated", "invoice_id", "created_at"}

func (r *PaymentRepo) CreatePayment(ctx context.Context, payment *entity.Payment) error {
	sqlReq, args, _ := r.SqlBuilder.
		Insert("payments").
		Columns(paymentColumns...).
		Values(payment.Id, payment.QuoteId, payment.Amount, payment.Status, payment.Simulated, payment.InvoiceId,
			payment.CreatedAt).
		ToSql()

	_, err := r.db().ExecContext(ctx, sqlReq, args...)

	return uniqueViolation(err)
}

func (r *PaymentRepo) GetPaymentById(ctx context.Context, id string) (*entity.Payment, error) {
	sqlReq, args, _ := r.SqlBuilder.
		Select(paymentColumns...).
		From("payments").
		Where("id = ?", id).
		ToSql()

	var p entity.Payment
	err := r.db().QueryRowContext(ctx, sqlReq, args...).
		Scan(&p.Id, &p.QuoteId, &p.Amount, &p.Status, &p.Simulated, &p.InvoiceId, &p.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}

	return &p, nil
}

func (r *PaymentRepo) SavePayment(ctx context.Context, payment *entity.Payment) error {
	sqlReq, args, _ := r.SqlBuilder.
		Update("payments").
		Set("status", payment.Status).
		Set("invoice_id", payment.InvoiceId).
		Where("id = ?", payment.Id).
		ToSql()

	res, err := r.db().ExecContext(ctx, sqlReq, args...)
	if err != nil {
		return err
	}

	return affectedOrNotFound(res)
}
