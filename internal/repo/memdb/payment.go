package memdb

import (
	"context"

	"service-marketplace-api/internal/entity"
	"service-marketplace-api/internal/realtime"
	"service-marketplace-api/internal/repo/repo_errors"
)

type paymentRepo struct {
	*session
}

func (r *paymentRepo) CreatePayment(ctx context.Context, payment *entity.Payment) error {
	return r.write(func(t *tables) ([]realtime.Change, error) {
		if _, ok := t.payments[payment.Id]; ok {
			return nil, repo_errors.ErrAlreadyExists
		}
		t.payments[payment.Id] = *payment

		return nil, nil
	})
}

func (r *paymentRepo) GetPaymentById(ctx context.Context, id string) (*entity.Payment, error) {
	var payment entity.Payment
	err := r.read(func(t *tables) error {
		stored, ok := t.payments[id]
		if !ok {
			return repo_errors.ErrNotFound
		}
		payment = stored

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &payment, nil
}

func (r *paymentRepo) SavePayment(ctx context.Context, payment *entity.Payment) error {
	return r.write(func(t *tables) ([]realtime.Change, error) {
		if _, ok := t.payments[payment.Id]; !ok {
			return nil, repo_errors.ErrNotFound
		}
		t.payments[payment.Id] = *payment

		return nil, nil
	})
}
