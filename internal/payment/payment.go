// Package payment holds the payment gateways checkout opens intents with.
package payment

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"service-marketplace-api/internal/entity"
)

var ErrInvalidAmount = errors.New("payment amount must be positive")

// Simulated opens intents without contacting a provider. The client
// confirms them itself and reports success through the payment callback
// with simulated=true.
type Simulated struct {
	logger *slog.Logger
}

func NewSimulated(logger *slog.Logger) *Simulated {
	if logger == nil {
		logger = slog.Default()
	}

	return &Simulated{logger: logger}
}

func (g *Simulated) CreateIntent(ctx context.Context, params entity.PaymentIntentParams) (*entity.PaymentIntent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if params.Amount <= 0 {
		return nil, ErrInvalidAmount
	}

	id := "sim_" + uuid.NewString()
	g.logger.Info("simulated payment intent", "payment", id, "quote", params.QuoteId, "amount", params.Amount, "currency", params.Currency)

	return &entity.PaymentIntent{
		Id:           id,
		ClientSecret: id + "_secret_" + uuid.NewString(),
		Simulated:    true,
	}, nil
}
