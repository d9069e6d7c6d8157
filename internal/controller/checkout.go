package controller

import (
	"log/slog"
	"net/http"

	"service-marketplace-api/internal/entity"
	"service-marketplace-api/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo"
)

// checkoutCallbackHandler receives the payment gateway's success callback.
// It sits outside the bearer-token group and runs as the system actor.
type checkoutCallbackHandler struct {
	checkoutService service.Checkout
	validate        *validator.Validate
	logger          *slog.Logger
}

func newCheckoutCallbackHandler(outer *echo.Group, opts Options, v *validator.Validate) *checkoutCallbackHandler {
	h := &checkoutCallbackHandler{checkoutService: opts.Services.Checkout, validate: v, logger: opts.Logger}
	outer.POST("/callback", h.PostPaymentResult)

	return h
}

type paymentResultInput struct {
	Id        string `json:"id" validate:"required,max=200"`
	QuoteId   string `json:"quoteId" validate:"required,uuid"`
	Amount    int64  `json:"amount" validate:"gte=0"`
	Status    string `json:"status" validate:"required,max=50"`
	Simulated bool   `json:"simulated"`
}

// /payments/callback
func (h *checkoutCallbackHandler) PostPaymentResult(c echo.Context) error {
	var input paymentResultInput
	if ok, err := bindAndValidate(c, h.validate, &input); !ok {
		return err
	}

	model := &entity.PaymentResultInput{
		Id: input.Id, QuoteId: input.QuoteId, Amount: input.Amount,
		Status: input.Status, Simulated: input.Simulated,
	}

	result, err := h.checkoutService.HandlePaymentSuccess(c.Request().Context(), model)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(http.StatusOK, result)
}
