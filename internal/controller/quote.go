package controller

import (
	"log/slog"
	"net/http"

	"service-marketplace-api/internal/entity"
	"service-marketplace-api/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo"
	"github.com/shopspring/decimal"
)

type quoteRoutesHandler struct {
	quoteService    service.Quote
	checkoutService service.Checkout
	validate        *validator.Validate
	logger          *slog.Logger
}

func newQuoteRoutesHandler(outer *echo.Group, opts Options, v *validator.Validate) *quoteRoutesHandler {
	h := &quoteRoutesHandler{
		quoteService:    opts.Services.Quote,
		checkoutService: opts.Services.Checkout,
		validate:        v,
		logger:          opts.Logger,
	}

	outer.POST("/quotes/new", h.PostQuote)
	outer.GET("/quotes/my", h.GetUserQuotes)
	outer.GET("/quotes/:quoteId", h.GetQuote)
	outer.PUT("/quotes/:quoteId/accept", h.AcceptQuote)
	outer.PUT("/quotes/:quoteId/reject", h.RejectQuote)
	outer.PUT("/quotes/:quoteId/withdraw", h.WithdrawQuote)
	outer.POST("/quotes/:quoteId/payment_intent", h.PostPaymentIntent)

	return h
}

type postQuoteInput struct {
	RequestId        string          `json:"requestId" validate:"required,uuid"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency" validate:"omitempty,len=3"`
	Duration         string          `json:"duration" validate:"max=100"`
	Note             string          `json:"note" validate:"max=2000"`
	Package          string          `json:"package" validate:"omitempty,oneof=basic standard premium"`
	DeliverySpeed    string          `json:"deliverySpeed" validate:"omitempty,oneof=standard express urgent"`
	Revisions        int             `json:"revisions" validate:"gte=0,lte=100"`
	IncludeMaterials bool            `json:"includeMaterials"`
	Attachments      []string        `json:"attachments" validate:"max=20,dive,url"`
}

// /quotes/new
func (h *quoteRoutesHandler) PostQuote(c echo.Context) error {
	var input postQuoteInput
	if ok, err := bindAndValidate(c, h.validate, &input); !ok {
		return err
	}

	model := &entity.CreateQuoteInput{
		RequestId: input.RequestId, Amount: input.Amount, Currency: input.Currency,
		Duration: input.Duration, Note: input.Note, Package: input.Package,
		DeliverySpeed: input.DeliverySpeed, Revisions: input.Revisions,
		IncludeMaterials: input.IncludeMaterials, Attachments: input.Attachments,
	}

	quote, err := h.quoteService.SendQuote(c.Request().Context(), model)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(http.StatusOK, quote)
}

// /quotes/my lists the quotes sent by a provider or received by an order giver.
func (h *quoteRoutesHandler) GetUserQuotes(c echo.Context) error {
	var input = newPaginationInput()
	if ok, err := bindAndValidate(c, h.validate, &input); !ok {
		return err
	}

	quotes, err := h.quoteService.GetQuotesForUser(c.Request().Context(), input.toEntity())
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(http.StatusOK, quotes)
}

// /quotes/:quoteId
func (h *quoteRoutesHandler) GetQuote(c echo.Context) error {
	quote, err := h.quoteService.GetQuoteById(c.Request().Context(), c.Param("quoteId"))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(http.StatusOK, quote)
}

// /quotes/:quoteId/accept
func (h *quoteRoutesHandler) AcceptQuote(c echo.Context) error {
	accepted, err := h.quoteService.AcceptQuote(c.Request().Context(), c.Param("quoteId"))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(http.StatusOK, accepted)
}

// /quotes/:quoteId/reject
func (h *quoteRoutesHandler) RejectQuote(c echo.Context) error {
	quote, err := h.quoteService.RejectQuote(c.Request().Context(), c.Param("quoteId"))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(http.StatusOK, quote)
}

// /quotes/:quoteId/withdraw
func (h *quoteRoutesHandler) WithdrawQuote(c echo.Context) error {
	quote, err := h.quoteService.WithdrawQuote(c.Request().Context(), c.Param("quoteId"))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(http.StatusOK, quote)
}

type paymentIntentInput struct {
	MethodRef string `json:"methodRef" validate:"max=200"`
}

// /quotes/:quoteId/payment_intent
func (h *quoteRoutesHandler) PostPaymentIntent(c echo.Context) error {
	var input paymentIntentInput
	if ok, err := bindAndValidate(c, h.validate, &input); !ok {
		return err
	}

	intent, err := h.checkoutService.CreatePaymentIntent(c.Request().Context(), c.Param("quoteId"), input.MethodRef)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(http.StatusOK, intent)
}
