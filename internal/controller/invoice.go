package controller

import (
	"log/slog"
	"net/http"

	"service-marketplace-api/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo"
)

type invoiceRoutesHandler struct {
	invoiceService service.Invoice
	validate       *validator.Validate
	logger         *slog.Logger
}

func newInvoiceRoutesHandler(outer *echo.Group, opts Options, v *validator.Validate) *invoiceRoutesHandler {
	h := &invoiceRoutesHandler{invoiceService: opts.Services.Invoice, validate: v, logger: opts.Logger}

	outer.GET("/invoices/my", h.GetUserInvoices)
	outer.GET("/invoices/:invoiceId", h.GetInvoice)
	outer.PUT("/invoices/:invoiceId/pay", h.PayInvoice)
	outer.PUT("/invoices/:invoiceId/document", h.RegenerateDocument)

	return h
}

// /invoices/my
func (h *invoiceRoutesHandler) GetUserInvoices(c echo.Context) error {
	var input = newPaginationInput()
	if ok, err := bindAndValidate(c, h.validate, &input); !ok {
		return err
	}

	invoices, err := h.invoiceService.ListUserInvoices(c.Request().Context(), input.toEntity())
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(http.StatusOK, invoices)
}

// /invoices/:invoiceId
func (h *invoiceRoutesHandler) GetInvoice(c echo.Context) error {
	invoice, err := h.invoiceService.GetInvoiceById(c.Request().Context(), c.Param("invoiceId"))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(http.StatusOK, invoice)
}

// /invoices/:invoiceId/pay
func (h *invoiceRoutesHandler) PayInvoice(c echo.Context) error {
	invoice, err := h.invoiceService.MarkInvoicePaid(c.Request().Context(), c.Param("invoiceId"))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(http.StatusOK, invoice)
}

// /invoices/:invoiceId/document renders and uploads the PDF again.
func (h *invoiceRoutesHandler) RegenerateDocument(c echo.Context) error {
	invoice, err := h.invoiceService.RegenerateInvoiceDocument(c.Request().Context(), c.Param("invoiceId"))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(http.StatusOK, invoice)
}
