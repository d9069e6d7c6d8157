package controller

import (
	"context"
	"log/slog"

	"service-marketplace-api/internal/auth"
	"service-marketplace-api/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo"
	"github.com/labstack/echo/middleware"
)

type Options struct {
	Services       *service.Services
	Tokens         *auth.Tokens
	CallbackSecret string
	Logger         *slog.Logger
	// Streams ends open event streams when cancelled. Optional.
	Streams context.Context
}

func SetupRoutesHandlers(handler *echo.Echo, opts Options) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Streams == nil {
		opts.Streams = context.Background()
	}
	validate := validator.New(validator.WithRequiredStructEnabled())

	handler.Use(requestLogger(opts.Logger), middleware.Recover())

	api := handler.Group("/api")
	newDiagnosticRoutesHandler(api, opts.Services)
	newCheckoutCallbackHandler(api.Group("/payments", callbackAuth(opts.CallbackSecret)), opts, validate)

	private := api.Group("", authenticate(opts.Tokens))
	newRequestRoutesHandler(private, opts, validate)
	newQuoteRoutesHandler(private, opts, validate)
	newProjectRoutesHandler(private, opts, validate)
	newInvoiceRoutesHandler(private, opts, validate)
	newNotificationRoutesHandler(private, opts, validate)
	newDashboardRoutesHandler(private, opts)
}
