package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"service-marketplace-api/internal/auth"
	"service-marketplace-api/internal/blob"
	"service-marketplace-api/internal/config"
	"service-marketplace-api/internal/controller"
	"service-marketplace-api/internal/delivery"
	"service-marketplace-api/internal/invoicepdf"
	"service-marketplace-api/internal/jobs"
	"service-marketplace-api/internal/payment"
	"service-marketplace-api/internal/realtime"
	"service-marketplace-api/internal/repo"
	"service-marketplace-api/internal/repo/memdb"
	"service-marketplace-api/internal/repo/pgdb"
	"service-marketplace-api/internal/service"
	"service-marketplace-api/migrations"
	"service-marketplace-api/pkg/http_server"
	"service-marketplace-api/pkg/postgres"

	"github.com/labstack/echo"
)

// openStore wires the repositories to cfg.Store. Changes reach hub either
// from the in-memory store directly or from the Postgres trigger feed.
func openStore(ctx context.Context, cfg *config.Config, hub *realtime.Hub, logger *slog.Logger) (*repo.Repositories, func(), error) {
	if cfg.Store == config.StoreMemory {
		logger.Warn("using the in-memory store, data is lost on exit")
		return memdb.NewRepositories(memdb.New(hub)), func() {}, nil
	}

	logger.Info("connecting database")
	postgresDB, err := postgres.NewDB(cfg.Postgres.URL,
		postgres.MaxOpenConns(cfg.Postgres.MaxOpenConns),
		postgres.ConnMaxLifetime(cfg.Postgres.ConnMaxLifetime))
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}

	if cfg.Postgres.Migrate {
		logger.Info("running migrations")
		changed, err := migrations.Up(postgresDB.Database, cfg.Postgres.Database)
		if err != nil {
			postgresDB.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		if !changed {
			logger.Info("no change made by migration scripts")
		}
	}

	feed, err := realtime.NewPostgresFeed(cfg.Postgres.URL, hub, logger)
	if err != nil {
		postgresDB.Close()
		return nil, nil, fmt.Errorf("change feed: %w", err)
	}
	feedCtx, stopFeed := context.WithCancel(ctx)
	go feed.Run(feedCtx)

	closeStore := func() {
		stopFeed()
		if err := postgresDB.Close(); err != nil {
			logger.Error("close database", "error", err)
		}
	}

	return pgdb.NewRepositories(postgresDB), closeStore, nil
}

func newSender(cfg config.TwilioConfig, logger *slog.Logger) delivery.Sender {
	if !cfg.Enabled() {
		logger.Warn("twilio is not configured, push messages are only logged")
		return delivery.LogSender{Logger: logger}
	}

	return delivery.NewTwilioSender(delivery.TwilioConfig{
		AccountSid:     cfg.AccountSid,
		AuthToken:      cfg.AuthToken,
		PhoneNumber:    cfg.PhoneNumber,
		WhatsappNumber: cfg.WhatsappNumber,
	})
}

// Run serves until SIGINT/SIGTERM or a server failure.
func Run(cfg *config.Config, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := realtime.NewHub(logger)
	repositories, closeStore, err := openStore(ctx, cfg, hub, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	files, err := blob.NewFileStore(cfg.Files.Root, cfg.Files.BaseURL)
	if err != nil {
		return fmt.Errorf("file store: %w", err)
	}

	services := service.NewServices(service.Dependencies{
		Repos:    repositories,
		Changes:  hub,
		Renderer: invoicepdf.New(cfg.Invoice.Issuer),
		Blob:     files,
		Gateway:  payment.NewSimulated(logger),
		Logger:   logger,
	})

	worker := delivery.NewWorker(repositories, newSender(cfg.Twilio, logger), logger)
	detach := worker.Attach(hub)
	defer detach()
	go worker.Run(ctx)

	scheduler, err := jobs.NewScheduler(cfg.Jobs.ReconcileSchedule, services.Reconcile, logger)
	if err != nil {
		return err
	}
	scheduler.Start()

	handler := echo.New()
	handler.HideBanner = true
	handler.Static("/files", files.Root())

	logger.Info("setup routes")
	streams, endStreams := context.WithCancel(ctx)
	controller.SetupRoutesHandlers(handler, controller.Options{
		Services:       services,
		Tokens:         auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		CallbackSecret: cfg.Auth.CallbackSecret,
		Logger:         logger,
		Streams:        streams,
	})

	logger.Info("starting server", "address", cfg.Server.Address, "store", cfg.Store)
	httpServer, err := http_server.New(handler, cfg.Server.Address,
		http_server.ShutdownTimeout(cfg.Server.ShutdownTimeout),
		http_server.OnShutdown(endStreams))
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	logger.Info("ready to process requests")

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	var serveErr error
	select {
	case s := <-interrupt:
		logger.Info("got signal", "signal", s.String())
	case serveErr = <-httpServer.Notify():
		logger.Error("server stopped", "error", serveErr)
	}

	logger.Info("shutting down")
	if err := httpServer.Shutdown(); err != nil {
		logger.Error("shutdown", "error", err)
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Minute)
	defer stopCancel()
	if err := scheduler.Stop(stopCtx); err != nil {
		logger.Warn("reconciliation still running at exit", "error", err)
	}

	stats := worker.Stats()
	logger.Info("successful shutdown", "pushDelivered", stats.Delivered, "pushFailed", stats.Failed, "pushDropped", stats.Dropped)

	return serveErr
}
