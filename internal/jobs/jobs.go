// Package jobs runs the periodic background work of the marketplace.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"service-marketplace-api/internal/entity"
)

const runTimeout = 5 * time.Minute

type Reconciler interface {
	Reconcile(ctx context.Context) (*entity.ReconcileReport, error)
}

// cronLogger routes cron's own logging to slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}

type Scheduler struct {
	cron       *cron.Cron
	reconciler Reconciler
	logger     *slog.Logger
}

// NewScheduler runs reconciler on spec, a standard five-field cron
// expression or a descriptor such as "@every 5m". A run still going when
// the next one is due makes the next one skip.
func NewScheduler(spec string, reconciler Reconciler, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cl := cronLogger{logger: logger}

	s := &Scheduler{
		cron:       cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		reconciler: reconciler,
		logger:     logger,
	}
	if _, err := s.cron.AddFunc(spec, func() { s.RunOnce(context.Background()) }); err != nil {
		return nil, fmt.Errorf("jobs: reconcile schedule %q: %w", spec, err)
	}

	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("reconciliation scheduler started")
}

// Stop prevents new runs and waits for a running one, at most until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce runs one reconciliation pass now.
func (s *Scheduler) RunOnce(ctx context.Context) *entity.ReconcileReport {
	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	started := time.Now()
	report, err := s.reconciler.Reconcile(ctx)
	if err != nil {
		s.logger.Error("reconciliation pass aborted", "error", err)
	}
	if report != nil {
		s.logger.Info("reconciliation pass finished",
			"acceptances", report.AcceptancesRepaired,
			"cascades", report.CascadesRepaired,
			"documents", report.DocumentsRetried,
			"failures", report.Failures,
			"took", time.Since(started))
	}

	return report
}
