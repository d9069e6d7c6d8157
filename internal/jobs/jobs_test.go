package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"service-marketplace-api/internal/entity"
)

type countingReconciler struct {
	runs atomic.Int32
	err  error
}

func (r *countingReconciler) Reconcile(ctx context.Context) (*entity.ReconcileReport, error) {
	r.runs.Add(1)
	return &entity.ReconcileReport{CascadesRepaired: 1}, r.err
}

func TestNewSchedulerRejectsBadSpec(t *testing.T) {
	if _, err := NewScheduler("every now and then", &countingReconciler{}, nil); err == nil {
		t.Fatal("expected a schedule error")
	}
}

func TestRunOnce(t *testing.T) {
	r := &countingReconciler{err: errors.New("listing failed")}
	s, err := NewScheduler("@every 1h", r, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	report := s.RunOnce(context.Background())
	if report == nil || report.CascadesRepaired != 1 || r.runs.Load() != 1 {
		t.Fatalf("report = %+v, runs = %d", report, r.runs.Load())
	}
}

func TestSchedulerRunsOnSchedule(t *testing.T) {
	r := &countingReconciler{}
	s, err := NewScheduler("@every 1s", r, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	s.Start()

	deadline := time.Now().Add(3 * time.Second)
	for r.runs.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if r.runs.Load() == 0 {
		t.Fatal("scheduled pass never ran")
	}
}
