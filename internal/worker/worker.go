// Package worker consumes attendance events and keeps course counters consistent with the records.
package worker

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"classattend/internal/attendance"
	"classattend/internal/core"
	"classattend/internal/metrics"
	"classattend/internal/queue"
)

// Reconciler is satisfied by *attendance.Reconciler.
type Reconciler interface {
	Reconcile(ctx context.Context, courseID string) (*attendance.Drift, error)
	ReconcileAll(ctx context.Context) ([]attendance.Drift, error)
}

type Worker struct {
	rec  Reconciler
	log  *zap.Logger
	cron *cron.Cron
}

func New(rec Reconciler, log *zap.Logger) *Worker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Worker{rec: rec, log: log}
}

// Handle processes one event. Unknown types are skipped; a vanished course is not an error.
func (w *Worker) Handle(ctx context.Context, msg queue.Message) error {
	switch msg.Type {
	case attendance.EventRecordCreated, attendance.EventRecordUpdated:
	default:
		metrics.QueueEvents.WithLabelValues(msg.Type, "skipped").Inc()
		return nil
	}

	courseID := string(msg.Body)
	drift, err := w.rec.Reconcile(ctx, courseID)
	if err != nil {
		if core.IsNotFound(err) {
			metrics.QueueEvents.WithLabelValues(msg.Type, "skipped").Inc()
			w.log.Warn("event for unknown course", zap.String("course", courseID))
			return nil
		}
		metrics.QueueEvents.WithLabelValues(msg.Type, "failed").Inc()
		return errors.Wrapf(err, "reconcile course %s", courseID)
	}
	metrics.QueueEvents.WithLabelValues(msg.Type, "processed").Inc()
	if drift != nil {
		w.log.Info("course counter repaired after event",
			zap.String("course", courseID),
			zap.String("type", msg.Type),
			zap.Int("stored", drift.Stored),
			zap.Int("observed", drift.Observed),
		)
	}
	return nil
}

// Run consumes q until ctx is cancelled. Handler failures are logged and the loop continues.
func (w *Worker) Run(ctx context.Context, q queue.Queue) error {
	messages, err := q.Consume(ctx)
	if err != nil {
		return errors.Wrap(err, "queue consume init")
	}
	w.log.Info("worker started, waiting for messages")
	for msg := range messages {
		if err := w.Handle(ctx, msg); err != nil {
			w.log.Error("event processing failed", zap.String("type", msg.Type), zap.Error(err))
		}
	}
	w.log.Info("worker stopped")
	return nil
}

// Schedule runs a full reconciliation on the standard five-field cron expression.
// An empty schedule disables the sweep.
func (w *Worker) Schedule(schedule string) error {
	if schedule == "" {
		return nil
	}
	c := cron.New()
	if _, err := c.AddFunc(schedule, w.sweep); err != nil {
		return errors.Wrapf(err, "invalid reconcile schedule %q", schedule)
	}
	w.cron = c
	c.Start()
	w.log.Info("reconcile sweep scheduled", zap.String("schedule", schedule))
	return nil
}

// Stop halts the scheduler and waits for a running sweep.
func (w *Worker) Stop() {
	if w.cron == nil {
		return
	}
	<-w.cron.Stop().Done()
}

func (w *Worker) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	start := time.Now()
	drifts, err := w.rec.ReconcileAll(ctx)
	if err != nil {
		w.log.Error("reconcile sweep failed", zap.Int("repaired", len(drifts)), zap.Error(err))
		return
	}
	w.log.Info("reconcile sweep finished", zap.Int("repaired", len(drifts)), zap.Duration("took", time.Since(start)))
}
