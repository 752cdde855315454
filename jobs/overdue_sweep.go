package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/jehnsen/admin-suite/internal/api"
	"github.com/jehnsen/admin-suite/internal/dispatch"
	"github.com/jehnsen/admin-suite/internal/entity"
	jobmetrics "github.com/jehnsen/admin-suite/internal/jobs"
	"github.com/jehnsen/admin-suite/internal/workflow"
)

// CashAdvanceSource lists cash advances page by page.
type CashAdvanceSource interface {
	CashAdvances(ctx context.Context, p api.ListParams) (api.Page[entity.CashAdvance], error)
}

// ActionRunner dispatches workflow actions.
type ActionRunner interface {
	Dispatch(ctx context.Context, req dispatch.Request) (dispatch.Result, error)
}

// OverdueSweepJob marks open cash advances whose due date has passed.
type OverdueSweepJob struct {
	Source  CashAdvanceSource
	Runner  ActionRunner
	ActorID int64
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewOverdueSweepJob wires dependencies for the sweep. actorID is the
// account the backend records as having flagged the advance.
func NewOverdueSweepJob(source CashAdvanceSource, runner ActionRunner, actorID int64, logger *slog.Logger, metrics *jobmetrics.Metrics) *OverdueSweepJob {
	return &OverdueSweepJob{
		Source:  source,
		Runner:  runner,
		ActorID: actorID,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes overdue sweep tasks.
func (j *OverdueSweepJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Source == nil || j.Runner == nil {
		return errors.New("overdue sweep: handler not configured")
	}
	var payload OverdueSweepPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	asOf, err := j.asOf(payload.AsOf)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	tracker := j.metrics().Track(TaskCashAdvanceOverdue)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()
	logger := j.logger().With(slog.String("as_of", asOf.Format("2006-01-02")))

	var due []entity.CashAdvance
	for _, status := range []workflow.Status{workflow.StatusReleased, workflow.StatusPartiallyLiquidated} {
		advances, err := api.All(ctx, api.ListParams{Status: status, PerPage: 100}, j.Source.CashAdvances)
		if err != nil {
			logger.Error("list cash advances", slog.String("status", string(status)), slog.Any("error", err))
			return err
		}
		for _, ca := range advances {
			if ca.Status != status {
				continue
			}
			if !ca.DueDate.IsZero() && ca.DueDate.Before(asOf) {
				due = append(due, ca)
			}
		}
	}

	var errs []error
	flagged := 0
	for _, ca := range due {
		_, err := j.Runner.Dispatch(ctx, dispatch.Request{
			Subject: ca,
			Action:  workflow.ActionMarkOverdue,
			Actor:   dispatch.Actor{ID: j.ActorID, Role: workflow.RoleAdmin},
			Remarks: "Past due date " + ca.DueDate.Format("2006-01-02"),
		})
		if err != nil {
			logger.Warn("mark cash advance overdue", slog.Int64("cash_advance_id", ca.ID), slog.Any("error", err))
			errs = append(errs, err)
			continue
		}
		flagged++
	}
	j.metrics().AddOverdue(flagged)
	logger.Info("completed overdue sweep", slog.Int("candidates", len(due)), slog.Int("flagged", flagged))
	return errors.Join(errs...)
}

// asOf returns the start of the sweep day; advances due before it are late.
func (j *OverdueSweepJob) asOf(raw string) (time.Time, error) {
	if raw != "" {
		return time.Parse("2006-01-02", raw)
	}
	now := j.clock()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
}

func (j *OverdueSweepJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskCashAdvanceOverdue))
	}
	return slog.Default().With(slog.String("job", TaskCashAdvanceOverdue))
}

func (j *OverdueSweepJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
