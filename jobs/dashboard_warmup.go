package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/jehnsen/admin-suite/internal/dashboard"
	jobmetrics "github.com/jehnsen/admin-suite/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// DashboardReader is the part of the dashboard service the warmup needs.
type DashboardReader interface {
	Get(ctx context.Context, name string) (any, error)
	Invalidate(ctx context.Context) error
}

// DashboardWarmupJob rebuilds dashboard summaries ahead of readers.
type DashboardWarmupJob struct {
	Dashboards DashboardReader
	Logger     *slog.Logger
	Metrics    *jobmetrics.Metrics
	Timeout    time.Duration
}

// NewDashboardWarmupJob wires dependencies for the warmup handler.
func NewDashboardWarmupJob(reader DashboardReader, logger *slog.Logger, metrics *jobmetrics.Metrics) *DashboardWarmupJob {
	return &DashboardWarmupJob{Dashboards: reader, Logger: logger, Metrics: metrics, Timeout: 20 * time.Second}
}

// Handle processes dashboard warmup tasks.
func (j *DashboardWarmupJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Dashboards == nil {
		return errors.New("dashboard warmup: handler not configured")
	}
	var payload DashboardWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	names := payload.Dashboards
	if len(names) == 0 {
		names = dashboard.Names()
	}

	tracker := j.metrics().Track(TaskDashboardWarmup)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger()
	start := time.Now()
	if payload.Invalidate {
		if err := j.Dashboards.Invalidate(ctx); err != nil {
			logger.Error("invalidate dashboards", slog.Any("error", err))
			return err
		}
	}

	var errs []error
	warmed := 0
	for _, name := range names {
		if err := j.warm(ctx, name); err != nil {
			if errors.Is(err, dashboard.ErrUnknownDashboard) {
				logger.Warn("skip unknown dashboard", slog.String("dashboard", name))
				continue
			}
			logger.Error("warm dashboard", slog.String("dashboard", name), slog.Any("error", err))
			errs = append(errs, err)
			continue
		}
		j.metrics().AddWarmed(name)
		warmed++
	}
	logger.Info("completed dashboard warmup", slog.Int("dashboards", warmed), slog.Duration("duration", time.Since(start)))
	return errors.Join(errs...)
}

func (j *DashboardWarmupJob) warm(ctx context.Context, name string) error {
	if j.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}
	_, err := j.Dashboards.Get(ctx, name)
	return err
}

func (j *DashboardWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskDashboardWarmup))
	}
	return slog.Default().With(slog.String("job", TaskDashboardWarmup))
}

func (j *DashboardWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
