package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/jehnsen/admin-suite/internal/app"
	"github.com/jehnsen/admin-suite/internal/dashboard"
	"github.com/jehnsen/admin-suite/internal/dispatch"
	"github.com/jehnsen/admin-suite/internal/observability"
	"github.com/jehnsen/admin-suite/internal/platform/cache"
	"github.com/jehnsen/admin-suite/internal/session"
	"github.com/jehnsen/admin-suite/internal/store"
	"github.com/jehnsen/admin-suite/internal/workflow"
	"github.com/jehnsen/admin-suite/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)
	metrics := observability.NewMetrics()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessions := session.NewRedisStore(redisClient, "adminsuite:session", cfg.SessionTTL)
	backend, err := app.NewBackend(ctx, cfg, logger, sessions, metrics)
	if err != nil {
		logger.Error("connect backend", slog.Any("error", err))
		os.Exit(1)
	}
	if err := app.SignIn(ctx, cfg, backend); err != nil {
		logger.Error("sign in to backend", slog.Any("error", err))
		os.Exit(1)
	}

	state := store.New()
	defer state.Close()

	journal, closeJournal, err := app.OpenJournal(ctx, cfg, logger)
	if err != nil {
		logger.Error("open audit journal", slog.Any("error", err))
		os.Exit(1)
	}
	defer closeJournal()

	dashboards := dashboard.NewService(backend, cache.NewVersioned(redisClient, "adminsuite", cfg.DashboardCacheTTL), state, logger)
	dispatcher := dispatch.New(backend, state,
		dispatch.WithRecorder(journal),
		dispatch.WithLogger(logger),
		dispatch.OnChange(func(ctx context.Context, kind workflow.Kind) {
			if err := dashboards.Invalidate(ctx); err != nil {
				logger.Warn("invalidate dashboards", slog.String("kind", string(kind)), slog.Any("error", err))
			}
		}),
	)

	warmupJob := jobs.NewDashboardWarmupJob(dashboards, logger, metrics.Jobs())
	handlers := []jobs.TaskHandler{
		{Type: jobs.TaskDashboardWarmup, Handler: warmupJob.Handle},
	}

	warmupTask, err := jobs.NewDashboardWarmupTask(jobs.DashboardWarmupPayload{Invalidate: true})
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}
	cron := []jobs.CronRegistration{
		{Spec: cfg.WarmupSchedule, Task: warmupTask, Options: []asynq.Option{asynq.MaxRetry(2)}},
	}

	if cfg.OverdueActorID > 0 {
		sweepJob := jobs.NewOverdueSweepJob(backend, dispatcher, cfg.OverdueActorID, logger, metrics.Jobs())
		handlers = append(handlers, jobs.TaskHandler{Type: jobs.TaskCashAdvanceOverdue, Handler: sweepJob.Handle})

		sweepTask, err := jobs.NewOverdueSweepTask(jobs.OverdueSweepPayload{})
		if err != nil {
			logger.Error("build overdue sweep task", slog.Any("error", err))
			os.Exit(1)
		}
		cron = append(cron, jobs.CronRegistration{Spec: cfg.OverdueSchedule, Task: sweepTask, Options: []asynq.Option{asynq.MaxRetry(3)}})
	} else {
		logger.Info("overdue sweep disabled, OVERDUE_ACTOR_ID not set")
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers:  handlers,
		Cron:      cron,
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
