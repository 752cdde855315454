package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/jehnsen/admin-suite/internal/app"
	"github.com/jehnsen/admin-suite/internal/auth"
	audithttp "github.com/jehnsen/admin-suite/internal/audit/http"
	"github.com/jehnsen/admin-suite/internal/dashboard"
	"github.com/jehnsen/admin-suite/internal/dispatch"
	"github.com/jehnsen/admin-suite/internal/finance"
	"github.com/jehnsen/admin-suite/internal/observability"
	"github.com/jehnsen/admin-suite/internal/platform/cache"
	"github.com/jehnsen/admin-suite/internal/procurement"
	"github.com/jehnsen/admin-suite/internal/session"
	"github.com/jehnsen/admin-suite/internal/store"
	"github.com/jehnsen/admin-suite/internal/workflow"
	"github.com/jehnsen/admin-suite/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	var (
		sessions   session.Store = session.NewMemoryStore()
		versioned  *cache.Versioned
		jobClient  *jobs.Client
		jobHandler *jobs.Handler
	)
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, running without shared cache", slog.Any("error", err))
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
		sessions = session.NewRedisStore(redisClient, "adminsuite:session", cfg.SessionTTL)
		versioned = cache.NewVersioned(redisClient, "adminsuite", cfg.DashboardCacheTTL)

		redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
		jobClient, err = jobs.NewClient(redisOpts)
		if err != nil {
			logger.Error("init job client", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() {
			if err := jobClient.Close(); err != nil {
				logger.Warn("job client close", slog.Any("error", err))
			}
		}()
		inspector := asynq.NewInspector(redisOpts)
		defer func() {
			_ = inspector.Close()
		}()
		jobHandler = jobs.NewHandler(inspector, logger)
	}

	backend, err := app.NewBackend(ctx, cfg, logger, sessions, metrics)
	if err != nil {
		logger.Error("connect backend", slog.Any("error", err))
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

	dashboards := dashboard.NewService(backend, versioned, state, logger)

	var warmupQueue dashboard.WarmupQueue
	if jobClient != nil {
		warmupQueue = jobClient
	}

	dispatcher := dispatch.New(backend, state,
		dispatch.WithRecorder(journal),
		dispatch.WithLogger(logger),
		dispatch.OnChange(refreshDashboards(dashboards, warmupQueue, logger)),
	)

	financeService := finance.NewService(backend, state, dashboards, logger)
	procurementService := procurement.NewService(backend, state, dashboards, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		Metrics:            metrics,
		AuthHandler:        auth.NewHandler(backend, logger),
		WorkflowHandler:    dispatch.NewHandler(dispatcher, state, backend, metrics, logger),
		DashboardHandler:   dashboard.NewHandler(dashboards, warmupQueue, logger),
		FinanceHandler:     finance.NewHandler(financeService, logger),
		ProcurementHandler: procurement.NewHandler(procurementService, logger),
		AuditHandler:       audithttp.NewHandler(logger, journal),
		JobHandler:         jobHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("backend", backend.BaseURL()))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}

// refreshDashboards drops cached summaries after a transition and, when a
// queue is available, asks the worker to rebuild the affected ones.
func refreshDashboards(dashboards *dashboard.Service, queue dashboard.WarmupQueue, logger *slog.Logger) func(context.Context, workflow.Kind) {
	return func(ctx context.Context, kind workflow.Kind) {
		if err := dashboards.Invalidate(ctx); err != nil {
			logger.Warn("invalidate dashboards", slog.Any("error", err))
		}
		if queue == nil {
			return
		}
		names := dashboard.ForKind(kind)
		if len(names) == 0 {
			return
		}
		if err := queue.EnqueueWarmup(ctx, names...); err != nil {
			logger.Warn("enqueue dashboard warmup", slog.String("kind", string(kind)), slog.Any("error", err))
		}
	}
}
