package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/clinicore/clinicore/internal/app"
	"github.com/clinicore/clinicore/internal/audit"
	"github.com/clinicore/clinicore/internal/billing"
	"github.com/clinicore/clinicore/internal/billing/reports"
	"github.com/clinicore/clinicore/internal/insurance"
	jobmetrics "github.com/clinicore/clinicore/internal/jobs"
	"github.com/clinicore/clinicore/internal/notify"
	"github.com/clinicore/clinicore/internal/platform/cache"
	"github.com/clinicore/clinicore/internal/platform/db"
	"github.com/clinicore/clinicore/jobs"
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis connect", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient == nil {
			return
		}
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := asynqClient.Close(); err != nil {
			logger.Warn("asynq close", slog.Any("error", err))
		}
	}()

	billingRepo := billing.NewRepository(pool)
	insuranceRepo := insurance.NewRepository(pool)
	billingService := billing.NewService(billingRepo, jobs.NewEventPublisher(asynqClient), insuranceRepo, logger)

	reportsCache := reports.NewCache(redisClient, cfg.ReportCacheTTL)
	dispatcher := jobs.NewDispatcher(notify.NewStore(pool), audit.NewLogger(pool), reportsCache, logger)
	overdueJob := jobs.NewOverdueScanJob(billingRepo, billingService, logger)

	jm := jobmetrics.NewMetrics(nil)
	tracked := func(name string, h asynq.HandlerFunc) asynq.HandlerFunc {
		return func(ctx context.Context, t *asynq.Task) error {
			return jm.Track(name).End(h(ctx, t))
		}
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeNotify, Handler: tracked(jobs.TaskTypeNotify, dispatcher.HandleNotify)},
			{Type: jobs.TaskTypeAudit, Handler: tracked(jobs.TaskTypeAudit, dispatcher.HandleAudit)},
			{Type: jobs.TaskTypeOverdueScan, Handler: tracked(jobs.TaskTypeOverdueScan, overdueJob.Handle)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.OverdueScanCron, Task: jobs.NewOverdueScanTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
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
