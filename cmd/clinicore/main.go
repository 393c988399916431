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

	"github.com/clinicore/clinicore/internal/app"
	"github.com/clinicore/clinicore/internal/billing"
	"github.com/clinicore/clinicore/internal/billing/reports"
	"github.com/clinicore/clinicore/internal/insurance"
	"github.com/clinicore/clinicore/internal/observability"
	"github.com/clinicore/clinicore/internal/platform/cache"
	"github.com/clinicore/clinicore/internal/platform/db"
	"github.com/clinicore/clinicore/jobs"
)

// meteredPublisher counts committed ledger mutations before handing the
// event to the queue-backed publisher.
type meteredPublisher struct {
	next    billing.Publisher
	metrics *observability.Metrics
}

func (p meteredPublisher) Publish(ctx context.Context, evt billing.Event) error {
	p.metrics.CountMutation(evt.Type)
	return p.next.Publish(ctx, evt)
}

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

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

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

	metrics := observability.NewMetrics()
	publisher := meteredPublisher{next: jobs.NewEventPublisher(asynqClient), metrics: metrics}

	billingRepo := billing.NewRepository(dbpool)
	insuranceRepo := insurance.NewRepository(dbpool)
	billingService := billing.NewService(billingRepo, publisher, insuranceRepo, logger)
	billingHandler := billing.NewHandler(logger, billingService)

	reportsRepo := reports.NewRepository(dbpool)
	reportsCache := reports.NewCache(redisClient, cfg.ReportCacheTTL)
	reportsService := reports.NewService(reportsRepo, reportsCache)
	reportsHandler := reports.NewHandler(logger, reportsService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		BillingHandler: billingHandler,
		ReportsHandler: reportsHandler,
		JobHandler:     jobHandler,
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
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
