package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/repeat-complaints/internal/api/http"
	"github.com/spec-kit/repeat-complaints/internal/api/http/handlers"
	"github.com/spec-kit/repeat-complaints/internal/auth"
	"github.com/spec-kit/repeat-complaints/internal/config"
	"github.com/spec-kit/repeat-complaints/internal/events"
	"github.com/spec-kit/repeat-complaints/internal/ingest"
	"github.com/spec-kit/repeat-complaints/internal/observability"
	"github.com/spec-kit/repeat-complaints/internal/persistence"
	"github.com/spec-kit/repeat-complaints/internal/repository"
	"github.com/spec-kit/repeat-complaints/internal/service"
	"github.com/spec-kit/repeat-complaints/internal/worker"
)

const maxUploadBytes = 32 << 20

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if pg.Enabled() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), persistence.DefaultMigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	dependencies := map[string]handlers.Pinger{"postgres": pg}
	var reports repository.ReportStore
	if redis.Reachable {
		reports = repository.NewRedisReportStore(redis.Client)
		dependencies["redis"] = redis
	} else {
		logger.Warn("storing reports in memory")
		reports = repository.NewMemoryReportStore()
	}

	var source repository.SnapshotSource
	if pg.Enabled() {
		source = repository.NewSnapshotRepository(pg.PoolHandle(), cfg.Postgres.SnapshotTable, cfg.Schema.AcceptedAtColumn)
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	notifications := worker.NewNotificationWorker(service.NewNotificationService(logger, cfg.Notification), cfg.Notification.QueueSize, logger)
	notifications.Subscribe(dispatcher)
	go notifications.Run(ctx)

	analysisService, err := service.NewAnalysisService(cfg.Analysis, cfg.Schema, service.AnalysisDependencies{
		Source:     source,
		Reports:    reports,
		ReportTTL:  cfg.Redis.ReportTTL(),
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})
	if err != nil {
		logger.Fatal("invalid analysis configuration", zap.Error(err))
	}

	if source != nil {
		go worker.NewAnalysisWorker(analysisService, cfg.Analysis.ScheduleInterval(), dispatcher, logger).Run(ctx)
	}

	authService := service.NewAuthService(cfg.Auth)
	if len(cfg.Auth.Clients) == 0 {
		logger.Warn("AUTH_CLIENTS empty; no client can obtain a token")
	}
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager())

	app := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		BodyLimit: maxUploadBytes,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	loader := ingest.XLSXLoader{
		TimestampColumn: cfg.Schema.AcceptedAtColumn,
		Location:        cfg.Analysis.Zone(),
		Logger:          logger,
	}

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, dependencies),
		Metrics:        handlers.NewMetricsHandler(metrics),
		Auth:           handlers.NewAuthHandler(authService),
		Analyses:       handlers.NewAnalysesHandler(analysisService, loader, logger),
		Consensus:      handlers.NewConsensusHandler(analysisService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
