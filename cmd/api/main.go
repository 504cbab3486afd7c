package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/cupshup/ops-backend/api"
	"github.com/cupshup/ops-backend/api/controllers"
	"github.com/cupshup/ops-backend/api/routes"
	"github.com/cupshup/ops-backend/internal/activities"
	"github.com/cupshup/ops-backend/internal/dashboard"
	"github.com/cupshup/ops-backend/internal/evidence"
	"github.com/cupshup/ops-backend/internal/export"
	"github.com/cupshup/ops-backend/internal/mappings"
	"github.com/cupshup/ops-backend/internal/ocr"
	"github.com/cupshup/ops-backend/internal/tasks"
	"github.com/cupshup/ops-backend/internal/vendors"
	"github.com/cupshup/ops-backend/pkg/config"
	"github.com/cupshup/ops-backend/pkg/db"
	"github.com/cupshup/ops-backend/pkg/logger"
	"github.com/cupshup/ops-backend/pkg/metrics"
	"github.com/cupshup/ops-backend/pkg/migrate"
	"github.com/cupshup/ops-backend/pkg/redis"
	"github.com/cupshup/ops-backend/pkg/storage/gcs"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	var redisClient *redis.Client
	if redis.Configured(cfg.Redis) {
		redisClient, err = redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
	} else {
		logg.Warn(context.Background(), "redis not configured, dashboard cache disabled")
	}

	gcsClient, err := gcs.NewClient(context.Background(), cfg.GCS, cfg.GCP, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap gcs", err)
		os.Exit(1)
	}
	defer func() {
		if err := gcsClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing gcs", err)
		}
	}()

	ocrClient, err := ocr.NewClient(cfg.OCR, nil)
	if err != nil {
		logg.Error(context.Background(), "failed to create ocr client", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	pipelineMetrics := metrics.NewPipelineMetrics(registry)

	conn := dbClient.DB()
	activitiesRepo := activities.NewRepository(conn)
	vendorsRepo := vendors.NewRepository(conn)
	mappingsRepo := mappings.NewRepository(conn)
	tasksRepo := tasks.NewRepository(conn)

	dashboardRepo := dashboard.NewRepository(conn)
	var dashboardService dashboard.Service
	if redisClient != nil {
		dashboardService, err = dashboard.NewService(dashboardRepo, redisClient, cfg.Dashboard.CacheTTL, logg)
	} else {
		dashboardService, err = dashboard.NewService(dashboardRepo, nil, 0, logg)
	}
	requireService(logg, "dashboard", err)

	activitiesService, err := activities.NewService(activitiesRepo, dashboardService, logg)
	requireService(logg, "activities", err)
	vendorsService, err := vendors.NewService(vendorsRepo, dashboardService, logg)
	requireService(logg, "vendors", err)
	mappingsService, err := mappings.NewService(mappingsRepo, activitiesRepo, vendorsRepo, dashboardService, logg)
	requireService(logg, "mappings", err)
	tasksService, err := tasks.NewService(tasksRepo, dashboardService, time.Now, logg)
	requireService(logg, "tasks", err)
	exportService, err := export.NewService(tasksRepo, export.DefaultMaxRows, time.Now, logg)
	requireService(logg, "export", err)

	pipeline, err := evidence.NewPipeline(
		evidence.Gateways{
			BlobStore:    evidence.NewBucketStore(gcsClient),
			OCRInvoker:   ocrClient,
			TaskRecorder: tasksRepo,
		},
		evidence.WithObserver(evidence.NewTelemetryObserver(logg, pipelineMetrics)),
		evidence.WithLogger(logg),
	)
	requireService(logg, "evidence pipeline", err)
	evidenceService, err := evidence.NewService(pipeline, mappingsRepo, dashboardService, pipelineMetrics, logg)
	requireService(logg, "evidence", err)

	readiness := []controllers.Dependency{
		{Name: "db", Pinger: dbClient},
		{Name: "gcs", Pinger: gcsClient},
	}
	if redisClient != nil {
		readiness = append(readiness, controllers.Dependency{Name: "redis", Pinger: redisClient})
	}

	handler := routes.NewRouter(cfg, logg, registry, readiness,
		evidenceService,
		activitiesService,
		vendorsService,
		mappingsService,
		tasksService,
		exportService,
		dashboardService,
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":    cfg.App.Env,
		"addr":   addr,
		"bucket": gcsClient.Bucket(),
	})
	logg.Info(ctx, "starting api server")

	if err := api.Serve(ctx, api.NewServer(addr, cfg.HTTP, handler), cfg.HTTP, logg); err != nil {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server stopped")
}

func requireService(logg *logger.Logger, name string, err error) {
	if err == nil {
		return
	}
	logg.Error(logg.WithField(context.Background(), "service", name), "failed to create service", err)
	os.Exit(1)
}
