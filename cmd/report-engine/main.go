// cmd/report-engine/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"assessment-engine/internal/common/config"
	"assessment-engine/internal/common/database"
	"assessment-engine/internal/common/logger"
	"assessment-engine/internal/common/observability"
	"assessment-engine/internal/genai"
	"assessment-engine/internal/notify"
	"assessment-engine/internal/pipeline"
	"assessment-engine/internal/pipeline/followup"
	"assessment-engine/internal/pipeline/grouping"
	"assessment-engine/internal/pipeline/report"
	"assessment-engine/internal/pipeline/scoring"
	"assessment-engine/internal/pipeline/translate"
	"assessment-engine/internal/search"
	"assessment-engine/internal/server"
	"assessment-engine/internal/store"
	"assessment-engine/pkg/scenarios"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting report engine...",
		zap.String("app", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var redisClient *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redisClient, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redisClient.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redisClient.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return esClient.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Load Scenario Catalog ---
	registry, err := scenarios.Load(cfg.Scenarios.Path, log)
	if err != nil {
		zapLog.Fatal("scenario catalog load failed",
			zap.String("path", cfg.Scenarios.Path),
			zap.Error(err),
		)
	}
	zapLog.Info("Scenario catalog loaded", zap.Int("scenarios", registry.Len()))

	// --- External Service Clients ---
	genaiClient := genai.NewClient(cfg.APIs, log)

	notifier, err := notify.NewNotifier(cfg.Notifications, log)
	if err != nil {
		zapLog.Fatal("notifier initialization failed", zap.Error(err))
	}

	// --- Pipeline Wiring ---
	submissions := store.NewSubmissionStore(pg, log)
	normalizer := translate.NewNormalizer(genaiClient, redisClient.GetClient(), cfg.Translation, log)
	orchestrator := scoring.NewOrchestrator(genaiClient, cfg.Scoring, log)
	assembler := report.NewAssembler(genaiClient, log)
	indexer := search.NewReportIndexer(esClient.Client, cfg.Search.ReportIndex, log)

	svc := pipeline.NewService(pipeline.ServiceDeps{
		Store:      submissions,
		Scenarios:  registry,
		Grouper:    grouping.NewGrouper(log),
		Normalizer: normalizer,
		Scorer:     orchestrator,
		Assembler:  assembler,
		Indexer:    indexer,
		Notifier:   notifier,
		Cache:      redisClient.GetClient(),
		Obs:        obs,
	}, cfg.Scoring, log)

	engine := followup.NewEngine(genaiClient, cfg.Scoring, log)

	readiness := map[string]server.ReadinessCheck{
		"postgres": func(ctx context.Context) error { return pg.Ping(ctx) },
		"redis":    func(ctx context.Context) error { return redisClient.Ping(ctx) },
		"elasticsearch": func(context.Context) error {
			return esClient.Ping()
		},
	}

	api := server.New(svc, engine, registry, readiness, log)
	mux := api.Routes()
	mux.Handle("/metrics", promhttp.Handler())

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: mux,
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.Int("port", cfg.Server.Port))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("HTTP server shutdown failed", zap.Error(err))
	}

	zapLog.Info("Report engine stopped")
}
