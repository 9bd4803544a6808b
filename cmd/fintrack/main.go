package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"fintrack/internal/archive"
	"fintrack/internal/backend"
	"fintrack/internal/cache"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	apphttp "fintrack/internal/http"
	"fintrack/internal/insight"
	applog "fintrack/internal/log"
	"fintrack/internal/middleware/metrics"
	"fintrack/internal/ports"
	"fintrack/internal/services"
)

const (
	insightCacheSize     = 256
	cacheCleanupInterval = 5 * time.Minute
	shutdownTimeout      = 30 * time.Second
)

func main() {
	cfg, logger := cli.LoadAndValidateConfig(applog.ComponentApp)
	startCtx := context.Background()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger.Logger).CreateBackend(startCtx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	collector := metrics.NewCollector()
	var publisher ports.EventPublisher
	if result.Publisher != nil {
		publisher = collector.InstrumentPublisher(result.Publisher)
	}

	analytics := services.NewAnalyticsService(result.Backend, services.AnalyticsOptions{
		CacheTTL:      cfg.CacheTTL,
		HeatmapWindow: cfg.HeatmapWindowDays,
	})
	transactions := services.NewTransactionService(result.Backend, publisher, analytics)
	goals := services.NewGoalService(result.Backend)

	var archiver archive.Archiver
	var gcs *archive.GCS
	if cfg.ReportsBucket != "" {
		gcs, err = archive.NewGCS(startCtx, cfg.ReportsBucket)
		if err != nil {
			logger.Warn("Failed to initialize report archive, continuing without it", "error", err, "bucket", cfg.ReportsBucket)
		} else {
			archiver = gcs
			logger.Info("Initialized report archive", "bucket", cfg.ReportsBucket)
		}
	}
	reports := services.NewReportService(result.Backend, archiver, nil)

	insightSvc, redis := newInsight(startCtx, cfg, collector, logger)

	manager := cache.NewManager()
	manager.Register(analytics.Cache())
	manager.StartCleanup(cacheCleanupInterval)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Transactions:       transactions,
		Goals:              goals,
		Analytics:          analytics,
		Reports:            reports,
		Insight:            insightSvc,
		Store:              result.Backend,
		Metrics:            collector,
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})

	ctx, done := cli.GracefulShutdown(logger, shutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		manager.Stop()
		if redis != nil {
			redis.Close()
		}
		if gcs != nil {
			if err := gcs.Close(); err != nil {
				logger.Error("Failed to close report archive", "error", err)
			}
		}
		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				logger.Error("Failed to cleanup backend", "error", err)
			}
		}
	})

	logger.Info("Starting fintrack server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"insight_enabled", insightSvc.Enabled(),
		"events_enabled", publisher != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}

// newInsight builds the advice service. Without an API key the service is
// returned disabled. Redis backs the response cache when configured, with an
// in-process LRU otherwise.
func newInsight(ctx context.Context, cfg *config.Config, collector *metrics.Collector, logger *applog.Logger) (*insight.Service, *cache.RedisText) {
	opts := insight.Options{
		Timeout:   cfg.InsightTimeout,
		OnOutcome: collector.InsightOutcome,
	}
	if !cfg.InsightEnabled() {
		logger.Info("Insight disabled, GEMINI_API_KEY not set")
		return insight.NewService(nil, opts), nil
	}

	gen, err := insight.NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		logger.Warn("Failed to initialize Gemini client, insight disabled", "error", err)
		return insight.NewService(nil, opts), nil
	}

	var redis *cache.RedisText
	if cfg.RedisAddr != "" {
		redis, err = cache.NewRedisText(ctx, cfg.RedisAddr, "fintrack:insight:")
		if err != nil {
			logger.Warn("Failed to connect to Redis, using in-process insight cache", "error", err, "addr", cfg.RedisAddr)
			redis = nil
		}
	}
	if redis != nil {
		opts.Cache = redis
	} else {
		opts.Cache = cache.NewLRUText(insightCacheSize, insight.DefaultCacheTTL)
	}

	logger.Info("Insight enabled", "model", cfg.GeminiModel, "redis", redis != nil)
	return insight.NewService(gen, opts), redis
}
