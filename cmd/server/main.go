package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/jonboulle/clockwork"

	httpadapter "github.com/couchcryptid/wu-history-viewer/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/wu-history-viewer/internal/adapter/kafka"
	"github.com/couchcryptid/wu-history-viewer/internal/adapter/wu"
	"github.com/couchcryptid/wu-history-viewer/internal/config"
	"github.com/couchcryptid/wu-history-viewer/internal/domain"
	"github.com/couchcryptid/wu-history-viewer/internal/observability"
	"github.com/couchcryptid/wu-history-viewer/internal/pipeline"
	"github.com/couchcryptid/wu-history-viewer/internal/report"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	if cfg.WUAPIKey == "" {
		logger.Warn("WU_API_KEY not set, history requests will fail")
	}

	client := wu.NewClient(cfg.WUAPIKey, cfg.WUBaseURL, cfg.WUTimeout, metrics, logger)
	var fetcher wu.HistoryFetcher = client
	if cfg.CacheTTL > 0 {
		fetcher = wu.NewCachedFetcher(client, cfg.CacheSize, cfg.CacheTTL, clockwork.NewRealClock(), metrics)
		logger.Info("history cache enabled", "size", cfg.CacheSize, "ttl", cfg.CacheTTL)
	} else {
		logger.Info("history cache disabled")
	}

	// Kafka sink is feature-flagged via KAFKA_BROKERS.
	var publisher pipeline.Publisher
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher = writer
		logger.Info("kafka sink enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	locale, err := report.ParseLocale(cfg.DisplayLocale)
	if err != nil {
		logger.Error("invalid display locale", "error", err)
		os.Exit(1)
	}

	normalizer := domain.NewNormalizer(domain.NewLocalizer(cfg.DisplayTimezone))
	svc := pipeline.NewService(fetcher, normalizer, publisher, logger, metrics)
	loader := pipeline.NewLoader(svc, clockwork.NewRealClock(), logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, httpadapter.Deps{
		Service:     svc,
		Loader:      loader,
		Formatter:   report.NewFormatter(locale),
		DisplayZone: cfg.DisplayTimezone,
		Ready:       client,
		Metrics:     metrics,
		Logger:      logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
