package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	httpadapter "github.com/couchcryptid/water-advisory-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/water-advisory-service/internal/adapter/kafka"
	"github.com/couchcryptid/water-advisory-service/internal/adapter/ws"
	"github.com/couchcryptid/water-advisory-service/internal/config"
	"github.com/couchcryptid/water-advisory-service/internal/domain"
	"github.com/couchcryptid/water-advisory-service/internal/feed"
	"github.com/couchcryptid/water-advisory-service/internal/gazetteer"
	"github.com/couchcryptid/water-advisory-service/internal/observability"
	"github.com/couchcryptid/water-advisory-service/internal/pipeline"
	"github.com/couchcryptid/water-advisory-service/internal/viewport"
	"github.com/couchcryptid/water-advisory-service/internal/weather"
	"github.com/jonboulle/clockwork"
)

type alwaysReady struct{}

func (alwaysReady) CheckReadiness(context.Context) error { return nil }

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	entries, err := loadGazetteer(cfg.GazetteerPath)
	if err != nil {
		logger.Error("failed to load gazetteer", "path", cfg.GazetteerPath, "error", err)
		os.Exit(1)
	}
	index := gazetteer.NewIndex(entries)
	logger.Info("gazetteer loaded", "entries", index.Len())

	notifications := feed.New(cfg.FeedCapacity, metrics, logger, feed.WithClock(clock))
	notifications.SeedWelcome()

	// Initialize weather provider (feature-flagged via WEATHER_ENABLED / WEATHER_API_KEY).
	var provider domain.WeatherProvider
	if cfg.WeatherEnabled {
		client := weather.NewClient(cfg.WeatherAPIKey, cfg.WeatherBaseURL, cfg.WeatherTimeout, metrics, logger)
		provider = weather.NewCachedProvider(client, cfg.WeatherCacheTTL, metrics)
		logger.Info("weather enabled", "cache_ttl", cfg.WeatherCacheTTL, "timeout", cfg.WeatherTimeout)
	} else {
		logger.Info("weather disabled")
	}

	var (
		submitter httpadapter.Submitter      = notifications
		ready     sharedobs.ReadinessChecker = alwaysReady{}

		reader *kafkaadapter.Reader
		writer *kafkaadapter.Writer
		p      *pipeline.Pipeline
	)
	if cfg.KafkaEnabled {
		reader = kafkaadapter.NewReader(cfg, logger)
		writer = kafkaadapter.NewWriter(cfg, logger)
		p = pipeline.New(reader, pipeline.NewDecoder(logger), notifications, logger, metrics, cfg.BatchSize)
		submitter = writer
		ready = p
		logger.Info("kafka notifications enabled", "topic", cfg.KafkaNotificationTopic, "brokers", cfg.KafkaBrokers)
	}

	sessions := ws.NewHandler(ws.Deps{
		Index:    index,
		Feed:     notifications,
		Viewport: viewport.NewController(cfg.MapMaxBounds, metrics),
		Weather:  provider,
		Clock:    clock,
		Metrics:  metrics,
		Logger:   logger,
	})

	srv := httpadapter.NewServer(cfg.HTTPAddr, httpadapter.Routes{
		Gazetteer: index,
		Feed:      notifications,
		Submitter: submitter,
		Weather:   provider,
		Sessions:  sessions,
		Clock:     clock,
	}, ready, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	if cfg.FeedAmbientEnabled {
		go func() {
			if err := notifications.RunAmbient(ctx, cfg.FeedTickInterval); err != nil {
				logger.Error("ambient notifications error", "error", err)
			}
		}()
	}

	// Start notification pipeline.
	if p != nil {
		go func() {
			if err := p.Run(ctx); err != nil {
				logger.Error("pipeline error", "error", err)
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	sessions.Close()
	if reader != nil {
		if err := reader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

func newLogger(cfg *config.Config) *slog.Logger {
	return sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat).With("service", "water-advisory")
}

func loadGazetteer(path string) ([]domain.WaterBody, error) {
	if path == "" {
		return gazetteer.Default()
	}
	return gazetteer.Load(path)
}
