package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/marine-pollution-reports/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/marine-pollution-reports/internal/adapter/kafka"
	"github.com/couchcryptid/marine-pollution-reports/internal/adapter/mapbox"
	"github.com/couchcryptid/marine-pollution-reports/internal/adapter/rabbitmq"
	"github.com/couchcryptid/marine-pollution-reports/internal/config"
	"github.com/couchcryptid/marine-pollution-reports/internal/domain"
	"github.com/couchcryptid/marine-pollution-reports/internal/observability"
	"github.com/couchcryptid/marine-pollution-reports/internal/reports"
	"github.com/couchcryptid/marine-pollution-reports/internal/store/memory"
	"github.com/couchcryptid/marine-pollution-reports/internal/store/postgres"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
)

func main() {
	// A .env file is optional; real environment variables take precedence.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to read .env file", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, closeRepo, err := openRepository(ctx, cfg, clock)
	if err != nil {
		logger.Error("failed to open repository", "backend", cfg.StoreBackend, "error", err)
		os.Exit(1)
	}
	logger.Info("repository ready", "backend", cfg.StoreBackend)

	publisher, closePublisher, err := openPublisher(cfg, logger)
	if err != nil {
		logger.Error("failed to open event publisher", "backend", cfg.EventsBackend, "error", err)
		closeRepo.Close() //nolint:errcheck // exiting
		os.Exit(1)
	}
	logger.Info("event publishing configured", "backend", cfg.EventsBackend)

	// Initialize geocoder (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, logger, metrics)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	svc := reports.New(repo, publisher, clock, logger, metrics, cfg.EventsPublishTimeout)
	router := httpadapter.NewRouter(httpadapter.RouterConfig{
		Reports:  svc,
		Ready:    svc,
		Geocoder: geocoder,
		Metrics:  metrics,
		Logger:   logger,
	})
	srv := httpadapter.NewServer(cfg.HTTPAddr, router, logger)

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
	if err := closePublisher.Close(); err != nil {
		logger.Error("event publisher close error", "error", err)
	}
	if err := closeRepo.Close(); err != nil {
		logger.Error("repository close error", "error", err)
	}

	logger.Info("shutdown complete")
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func openRepository(ctx context.Context, cfg *config.Config, clock clockwork.Clock) (reports.Repository, io.Closer, error) {
	switch cfg.StoreBackend {
	case config.StorePostgres:
		store, err := postgres.Open(ctx, cfg.DatabaseURL, clock)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	case config.StoreMemory:
		return memory.New(clock), nopCloser{}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported store backend %q", cfg.StoreBackend)
	}
}

func openPublisher(cfg *config.Config, logger *slog.Logger) (reports.Publisher, io.Closer, error) {
	switch cfg.EventsBackend {
	case config.EventsKafka:
		w := kafkaadapter.NewWriter(cfg, logger)
		return w, w, nil
	case config.EventsRabbitMQ:
		p, err := rabbitmq.Dial(cfg.RabbitMQURL, cfg.RabbitMQExchange, logger)
		if err != nil {
			return nil, nil, err
		}
		return p, p, nil
	case config.EventsNone:
		return nil, nopCloser{}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported events backend %q", cfg.EventsBackend)
	}
}
