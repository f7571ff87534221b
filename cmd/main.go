package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/aiden123456789/Whispers/internal/api"
	"github.com/aiden123456789/Whispers/internal/config"
	"github.com/aiden123456789/Whispers/internal/filestore"
	"github.com/aiden123456789/Whispers/internal/geocoding"
	"github.com/aiden123456789/Whispers/internal/metrics"
	"github.com/aiden123456789/Whispers/internal/push"
	"github.com/aiden123456789/Whispers/internal/repository"
	"github.com/aiden123456789/Whispers/internal/service"
	"github.com/aiden123456789/Whispers/internal/stream"
)

// Constants for different environment types.
const (
	envLocal = "local"
	envDev   = "development"
	envProd  = "production"
)

const (
	pushWorkers     = 4
	pushTimeout     = 10 * time.Second
	shutdownTimeout = 10 * time.Second
	// providerRateLimit is the request budget per second shared by all labeling workers.
	providerRateLimit = 50
)

// main is the entry point of the application.
func main() {
	// Create a context that will be canceled when an interrupt signal is received.
	// This allows for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load application configuration.
	cfg := config.MustLoad()

	// Set up the logger based on the environment.
	logger := setupLogger(cfg.Env)

	// Create a separate registry for metrics with exemplar
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.NewMetrics(reg)

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to open %s storage: %v", cfg.Storage, err)
	}
	defer closeStore()

	logger.InfoContext(ctx, "Storage initialized", "backend", cfg.Storage)

	hub := stream.NewHub(logger, appMetrics)

	vapid := push.VAPIDConfig{
		Subject:    cfg.VAPID.Subject,
		PublicKey:  cfg.VAPID.PublicKey,
		PrivateKey: cfg.VAPID.PrivateKey,
	}

	var sender push.Sender
	if vapid.Configured() {
		sender = push.NewWebPushSender(vapid, &http.Client{Timeout: pushTimeout})
	} else {
		logger.WarnContext(ctx, "VAPID keys are not configured, push notifications are disabled")
	}
	notifier := push.NewNotifier(logger, store, sender, appMetrics, cfg.VAPID.PublicKey, pushWorkers)

	whispers := service.NewWhisperService(
		logger, store, hub, notifier, appMetrics, cfg.Retention, 0,
	)
	sweeper := service.NewSweeper(logger, store, appMetrics, cfg.Retention, cfg.SweepInterval)

	labeler, err := newLabeler(cfg, logger, store, appMetrics)
	if err != nil {
		log.Fatalf("Failed to create reverse geocoding provider: %v", err)
	}

	handler := api.NewHandler(logger, whispers, notifier, store)
	router := api.NewRouter(
		logger,
		api.RouterConfig{
			CORSOrigins: cfg.CORSOrigins,
			PostLimit:   cfg.PostLimit,
			PostWindow:  cfg.PostWindow,
			APILimit:    cfg.APILimit,
		},
		handler,
		stream.Handler(hub, stream.AllowOrigins(cfg.CORSOrigins)),
		appMetrics,
		reg,
	)

	go hub.Run(ctx)
	go sweeper.Run(ctx)
	if labeler != nil {
		go labeler.Run(ctx)
	}

	readHeaderTimeout := 5
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: time.Duration(readHeaderTimeout) * time.Second,
	}

	go func() {
		logger.InfoContext(ctx, "Starting HTTP server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorContext(ctx, "HTTP server failed", "error", err)
			stop()
		}
	}()

	// Log that the application has started.
	logger.InfoContext(ctx, "Application started. Press Ctrl+C to stop.")

	// Wait for the context to be canceled (e.g., by Ctrl+C).
	<-ctx.Done()

	// Log that a shutdown signal has been received.
	logger.Info("Shutdown signal received. Stopping application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}
	whispers.Wait()

	// Log graceful shutdown completion.
	logger.Info("Application stopped gracefully.")
}

// openStore opens the configured storage backend and returns it with its close function.
// The postgres schema is applied before the store is returned.
func openStore(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
) (repository.Interface, func(), error) {
	if cfg.Storage == config.StorageFile {
		store, err := filestore.Open(cfg.DataFile, logger)
		if err != nil {
			return nil, nil, err
		}

		return store, func() {}, nil
	}

	pool, err := repository.NewDatabase(
		ctx,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Name,
		cfg.Database.SSLMode,
	)
	if err != nil {
		return nil, nil, err
	}

	repo := repository.NewRepository(pool, logger)
	if err = repo.InitSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}

	return repo, pool.Close, nil
}

// newLabeler builds the place labeling worker, or returns nil when labeling is disabled.
func newLabeler(
	cfg *config.Config,
	logger *slog.Logger,
	store repository.PlaceStore,
	appMetrics *metrics.Metrics,
) (*service.PlaceLabeler, error) {
	workers := max(cfg.Places.Workers, 1)

	provider, err := geocoding.NewProvider(geocoding.ProviderConfig{
		Type:      geocoding.ProviderType(cfg.Places.ProviderType),
		APIKey:    cfg.Places.APIKey,
		RateLimit: max(providerRateLimit/workers, 1),
		Logger:    logger,
	})
	if errors.Is(err, geocoding.ErrProviderDisabled) {
		logger.Info("Place labeling is disabled")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	logger.Info("Reverse geocoding provider initialized", "type", cfg.Places.ProviderType)

	return service.NewPlaceLabeler(
		logger,
		store,
		provider,
		cfg.Places.ProviderType, // Provider name for metrics
		appMetrics,
		workers,
		cfg.Places.Interval,
	), nil
}

// setupLogger initializes and returns a logger based on the environment provided.
func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelDebug,
				AddSource: true,
			}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:       slog.LevelWarn,
				ReplaceAttr: dropTime,
			}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:       slog.LevelError,
				ReplaceAttr: dropTime,
			}),
		)

		log.Error(
			"The env parameter was not specified or was invalid. Logging will be minimal, by default.",
			slog.String("available_envs", "local, development, production"))
	}

	slog.SetDefault(log)

	return log
}

func dropTime(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey {
		return slog.Attr{}
	}
	return a
}
