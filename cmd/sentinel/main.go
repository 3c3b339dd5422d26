package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sentinelai/sentinel-alerts/internal/api"
	"github.com/sentinelai/sentinel-alerts/internal/config"
	"github.com/sentinelai/sentinel-alerts/internal/metrics"
	"github.com/sentinelai/sentinel-alerts/internal/monitoring"
	"github.com/sentinelai/sentinel-alerts/internal/notifications"
	"github.com/sentinelai/sentinel-alerts/internal/realtime"
	"github.com/sentinelai/sentinel-alerts/internal/scheduler"
	"github.com/sentinelai/sentinel-alerts/internal/sentiment"
	"github.com/sentinelai/sentinel-alerts/internal/storage"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load environment variables from .env file if it exists
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logrus.SetLevel(logrus.InfoLevel)
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.SetFormatter(&logrus.JSONFormatter{})

	logrus.Info("Starting SentinelAI alert service")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := storage.Open(cfg.DatabaseDriver, cfg.DatabaseURL, cfg.Debug)
	if err != nil {
		logrus.Fatalf("Failed to open database: %v", err)
	}
	store := storage.NewStore(db)
	if err := store.Migrate(); err != nil {
		logrus.Fatalf("Failed to migrate database: %v", err)
	}
	defer store.Close()

	prom := metrics.New()

	hub := realtime.NewHub()
	hub.OnCountChange = func(n int) { prom.Viewers.Set(float64(n)) }

	bus := newBus(ctx, cfg, hub)
	defer bus.Close()

	opts := []notifications.Option{
		notifications.WithLive(bus),
		notifications.WithMetrics(prom),
	}
	if archive := newArchive(ctx, cfg); archive != nil {
		opts = append(opts, notifications.WithArchive(archive))
	}
	notifier := notifications.NewService(cfg, opts...)

	classifier := sentiment.NewClassifier(newModel(cfg))
	logrus.Infof("Classifying posts with %s", classifier.ModelName())

	monitoringService := monitoring.NewService(cfg, store, notifier, classifier, monitoring.NewSources(cfg), prom)

	schedulerService := scheduler.NewService(cfg.PollInterval, monitoringService)
	if err := schedulerService.Start(); err != nil {
		logrus.Fatalf("Failed to start scheduler: %v", err)
	}

	handler := api.NewHandler(store, notifier, monitoringService, hub, prom)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      handler.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start HTTP server in a goroutine
	go func() {
		logrus.Infof("HTTP server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := schedulerService.Stop(shutdownCtx); err != nil {
		logrus.Errorf("Scheduler did not stop cleanly: %v", err)
	}

	// websocket connections are hijacked and not tracked by Shutdown
	hub.CloseAll()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	cancel()
	logrus.Info("Server exited")
}

// newBus shares live events through redis when configured, otherwise in process
func newBus(ctx context.Context, cfg *config.Config, hub *realtime.Hub) realtime.Bus {
	if cfg.RedisAddr == "" {
		return realtime.NewLocalBus(hub)
	}

	redisBus, err := realtime.NewRedisBus(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisChannel)
	if err != nil {
		logrus.Warnf("Redis unavailable, live events stay local: %v", err)
		return realtime.NewLocalBus(hub)
	}
	if err := redisBus.StartForwarder(ctx, hub); err != nil {
		logrus.Warnf("Redis subscribe failed, live events stay local: %v", err)
		_ = redisBus.Close()
		return realtime.NewLocalBus(hub)
	}
	return redisBus
}

func newArchive(ctx context.Context, cfg *config.Config) storage.ArchiveInterface {
	if cfg.StorageAccount == "" {
		return nil
	}

	archive, err := storage.NewAzureArchive(ctx, cfg.StorageAccount, cfg.StorageContainer)
	if err != nil {
		logrus.Warnf("Alert archive disabled: %v", err)
		return nil
	}
	logrus.Infof("Archiving alert events to container %s", cfg.StorageContainer)
	return archive
}

func newModel(cfg *config.Config) sentiment.Model {
	if cfg.SentimentAPIURL == "" {
		return sentiment.LexiconModel{}
	}
	return sentiment.NewInferenceModel(cfg.SentimentAPIURL, cfg.SentimentAPIToken)
}
