package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"

	"sensor-dashboard-backend/config"
	"sensor-dashboard-backend/internal/api"
	"sensor-dashboard-backend/internal/auth"
	"sensor-dashboard-backend/internal/backend"
	"sensor-dashboard-backend/internal/collector"
	"sensor-dashboard-backend/internal/db"
	"sensor-dashboard-backend/internal/notification"
	"sensor-dashboard-backend/internal/retention"
	"sensor-dashboard-backend/internal/scheduler"
	"sensor-dashboard-backend/internal/session"
	"sensor-dashboard-backend/internal/store"
)

func main() {
	logger := log.New(os.Stdout, "sensor-dashboard ", log.LstdFlags)

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	if cfg.Auth.AdminPassword == "" || cfg.Auth.TokenSecret == "" {
		logger.Fatalf("auth.admin_password and auth.token_secret must be configured")
	}

	webpushOptions := webpush.Options{
		VAPIDPublicKey:  cfg.Push.PublicKey,
		VAPIDPrivateKey: cfg.Push.PrivateKey,
		Subscriber:      cfg.Push.Subject,
		TTL:             cfg.Push.TTL,
	}

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB)
	backendClient := backend.NewClient(cfg.Backend.URL, cfg.Backend.CallTimeout)

	workerPool := notification.NewWorkerPool(cfg.WorkerPool.Size, gormDB, &webpushOptions)
	workerPool.Start(ctx)

	sessions := session.NewService(appStore, backendClient, workerPool)
	collectorSvc := collector.NewService(appStore, backendClient)
	reaper := retention.NewReaper(appStore)

	sched := scheduler.New(appStore, collectorSvc, reaper, sessions)

	// The poll interval at boot comes from the hardware config row; the
	// scheduler re-reads it on every tick afterwards.
	hwCfg, err := appStore.HardwareConfig(ctx)
	if err != nil {
		logger.Fatalf("failed to load hardware config: %v", err)
	}
	sched.Start(hwCfg.UpdateInterval())

	tokens := auth.NewTokens(cfg.Auth.TokenSecret, time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute)
	handler := api.NewHandler(appStore, sessions, tokens, cfg.Auth.AdminPassword, &webpushOptions)
	router := api.NewRouter(handler, cfg.Server.RateLimitPerSec, time.Duration(cfg.Server.CacheTTLSeconds)*time.Second)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	sched.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}
