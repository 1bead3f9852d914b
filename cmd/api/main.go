package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aureliahealth/accuro-voice-adapter/internal/api/router"
	appconfig "github.com/aureliahealth/accuro-voice-adapter/internal/config"
	"github.com/aureliahealth/accuro-voice-adapter/internal/demo"
	"github.com/aureliahealth/accuro-voice-adapter/internal/emr/accuro"
	"github.com/aureliahealth/accuro-voice-adapter/internal/http/handlers"
	"github.com/aureliahealth/accuro-voice-adapter/internal/observability/metrics"
	"github.com/aureliahealth/accuro-voice-adapter/internal/scheduling"
	"github.com/aureliahealth/accuro-voice-adapter/pkg/logging"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting accuro-voice-adapter",
		"env", cfg.Env,
		"port", cfg.Port,
		"simulated_scheduling", cfg.SimulatedScheduling,
	)

	registry := prometheus.NewRegistry()
	adapterMetrics := metrics.NewAdapterMetrics(registry)

	emrClient, err := accuro.New(accuro.Config{
		BaseURL:      cfg.AccuroBaseURL,
		TokenURL:     cfg.AccuroTokenURL,
		ClientID:     cfg.AccuroClientID,
		ClientSecret: cfg.AccuroClientSecret,
		Timeout:      cfg.AccuroTimeout,
		TokenMargin:  cfg.AccuroTokenMargin,
		Logger:       logger,
		Metrics:      adapterMetrics,
	})
	if err != nil {
		logger.Error("failed to create Accuro client", "error", err)
		os.Exit(1)
	}

	resolver := scheduling.NewResolver(emrClient, logger)

	var simulator *demo.Simulator
	if cfg.SimulatedScheduling {
		simulator = demo.NewSimulator()
	}

	webhookHandler := handlers.NewRetellWebhookHandler(handlers.RetellWebhookConfig{
		Resolver:  resolver,
		Simulator: simulator,
		Metrics:   adapterMetrics,
		Logger:    logger,
	})

	r := router.New(&router.Config{
		Logger:           logger,
		WebhookHandler:   webhookHandler,
		RetellWebhookKey: cfg.RetellWebhookKey,
		MetricsHandler:   promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
