// Package main provides the entry point for the arbitrage API server.
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
	"github.com/sirupsen/logrus"

	"github.com/yourusername/arb-scout/internal/api"
	"github.com/yourusername/arb-scout/internal/config"
	"github.com/yourusername/arb-scout/internal/database"
	"github.com/yourusername/arb-scout/internal/logger"
	"github.com/yourusername/arb-scout/internal/metrics"
	"github.com/yourusername/arb-scout/internal/oddsapi"
	"github.com/yourusername/arb-scout/internal/repository"
	"github.com/yourusername/arb-scout/internal/scheduler"
	"github.com/yourusername/arb-scout/internal/service"
)

func main() {
	// Best effort; credentials usually arrive via real env vars
	godotenv.Load()

	cfg, err := config.LoadWithDefaults(os.Getenv("ARB_SCOUT_CONFIG_PATH"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			log.Fatalf("AWS_REGION and AWS_SECRET_NAME environment variables must be set when AWS_SECRETS_ENABLED is true")
		}
		if err := config.LoadSecretsFromAWS(cfg, region, secretName); err != nil {
			log.Fatalf("Failed to load secrets: %v", err)
		}
	}

	if err := config.Validate(cfg); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	appLog := logger.NewLogger(cfg.App.LogLevel)
	appLog.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"log_level":   cfg.App.LogLevel,
	}).Info("Arbitrage scout starting")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.Initialize(ctx, cfg)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	appLog.Info("Database connection established")

	repos, err := repository.NewRepositories(db)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to initialize repositories")
	}

	// Websocket hub pushes stored rows to subscribers after each run.
	hub := api.NewHub(appLog)
	go hub.Run()

	store := api.NewBroadcastingStore(
		repository.NewOpportunityStore(repos.Opportunity, cfg.Storage.MinProfitPercent, appLog),
		hub,
	)

	client := oddsapi.NewClient(&cfg.OddsAPI, &cfg.Sports, appLog)
	pipeline := service.NewPipeline(
		client,
		service.NewNormalizer(appLog),
		service.NewDetector(appLog),
		store,
		&cfg.Sports,
		appLog,
	)

	if cfg.Metrics.Enabled {
		metricsServer := &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Metrics.Port),
			Handler: metricsHandler(cfg.Metrics.Path),
		}
		go func() {
			appLog.WithField("port", cfg.Metrics.Port).Info("Metrics server starting")
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				appLog.WithError(err).Error("Metrics server error")
			}
		}()
		defer metricsServer.Close()
	}

	apiServer := api.NewServer(&cfg.Server, repos.Opportunity, pipeline, hub, appLog)
	if err := apiServer.Start(ctx); err != nil {
		appLog.WithError(err).Fatal("Failed to start API server")
	}

	var poller *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		poller = scheduler.NewScheduler(pipeline, appLog)
		for _, sport := range cfg.Scheduler.Sports {
			if err := poller.SchedulePolling(cfg.Scheduler.PollIntervalSeconds, sport); err != nil {
				appLog.WithError(err).Fatal("Failed to schedule polling")
			}
		}
		if err := poller.Start(); err != nil {
			appLog.WithError(err).Fatal("Failed to start scheduler")
		}
	}

	appLog.WithFields(logrus.Fields{
		"api_port":          cfg.Server.Port,
		"scheduler_enabled": cfg.Scheduler.Enabled,
		"min_profit":        cfg.Storage.MinProfitPercent,
	}).Info("Arbitrage scout is running")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	sig := <-sigChan
	appLog.WithField("signal", sig).Info("Shutdown signal received")

	cancel()
	if poller != nil {
		if err := poller.Stop(); err != nil {
			appLog.WithError(err).Error("Error during scheduler shutdown")
		}
	}
	if err := apiServer.Shutdown(); err != nil {
		appLog.WithError(err).Error("Error during API server shutdown")
	}

	// Give in-flight requests a moment to drain
	time.Sleep(1 * time.Second)

	appLog.Info("Arbitrage scout shut down successfully")
}

func metricsHandler(path string) http.Handler {
	mux := http.NewServeMux()
	mux.Handle(path, metrics.Handler())
	return mux
}
