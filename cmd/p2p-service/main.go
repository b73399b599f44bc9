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

	"github.com/LavaJover/shvark-p2p-service/internal/app/background"
	"github.com/LavaJover/shvark-p2p-service/internal/app/setup"
	"github.com/LavaJover/shvark-p2p-service/internal/config"
	"github.com/LavaJover/shvark-p2p-service/internal/delivery/commands"
	"github.com/LavaJover/shvark-p2p-service/internal/delivery/http/handlers"
	"github.com/LavaJover/shvark-p2p-service/internal/infrastructure/kafka"
	"github.com/LavaJover/shvark-p2p-service/internal/infrastructure/logger"
	"github.com/LavaJover/shvark-p2p-service/internal/infrastructure/notifier"
	"github.com/LavaJover/shvark-p2p-service/internal/infrastructure/postgres"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("failed to load .env")
	}
	// Reading config
	cfg := config.MustLoad()
	appLogger := logger.New(cfg.LogConfig)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Init database
	db := postgres.MustInitDB(cfg)

	deps, err := setup.InitializeDependencies(ctx, cfg, db, appLogger)
	if err != nil {
		log.Fatalf("failed to init dependencies: %v", err)
	}
	defer deps.Close()

	uc := setup.InitializeUseCases(deps)
	// Invoice callbacks must survive the request that created the order.
	uc.Orders.SetCallbackContext(ctx)

	if cfg.HoldInvoice.ResubscribeOnStartup {
		if err := uc.Orders.ResubscribeInvoices(ctx); err != nil {
			appLogger.Error("failed to resubscribe invoices", "error", err)
		}
	}

	tasks := &background.Tasks{
		Bus:           deps.Bus,
		Scheduler:     uc.Scheduler,
		Payouts:       uc.Orders,
		EventLog:      uc.EventLog,
		SweepInterval: cfg.Expiration.Interval,
		RetryInterval: cfg.HoldInvoice.PayoutRetryInterval,
		Logger:        appLogger,
	}
	if cfg.Notifier.WebhookURL != "" {
		tasks.Webhook = notifier.NewWebhookNotifier(cfg.Notifier.WebhookURL, cfg.Notifier.Secret, cfg.Notifier.Timeout, appLogger)
	}
	if cfg.KafkaService.Enabled {
		tasks.Forwarder = kafka.NewForwarder(deps.Publisher, cfg.KafkaService.OrderEventsTopic, cfg.KafkaService.DisputeEventsTopic)
		tasks.Commands = commands.NewConsumer(deps.Subscriber, uc.Orders, uc.Disputes,
			cfg.KafkaService.CommandsTopic, cfg.KafkaService.GroupID, appLogger)
	}
	if err := tasks.StartAll(ctx); err != nil {
		log.Fatalf("failed to start background tasks: %v", err)
	}

	server := &http.Server{
		Addr: fmt.Sprintf("%s:%s", cfg.HTTPServer.Host, cfg.HTTPServer.Port),
		Handler: handlers.NewRouter(handlers.Deps{
			Orders:      uc.Orders,
			Disputes:    uc.Disputes,
			Communities: uc.Communities,
			Users:       uc.Users,
			History:     uc.EventLog,
			AdminIDs:    cfg.Policy.AdminIDs,
			Gatherer:    deps.Registry,
		}),
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
	}

	go func() {
		appLogger.Info("http server started", "addr", server.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	appLogger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("http shutdown failed", "error", err)
	}
	tasks.Wait()

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
