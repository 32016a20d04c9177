package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Aplicaciones-sobre-redes-de-ordenadores/Palasaca-backend/internal/amqp"
	"github.com/Aplicaciones-sobre-redes-de-ordenadores/Palasaca-backend/internal/config"
	"github.com/Aplicaciones-sobre-redes-de-ordenadores/Palasaca-backend/internal/services"
	"github.com/Aplicaciones-sobre-redes-de-ordenadores/Palasaca-backend/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting overdue-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// Reminder events are optional; without AMQP the sweep still runs.
	var publisher services.ReminderPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without reminder events", "error", err)
		} else {
			defer client.Close()
			publisher = client
			logger.Info("AMQP client initialized - overdue reminders will be published")
		}
	} else {
		logger.Info("AMQP disabled - overdue reminders will not be published")
	}

	payments := services.NewPaymentService(repo, publisher, cfg.SweepConcurrency)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("Overdue sweep configured",
		"interval", cfg.SweepInterval,
		"timeout", cfg.SweepTimeout,
		"concurrency", cfg.SweepConcurrency,
		"sqlite_db", cfg.SQLiteDBPath)

	runSweep := func() {
		sweepCtx, sweepCancel := context.WithTimeout(ctx, cfg.SweepTimeout)
		defer sweepCancel()

		result, err := payments.SweepOverdue(sweepCtx)
		if err != nil {
			logger.Error("Overdue sweep failed", "error", err)
			return
		}
		logger.Info("Overdue sweep complete",
			"marked", result.Marked,
			"failed", len(result.Failed),
			"message", result.Message)
	}

	// Run an initial sweep on startup, then on every tick.
	logger.Info("Running initial overdue sweep...")
	runSweep()

	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				runSweep()
			}
		}
	}()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	logger.Info("Shutdown signal received", "signal", sig.String())
	cancel()

	logger.Info("Overdue-worker shutdown complete")
}
