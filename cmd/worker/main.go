package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/advolink/advolink/internal/broker"
	"github.com/advolink/advolink/internal/config"
	"github.com/advolink/advolink/internal/database"
	"github.com/advolink/advolink/internal/gateway"
	"github.com/advolink/advolink/internal/jobs"
	"github.com/advolink/advolink/internal/scheduler"
	"github.com/advolink/advolink/internal/task"
	"github.com/advolink/advolink/internal/worker"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	config.InitLogger(cfg)

	slog.Info("Starting AdvoLink worker", "version", version, "pool_size", cfg.WorkerPoolSize)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to MongoDB
	db, err := database.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoTimeout)
	if err != nil {
		slog.Error("Failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := db.Disconnect(context.Background()); err != nil {
			slog.Error("Failed to disconnect from MongoDB", "error", err)
		}
	}()

	// Create indexes
	if err := database.CreateIndexes(ctx, db); err != nil {
		slog.Error("Failed to create indexes", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	caseRepo := database.NewCaseRepository(db)
	bookingRepo := database.NewBookingRepository(db)

	// Connect to the task broker
	channel, err := broker.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisDB, cfg.TaskStream, cfg.ConsumerGroup, cfg.ResultTTL)
	if err != nil {
		slog.Error("Failed to connect to Redis broker", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := channel.Close(context.Background()); err != nil {
			slog.Error("Failed to close broker connection", "error", err)
		}
	}()

	// Register job handlers
	registry := task.NewRegistry()
	if err := jobs.RegisterAll(registry, caseRepo, bookingRepo); err != nil {
		slog.Error("Failed to register job handlers", "error", err)
		os.Exit(1)
	}
	slog.Info("Registered job handlers", "jobs", registry.Names())

	// Start the worker pool
	pool := worker.NewPool(channel, registry, cfg.WorkerPoolSize)
	if err := pool.Start(ctx); err != nil {
		slog.Error("Failed to start worker pool", "error", err)
		os.Exit(1)
	}

	// Start the reminder scheduler
	var reminders *scheduler.ReminderScheduler
	if cfg.ReminderEnabled {
		reminders = scheduler.NewReminderScheduler(cfg, bookingRepo, gateway.New(channel))
		if err := reminders.Start(ctx); err != nil {
			slog.Error("Failed to start reminder scheduler", "error", err)
			os.Exit(1)
		}
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	slog.Info("Received shutdown signal, initiating graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Stop scheduler first so no new work is published
	if reminders != nil {
		slog.Info("Stopping reminder scheduler...")
		reminders.Stop(shutdownCtx)
	}

	// Drain the pool (in-flight jobs finish and ack)
	slog.Info("Stopping worker pool...")
	pool.Stop(shutdownCtx)

	slog.Info("AdvoLink worker stopped")
}
