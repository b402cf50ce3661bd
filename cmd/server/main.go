package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/advolink/advolink/internal/broker"
	"github.com/advolink/advolink/internal/config"
	"github.com/advolink/advolink/internal/database"
	"github.com/advolink/advolink/internal/gateway"
	"github.com/advolink/advolink/internal/handler"
	"github.com/advolink/advolink/pkg/middleware"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	config.InitLogger(cfg)

	slog.Info("Starting AdvoLink API server", "version", version)

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
	advocateRepo := database.NewAdvocateRepository(db)

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

	// Initialize gateway
	gw := gateway.New(channel)

	// Initialize handlers
	caseHandler := handler.NewCaseHandler(caseRepo, gw, cfg.CaseCallTimeout)
	bookingHandler := handler.NewBookingHandler(gw, cfg.BookingCallTimeout)
	advocateHandler := handler.NewAdvocateHandler(advocateRepo)
	healthHandler := handler.NewHealthHandler(db, channel, version)

	// Create CORS config
	corsConfig := middleware.CORSConfig{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   cfg.CORSAllowedMethods,
		AllowedHeaders:   cfg.CORSAllowedHeaders,
		AllowCredentials: cfg.CORSAllowCredentials,
		MaxAge:           cfg.CORSMaxAge,
	}

	// Create router
	router := handler.NewRouter(
		caseHandler,
		bookingHandler,
		advocateHandler,
		healthHandler,
		corsConfig,
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router.Handler(),
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
	}

	// Start server in goroutine
	go func() {
		slog.Info("Starting HTTP server", "port", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	slog.Info("Received shutdown signal, initiating graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Shutdown HTTP server
	slog.Info("Shutting down HTTP server...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("AdvoLink API server stopped")
}
