package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tapband-wallet/internal/api"
	"github.com/tapband-wallet/internal/config"
	"github.com/tapband-wallet/internal/data/postgres"
	"github.com/tapband-wallet/internal/engine"
	"github.com/tapband-wallet/internal/ephemeral"
	"github.com/tapband-wallet/internal/logger"
	"github.com/tapband-wallet/internal/pairing"
	"github.com/tapband-wallet/internal/platform/messaging/producers"
	"github.com/tapband-wallet/internal/platform/persistence"
	"github.com/tapband-wallet/internal/registry"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("wallet_server")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	log.Info("Starting Wallet Server",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
	)

	// Initialize database with app context
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	// Initialize Kafka producer for the notification side-channel
	notificationProducer, err := producers.NewNotificationProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize notification Kafka producer", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	accountRepo := postgres.NewAccountRepository(log, postgresDB)
	tokenRepo := postgres.NewTokenRepository(log, postgresDB)
	ledgerRepo := postgres.NewLedgerRepository(log, postgresDB)
	pairingRepo := postgres.NewPairingRepository(log, postgresDB)

	// Initialize wallet core
	tokenRegistry := registry.NewRegistry(log, accountRepo, tokenRepo, postgresDB)
	walletLedger := engine.NewLedger(log, accountRepo, ledgerRepo, postgresDB, notificationProducer)
	ephemeralStore := ephemeral.NewStore(log, cfg.Ephemeral.DefaultTTL)
	scanEngine := engine.NewEngine(log, tokenRegistry, walletLedger, ephemeralStore, postgresDB)
	pairingService := pairing.NewService(log, accountRepo, pairingRepo, tokenRegistry, postgresDB, notificationProducer, &cfg.Pairing)

	// Initialize REST server
	server := api.NewServer(log, cfg, scanEngine, walletLedger, tokenRegistry, pairingService, ephemeralStore, accountRepo)
	log.Info("REST server initialized")

	// Create error channel for server errors
	errChan := make(chan error, 1)

	// Start server in goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Shutdown HTTP server
	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	if err = notificationProducer.Close(); err != nil {
		log.Error("Error closing Kafka producer", "error", err)
	}

	// Shutdown postgres connection pool
	postgresDB.Close()

	// Final status
	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if err != nil {
		log.Error("Server shutdown completed with errors")
	} else {
		log.Info("Server shutdown completed successfully")
	}
}
