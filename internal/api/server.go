package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tapband-wallet/internal/api/handler"
	"github.com/tapband-wallet/internal/config"
	"github.com/tapband-wallet/internal/domain/account"
	"github.com/tapband-wallet/internal/engine"
	"github.com/tapband-wallet/internal/ephemeral"
	"github.com/tapband-wallet/internal/pairing"
	"github.com/tapband-wallet/internal/registry"
)

// Server handles HTTP requests and manages the application's lifecycle
type Server struct {
	logger     *slog.Logger // For structured logging
	httpServer *http.Server // Underlying HTTP server
	httpRouter *gin.Engine  // Gin router instance
}

// NewServer creates and configures a new HTTP server over the wallet core
func NewServer(
	log *slog.Logger,
	cfg *config.Config,
	eng *engine.Engine,
	ledger *engine.Ledger,
	reg *registry.Registry,
	pairingService *pairing.Service,
	ephemeralStore *ephemeral.Store,
	accountRepo account.Repository,
) *Server {
	if cfg.Application.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	httpRouter := gin.New()

	scanHandler := handler.NewScanHandler(log, eng, pairingService)
	accountHandler := handler.NewAccountHandler(log, accountRepo, ledger)
	tokenHandler := handler.NewTokenHandler(log, reg)
	pairingHandler := handler.NewPairingHandler(log, pairingService)
	configHandler := handler.NewConfigHandler(log, ephemeralStore, accountRepo)

	setupRouter(log, httpRouter, cfg.Server.ReaderAPIKey,
		scanHandler, accountHandler, tokenHandler, pairingHandler, configHandler)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpRouter,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &Server{
		logger:     log,
		httpServer: httpServer,
		httpRouter: httpRouter,
	}
}

// Start begins listening for HTTP requests
func (s *Server) Start() error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the HTTP server with a timeout
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, s.httpServer.WriteTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop HTTP server: %w", err)
	}

	return nil
}
