// Package api wires the gin HTTP boundary of the wallet server: routing,
// middleware, and server lifecycle.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tapband-wallet/internal/api/handler"
	"github.com/tapband-wallet/internal/api/middleware"
)

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	readerAPIKey string,
	scanHandler *handler.ScanHandler,
	accountHandler *handler.AccountHandler,
	tokenHandler *handler.TokenHandler,
	pairingHandler *handler.PairingHandler,
	configHandler *handler.ConfigHandler,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CorrelationID())

	// API v1 endpoints
	v1 := r.Group("/api/v1")
	{
		// Reader-facing operations, gated by the shared device key
		readers := v1.Group("")
		readers.Use(middleware.ReaderAuth(logger, readerAPIKey))
		{
			readers.POST("/scan", scanHandler.Scan)
			readers.POST("/pairings/scan", scanHandler.PairingScan)
		}

		// Account operations
		accounts := v1.Group("/accounts")
		{
			accounts.POST("", accountHandler.Create)
			accounts.GET("/:id", accountHandler.GetByID)
			accounts.GET("/:id/balance", accountHandler.GetBalance)
			accounts.GET("/:id/transactions", accountHandler.History)
			accounts.POST("/:id/credit", accountHandler.Credit)
			accounts.POST("/:id/token", tokenHandler.Bind)
			accounts.DELETE("/:id/token", tokenHandler.Unbind)
			accounts.GET("/:id/token", tokenHandler.ActiveBinding)
		}

		// Token lookup by UID
		v1.GET("/tokens", tokenHandler.Lookup)

		// Pairing code lifecycle
		pairings := v1.Group("/pairings")
		{
			pairings.POST("", pairingHandler.Create)
			pairings.GET("/:code", pairingHandler.Status)
			pairings.POST("/auto/config", configHandler.SetAutoPair)
		}

		// Ephemeral reader checkout staging
		v1.POST("/checkout/config", configHandler.SetCheckout)
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
