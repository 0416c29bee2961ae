package handler

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tapband-wallet/internal/domain/account"
	"github.com/tapband-wallet/internal/ephemeral"
)

// ConfigHandler stages ephemeral per-reader state: pending checkouts and
// auto-pair directives. Nothing here touches the database beyond validating
// the target account.
type ConfigHandler struct {
	ephemeral   *ephemeral.Store
	accountRepo account.Repository
	logger      *slog.Logger
}

// NewConfigHandler creates a new reader configuration handler
func NewConfigHandler(logger *slog.Logger, store *ephemeral.Store, accountRepo account.Repository) *ConfigHandler {
	return &ConfigHandler{
		ephemeral:   store,
		accountRepo: accountRepo,
		logger:      logger,
	}
}

// SetCheckout stages a pending charge for the next tap on a reader
func (h *ConfigHandler) SetCheckout(c *gin.Context) {
	var req CheckoutConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	ttl := time.Duration(req.TTLSeconds) * time.Second
	h.ephemeral.SetCheckout(req.ReaderName, req.Amount, req.Description, ttl)

	RespondOK(c, gin.H{
		"reader_name": req.ReaderName,
		"amount":      req.Amount,
		"staged":      true,
	})
}

// SetAutoPair arms a reader so its next unknown-token scan binds to the
// given account.
func (h *ConfigHandler) SetAutoPair(c *gin.Context) {
	var req AutoPairConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	// Validate the target up front; a dangling directive would otherwise
	// surface as a confusing bind failure at tap time.
	if _, err := h.accountRepo.GetByID(c.Request.Context(), req.AccountID); err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	ttl := time.Duration(req.TTLSeconds) * time.Second
	h.ephemeral.SetAutoPair(req.ReaderName, req.AccountID, ttl)

	RespondOK(c, gin.H{
		"reader_name": req.ReaderName,
		"account_id":  req.AccountID,
		"armed":       true,
	})
}
