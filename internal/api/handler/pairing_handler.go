package handler

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tapband-wallet/internal/pairing"
)

// PairingHandler handles HTTP requests for pairing code issuance and status
type PairingHandler struct {
	pairingService *pairing.Service
	logger         *slog.Logger
}

// NewPairingHandler creates a new pairing handler
func NewPairingHandler(logger *slog.Logger, pairingService *pairing.Service) *PairingHandler {
	return &PairingHandler{
		pairingService: pairingService,
		logger:         logger,
	}
}

// Create issues a fresh pairing code for an account
func (h *PairingHandler) Create(c *gin.Context) {
	var req CreatePairingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	ttl := time.Duration(req.TTLSeconds) * time.Second
	code, err := h.pairingService.CreateCode(c.Request.Context(), req.AccountID, ttl)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondCreated(c, PairingResponse{
		Code:      code.Code,
		AccountID: code.AccountID,
		Status:    string(pairing.StatusPending),
		ExpiresAt: code.ExpiresAt.Format(time.RFC3339),
	})
}

// Status reports the current state of a pairing code
func (h *PairingHandler) Status(c *gin.Context) {
	value := c.Param("code")

	code, status, err := h.pairingService.Status(c.Request.Context(), value)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, PairingResponse{
		Code:      code.Code,
		AccountID: code.AccountID,
		Status:    string(status),
		ExpiresAt: code.ExpiresAt.Format(time.RFC3339),
		BindingID: code.BindingID,
	})
}
