package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/tapband-wallet/internal/api/middleware"
	"github.com/tapband-wallet/internal/domain/shared"
	"github.com/tapband-wallet/internal/engine"
	"github.com/tapband-wallet/internal/pairing"
)

// ScanHandler handles reader-facing scan submissions
type ScanHandler struct {
	engine         *engine.Engine
	pairingService *pairing.Service
	logger         *slog.Logger
}

// NewScanHandler creates a new scan handler
func NewScanHandler(logger *slog.Logger, eng *engine.Engine, pairingService *pairing.Service) *ScanHandler {
	return &ScanHandler{
		engine:         eng,
		pairingService: pairingService,
		logger:         logger,
	}
}

// Scan handles one tap submission from a reader. Replays of an already
// processed idempotency key are a 200 success echoing the original entry,
// since the reader's delivery queue retries until it sees success.
func (h *ScanHandler) Scan(c *gin.Context) {
	var req shared.ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid scan request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	if req.CorrelationID == "" {
		req.CorrelationID = middleware.GetCorrelationID(c)
	}

	result, err := h.engine.ProcessScan(c.Request.Context(), &req)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	response := ScanResponse{
		EntryID:          result.Entry.Entry.ID,
		AccountID:        result.Entry.Entry.AccountID,
		Amount:           result.Entry.Entry.Amount,
		Description:      result.Entry.Entry.Description,
		AutoPaired:       result.AutoPaired,
		AlreadyProcessed: result.AlreadyProcessed,
	}
	// The balance is only reported for the attempt that actually debited;
	// a replay echo would otherwise leak a stale figure.
	if !result.AlreadyProcessed {
		newBalance := result.Entry.NewBalance
		response.NewBalance = &newBalance
	}

	RespondOK(c, response)
}

// PairingScan completes a pairing code with the scanned token
func (h *ScanHandler) PairingScan(c *gin.Context) {
	var req PairingScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid pairing scan request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	result, err := h.pairingService.CompleteByScan(c.Request.Context(), req.Code, req.UID, req.ReaderName)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, PairingScanResponse{
		Code:             result.Code.Code,
		AccountID:        result.Code.AccountID,
		BindingID:        result.Code.BindingID,
		AlreadyCompleted: result.AlreadyCompleted,
	})
}
