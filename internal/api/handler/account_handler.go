package handler

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tapband-wallet/internal/domain/account"
	"github.com/tapband-wallet/internal/domain/ledger"
	"github.com/tapband-wallet/internal/engine"
)

// AccountHandler handles HTTP requests for account operations
type AccountHandler struct {
	accountRepo account.Repository
	ledger      *engine.Ledger
	logger      *slog.Logger
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(logger *slog.Logger, accountRepo account.Repository, l *engine.Ledger) *AccountHandler {
	return &AccountHandler{
		accountRepo: accountRepo,
		ledger:      l,
		logger:      logger,
	}
}

func parseAccountID(c *gin.Context) (int64, bool) {
	idParam := c.Param("id")
	id, err := strconv.ParseInt(idParam, 10, 64)
	if err != nil || id <= 0 {
		RespondBadRequest(c, "Invalid account ID")
		return 0, false
	}
	return id, true
}

// Create handles creation of a new prepaid account
func (h *AccountHandler) Create(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	acc, err := account.NewAccount(req.DisplayName, req.InitialBalance)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	if err := h.accountRepo.Create(c.Request.Context(), acc); err != nil {
		h.logger.Error("Failed to create account", "error", err)
		RespondInternalError(c)
		return
	}

	RespondCreated(c, mapAccountToResponse(acc))
}

// GetByID retrieves an account by its ID, returning 404 if not found
func (h *AccountHandler) GetByID(c *gin.Context) {
	id, ok := parseAccountID(c)
	if !ok {
		return
	}

	acc, err := h.accountRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, mapAccountToResponse(acc))
}

// GetBalance returns just the account's current balance
func (h *AccountHandler) GetBalance(c *gin.Context) {
	id, ok := parseAccountID(c)
	if !ok {
		return
	}

	acc, err := h.accountRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, BalanceResponse{AccountID: acc.ID, Balance: acc.Balance})
}

// Credit recharges the account. A missing idempotency key means the server
// generates one, so blind client retries of the same request may double-credit;
// callers wanting replay protection supply their own key.
func (h *AccountHandler) Credit(c *gin.Context) {
	id, ok := parseAccountID(c)
	if !ok {
		return
	}

	var req CreditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	result, err := h.ledger.ApplyCredit(c.Request.Context(), engine.CreditRequest{
		IdempotencyKey: req.IdempotencyKey,
		AccountID:      id,
		Amount:         req.Amount,
		Description:    req.Description,
	})
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	response := ScanResponse{
		EntryID:          result.Entry.ID,
		AccountID:        result.Entry.AccountID,
		Amount:           result.Entry.Amount,
		Description:      result.Entry.Description,
		AlreadyProcessed: result.AlreadyProcessed,
	}
	if !result.AlreadyProcessed {
		newBalance := result.NewBalance
		response.NewBalance = &newBalance
	}

	RespondOK(c, response)
}

// History lists the account's ledger entries, newest first
func (h *AccountHandler) History(c *gin.Context) {
	id, ok := parseAccountID(c)
	if !ok {
		return
	}

	var params HistoryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		RespondBadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	filter := ledger.HistoryFilter{
		Limit:  params.Limit,
		Offset: params.Offset,
	}
	if params.Start != "" {
		start, err := time.Parse(time.RFC3339, params.Start)
		if err != nil {
			RespondBadRequest(c, "Invalid start time, expected RFC3339")
			return
		}
		filter.Start = &start
	}
	if params.End != "" {
		end, err := time.Parse(time.RFC3339, params.End)
		if err != nil {
			RespondBadRequest(c, "Invalid end time, expected RFC3339")
			return
		}
		filter.End = &end
	}

	entries, total, err := h.ledger.History(c.Request.Context(), id, filter)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	responses := make([]EntryResponse, 0, len(entries))
	for _, e := range entries {
		responses = append(responses, mapEntryToResponse(e))
	}

	RespondWithListData(c, 200, responses, params.Limit, params.Offset, total)
}

// mapAccountToResponse maps an account entity to an account response DTO
func mapAccountToResponse(acc *account.Account) AccountResponse {
	return AccountResponse{
		ID:          acc.ID,
		DisplayName: acc.DisplayName,
		Balance:     acc.Balance,
		CreatedAt:   acc.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   acc.UpdatedAt.Format(time.RFC3339),
	}
}

// mapEntryToResponse maps a ledger entry to a response DTO
func mapEntryToResponse(e *ledger.Entry) EntryResponse {
	return EntryResponse{
		ID:             e.ID,
		IdempotencyKey: e.IdempotencyKey,
		AccountID:      e.AccountID,
		Type:           string(e.Type),
		Amount:         e.Amount,
		Description:    e.Description,
		ReaderName:     e.ReaderName,
		CreatedAt:      e.CreatedAt.Format(time.RFC3339),
	}
}
