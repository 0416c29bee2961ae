package handler

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tapband-wallet/internal/domain/token"
	"github.com/tapband-wallet/internal/registry"
)

// TokenHandler handles HTTP requests for token binding operations
type TokenHandler struct {
	registry *registry.Registry
	logger   *slog.Logger
}

// NewTokenHandler creates a new token handler
func NewTokenHandler(logger *slog.Logger, reg *registry.Registry) *TokenHandler {
	return &TokenHandler{
		registry: reg,
		logger:   logger,
	}
}

// Bind associates a token with the account. Binding a token actively held by
// another account is rejected; moving a token between accounts requires an
// explicit unbind first.
func (h *TokenHandler) Bind(c *gin.Context) {
	id, ok := parseAccountID(c)
	if !ok {
		return
	}

	var req BindTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	binding, err := h.registry.Bind(c.Request.Context(), id, req.UID)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, mapBindingToResponse(binding))
}

// Unbind releases all of the account's active bindings
func (h *TokenHandler) Unbind(c *gin.Context) {
	id, ok := parseAccountID(c)
	if !ok {
		return
	}

	released, err := h.registry.Unbind(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, UnbindResponse{AccountID: id, Released: released})
}

// ActiveBinding returns the account's currently active binding
func (h *TokenHandler) ActiveBinding(c *gin.Context) {
	id, ok := parseAccountID(c)
	if !ok {
		return
	}

	binding, err := h.registry.ActiveBinding(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}
	if binding == nil {
		RespondNotFound(c, "Account has no active token")
		return
	}

	RespondOK(c, mapBindingToResponse(binding))
}

// Lookup returns the binding state for a token UID regardless of whether it
// is currently active.
func (h *TokenHandler) Lookup(c *gin.Context) {
	uid := c.Query("uid")
	if uid == "" {
		RespondBadRequest(c, "uid query parameter is required")
		return
	}

	binding, err := h.registry.Lookup(c.Request.Context(), uid)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}
	if binding == nil {
		RespondNotFound(c, "Token has never been bound")
		return
	}

	RespondOK(c, mapBindingToResponse(binding))
}

// mapBindingToResponse maps a token binding to a response DTO
func mapBindingToResponse(b *token.Binding) BindingResponse {
	return BindingResponse{
		ID:        b.ID,
		AccountID: b.AccountID,
		TokenCode: b.TokenCode,
		Active:    b.Active,
		CreatedAt: b.CreatedAt.Format(time.RFC3339),
		UpdatedAt: b.UpdatedAt.Format(time.RFC3339),
	}
}
