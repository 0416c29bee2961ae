package handler

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/tapband-wallet/internal/domain/account"
	"github.com/tapband-wallet/internal/domain/ledger"
	"github.com/tapband-wallet/internal/domain/pairing"
	"github.com/tapband-wallet/internal/domain/shared"
	"github.com/tapband-wallet/internal/domain/token"
)

// respondDomainError maps the domain error taxonomy onto HTTP statuses.
// Anything unmapped is a server fault and logged as such.
func respondDomainError(c *gin.Context, logger *slog.Logger, err error) {
	var (
		accNotFound   account.ErrAccountNotFound
		insufficient  account.ErrInsufficientBalance
		unknownToken  token.ErrUnknownToken
		tokenInUse    token.ErrTokenInUse
		codeNotFound  pairing.ErrCodeNotFound
		codeExpired   pairing.ErrCodeExpired
		entryNotFound ledger.ErrEntryNotFound
	)

	switch {
	case errors.Is(err, shared.ErrValidation):
		RespondBadRequest(c, err.Error())
	case errors.Is(err, account.ErrInvalidAmount):
		RespondBadRequest(c, "amount must be a positive integer of cents")
	case errors.Is(err, account.ErrEmptyDisplayName):
		RespondBadRequest(c, "display_name is required")
	case errors.Is(err, shared.ErrMissingAmount):
		RespondUnprocessable(c, "MISSING_AMOUNT", "no amount supplied and no pending checkout for reader")
	case errors.As(err, &accNotFound):
		RespondNotFound(c, "Account not found")
	case errors.As(err, &unknownToken):
		RespondNotFound(c, "Token is not bound to any account")
	case errors.As(err, &codeNotFound):
		RespondNotFound(c, "Pairing code not found")
	case errors.As(err, &entryNotFound):
		RespondNotFound(c, "Transaction not found")
	case errors.As(err, &tokenInUse):
		RespondConflict(c, "TOKEN_IN_USE", "Token is actively bound to another account")
	case errors.As(err, &insufficient):
		RespondUnprocessable(c, "INSUFFICIENT_BALANCE", "Account balance cannot cover the debit")
	case errors.As(err, &codeExpired):
		RespondGone(c, "PAIRING_CODE_EXPIRED", "Pairing code has expired")
	case errors.Is(err, pairing.ErrCodeGenerationExhausted):
		logger.Error("Pairing code space exhausted", "error", err)
		RespondInternalError(c)
	default:
		logger.Error("Unhandled domain error", "error", err)
		RespondInternalError(c)
	}
}
