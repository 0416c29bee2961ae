package handler

// CreateAccountRequest represents a request to create a new prepaid account
type CreateAccountRequest struct {
	DisplayName    string `json:"display_name" binding:"required"`
	InitialBalance int64  `json:"initial_balance" binding:"min=0"`
}

// AccountResponse represents an account in API responses
type AccountResponse struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"display_name"`
	Balance     int64  `json:"balance"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// BalanceResponse represents an account balance lookup
type BalanceResponse struct {
	AccountID int64 `json:"account_id"`
	Balance   int64 `json:"balance"`
}

// CreditRequest represents a recharge of a prepaid account
type CreditRequest struct {
	Amount         int64  `json:"amount" binding:"required,gt=0"`
	Description    string `json:"description,omitempty"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// ScanResponse represents the outcome of a processed tap
type ScanResponse struct {
	EntryID          int64  `json:"entry_id"`
	AccountID        int64  `json:"account_id"`
	Amount           int64  `json:"amount"`
	NewBalance       *int64 `json:"new_balance,omitempty"`
	Description      string `json:"description,omitempty"`
	AutoPaired       bool   `json:"auto_paired,omitempty"`
	AlreadyProcessed bool   `json:"already_processed,omitempty"`
}

// BindTokenRequest represents a request to bind a token to an account
type BindTokenRequest struct {
	UID string `json:"uid" binding:"required"`
}

// BindingResponse represents a token binding in API responses
type BindingResponse struct {
	ID        int64  `json:"id"`
	AccountID int64  `json:"account_id"`
	TokenCode string `json:"token_code"`
	Active    bool   `json:"active"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// UnbindResponse reports how many bindings an unbind released
type UnbindResponse struct {
	AccountID int64 `json:"account_id"`
	Released  int64 `json:"released"`
}

// EntryResponse represents a ledger entry in API responses
type EntryResponse struct {
	ID             int64  `json:"id"`
	IdempotencyKey string `json:"idempotency_key"`
	AccountID      int64  `json:"account_id"`
	Type           string `json:"type"`
	Amount         int64  `json:"amount"`
	Description    string `json:"description,omitempty"`
	ReaderName     string `json:"reader_name,omitempty"`
	CreatedAt      string `json:"created_at"`
}

// CreatePairingRequest represents a request for a fresh pairing code
type CreatePairingRequest struct {
	AccountID  int64 `json:"account_id" binding:"required"`
	TTLSeconds int   `json:"ttl_seconds,omitempty"`
}

// PairingResponse represents a pairing code in API responses
type PairingResponse struct {
	Code      string `json:"code"`
	AccountID int64  `json:"account_id"`
	Status    string `json:"status,omitempty"`
	ExpiresAt string `json:"expires_at"`
	BindingID *int64 `json:"binding_id,omitempty"`
}

// PairingScanRequest represents a reader submission completing a pairing
type PairingScanRequest struct {
	Code       string `json:"code" binding:"required"`
	UID        string `json:"uid" binding:"required"`
	ReaderName string `json:"reader_name,omitempty"`
}

// PairingScanResponse reports the outcome of a pairing scan
type PairingScanResponse struct {
	Code             string `json:"code"`
	AccountID        int64  `json:"account_id"`
	BindingID        *int64 `json:"binding_id,omitempty"`
	AlreadyCompleted bool   `json:"already_completed,omitempty"`
}

// CheckoutConfigRequest stages a pending charge on a reader
type CheckoutConfigRequest struct {
	ReaderName  string `json:"reader_name" binding:"required"`
	Amount      int64  `json:"amount" binding:"required,gt=0"`
	Description string `json:"description,omitempty"`
	TTLSeconds  int    `json:"ttl_seconds,omitempty"`
}

// AutoPairConfigRequest arms a reader to bind its next unknown token
type AutoPairConfigRequest struct {
	ReaderName string `json:"reader_name" binding:"required"`
	AccountID  int64  `json:"account_id" binding:"required"`
	TTLSeconds int    `json:"ttl_seconds,omitempty"`
}

// HistoryParams represents filters for transaction history listings
type HistoryParams struct {
	Limit  int    `form:"limit,default=50" binding:"min=1,max=500"`
	Offset int    `form:"offset,default=0" binding:"min=0"`
	Start  string `form:"start"`
	End    string `form:"end"`
}
