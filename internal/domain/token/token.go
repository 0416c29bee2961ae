package token

import (
	"strings"
	"time"
)

// Binding represents the association between a physical NFC token and an
// account. At most one binding per token code is active at any time, and at
// most one active binding per account; superseded bindings are kept inactive
// for auditability.
type Binding struct {
	ID        int64     `json:"id"`
	AccountID int64     `json:"account_id"`
	TokenCode string    `json:"token_code"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Normalize converts a raw token UID to its canonical form: separators
// (colons, dashes, whitespace) removed and hex digits uppercased, so
// "04:a2:bc:7f" and "04A2BC7F" identify the same physical token.
func Normalize(uid string) string {
	var b strings.Builder
	b.Grow(len(uid))
	for _, r := range uid {
		switch r {
		case ':', '-', ' ', '\t', '\n', '\r':
			continue
		}
		b.WriteRune(r)
	}
	return strings.ToUpper(b.String())
}
