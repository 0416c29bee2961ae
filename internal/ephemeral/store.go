// Package ephemeral holds short-lived per-reader state: pending checkout
// amounts and auto-pair directives. Entries live only in memory and expire on
// their own; a restart losing them is acceptable because readers simply fall
// back to their configured defaults.
package ephemeral

import (
	"log/slog"
	"sync"
	"time"
)

// Checkout is a pending charge staged for the next tap on a reader
type Checkout struct {
	Amount      int64 // Cents
	Description string
	ExpiresAt   time.Time
}

// AutoPair directs the next unknown-token scan on a reader to bind to the
// target account instead of failing.
type AutoPair struct {
	AccountID int64
	ExpiresAt time.Time
}

// Store keeps the per-reader ephemeral state. All methods are safe for
// concurrent use. A later write for the same reader replaces the earlier one;
// consumption removes the entry so each staged value applies to one tap only.
type Store struct {
	mu        sync.Mutex
	checkouts map[string]Checkout
	autoPairs map[string]AutoPair

	defaultTTL time.Duration
	now        func() time.Time
	logger     *slog.Logger
}

// NewStore creates an ephemeral store using the given default TTL for entries
// staged without an explicit one.
func NewStore(logger *slog.Logger, defaultTTL time.Duration) *Store {
	return &Store{
		checkouts:  make(map[string]Checkout),
		autoPairs:  make(map[string]AutoPair),
		defaultTTL: defaultTTL,
		now:        time.Now,
		logger:     logger,
	}
}

// SetCheckout stages a pending charge for the reader. A non-positive ttl uses
// the store default.
func (s *Store) SetCheckout(readerName string, amount int64, description string, ttl time.Duration) {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkouts[readerName] = Checkout{
		Amount:      amount,
		Description: description,
		ExpiresAt:   s.now().Add(ttl),
	}
	s.logger.Debug("Staged checkout", "reader_name", readerName, "amount", amount, "ttl", ttl)
}

// ConsumeCheckout removes and returns the reader's pending charge. Returns
// false if none is staged or the entry has expired.
func (s *Store) ConsumeCheckout(readerName string) (Checkout, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.checkouts[readerName]
	if !ok {
		return Checkout{}, false
	}
	delete(s.checkouts, readerName)
	if c.ExpiresAt.Before(s.now()) {
		s.logger.Debug("Checkout expired", "reader_name", readerName)
		return Checkout{}, false
	}
	return c, true
}

// PeekCheckout returns the reader's pending charge without consuming it
func (s *Store) PeekCheckout(readerName string) (Checkout, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.checkouts[readerName]
	if !ok || c.ExpiresAt.Before(s.now()) {
		return Checkout{}, false
	}
	return c, true
}

// ClearCheckout drops any pending charge staged for the reader
func (s *Store) ClearCheckout(readerName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.checkouts, readerName)
}

// SetAutoPair arms the reader so its next unknown-token scan binds to the
// account. A non-positive ttl uses the store default.
func (s *Store) SetAutoPair(readerName string, accountID int64, ttl time.Duration) {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.autoPairs[readerName] = AutoPair{
		AccountID: accountID,
		ExpiresAt: s.now().Add(ttl),
	}
	s.logger.Debug("Armed auto-pair", "reader_name", readerName, "account_id", accountID, "ttl", ttl)
}

// ConsumeAutoPair removes and returns the reader's auto-pair directive.
// Returns false if none is armed or the entry has expired.
func (s *Store) ConsumeAutoPair(readerName string) (AutoPair, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.autoPairs[readerName]
	if !ok {
		return AutoPair{}, false
	}
	delete(s.autoPairs, readerName)
	if a.ExpiresAt.Before(s.now()) {
		s.logger.Debug("Auto-pair expired", "reader_name", readerName)
		return AutoPair{}, false
	}
	return a, true
}

// PeekAutoPair returns the reader's auto-pair directive without consuming it
func (s *Store) PeekAutoPair(readerName string) (AutoPair, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.autoPairs[readerName]
	if !ok || a.ExpiresAt.Before(s.now()) {
		return AutoPair{}, false
	}
	return a, true
}

// ClearAutoPair disarms any auto-pair directive staged for the reader
func (s *Store) ClearAutoPair(readerName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.autoPairs, readerName)
}
