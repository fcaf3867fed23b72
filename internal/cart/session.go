package cart

import (
	"sync"

	"pharmapos/m/domain"
)

// Session is the per-cashier checkout state: the cart plus the transient
// form fields that are reset after a successful sale.
type Session struct {
	mu            sync.Mutex
	Cart          *Cart
	CustomerName  string
	PaymentMethod domain.PaymentMethod
}

func newSession() *Session {
	return &Session{Cart: New(), PaymentMethod: domain.PaymentCash}
}

// Lock serializes requests that touch the same session.
func (s *Session) Lock()   { s.mu.Lock() }
func (s *Session) Unlock() { s.mu.Unlock() }

// Reset clears the cart and restores the form defaults.
func (s *Session) Reset() {
	s.Cart.Clear()
	s.CustomerName = ""
	s.PaymentMethod = domain.PaymentCash
}

// Sessions holds one Session per cashier.
type Sessions struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewSessions() *Sessions {
	return &Sessions{sessions: make(map[string]*Session)}
}

// Get returns the session for the cashier, creating it on first use.
func (s *Sessions) Get(cashierID string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[cashierID]
	if !ok {
		sess = newSession()
		s.sessions[cashierID] = sess
	}
	return sess
}

// Drop forgets a cashier's session.
func (s *Sessions) Drop(cashierID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, cashierID)
}
