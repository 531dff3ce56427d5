// session.go holds the checkout attempt id shared by one checkout attempt.

package analytics

import "sync"

// Session holds at most one checkout attempt id. It starts empty, is set by
// a successful initial analytics handshake and is cleared by a failed one.
// Safe for concurrent use.
type Session struct {
	mu sync.RWMutex
	id string
}

// NewSession returns an empty session.
func NewSession() *Session {
	return &Session{}
}

// CheckoutAttemptID returns the current id and whether one is set.
func (s *Session) CheckoutAttemptID() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id, s.id != ""
}

// IDForPayment returns the id, or FetchCheckoutAttemptIDFailed when none is
// available. Payment requests always carry a value.
func (s *Session) IDForPayment() string {
	if id, ok := s.CheckoutAttemptID(); ok {
		return id
	}
	return FetchCheckoutAttemptIDFailed
}

func (s *Session) set(id string) {
	s.mu.Lock()
	s.id = id
	s.mu.Unlock()
}

func (s *Session) clear() {
	s.set("")
}
