package services

import (
	"fmt"
	"sync"
)

// MockMailer is a mock implementation of MailerInterface for testing
type MockMailer struct {
	sent     []OutboundEmail
	failNext bool
	mu       sync.Mutex
}

// NewMockMailer creates a new mock mailer
func NewMockMailer() *MockMailer {
	return &MockMailer{}
}

// SetAsMockForTesting sets this mock as the global mailer instance for testing
func (m *MockMailer) SetAsMockForTesting() {
	SetMailer(m)
}

// Send records the message instead of delivering it
func (m *MockMailer) Send(email OutboundEmail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext {
		m.failNext = false
		return fmt.Errorf("mock mailer: simulated delivery failure")
	}
	m.sent = append(m.sent, email)
	return nil
}

// FailNext makes the next Send call return an error
func (m *MockMailer) FailNext() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = true
}

// SentEmails returns a copy of everything sent so far (for testing assertions)
func (m *MockMailer) SentEmails() []OutboundEmail {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]OutboundEmail, len(m.sent))
	copy(out, m.sent)
	return out
}

// Clear removes all recorded messages
func (m *MockMailer) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = nil
}
