package mailer

import (
	"fmt"
	"sync"
)

// Email represents a sent email
type Email struct {
	Recipient    string
	TemplateFile string
	Data         any
}

// MockMailer is a mock implementation of the Mailer interface for testing
type MockMailer struct {
	mu      sync.RWMutex
	emails  []Email
	failFor map[string]bool
}

// NewMockMailer creates a new MockMailer instance
func NewMockMailer() *MockMailer {
	return &MockMailer{
		emails:  make([]Email, 0),
		failFor: make(map[string]bool),
	}
}

// FailFor makes Send return an error for the given recipient, to exercise
// per-recipient failure isolation.
func (m *MockMailer) FailFor(recipient string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.failFor[recipient] = true
}

// Send records the email that would have been sent
func (m *MockMailer) Send(recipient, templateFile string, data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failFor[recipient] {
		return fmt.Errorf("smtp delivery failed for %s", recipient)
	}

	m.emails = append(m.emails, Email{
		Recipient:    recipient,
		TemplateFile: templateFile,
		Data:         data,
	})

	return nil
}

// SentEmails returns a copy of all sent emails
func (m *MockMailer) SentEmails() []Email {
	m.mu.RLock()
	defer m.mu.RUnlock()

	emails := make([]Email, len(m.emails))
	copy(emails, m.emails)
	return emails
}

// Reset clears the record of sent emails
func (m *MockMailer) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.emails = make([]Email, 0)
	m.failFor = make(map[string]bool)
}
