package mailer

import (
	"sync"
)

// Email is a message recorded by MockMailer.
type Email struct {
	Recipient    string
	TemplateFile string
	Data         any
}

// MockMailer records booking emails instead of delivering them. When Err is set, Send
// fails with it and records nothing.
type MockMailer struct {
	mu     sync.RWMutex
	emails []Email
	err    error
}

func NewMockMailer() *MockMailer {
	return &MockMailer{
		emails: make([]Email, 0),
	}
}

func (m *MockMailer) Send(recipient, templateFile string, data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}

	m.emails = append(m.emails, Email{
		Recipient:    recipient,
		TemplateFile: templateFile,
		Data:         data,
	})

	return nil
}

// FailWith makes every following Send return err. A nil err restores delivery.
func (m *MockMailer) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.err = err
}

func (m *MockMailer) SentEmails() []Email {
	m.mu.RLock()
	defer m.mu.RUnlock()

	emails := make([]Email, len(m.emails))
	copy(emails, m.emails)
	return emails
}

// SentTo returns the emails rendered from templateFile for recipient.
func (m *MockMailer) SentTo(recipient, templateFile string) []Email {
	var matched []Email

	for _, email := range m.SentEmails() {
		if email.Recipient == recipient && email.TemplateFile == templateFile {
			matched = append(matched, email)
		}
	}

	return matched
}
