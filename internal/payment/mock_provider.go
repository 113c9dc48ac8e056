package payment

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/metinatakli/cinema-booking/internal/domain"
	"github.com/shopspring/decimal"
)

// MockPaymentProvider is an in-memory gateway for local development and tests. Intents
// are created incomplete; SetOutcome simulates the customer paying.
type MockPaymentProvider struct {
	mu          sync.Mutex
	intents     map[string]*domain.PaymentIntent
	unavailable bool
	autoOutcome domain.PaymentOutcome
}

func NewMockPaymentProvider() *MockPaymentProvider {
	return &MockPaymentProvider{
		intents: make(map[string]*domain.PaymentIntent),
	}
}

// WithAutoOutcome makes every new intent start with the given outcome.
func (m *MockPaymentProvider) WithAutoOutcome(outcome domain.PaymentOutcome) *MockPaymentProvider {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.autoOutcome = outcome
	return m
}

func (m *MockPaymentProvider) CreatePaymentIntent(
	ctx context.Context,
	amount decimal.Decimal,
	currency string,
	metadata map[string]string) (*domain.PaymentIntent, error) {

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.unavailable {
		return nil, domain.ErrGatewayUnavailable
	}

	outcome := domain.PaymentIncomplete
	if m.autoOutcome != "" {
		outcome = m.autoOutcome
	}

	id := "pi_mock_" + uuid.NewString()
	intent := &domain.PaymentIntent{
		ID:           id,
		ClientSecret: id + "_secret",
		Amount:       amount,
		Currency:     currency,
		Outcome:      outcome,
		Metadata:     metadata,
	}
	m.intents[id] = intent

	copied := *intent
	return &copied, nil
}

func (m *MockPaymentProvider) GetPaymentIntent(ctx context.Context, id string) (*domain.PaymentIntent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.unavailable {
		return nil, domain.ErrGatewayUnavailable
	}

	intent, ok := m.intents[id]
	if !ok {
		return nil, fmt.Errorf("%w: no such payment intent %s", domain.ErrPaymentMismatch, id)
	}

	copied := *intent
	return &copied, nil
}

func (m *MockPaymentProvider) SetOutcome(id string, outcome domain.PaymentOutcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	intent, ok := m.intents[id]
	if !ok {
		return domain.ErrRecordNotFound
	}

	intent.Outcome = outcome
	return nil
}

func (m *MockPaymentProvider) SetUnavailable(unavailable bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.unavailable = unavailable
}
