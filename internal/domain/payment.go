package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

type PaymentOutcome string

const (
	PaymentSucceeded  PaymentOutcome = "succeeded"
	PaymentProcessing PaymentOutcome = "processing"
	PaymentDeclined   PaymentOutcome = "declined"
	// PaymentIncomplete means the customer has not finished paying yet.
	PaymentIncomplete PaymentOutcome = "incomplete"
)

type PaymentIntent struct {
	ID           string
	ClientSecret string
	Amount       decimal.Decimal
	Currency     string
	Outcome      PaymentOutcome
	Metadata     map[string]string
}

// PaymentProvider is the payment gateway boundary. Transport failures are reported as
// ErrGatewayUnavailable.
type PaymentProvider interface {
	CreatePaymentIntent(ctx context.Context, amount decimal.Decimal, currency string, metadata map[string]string) (*PaymentIntent, error)
	GetPaymentIntent(ctx context.Context, id string) (*PaymentIntent, error)
}
