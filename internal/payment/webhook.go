package payment

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

var ErrUnhandledEvent = errors.New("unhandled webhook event")

// PaymentEvent is a verified payment result pushed by the gateway.
type PaymentEvent struct {
	ID              string
	Type            string
	PaymentIntentID string
	Succeeded       bool
}

// ParseWebhook verifies the Stripe-Signature header and extracts the payment intent the
// event is about. Events other than payment intent results fail with ErrUnhandledEvent.
func ParseWebhook(payload []byte, signature, secret string) (*PaymentEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("invalid webhook signature: %w", err)
	}

	var succeeded bool

	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded:
		succeeded = true
	case stripe.EventTypePaymentIntentPaymentFailed, stripe.EventTypePaymentIntentCanceled:
		succeeded = false
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnhandledEvent, event.Type)
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, fmt.Errorf("failed to decode payment intent: %w", err)
	}

	return &PaymentEvent{
		ID:              event.ID,
		Type:            string(event.Type),
		PaymentIntentID: pi.ID,
		Succeeded:       succeeded,
	}, nil
}
