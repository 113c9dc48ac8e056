package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/metinatakli/cinema-booking/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"
)

// Stripe amounts are in the currency's smallest unit. Currencies not listed here have
// two decimal places.
var currencyExponents = map[string]int32{
	"bif": 0, "clp": 0, "djf": 0, "gnf": 0, "jpy": 0, "kmf": 0, "krw": 0, "mga": 0,
	"pyg": 0, "rwf": 0, "ugx": 0, "vnd": 0, "vuv": 0, "xaf": 0, "xof": 0, "xpf": 0,
	"bhd": 3, "jod": 3, "kwd": 3, "omr": 3, "tnd": 3,
}

type StripePaymentProvider struct {
	client *paymentintent.Client
}

func NewStripePaymentProvider(secretKey string) *StripePaymentProvider {
	return NewStripePaymentProviderWithBackend(secretKey, stripe.GetBackend(stripe.APIBackend))
}

// NewStripePaymentProviderWithBackend is used to point the provider at a stripe-mock
// server or a test double.
func NewStripePaymentProviderWithBackend(secretKey string, backend stripe.Backend) *StripePaymentProvider {
	return &StripePaymentProvider{
		client: &paymentintent.Client{B: backend, Key: secretKey},
	}
}

func (s *StripePaymentProvider) CreatePaymentIntent(
	ctx context.Context,
	amount decimal.Decimal,
	currency string,
	metadata map[string]string) (*domain.PaymentIntent, error) {

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(toMinorUnits(amount, currency)),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx

	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	pi, err := s.client.New(params)
	if err != nil {
		return nil, mapStripeError(err)
	}

	return toPaymentIntent(pi), nil
}

func (s *StripePaymentProvider) GetPaymentIntent(ctx context.Context, id string) (*domain.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := s.client.Get(id, params)
	if err != nil {
		return nil, mapStripeError(err)
	}

	return toPaymentIntent(pi), nil
}

func toPaymentIntent(pi *stripe.PaymentIntent) *domain.PaymentIntent {
	return &domain.PaymentIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       fromMinorUnits(pi.Amount, string(pi.Currency)),
		Currency:     string(pi.Currency),
		Outcome:      outcomeOf(pi),
		Metadata:     pi.Metadata,
	}
}

func outcomeOf(pi *stripe.PaymentIntent) domain.PaymentOutcome {
	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		return domain.PaymentSucceeded
	case stripe.PaymentIntentStatusProcessing, stripe.PaymentIntentStatusRequiresCapture:
		return domain.PaymentProcessing
	case stripe.PaymentIntentStatusCanceled:
		return domain.PaymentDeclined
	case stripe.PaymentIntentStatusRequiresPaymentMethod:
		// A failed attempt sends the intent back to requires_payment_method.
		if pi.LastPaymentError != nil {
			return domain.PaymentDeclined
		}
	}

	return domain.PaymentIncomplete
}

func mapStripeError(err error) error {
	var stripeErr *stripe.Error
	if !errors.As(err, &stripeErr) {
		return fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}

	switch {
	case stripeErr.Type == stripe.ErrorTypeCard:
		return fmt.Errorf("%w: %s", domain.ErrPaymentDeclined, stripeErr.Msg)
	case stripeErr.Code == stripe.ErrorCodeResourceMissing:
		return fmt.Errorf("%w: %s", domain.ErrPaymentMismatch, stripeErr.Msg)
	case stripeErr.Type == stripe.ErrorTypeAPI,
		stripeErr.HTTPStatusCode == http.StatusTooManyRequests,
		stripeErr.HTTPStatusCode >= http.StatusInternalServerError:
		return fmt.Errorf("%w: %s", domain.ErrGatewayUnavailable, stripeErr.Msg)
	}

	return fmt.Errorf("stripe request failed: %w", err)
}

func currencyExponent(currency string) int32 {
	exp, ok := currencyExponents[strings.ToLower(currency)]
	if !ok {
		return 2
	}
	return exp
}

func toMinorUnits(amount decimal.Decimal, currency string) int64 {
	return amount.Shift(currencyExponent(currency)).Round(0).IntPart()
}

func fromMinorUnits(amount int64, currency string) decimal.Decimal {
	return decimal.New(amount, -currencyExponent(currency))
}
