package payment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82/webhook"
)

const testWebhookSecret = "whsec_test_secret"

func signedPayload(t *testing.T, payload string) (string, []byte) {
	t.Helper()

	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    testWebhookSecret,
		Timestamp: time.Now(),
	})

	return signed.Header, signed.Payload
}

func TestParseWebhook(t *testing.T) {
	tests := []struct {
		name          string
		payload       string
		wantErr       error
		wantSucceeded bool
	}{
		{
			name:          "should accept a succeeded payment intent",
			payload:       `{"id":"evt_1","object":"event","type":"payment_intent.succeeded","data":{"object":{"id":"pi_1","object":"payment_intent"}}}`,
			wantSucceeded: true,
		},
		{
			name:          "should accept a failed payment intent",
			payload:       `{"id":"evt_2","object":"event","type":"payment_intent.payment_failed","data":{"object":{"id":"pi_1","object":"payment_intent"}}}`,
			wantSucceeded: false,
		},
		{
			name:    "should reject other event types",
			payload: `{"id":"evt_3","object":"event","type":"customer.created","data":{"object":{"id":"cus_1","object":"customer"}}}`,
			wantErr: ErrUnhandledEvent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header, payload := signedPayload(t, tt.payload)

			event, err := ParseWebhook(payload, header, testWebhookSecret)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "pi_1", event.PaymentIntentID)
			assert.Equal(t, tt.wantSucceeded, event.Succeeded)
		})
	}
}

func TestParseWebhook_InvalidSignature(t *testing.T) {
	header, payload := signedPayload(t, `{"id":"evt_1","object":"event","type":"payment_intent.succeeded","data":{"object":{"id":"pi_1"}}}`)

	_, err := ParseWebhook(payload, header, "whsec_other")
	assert.Error(t, err)

	_, err = ParseWebhook(payload, "", testWebhookSecret)
	assert.Error(t, err)
}
