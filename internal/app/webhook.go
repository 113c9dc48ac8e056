package app

import (
	"errors"
	"io"
	"net/http"

	"github.com/metinatakli/cinema-booking/internal/domain"
	"github.com/metinatakli/cinema-booking/internal/payment"
)

const maxWebhookBytes = 65536

// StripeWebhookHandler settles payments reported asynchronously by Stripe. Events that
// refer to no known hold or booking are acknowledged so that Stripe stops retrying them.
func (app *Application) StripeWebhookHandler(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	event, err := payment.ParseWebhook(payload, r.Header.Get("Stripe-Signature"), app.config.Stripe.WebhookSecret)
	if err != nil {
		if errors.Is(err, payment.ErrUnhandledEvent) {
			logger.Debug("ignoring webhook event", "error", err)
			w.WriteHeader(http.StatusOK)
			return
		}

		logger.Warn("rejected webhook", "error", err)
		app.badRequestResponse(w, r, err)
		return
	}

	logger = logger.With("event_id", event.ID, "event_type", event.Type, "payment_intent_id", event.PaymentIntentID)

	booking, err := app.manager.SettlePayment(r.Context(), event.PaymentIntentID, event.Succeeded)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrPaymentSettled):
			// Redelivered event, the booking was notified when it was settled.
			logger.Debug("webhook payment already settled", "booking_id", booking.ID, "status", booking.Status)
			w.WriteHeader(http.StatusOK)
		case errors.Is(err, domain.ErrRecordNotFound),
			errors.Is(err, domain.ErrHoldNotFound),
			errors.Is(err, domain.ErrHoldExpired),
			errors.Is(err, domain.ErrSeatUnavailable),
			errors.Is(err, domain.ErrPaymentDeclined):
			logger.Warn("webhook payment could not be applied", "error", err)
			w.WriteHeader(http.StatusOK)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	if booking == nil {
		logger.Info("webhook payment left to the confirmation in progress")
		w.WriteHeader(http.StatusOK)
		return
	}

	logger.Info("webhook payment settled", "booking_id", booking.ID, "status", booking.Status)

	app.notifyBooking(booking)

	w.WriteHeader(http.StatusOK)
}
