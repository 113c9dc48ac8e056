package app

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/metinatakli/cinema-booking/api"
	"github.com/metinatakli/cinema-booking/internal/domain"
	"github.com/metinatakli/cinema-booking/internal/reservation"
)

// PlaceHold claims the requested seats for the current session, all of them or none.
func (app *Application) PlaceHold(w http.ResponseWriter, r *http.Request, screeningId int) {
	logger := app.contextGetLogger(r)

	var input api.PlaceHoldRequest

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	in := reservation.PlaceHoldInput{
		ScreeningID: screeningId,
		SeatIDs:     toSeatIDs(input.Seats),
		HolderID:    app.contextGetHolderId(r),
	}

	if input.TtlSeconds != nil {
		in.TTL = time.Duration(*input.TtlSeconds) * time.Second
	}

	if input.Email != nil {
		in.ContactEmail = *input.Email
	}

	hold, err := app.manager.PlaceHold(r.Context(), in)
	if err != nil {
		app.reservationErrorResponse(w, r, err)
		return
	}

	logger.Info("seats held", "hold_id", hold.ID, "screening_id", screeningId, "seats", hold.Seats)

	err = app.writeJSON(w, http.StatusCreated, api.HoldResponse{Hold: app.toApiHold(hold)}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) GetHold(w http.ResponseWriter, r *http.Request, holdId uuid.UUID) {
	hold, err := app.ownHold(r, holdId)
	if err != nil {
		app.reservationErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, api.HoldResponse{Hold: app.toApiHold(hold)}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// ReleaseHold gives the seats of a hold back. Unknown, expired, already released and
// foreign holds all answer 204 without touching any seat.
func (app *Application) ReleaseHold(w http.ResponseWriter, r *http.Request, holdId uuid.UUID) {
	_, err := app.ownHold(r, holdId)
	if err != nil {
		if errors.Is(err, domain.ErrHoldNotFound) || errors.Is(err, domain.ErrHoldExpired) {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		app.reservationErrorResponse(w, r, err)
		return
	}

	err = app.manager.ReleaseHold(r.Context(), holdId)
	if err != nil {
		app.reservationErrorResponse(w, r, err)
		return
	}

	app.contextGetLogger(r).Info("hold released", "hold_id", holdId)

	w.WriteHeader(http.StatusNoContent)
}

// CreatePaymentIntent binds a gateway payment intent for the hold amount to the hold.
func (app *Application) CreatePaymentIntent(w http.ResponseWriter, r *http.Request, holdId uuid.UUID) {
	_, err := app.ownHold(r, holdId)
	if err != nil {
		app.reservationErrorResponse(w, r, err)
		return
	}

	intent, err := app.manager.AttachPayment(r.Context(), holdId)
	if err != nil {
		app.reservationErrorResponse(w, r, err)
		return
	}

	resp := api.PaymentIntentResponse{
		PaymentIntentId: intent.ID,
		ClientSecret:    intent.ClientSecret,
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// ConfirmHold turns a paid hold into a booking.
func (app *Application) ConfirmHold(w http.ResponseWriter, r *http.Request, holdId uuid.UUID) {
	logger := app.contextGetLogger(r)

	var input api.ConfirmHoldRequest

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	_, err = app.ownHold(r, holdId)
	if err != nil {
		app.reservationErrorResponse(w, r, err)
		return
	}

	booking, err := app.manager.ConfirmHold(r.Context(), holdId, input.PaymentRef)
	if err != nil {
		logger.Warn("hold confirmation failed", "hold_id", holdId, "error", err)
		app.reservationErrorResponse(w, r, err)
		return
	}

	logger.Info("booking created", "booking_id", booking.ID, "hold_id", holdId, "status", booking.Status)

	app.notifyBooking(booking)

	err = app.writeJSON(w, http.StatusCreated, api.BookingResponse{Booking: app.toApiBooking(booking)}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// ownHold returns the hold when it belongs to the current session. A hold of another
// session is reported as not found.
func (app *Application) ownHold(r *http.Request, holdId uuid.UUID) (*domain.Hold, error) {
	hold, err := app.manager.Hold(r.Context(), holdId)
	if err != nil {
		return nil, err
	}

	if hold.HolderID != app.contextGetHolderId(r) {
		return nil, domain.ErrHoldNotFound
	}

	return hold, nil
}

func (app *Application) toApiHold(hold *domain.Hold) api.Hold {
	resp := api.Hold{
		Id:          hold.ID,
		ScreeningId: hold.ScreeningID,
		Seats:       fromSeatIDs(hold.Seats),
		Amount:      hold.Amount,
		Currency:    app.currency(),
		ExpiresAt:   hold.ExpiresAt,
	}

	if hold.PaymentIntentID != "" {
		resp.PaymentIntentId = &hold.PaymentIntentID
	}

	return resp
}
