package app

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/metinatakli/cinema-booking/api"
	"github.com/metinatakli/cinema-booking/internal/domain"
	appvalidator "github.com/metinatakli/cinema-booking/internal/validator"
)

const (
	ErrInternalServer     = "The server encountered a problem and could not process your request"
	ErrNotFound           = "The requested resource not found"
	ErrMethodNotAllowed   = "The method is not supported for this resource"
	ErrUnauthorizedAccess = "You must be authenticated to access this resource"
	ErrFailedValidation   = "One or more fields are invalid"
	ErrHoldNotFound       = "The hold does not exist or does not belong to the current session"
	ErrBookingNotFound    = "The booking does not exist or does not belong to the current session"
)

func (app *Application) logError(r *http.Request, err error) {
	logger := app.contextGetLogger(r)

	logger.Error(err.Error())
}

// The errorResponse() method is a generic helper for sending JSON-formatted error
// messages to the client with a given status code.
func (app *Application) errorResponse(w http.ResponseWriter, r *http.Request, status int, message string) {
	app.writeErrorResponse(w, r, status, api.ErrorResponse{Message: message})
}

func (app *Application) writeErrorResponse(w http.ResponseWriter, r *http.Request, status int, resp api.ErrorResponse) {
	resp.RequestId = middleware.GetReqID(r.Context())
	resp.Timestamp = time.Now()

	err := app.writeJSON(w, status, resp, nil)
	if err != nil {
		app.logError(r, err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (app *Application) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logError(r, err)

	app.errorResponse(w, r, http.StatusInternalServerError, ErrInternalServer)
}

func (app *Application) notFoundResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusNotFound, ErrNotFound)
}

func (app *Application) notFoundResponseWithErr(w http.ResponseWriter, r *http.Request, err error) {
	app.errorResponse(w, r, http.StatusNotFound, err.Error())
}

func (app *Application) methodNotAllowedResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusMethodNotAllowed, ErrMethodNotAllowed)
}

func (app *Application) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func (app *Application) unauthorizedAccessResponse(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("WWW-Authenticate", `Basic realm="reports", charset="UTF-8"`)
	app.errorResponse(w, r, http.StatusUnauthorized, ErrUnauthorizedAccess)
}

func (app *Application) editConflictResponseWithErr(w http.ResponseWriter, r *http.Request, err error) {
	app.errorResponse(w, r, http.StatusConflict, err.Error())
}

func (app *Application) failedValidationResponse(w http.ResponseWriter, r *http.Request, err error) {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		app.badRequestResponse(w, r, err)
		return
	}

	resp := api.ValidationErrorResponse{
		Message:          ErrFailedValidation,
		RequestId:        middleware.GetReqID(r.Context()),
		Timestamp:        time.Now(),
		ValidationErrors: make([]api.ValidationError, 0, len(validationErrs)),
	}

	for _, fieldErr := range validationErrs {
		resp.ValidationErrors = append(resp.ValidationErrors, api.ValidationError{
			Field: fieldErr.Field(),
			Issue: appvalidator.ValidationMessage(fieldErr),
		})
	}

	err = app.writeJSON(w, http.StatusUnprocessableEntity, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// reservationErrorResponse translates errors of the reservation workflow. Anything it
// does not recognise is an internal error.
func (app *Application) reservationErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	logger := app.contextGetLogger(r)

	var unavailable *domain.SeatUnavailableError

	switch {
	case errors.As(err, &unavailable):
		logger.Warn("seats are not available", "seats", unavailable.SeatIDs)

		app.writeErrorResponse(w, r, http.StatusConflict, api.ErrorResponse{
			Message:          unavailable.Error(),
			UnavailableSeats: fromSeatIDs(unavailable.SeatIDs),
		})
	case errors.Is(err, domain.ErrSeatUnavailable),
		errors.Is(err, domain.ErrHoldBusy),
		errors.Is(err, domain.ErrBookingCancelled),
		errors.Is(err, domain.ErrPaymentIncomplete),
		errors.Is(err, domain.ErrPaymentMismatch):
		app.editConflictResponseWithErr(w, r, err)
	case errors.Is(err, domain.ErrHoldExpired):
		app.errorResponse(w, r, http.StatusGone, domain.ErrHoldExpired.Error())
	case errors.Is(err, domain.ErrPaymentDeclined):
		app.errorResponse(w, r, http.StatusPaymentRequired, domain.ErrPaymentDeclined.Error())
	case errors.Is(err, domain.ErrGatewayUnavailable):
		logger.Error("payment gateway unavailable", "error", err)
		w.Header().Set("Retry-After", "5")
		app.errorResponse(w, r, http.StatusServiceUnavailable, domain.ErrGatewayUnavailable.Error())
	case errors.Is(err, domain.ErrInvalidSeat):
		app.badRequestResponse(w, r, err)
	case errors.Is(err, domain.ErrScreeningNotFound):
		app.notFoundResponseWithErr(w, r, domain.ErrScreeningNotFound)
	case errors.Is(err, domain.ErrHoldNotFound):
		app.notFoundResponseWithErr(w, r, errors.New(ErrHoldNotFound))
	case errors.Is(err, domain.ErrRecordNotFound):
		app.notFoundResponseWithErr(w, r, errors.New(ErrBookingNotFound))
	default:
		app.serverErrorResponse(w, r, err)
	}
}
