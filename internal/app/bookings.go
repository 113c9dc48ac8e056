package app

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/metinatakli/cinema-booking/api"
	"github.com/metinatakli/cinema-booking/internal/domain"
)

func (app *Application) GetBookings(w http.ResponseWriter, r *http.Request, params api.GetBookingsParams) {
	err := app.validator.Struct(params)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	pagination := domain.NewPagination(params.Page, params.PageSize)

	bookings, metadata, err := app.bookings.GetAllByUserId(r.Context(), app.contextGetHolderId(r), pagination)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	resp := api.BookingsResponse{
		Bookings: make([]api.Booking, len(bookings)),
		Metadata: api.Metadata{
			CurrentPage:  metadata.CurrentPage,
			FirstPage:    metadata.FirstPage,
			LastPage:     metadata.LastPage,
			PageSize:     metadata.PageSize,
			TotalRecords: metadata.TotalRecords,
		},
	}

	for i := range bookings {
		resp.Bookings[i] = app.toApiBooking(&bookings[i])
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) GetBooking(w http.ResponseWriter, r *http.Request, bookingId uuid.UUID) {
	booking, err := app.bookings.GetById(r.Context(), bookingId)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			app.reservationErrorResponse(w, r, err)
			return
		}

		app.serverErrorResponse(w, r, err)
		return
	}

	if booking.UserID != app.contextGetHolderId(r) {
		app.reservationErrorResponse(w, r, domain.ErrRecordNotFound)
		return
	}

	err = app.writeJSON(w, http.StatusOK, api.BookingResponse{Booking: app.toApiBooking(booking)}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// CancelBooking cancels a booking of the current session and makes its seats available.
func (app *Application) CancelBooking(w http.ResponseWriter, r *http.Request, bookingId uuid.UUID) {
	booking, err := app.manager.CancelBooking(r.Context(), bookingId, app.contextGetHolderId(r))
	if err != nil {
		app.reservationErrorResponse(w, r, err)
		return
	}

	app.contextGetLogger(r).Info("booking cancelled", "booking_id", booking.ID)

	app.notifyBooking(booking)

	err = app.writeJSON(w, http.StatusOK, api.BookingResponse{Booking: app.toApiBooking(booking)}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) toApiBooking(booking *domain.Booking) api.Booking {
	resp := api.Booking{
		Id:          booking.ID,
		ScreeningId: booking.ScreeningID,
		Seats:       fromSeatIDs(booking.Seats),
		TotalPrice:  booking.TotalPrice,
		Currency:    app.currency(),
		Status:      api.BookingStatus(booking.Status),
		CreatedAt:   booking.CreatedAt,
		UpdatedAt:   booking.UpdatedAt,
	}

	if booking.PaymentRef != "" {
		ref := booking.PaymentRef
		resp.PaymentRef = &ref
	}

	return resp
}
