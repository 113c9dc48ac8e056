package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrRecordNotFound     = errors.New("record not found")
	ErrScreeningNotFound  = errors.New("screening not found")
	ErrInvalidSeat        = errors.New("seat does not exist in the screening layout")
	ErrSeatUnavailable    = errors.New("seat(s) are already held or booked")
	ErrHoldNotFound       = errors.New("hold not found")
	ErrHoldExpired        = errors.New("your hold has expired, please select your seats again")
	ErrHoldBusy           = errors.New("hold payment confirmation is already in progress")
	ErrPaymentDeclined    = errors.New("payment was declined")
	ErrPaymentIncomplete  = errors.New("payment has not been completed yet")
	ErrPaymentMismatch    = errors.New("payment does not match the hold")
	ErrGatewayUnavailable = errors.New("payment gateway is unavailable, please retry")
	ErrBookingCancelled   = errors.New("booking is already cancelled")
	ErrPaymentSettled     = errors.New("payment is already settled")
)

// SeatUnavailableError names the seats that could not be claimed.
type SeatUnavailableError struct {
	ScreeningID int
	SeatIDs     []SeatID
}

func (e *SeatUnavailableError) Error() string {
	ids := make([]string, len(e.SeatIDs))
	for i, id := range e.SeatIDs {
		ids[i] = string(id)
	}

	return fmt.Sprintf("seat(s) %s are already held or booked", strings.Join(ids, ", "))
}

func (e *SeatUnavailableError) Unwrap() error {
	return ErrSeatUnavailable
}
