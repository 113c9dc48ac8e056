package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Hold is a temporary claim on a set of seats pending payment.
type Hold struct {
	ID              uuid.UUID
	ScreeningID     int
	HolderID        string
	ContactEmail    string
	Seats           []SeatID
	Amount          decimal.Decimal
	PaymentIntentID string
	ExpiresAt       time.Time
	CreatedAt       time.Time
}

func (h *Hold) Expired(now time.Time) bool {
	return !now.Before(h.ExpiresAt)
}
