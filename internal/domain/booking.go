package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

type Booking struct {
	ID           uuid.UUID
	UserID       string
	ScreeningID  int
	Seats        []SeatID
	TotalPrice   decimal.Decimal
	PaymentRef   string
	ContactEmail string
	Status       BookingStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Active reports whether the booking still claims its seats.
func (b *Booking) Active() bool {
	return b.Status != BookingStatusCancelled
}

type BookingRepository interface {
	Create(ctx context.Context, booking *Booking) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status BookingStatus) error
	GetById(ctx context.Context, id uuid.UUID) (*Booking, error)
	GetByPaymentRef(ctx context.Context, paymentRef string) (*Booking, error)
	GetAllByUserId(ctx context.Context, userID string, pagination Pagination) ([]Booking, *Metadata, error)
	GetAll(ctx context.Context) ([]Booking, error)
}
