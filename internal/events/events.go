// Package events publishes booking lifecycle events to RabbitMQ.
package events

import (
	"context"
	"time"

	"github.com/metinatakli/cinema-booking/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	BookingConfirmedQueue = "booking.confirmed"
	BookingPendingQueue   = "booking.pending"
	BookingCancelledQueue = "booking.cancelled"
)

type BookingEvent struct {
	BookingID    string          `json:"booking_id"`
	UserID       string          `json:"user_id"`
	ScreeningID  int             `json:"screening_id"`
	Seats        []string        `json:"seats"`
	TotalPrice   decimal.Decimal `json:"total_price"`
	PaymentRef   string          `json:"payment_ref"`
	ContactEmail string          `json:"contact_email,omitempty"`
	Status       string          `json:"status"`
	OccurredAt   time.Time       `json:"occurred_at"`
}

func NewBookingEvent(booking *domain.Booking, occurredAt time.Time) BookingEvent {
	seats := make([]string, len(booking.Seats))
	for i, seat := range booking.Seats {
		seats[i] = string(seat)
	}

	return BookingEvent{
		BookingID:    booking.ID.String(),
		UserID:       booking.UserID,
		ScreeningID:  booking.ScreeningID,
		Seats:        seats,
		TotalPrice:   booking.TotalPrice,
		PaymentRef:   booking.PaymentRef,
		ContactEmail: booking.ContactEmail,
		Status:       string(booking.Status),
		OccurredAt:   occurredAt.UTC(),
	}
}

// Queue is the queue an event is routed to, one per booking status.
func (e BookingEvent) Queue() string {
	switch domain.BookingStatus(e.Status) {
	case domain.BookingStatusConfirmed:
		return BookingConfirmedQueue
	case domain.BookingStatusCancelled:
		return BookingCancelledQueue
	default:
		return BookingPendingQueue
	}
}

type Publisher interface {
	Publish(ctx context.Context, event BookingEvent) error
}

// NopPublisher drops every event. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, event BookingEvent) error {
	return nil
}
