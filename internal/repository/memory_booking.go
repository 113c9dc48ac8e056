package repository

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/metinatakli/cinema-booking/internal/domain"
)

type seatClaim struct {
	screeningID int
	seatID      domain.SeatID
}

// MemoryBookingRepository keeps bookings in process memory. Like the postgres repository
// it refuses a booking that claims a seat of another non-cancelled booking.
type MemoryBookingRepository struct {
	mu       sync.RWMutex
	bookings map[uuid.UUID]*domain.Booking
	claims   map[seatClaim]uuid.UUID
	now      func() time.Time
}

func NewMemoryBookingRepository() *MemoryBookingRepository {
	return &MemoryBookingRepository{
		bookings: make(map[uuid.UUID]*domain.Booking),
		claims:   make(map[seatClaim]uuid.UUID),
		now:      time.Now,
	}
}

func (m *MemoryBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.bookings[booking.ID]; ok {
		return fmt.Errorf("booking %s already exists", booking.ID)
	}

	if booking.PaymentRef != "" {
		for _, b := range m.bookings {
			if b.PaymentRef == booking.PaymentRef {
				return fmt.Errorf("payment %s is already used by booking %s", booking.PaymentRef, b.ID)
			}
		}
	}

	if booking.Active() {
		var taken []domain.SeatID
		for _, seatID := range booking.Seats {
			if _, ok := m.claims[seatClaim{booking.ScreeningID, seatID}]; ok {
				taken = append(taken, seatID)
			}
		}

		if len(taken) > 0 {
			return &domain.SeatUnavailableError{ScreeningID: booking.ScreeningID, SeatIDs: taken}
		}

		for _, seatID := range booking.Seats {
			m.claims[seatClaim{booking.ScreeningID, seatID}] = booking.ID
		}
	}

	m.bookings[booking.ID] = cloneBooking(booking)

	return nil
}

func (m *MemoryBookingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.BookingStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	booking, ok := m.bookings[id]
	if !ok {
		return domain.ErrRecordNotFound
	}

	if !booking.Active() && status != domain.BookingStatusCancelled {
		return fmt.Errorf("booking %s is cancelled and cannot become %s", id, status)
	}

	if status == domain.BookingStatusCancelled {
		for _, seatID := range booking.Seats {
			claim := seatClaim{booking.ScreeningID, seatID}
			if m.claims[claim] == booking.ID {
				delete(m.claims, claim)
			}
		}
	}

	booking.Status = status
	booking.UpdatedAt = m.now()

	return nil
}

func (m *MemoryBookingRepository) GetById(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	booking, ok := m.bookings[id]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}

	return cloneBooking(booking), nil
}

func (m *MemoryBookingRepository) GetByPaymentRef(ctx context.Context, paymentRef string) (*domain.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, booking := range m.bookings {
		if booking.PaymentRef == paymentRef {
			return cloneBooking(booking), nil
		}
	}

	return nil, domain.ErrRecordNotFound
}

// GetAllByUserId returns the user's bookings, newest first.
func (m *MemoryBookingRepository) GetAllByUserId(
	ctx context.Context,
	userID string,
	pagination domain.Pagination) ([]domain.Booking, *domain.Metadata, error) {

	m.mu.RLock()
	var bookings []domain.Booking
	for _, booking := range m.bookings {
		if booking.UserID == userID {
			bookings = append(bookings, *cloneBooking(booking))
		}
	}
	m.mu.RUnlock()

	sortNewestFirst(bookings)

	total := len(bookings)
	start := min(max(pagination.Offset(), 0), total)
	end := total
	if pagination.Limit() > 0 {
		end = min(start+pagination.Limit(), total)
	}

	return bookings[start:end], domain.NewMetadata(total, pagination.Page, pagination.PageSize), nil
}

func (m *MemoryBookingRepository) GetAll(ctx context.Context) ([]domain.Booking, error) {
	m.mu.RLock()
	bookings := make([]domain.Booking, 0, len(m.bookings))
	for _, booking := range m.bookings {
		bookings = append(bookings, *cloneBooking(booking))
	}
	m.mu.RUnlock()

	sortNewestFirst(bookings)

	return bookings, nil
}

func sortNewestFirst(bookings []domain.Booking) {
	sort.Slice(bookings, func(i, j int) bool {
		if !bookings[i].CreatedAt.Equal(bookings[j].CreatedAt) {
			return bookings[i].CreatedAt.After(bookings[j].CreatedAt)
		}
		return bookings[i].ID.String() < bookings[j].ID.String()
	})
}

func cloneBooking(booking *domain.Booking) *domain.Booking {
	copied := *booking
	copied.Seats = slices.Clone(booking.Seats)
	return &copied
}
