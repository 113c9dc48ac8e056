package reservation

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

// Store is the seat inventory: per-screening seat state indexed by seat id. Reads are
// served under the same per-screening lock as writes, so they always observe the latest
// committed mutation. Mutations are unexported and driven by the Manager.
type Store struct {
	mu         sync.RWMutex
	screenings map[int]*screeningInventory
	now        func() time.Time
}

type screeningInventory struct {
	mu        sync.Mutex
	screening domain.Screening
	seats     map[domain.SeatID]*seatSlot
	order     []domain.SeatID
	holds     map[uuid.UUID]*holdEntry
}

type seatSlot struct {
	seat  domain.Seat
	state domain.SeatState
}

type holdEntry struct {
	hold         domain.Hold
	clientSecret string
	// inFlight is set while the payment gateway is being asked for the outcome.
	// In-flight holds are never expired or released from under the confirmation.
	inFlight bool
}

func NewStore(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}

	return &Store{
		screenings: make(map[int]*screeningInventory),
		now:        now,
	}
}

// Load registers a screening with every seat of its layout available. Loading an already
// known screening is a no-op.
func (s *Store) Load(screening domain.Screening, layout domain.Layout) error {
	if screening.LayoutID != layout.ID {
		return fmt.Errorf("screening %d uses layout %d, got layout %d", screening.ID, screening.LayoutID, layout.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.screenings[screening.ID]; ok {
		return nil
	}

	seats := slices.Clone(layout.Seats)
	sort.SliceStable(seats, func(i, j int) bool {
		if seats[i].Row != seats[j].Row {
			return seats[i].Row < seats[j].Row
		}
		return seats[i].Number < seats[j].Number
	})

	inv := &screeningInventory{
		screening: screening,
		seats:     make(map[domain.SeatID]*seatSlot, len(seats)),
		order:     make([]domain.SeatID, 0, len(seats)),
		holds:     make(map[uuid.UUID]*holdEntry),
	}

	for _, seat := range seats {
		if _, dup := inv.seats[seat.ID]; dup {
			return fmt.Errorf("layout %d has duplicate seat %s", layout.ID, seat.ID)
		}

		inv.seats[seat.ID] = &seatSlot{seat: seat, state: domain.SeatState{Status: domain.SeatAvailable}}
		inv.order = append(inv.order, seat.ID)
	}

	s.screenings[screening.ID] = inv

	return nil
}

// LoadCatalog loads every screening of the catalog with the layout of its hall.
func (s *Store) LoadCatalog(ctx context.Context, catalog domain.CatalogRepository) error {
	layouts, err := catalog.GetLayouts(ctx)
	if err != nil {
		return fmt.Errorf("failed to load layouts: %w", err)
	}

	screenings, err := catalog.GetScreenings(ctx)
	if err != nil {
		return fmt.Errorf("failed to load screenings: %w", err)
	}

	byID := make(map[int]domain.Layout, len(layouts))
	for _, layout := range layouts {
		byID[layout.ID] = layout
	}

	for _, screening := range screenings {
		layout, ok := byID[screening.LayoutID]
		if !ok {
			return fmt.Errorf("screening %d refers to unknown layout %d", screening.ID, screening.LayoutID)
		}

		if err := s.Load(screening, layout); err != nil {
			return err
		}
	}

	return nil
}

func (s *Store) Screening(id int) (domain.Screening, error) {
	inv, err := s.inventory(id)
	if err != nil {
		return domain.Screening{}, err
	}

	return inv.screening, nil
}

// Screenings returns every loaded screening ordered by start time.
func (s *Store) Screenings() []domain.Screening {
	s.mu.RLock()
	screenings := make([]domain.Screening, 0, len(s.screenings))
	for _, inv := range s.screenings {
		screenings = append(screenings, inv.screening)
	}
	s.mu.RUnlock()

	sort.Slice(screenings, func(i, j int) bool {
		if !screenings[i].StartTime.Equal(screenings[j].StartTime) {
			return screenings[i].StartTime.Before(screenings[j].StartTime)
		}
		return screenings[i].ID < screenings[j].ID
	})

	return screenings
}

func (s *Store) SeatState(screeningID int, seatID domain.SeatID) (domain.SeatState, error) {
	inv, err := s.inventory(screeningID)
	if err != nil {
		return domain.SeatState{}, err
	}

	inv.mu.Lock()
	defer inv.mu.Unlock()

	slot, ok := inv.seats[seatID]
	if !ok {
		return domain.SeatState{}, fmt.Errorf("%w: %s", domain.ErrInvalidSeat, seatID)
	}

	return inv.visibleState(slot, s.now()), nil
}

// ListAvailable returns the seats that can be held right now, in row/number order.
func (s *Store) ListAvailable(screeningID int) ([]domain.Seat, error) {
	inv, err := s.inventory(screeningID)
	if err != nil {
		return nil, err
	}

	inv.mu.Lock()
	defer inv.mu.Unlock()

	now := s.now()
	seats := make([]domain.Seat, 0, len(inv.order))

	for _, id := range inv.order {
		slot := inv.seats[id]
		if inv.visibleState(slot, now).Status == domain.SeatAvailable {
			seats = append(seats, slot.seat)
		}
	}

	return seats, nil
}

// SeatMap returns every seat of the screening with its state, grouped by row.
func (s *Store) SeatMap(screeningID int) (*domain.SeatMap, error) {
	inv, err := s.inventory(screeningID)
	if err != nil {
		return nil, err
	}

	inv.mu.Lock()
	defer inv.mu.Unlock()

	now := s.now()
	seatMap := &domain.SeatMap{ScreeningID: screeningID}

	for _, id := range inv.order {
		slot := inv.seats[id]

		if len(seatMap.Rows) == 0 || seatMap.Rows[len(seatMap.Rows)-1].Row != slot.seat.Row {
			seatMap.Rows = append(seatMap.Rows, domain.SeatRow{Row: slot.seat.Row})
		}

		row := &seatMap.Rows[len(seatMap.Rows)-1]
		row.Seats = append(row.Seats, domain.SeatWithState{
			Seat:  slot.seat,
			State: inv.visibleState(slot, now),
		})
	}

	return seatMap, nil
}

// Seats resolves seat ids against the screening layout.
func (s *Store) Seats(screeningID int, seatIDs []domain.SeatID) ([]domain.Seat, error) {
	inv, err := s.inventory(screeningID)
	if err != nil {
		return nil, err
	}

	inv.mu.Lock()
	defer inv.mu.Unlock()

	return inv.lookup(seatIDs)
}

func (s *Store) inventory(screeningID int) (*screeningInventory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inv, ok := s.screenings[screeningID]
	if !ok {
		return nil, domain.ErrScreeningNotFound
	}

	return inv, nil
}

func (s *Store) inventories() []*screeningInventory {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]*screeningInventory, 0, len(s.screenings))
	for _, inv := range s.screenings {
		all = append(all, inv)
	}

	return all
}

// The methods below require inv.mu to be held.

// visibleState reports seats of an expired hold as available even before the hold is
// released.
func (inv *screeningInventory) visibleState(slot *seatSlot, now time.Time) domain.SeatState {
	if slot.state.Status != domain.SeatHeld {
		return slot.state
	}

	entry, ok := inv.holds[slot.state.HoldID]
	if !ok || (!entry.inFlight && entry.hold.Expired(now)) {
		return domain.SeatState{Status: domain.SeatAvailable}
	}

	return slot.state
}

func (inv *screeningInventory) lookup(seatIDs []domain.SeatID) ([]domain.Seat, error) {
	seats := make([]domain.Seat, 0, len(seatIDs))
	seen := make(map[domain.SeatID]bool, len(seatIDs))

	for _, id := range seatIDs {
		if seen[id] {
			return nil, fmt.Errorf("%w: %s requested twice", domain.ErrInvalidSeat, id)
		}
		seen[id] = true

		slot, ok := inv.seats[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrInvalidSeat, id)
		}

		seats = append(seats, slot.seat)
	}

	return seats, nil
}

func (inv *screeningInventory) hold(entry *holdEntry) {
	for _, id := range entry.hold.Seats {
		inv.seats[id].state = domain.SeatState{
			Status:    domain.SeatHeld,
			HoldID:    entry.hold.ID,
			HolderID:  entry.hold.HolderID,
			ExpiresAt: entry.hold.ExpiresAt,
		}
	}

	inv.holds[entry.hold.ID] = entry
}

// release returns the seats still owned by the hold to available and forgets the hold.
func (inv *screeningInventory) release(holdID uuid.UUID) {
	entry, ok := inv.holds[holdID]
	if !ok {
		return
	}

	for _, id := range entry.hold.Seats {
		slot := inv.seats[id]
		if slot.state.Status == domain.SeatHeld && slot.state.HoldID == holdID {
			slot.state = domain.SeatState{Status: domain.SeatAvailable}
		}
	}

	delete(inv.holds, holdID)
}

// book converts the seats of a hold into a booking and forgets the hold.
func (inv *screeningInventory) book(holdID uuid.UUID, bookingID uuid.UUID) {
	entry, ok := inv.holds[holdID]
	if !ok {
		return
	}

	for _, id := range entry.hold.Seats {
		inv.seats[id].state = domain.SeatState{Status: domain.SeatBooked, BookingID: bookingID}
	}

	delete(inv.holds, holdID)
}

// restore marks the seats of a persisted booking as booked. Seats unknown to the layout
// are reported so that a changed layout does not silently drop a booking.
func (inv *screeningInventory) restore(booking domain.Booking) error {
	for _, id := range booking.Seats {
		slot, ok := inv.seats[id]
		if !ok {
			return fmt.Errorf("%w: booking %s claims %s", domain.ErrInvalidSeat, booking.ID, id)
		}

		if slot.state.Status == domain.SeatBooked && slot.state.BookingID != booking.ID {
			return &domain.SeatUnavailableError{ScreeningID: booking.ScreeningID, SeatIDs: []domain.SeatID{id}}
		}

		slot.state = domain.SeatState{Status: domain.SeatBooked, BookingID: booking.ID}
	}

	return nil
}

// unbook frees the seats booked by the booking.
func (inv *screeningInventory) unbook(booking domain.Booking) {
	for _, id := range booking.Seats {
		slot, ok := inv.seats[id]
		if ok && slot.state.Status == domain.SeatBooked && slot.state.BookingID == booking.ID {
			slot.state = domain.SeatState{Status: domain.SeatAvailable}
		}
	}
}

// expiredHolds returns the ids of expired holds that are not being confirmed.
func (inv *screeningInventory) expiredHolds(now time.Time) []uuid.UUID {
	var expired []uuid.UUID

	for id, entry := range inv.holds {
		if !entry.inFlight && entry.hold.Expired(now) {
			expired = append(expired, id)
		}
	}

	return expired
}
