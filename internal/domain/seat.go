package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type SeatType string

const (
	SeatTypeStandard SeatType = "standard"
	SeatTypeVIP      SeatType = "vip"
)

func (t SeatType) Valid() bool {
	return t == SeatTypeStandard || t == SeatTypeVIP
}

// SeatID is the seat label, row letter followed by the seat number (e.g. "A1").
type SeatID string

type Seat struct {
	ID     SeatID
	Row    string
	Number int
	Type   SeatType
}

func NewSeat(row string, number int, seatType SeatType) Seat {
	return Seat{
		ID:     SeatID(fmt.Sprintf("%s%d", row, number)),
		Row:    row,
		Number: number,
		Type:   seatType,
	}
}

// Layout is the seat plan of a hall, shared by every screening in that hall.
type Layout struct {
	ID    int
	Name  string
	Seats []Seat
}

type SeatStatus string

const (
	SeatAvailable SeatStatus = "available"
	SeatHeld      SeatStatus = "held"
	SeatBooked    SeatStatus = "booked"
)

// SeatState is the state of one seat for one screening. HoldID, HolderID and ExpiresAt
// are set only when the seat is held, BookingID only when it is booked.
type SeatState struct {
	Status    SeatStatus
	HoldID    uuid.UUID
	HolderID  string
	ExpiresAt time.Time
	BookingID uuid.UUID
}

type SeatWithState struct {
	Seat
	State SeatState
}

type SeatRow struct {
	Row   string
	Seats []SeatWithState
}

type SeatMap struct {
	ScreeningID int
	Rows        []SeatRow
}

// SeatLocker guards seats across service instances. Locks are owned by a hold and expire
// on their own after ttl.
type SeatLocker interface {
	Lock(ctx context.Context, screeningID int, seatIDs []SeatID, owner string, ttl time.Duration) error
	Unlock(ctx context.Context, screeningID int, seatIDs []SeatID, owner string) error
}
