package mocks

import (
	"context"
	"time"

	"github.com/metinatakli/cinema-booking/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockSeatLocker struct {
	mock.Mock
}

func (m *MockSeatLocker) Lock(
	ctx context.Context,
	screeningID int,
	seatIDs []domain.SeatID,
	owner string,
	ttl time.Duration) error {

	args := m.Called(ctx, screeningID, seatIDs, owner, ttl)
	return args.Error(0)
}

func (m *MockSeatLocker) Unlock(ctx context.Context, screeningID int, seatIDs []domain.SeatID, owner string) error {
	args := m.Called(ctx, screeningID, seatIDs, owner)
	return args.Error(0)
}
