package reservation

import (
	"sync"
	"time"

	"github.com/metinatakli/cinema-booking/internal/domain"
	"github.com/metinatakli/cinema-booking/internal/repository"
	"github.com/shopspring/decimal"
)

const testScreeningID = 1

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

// testLayout has standard seats A1-A4 and VIP seats B1-B4.
func testLayout() domain.Layout {
	return repository.NewGridLayout(1, "Hall 1", 2, 4, "B")
}

func testScreening() domain.Screening {
	start := time.Date(2026, 10, 17, 14, 0, 0, 0, time.UTC)

	return domain.Screening{
		ID:        testScreeningID,
		MovieID:   1,
		Hall:      "Hall 1",
		StartTime: start,
		EndTime:   start.Add(2 * time.Hour),
		LayoutID:  1,
		BasePrice: decimal.NewFromInt(10),
	}
}

func newTestStore(clock *fakeClock) *Store {
	store := NewStore(clock.Now)
	if err := store.Load(testScreening(), testLayout()); err != nil {
		panic(err)
	}

	return store
}

func seatIDs(ids ...string) []domain.SeatID {
	seats := make([]domain.SeatID, len(ids))
	for i, id := range ids {
		seats[i] = domain.SeatID(id)
	}

	return seats
}
