// Package pricing computes ticket prices from a seat type and a screening.
package pricing

import (
	"time"

	"github.com/metinatakli/cinema-booking/internal/domain"
	"github.com/shopspring/decimal"
)

// RateTable holds the inputs of the price formula:
//
//	(screening base price + seat type surcharge) * multiplier
//
// where multiplier is PrimeTimeMultiplier for screenings starting within
// [PrimeTimeStart, PrimeTimeEnd) hours of the day (screening local time) and 1 otherwise.
type RateTable struct {
	Surcharges          map[domain.SeatType]decimal.Decimal
	PrimeTimeMultiplier decimal.Decimal
	PrimeTimeStart      int
	PrimeTimeEnd        int
}

func DefaultRateTable() RateTable {
	return RateTable{
		Surcharges: map[domain.SeatType]decimal.Decimal{
			domain.SeatTypeStandard: decimal.Zero,
			domain.SeatTypeVIP:      decimal.NewFromInt(5),
		},
		PrimeTimeMultiplier: decimal.NewFromFloat(1.2),
		PrimeTimeStart:      18,
		PrimeTimeEnd:        23,
	}
}

type Calculator struct {
	rates RateTable
}

func NewCalculator(rates RateTable) *Calculator {
	if rates.PrimeTimeMultiplier.IsZero() {
		rates.PrimeTimeMultiplier = decimal.NewFromInt(1)
	}

	return &Calculator{rates: rates}
}

// Price returns the price of one seat of the given type for the screening.
func (c *Calculator) Price(seatType domain.SeatType, screening domain.Screening) decimal.Decimal {
	price := screening.BasePrice.Add(c.rates.Surcharges[seatType])

	if c.isPrimeTime(screening.StartTime) {
		price = price.Mul(c.rates.PrimeTimeMultiplier)
	}

	return price.Round(2)
}

// Total returns the sum of the seat prices.
func (c *Calculator) Total(seats []domain.Seat, screening domain.Screening) decimal.Decimal {
	total := decimal.Zero

	for _, seat := range seats {
		total = total.Add(c.Price(seat.Type, screening))
	}

	return total
}

func (c *Calculator) isPrimeTime(start time.Time) bool {
	if c.rates.PrimeTimeStart >= c.rates.PrimeTimeEnd {
		return false
	}

	hour := start.Hour()

	return hour >= c.rates.PrimeTimeStart && hour < c.rates.PrimeTimeEnd
}
