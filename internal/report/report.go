// Package report derives admin statistics from committed bookings and seat maps. Every
// function is pure: the same records always produce the same report.
package report

import (
	"math"
	"slices"
	"sort"

	"github.com/metinatakli/cinema-booking/internal/domain"
	"github.com/shopspring/decimal"
)

type SeatCounts struct {
	Total     int
	Booked    int
	Held      int
	Available int
}

// Rate is the percentage of seats that are booked or held, rounded to a whole number.
func (c SeatCounts) Rate() int {
	return percent(c.Booked+c.Held, c.Total)
}

func (c *SeatCounts) add(status domain.SeatStatus) {
	c.Total++

	switch status {
	case domain.SeatBooked:
		c.Booked++
	case domain.SeatHeld:
		c.Held++
	default:
		c.Available++
	}
}

type OccupancyReport struct {
	ScreeningID int
	SeatCounts
	ByType map[domain.SeatType]SeatCounts
}

func Occupancy(seatMap domain.SeatMap) OccupancyReport {
	report := OccupancyReport{
		ScreeningID: seatMap.ScreeningID,
		ByType:      make(map[domain.SeatType]SeatCounts),
	}

	for _, row := range seatMap.Rows {
		for _, seat := range row.Seats {
			report.add(seat.State.Status)

			counts := report.ByType[seat.Type]
			counts.add(seat.State.Status)
			report.ByType[seat.Type] = counts
		}
	}

	return report
}

type RevenueReport struct {
	TotalRevenue      decimal.Decimal
	ConfirmedRevenue  decimal.Decimal
	PendingRevenue    decimal.Decimal
	TotalBookings     int
	ConfirmedBookings int
	CancelledBookings int
	SeatsSold         int
	// AverageTicketPrice is zero when no seat has been sold.
	AverageTicketPrice decimal.Decimal
}

// Revenue sums the bookings that were not cancelled.
func Revenue(bookings []domain.Booking) RevenueReport {
	report := RevenueReport{
		TotalRevenue:       decimal.Zero,
		ConfirmedRevenue:   decimal.Zero,
		PendingRevenue:     decimal.Zero,
		AverageTicketPrice: decimal.Zero,
	}

	for _, b := range bookings {
		switch b.Status {
		case domain.BookingStatusCancelled:
			report.CancelledBookings++
			continue
		case domain.BookingStatusConfirmed:
			report.ConfirmedBookings++
			report.ConfirmedRevenue = report.ConfirmedRevenue.Add(b.TotalPrice)
		case domain.BookingStatusPending:
			report.PendingRevenue = report.PendingRevenue.Add(b.TotalPrice)
		}

		report.TotalBookings++
		report.TotalRevenue = report.TotalRevenue.Add(b.TotalPrice)
		report.SeatsSold += len(b.Seats)
	}

	if report.SeatsSold > 0 {
		report.AverageTicketPrice = report.TotalRevenue.Div(decimal.NewFromInt(int64(report.SeatsSold))).Round(2)
	}

	return report
}

type MovieStats struct {
	Movie     domain.Movie
	Bookings  int
	SeatsSold int
	Revenue   decimal.Decimal
}

// PopularMovies ranks movies by the number of bookings, then by title. Movies without
// bookings are included so that the ranking covers the whole catalog. A limit of zero or
// less returns every movie.
func PopularMovies(bookings []domain.Booking, screenings []domain.Screening, movies []domain.Movie, limit int) []MovieStats {
	movieOf := make(map[int]int, len(screenings))
	for _, s := range screenings {
		movieOf[s.ID] = s.MovieID
	}

	stats := make(map[int]*MovieStats, len(movies))
	for _, m := range movies {
		stats[m.ID] = &MovieStats{Movie: m, Revenue: decimal.Zero}
	}

	for _, b := range bookings {
		if !b.Active() {
			continue
		}

		stat, ok := stats[movieOf[b.ScreeningID]]
		if !ok {
			continue
		}

		stat.Bookings++
		stat.SeatsSold += len(b.Seats)
		stat.Revenue = stat.Revenue.Add(b.TotalPrice)
	}

	ranked := make([]MovieStats, 0, len(stats))
	for _, stat := range stats {
		ranked = append(ranked, *stat)
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Bookings != ranked[j].Bookings {
			return ranked[i].Bookings > ranked[j].Bookings
		}
		if ranked[i].Movie.Title != ranked[j].Movie.Title {
			return ranked[i].Movie.Title < ranked[j].Movie.Title
		}
		return ranked[i].Movie.ID < ranked[j].Movie.ID
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	return ranked
}

type DashboardReport struct {
	TotalRevenue   decimal.Decimal
	Bookings       int
	Screenings     int
	OccupancyRate  int
	PopularMovies  []MovieStats
	RecentBookings []domain.Booking
}

const (
	dashboardPopularMovies  = 3
	dashboardRecentBookings = 5
)

func Dashboard(bookings []domain.Booking, screenings []domain.Screening, movies []domain.Movie, seatMaps []domain.SeatMap) DashboardReport {
	revenue := Revenue(bookings)

	var seats SeatCounts
	for _, seatMap := range seatMaps {
		occupancy := Occupancy(seatMap)
		seats.Total += occupancy.Total
		seats.Booked += occupancy.Booked
		seats.Held += occupancy.Held
	}

	recent := slices.Clone(bookings)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].CreatedAt.After(recent[j].CreatedAt)
	})
	if len(recent) > dashboardRecentBookings {
		recent = recent[:dashboardRecentBookings]
	}

	return DashboardReport{
		TotalRevenue:   revenue.TotalRevenue,
		Bookings:       revenue.TotalBookings,
		Screenings:     len(screenings),
		OccupancyRate:  seats.Rate(),
		PopularMovies:  PopularMovies(bookings, screenings, movies, dashboardPopularMovies),
		RecentBookings: recent,
	}
}

func percent(part, total int) int {
	if total == 0 {
		return 0
	}

	return int(math.Round(float64(part) * 100 / float64(total)))
}
