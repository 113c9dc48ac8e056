package repository

import (
	"context"
	"slices"
	"time"

	"github.com/metinatakli/cinema-booking/internal/domain"
	"github.com/shopspring/decimal"
)

type MemoryCatalogRepository struct {
	movies     []domain.Movie
	screenings []domain.Screening
	layouts    []domain.Layout
}

func NewMemoryCatalogRepository(movies []domain.Movie, screenings []domain.Screening, layouts []domain.Layout) *MemoryCatalogRepository {
	return &MemoryCatalogRepository{
		movies:     movies,
		screenings: screenings,
		layouts:    layouts,
	}
}

func (m *MemoryCatalogRepository) GetMovies(ctx context.Context) ([]domain.Movie, error) {
	return slices.Clone(m.movies), nil
}

func (m *MemoryCatalogRepository) GetScreenings(ctx context.Context) ([]domain.Screening, error) {
	return slices.Clone(m.screenings), nil
}

func (m *MemoryCatalogRepository) GetLayouts(ctx context.Context) ([]domain.Layout, error) {
	return slices.Clone(m.layouts), nil
}

// NewGridLayout builds a layout of rows × seatsPerRow seats labelled A1, A2, ... The rows
// listed in vipRows are VIP.
func NewGridLayout(id int, name string, rows, seatsPerRow int, vipRows ...string) domain.Layout {
	layout := domain.Layout{ID: id, Name: name}

	for r := range rows {
		row := string(rune('A' + r))

		seatType := domain.SeatTypeStandard
		if slices.Contains(vipRows, row) {
			seatType = domain.SeatTypeVIP
		}

		for n := 1; n <= seatsPerRow; n++ {
			layout.Seats = append(layout.Seats, domain.NewSeat(row, n, seatType))
		}
	}

	return layout
}

// NewSeedCatalogRepository returns a small catalog for running the service without a
// database: three movies in two halls over the next days, relative to day.
func NewSeedCatalogRepository(day time.Time) *MemoryCatalogRepository {
	day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())

	movies := []domain.Movie{
		{ID: 1, Title: "The Last Projection", Genre: "Drama, Mystery", DurationMinutes: 128, Rating: 8.1,
			PosterUrl: "https://images.example.com/posters/last-projection.jpg"},
		{ID: 2, Title: "Orbit Runners", Genre: "Sci-Fi, Action", DurationMinutes: 142, Rating: 7.6,
			PosterUrl: "https://images.example.com/posters/orbit-runners.jpg"},
		{ID: 3, Title: "Paper Lanterns", Genre: "Animation, Family", DurationMinutes: 96, Rating: 7.9,
			PosterUrl: "https://images.example.com/posters/paper-lanterns.jpg"},
	}

	layouts := []domain.Layout{
		NewGridLayout(1, "Hall 1", 8, 12, "G", "H"),
		NewGridLayout(2, "Hall 2", 5, 10, "E"),
	}

	show := func(id, movieID int, hall domain.Layout, dayOffset, hour, minute int, price string) domain.Screening {
		start := day.AddDate(0, 0, dayOffset).Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
		duration := time.Duration(movies[movieID-1].DurationMinutes) * time.Minute

		return domain.Screening{
			ID:        id,
			MovieID:   movieID,
			Hall:      hall.Name,
			StartTime: start,
			EndTime:   start.Add(duration),
			LayoutID:  hall.ID,
			BasePrice: decimal.RequireFromString(price),
		}
	}

	screenings := []domain.Screening{
		show(1, 1, layouts[0], 0, 14, 0, "10.00"),
		show(2, 2, layouts[0], 0, 19, 30, "12.50"),
		show(3, 3, layouts[1], 0, 11, 0, "8.00"),
		show(4, 2, layouts[1], 1, 20, 0, "12.50"),
		show(5, 1, layouts[0], 1, 17, 0, "10.00"),
	}

	return NewMemoryCatalogRepository(movies, screenings, layouts)
}
