package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/cinema-booking/internal/domain"
)

type PostgresCatalogRepository struct {
	db *pgxpool.Pool
}

func NewPostgresCatalogRepository(db *pgxpool.Pool) *PostgresCatalogRepository {
	return &PostgresCatalogRepository{
		db: db,
	}
}

func (p *PostgresCatalogRepository) GetMovies(ctx context.Context) ([]domain.Movie, error) {
	query := `
		SELECT id, title, genre, duration_minutes, poster_url, rating
		FROM movies
		ORDER BY id
	`

	rows, err := p.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	movies := make([]domain.Movie, 0)

	for rows.Next() {
		var movie domain.Movie

		err := rows.Scan(
			&movie.ID,
			&movie.Title,
			&movie.Genre,
			&movie.DurationMinutes,
			&movie.PosterUrl,
			&movie.Rating,
		)
		if err != nil {
			return nil, err
		}

		movies = append(movies, movie)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return movies, nil
}

func (p *PostgresCatalogRepository) GetScreenings(ctx context.Context) ([]domain.Screening, error) {
	query := `
		SELECT id, movie_id, hall, start_time, end_time, layout_id, base_price
		FROM screenings
		ORDER BY start_time, id
	`

	rows, err := p.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	screenings := make([]domain.Screening, 0)

	for rows.Next() {
		var screening domain.Screening

		err := rows.Scan(
			&screening.ID,
			&screening.MovieID,
			&screening.Hall,
			&screening.StartTime,
			&screening.EndTime,
			&screening.LayoutID,
			&screening.BasePrice,
		)
		if err != nil {
			return nil, err
		}

		screenings = append(screenings, screening)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return screenings, nil
}

func (p *PostgresCatalogRepository) GetLayouts(ctx context.Context) ([]domain.Layout, error) {
	query := `
		SELECT l.id, l.name, s.seat_row, s.seat_number, s.seat_type
		FROM layouts l
		JOIN layout_seats s ON s.layout_id = l.id
		ORDER BY l.id, s.seat_row, s.seat_number
	`

	rows, err := p.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	layouts := make([]domain.Layout, 0)

	for rows.Next() {
		var (
			layoutID int
			name     string
			row      string
			number   int
			seatType string
		)

		err := rows.Scan(&layoutID, &name, &row, &number, &seatType)
		if err != nil {
			return nil, err
		}

		if len(layouts) == 0 || layouts[len(layouts)-1].ID != layoutID {
			layouts = append(layouts, domain.Layout{ID: layoutID, Name: name})
		}

		layout := &layouts[len(layouts)-1]
		layout.Seats = append(layout.Seats, domain.NewSeat(row, number, domain.SeatType(seatType)))
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return layouts, nil
}
