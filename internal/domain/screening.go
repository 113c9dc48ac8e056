package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Screening is a single showing of a movie in a hall. Screenings are immutable once created.
type Screening struct {
	ID        int
	MovieID   int
	Hall      string
	StartTime time.Time
	EndTime   time.Time
	LayoutID  int
	BasePrice decimal.Decimal
}

type CatalogRepository interface {
	GetMovies(ctx context.Context) ([]Movie, error)
	GetScreenings(ctx context.Context) ([]Screening, error)
	GetLayouts(ctx context.Context) ([]Layout, error)
}
