package domain

type Movie struct {
	ID              int
	Title           string
	Genre           string
	DurationMinutes int
	PosterUrl       string
	Rating          float64
}
