package app

import (
	"net/http"

	"github.com/metinatakli/cinema-booking/api"
	"github.com/metinatakli/cinema-booking/internal/domain"
	"github.com/metinatakli/cinema-booking/internal/report"
)

const defaultPopularMoviesLimit = 10

func (app *Application) GetDashboard(w http.ResponseWriter, r *http.Request) {
	bookings, err := app.bookings.GetAll(r.Context())
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	movies, err := app.catalog.GetMovies(r.Context())
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	store := app.manager.Store()
	screenings := store.Screenings()

	seatMaps := make([]domain.SeatMap, 0, len(screenings))
	for _, screening := range screenings {
		seatMap, err := store.SeatMap(screening.ID)
		if err != nil {
			app.serverErrorResponse(w, r, err)
			return
		}

		seatMaps = append(seatMaps, *seatMap)
	}

	dashboard := report.Dashboard(bookings, screenings, movies, seatMaps)

	resp := api.DashboardResponse{
		TotalRevenue:    dashboard.TotalRevenue,
		TotalBookings:   dashboard.Bookings,
		TotalScreenings: dashboard.Screenings,
		OccupancyRate:   dashboard.OccupancyRate,
		PopularMovies:   toApiPopularMovies(dashboard.PopularMovies),
		RecentBookings:  make([]api.Booking, len(dashboard.RecentBookings)),
	}

	for i := range dashboard.RecentBookings {
		resp.RecentBookings[i] = app.toApiBooking(&dashboard.RecentBookings[i])
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) GetRevenueReport(w http.ResponseWriter, r *http.Request) {
	bookings, err := app.bookings.GetAll(r.Context())
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	revenue := report.Revenue(bookings)

	resp := api.RevenueReport{
		TotalRevenue:       revenue.TotalRevenue,
		ConfirmedRevenue:   revenue.ConfirmedRevenue,
		PendingRevenue:     revenue.PendingRevenue,
		TotalBookings:      revenue.TotalBookings,
		ConfirmedBookings:  revenue.ConfirmedBookings,
		CancelledBookings:  revenue.CancelledBookings,
		SeatsSold:          revenue.SeatsSold,
		AverageTicketPrice: revenue.AverageTicketPrice,
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) GetOccupancyReport(w http.ResponseWriter, r *http.Request, screeningId int) {
	seatMap, err := app.manager.Store().SeatMap(screeningId)
	if err != nil {
		app.reservationErrorResponse(w, r, err)
		return
	}

	occupancy := report.Occupancy(*seatMap)

	resp := api.OccupancyReport{
		ScreeningId: occupancy.ScreeningID,
		SeatCounts:  toApiSeatCounts(occupancy.SeatCounts),
		BySeatType:  make(map[string]api.SeatCounts, len(occupancy.ByType)),
	}

	for seatType, counts := range occupancy.ByType {
		resp.BySeatType[string(seatType)] = toApiSeatCounts(counts)
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) GetPopularMovies(w http.ResponseWriter, r *http.Request, params api.GetPopularMoviesParams) {
	err := app.validator.Struct(params)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	limit := defaultPopularMoviesLimit
	if params.Limit != nil {
		limit = *params.Limit
	}

	bookings, err := app.bookings.GetAll(r.Context())
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	movies, err := app.catalog.GetMovies(r.Context())
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	ranked := report.PopularMovies(bookings, app.manager.Store().Screenings(), movies, limit)

	err = app.writeJSON(w, http.StatusOK, api.PopularMoviesResponse{Movies: toApiPopularMovies(ranked)}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func toApiSeatCounts(counts report.SeatCounts) api.SeatCounts {
	return api.SeatCounts{
		Total:         counts.Total,
		Booked:        counts.Booked,
		Held:          counts.Held,
		Available:     counts.Available,
		OccupancyRate: counts.Rate(),
	}
}

func toApiPopularMovies(stats []report.MovieStats) []api.PopularMovie {
	movies := make([]api.PopularMovie, len(stats))
	for i, stat := range stats {
		movies[i] = api.PopularMovie{
			MovieId:  stat.Movie.ID,
			Title:    stat.Movie.Title,
			Bookings: stat.Bookings,
			Seats:    stat.SeatsSold,
			Revenue:  stat.Revenue,
		}
	}

	return movies
}
