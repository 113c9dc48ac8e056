package app

import (
	"net/http"

	"github.com/metinatakli/cinema-booking/api"
	"github.com/metinatakli/cinema-booking/internal/domain"
)

func (app *Application) GetScreenings(w http.ResponseWriter, r *http.Request) {
	titles, err := app.movieTitles(r)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	screenings := app.manager.Store().Screenings()

	resp := api.ScreeningsResponse{Screenings: make([]api.Screening, len(screenings))}
	for i, screening := range screenings {
		resp.Screenings[i] = toApiScreening(screening, titles[screening.MovieID])
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) GetScreening(w http.ResponseWriter, r *http.Request, screeningId int) {
	screening, err := app.manager.Store().Screening(screeningId)
	if err != nil {
		app.reservationErrorResponse(w, r, err)
		return
	}

	titles, err := app.movieTitles(r)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toApiScreening(screening, titles[screening.MovieID]), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// GetSeatMap returns every seat of the screening with its current state. Holds that
// have expired but were not swept yet are already reported as available.
func (app *Application) GetSeatMap(w http.ResponseWriter, r *http.Request, screeningId int) {
	store := app.manager.Store()

	screening, err := store.Screening(screeningId)
	if err != nil {
		app.reservationErrorResponse(w, r, err)
		return
	}

	seatMap, err := store.SeatMap(screeningId)
	if err != nil {
		app.reservationErrorResponse(w, r, err)
		return
	}

	resp := api.SeatMapResponse{
		ScreeningId: screeningId,
		Hall:        screening.Hall,
		SeatRows:    make([]api.SeatRow, len(seatMap.Rows)),
	}

	for i, row := range seatMap.Rows {
		seats := make([]api.Seat, len(row.Seats))
		for j, seat := range row.Seats {
			seats[j] = app.toApiSeat(seat.Seat, seat.State.Status, screening)
		}

		resp.SeatRows[i] = api.SeatRow{Row: row.Row, Seats: seats}
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) GetAvailableSeats(w http.ResponseWriter, r *http.Request, screeningId int) {
	store := app.manager.Store()

	screening, err := store.Screening(screeningId)
	if err != nil {
		app.reservationErrorResponse(w, r, err)
		return
	}

	available, err := store.ListAvailable(screeningId)
	if err != nil {
		app.reservationErrorResponse(w, r, err)
		return
	}

	resp := api.AvailableSeatsResponse{
		ScreeningId: screeningId,
		Seats:       make([]api.Seat, len(available)),
	}

	for i, seat := range available {
		resp.Seats[i] = app.toApiSeat(seat, domain.SeatAvailable, screening)
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// GetQuote prices the requested seats without holding them.
func (app *Application) GetQuote(w http.ResponseWriter, r *http.Request, screeningId int, params api.GetQuoteParams) {
	err := app.validator.Struct(params)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	quote, err := app.manager.Quote(screeningId, toSeatIDs(params.Seats))
	if err != nil {
		app.reservationErrorResponse(w, r, err)
		return
	}

	resp := api.QuoteResponse{
		ScreeningId: quote.ScreeningID,
		Seats:       make([]api.Seat, len(quote.Seats)),
		Total:       quote.Total,
		Currency:    app.currency(),
	}

	for i, quoted := range quote.Seats {
		resp.Seats[i] = api.Seat{
			Id:     string(quoted.Seat.ID),
			Row:    quoted.Seat.Row,
			Number: quoted.Seat.Number,
			Type:   api.SeatType(quoted.Seat.Type),
			Status: api.Available,
			Price:  quoted.Price,
		}
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) movieTitles(r *http.Request) (map[int]string, error) {
	movies, err := app.catalog.GetMovies(r.Context())
	if err != nil {
		return nil, err
	}

	titles := make(map[int]string, len(movies))
	for _, movie := range movies {
		titles[movie.ID] = movie.Title
	}

	return titles, nil
}

func (app *Application) currency() string {
	if app.config.Stripe.Currency == "" {
		return "usd"
	}

	return app.config.Stripe.Currency
}

func (app *Application) toApiSeat(seat domain.Seat, status domain.SeatStatus, screening domain.Screening) api.Seat {
	return api.Seat{
		Id:     string(seat.ID),
		Row:    seat.Row,
		Number: seat.Number,
		Type:   api.SeatType(seat.Type),
		Status: api.SeatStatus(status),
		Price:  app.pricing.Price(seat.Type, screening),
	}
}

func toApiScreening(screening domain.Screening, title string) api.Screening {
	return api.Screening{
		Id:         screening.ID,
		MovieId:    screening.MovieID,
		MovieTitle: title,
		Hall:       screening.Hall,
		StartTime:  screening.StartTime,
		EndTime:    screening.EndTime,
		BasePrice:  screening.BasePrice,
	}
}

func toSeatIDs(labels []string) []domain.SeatID {
	ids := make([]domain.SeatID, len(labels))
	for i, label := range labels {
		ids[i] = domain.SeatID(label)
	}

	return ids
}

func fromSeatIDs(ids []domain.SeatID) []string {
	labels := make([]string, len(ids))
	for i, id := range ids {
		labels[i] = string(id)
	}

	return labels
}
