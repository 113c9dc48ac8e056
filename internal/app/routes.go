package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/metinatakli/cinema-booking/api"
	"github.com/riandyrn/otelchi"
)

func (app *Application) Routes() http.Handler {
	r := chi.NewRouter()

	r.NotFound(app.notFoundResponse)
	r.MethodNotAllowed(app.methodNotAllowedResponse)

	validateRequest, err := api.RequestValidator(app.openapi, app.badRequestResponse)
	if err != nil {
		panic(err)
	}

	r.Use(otelchi.Middleware(serviceName, otelchi.WithChiRoutes(r)))
	r.Use(middleware.RequestID)
	r.Use(app.logRequest)
	r.Use(app.recoverPanic)

	r.Get("/healthcheck", app.GetHealth)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		w.Write(api.RawSpec())
	})

	r.Post("/webhook", app.StripeWebhookHandler)

	r.Group(func(r chi.Router) {
		r.Use(validateRequest)

		r.Group(func(r chi.Router) {
			r.Use(app.requireAdmin)

			r.Get("/admin/dashboard", app.GetDashboard)
			r.Get("/admin/reports/revenue", app.GetRevenueReport)
			r.Get("/admin/reports/occupancy/{screeningId}", app.withScreeningId(app.GetOccupancyReport))
			r.Get("/admin/reports/popular-movies", func(w http.ResponseWriter, r *http.Request) {
				var params api.GetPopularMoviesParams

				err := queryParam(r, "limit", false, &params.Limit)
				if err != nil {
					app.badRequestResponse(w, r, err)
					return
				}

				app.GetPopularMovies(w, r, params)
			})
		})

		r.Get("/screenings", app.GetScreenings)
		r.Get("/screenings/{screeningId}", app.withScreeningId(app.GetScreening))
		r.Get("/screenings/{screeningId}/seats", app.withScreeningId(app.GetSeatMap))
		r.Get("/screenings/{screeningId}/seats/available", app.withScreeningId(app.GetAvailableSeats))
		r.Get("/screenings/{screeningId}/quote", app.withScreeningId(func(w http.ResponseWriter, r *http.Request, screeningId int) {
			var params api.GetQuoteParams

			err := queryParam(r, "seats", true, &params.Seats)
			if err != nil {
				app.badRequestResponse(w, r, err)
				return
			}

			app.GetQuote(w, r, screeningId, params)
		}))

		r.Group(func(r chi.Router) {
			r.Use(app.sessionManager.LoadAndSave)
			r.Use(app.ensureGuestUserSession)

			r.Post("/screenings/{screeningId}/holds", app.withScreeningId(app.PlaceHold))

			r.Get("/holds/{holdId}", app.withUUID("holdId", app.GetHold))
			r.Delete("/holds/{holdId}", app.withUUID("holdId", app.ReleaseHold))
			r.Post("/holds/{holdId}/payment-intent", app.withUUID("holdId", app.CreatePaymentIntent))
			r.Post("/holds/{holdId}/confirm", app.withUUID("holdId", app.ConfirmHold))

			r.Get("/bookings", func(w http.ResponseWriter, r *http.Request) {
				var params api.GetBookingsParams

				err := queryParam(r, "page", false, &params.Page)
				if err != nil {
					app.badRequestResponse(w, r, err)
					return
				}

				err = queryParam(r, "pageSize", false, &params.PageSize)
				if err != nil {
					app.badRequestResponse(w, r, err)
					return
				}

				app.GetBookings(w, r, params)
			})
			r.Get("/bookings/{bookingId}", app.withUUID("bookingId", app.GetBooking))
			r.Post("/bookings/{bookingId}/cancel", app.withUUID("bookingId", app.CancelBooking))
		})
	})

	return r
}

func (app *Application) withScreeningId(next func(http.ResponseWriter, *http.Request, int)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var screeningId int

		err := pathParam(r, "screeningId", &screeningId)
		if err != nil {
			app.badRequestResponse(w, r, err)
			return
		}

		next(w, r, screeningId)
	}
}

func (app *Application) withUUID(name string, next func(http.ResponseWriter, *http.Request, uuid.UUID)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var id uuid.UUID

		err := pathParam(r, name, &id)
		if err != nil {
			app.badRequestResponse(w, r, err)
			return
		}

		next(w, r, id)
	}
}
