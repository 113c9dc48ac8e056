package app

import (
	"context"
	"time"

	"github.com/metinatakli/cinema-booking/internal/domain"
	"github.com/metinatakli/cinema-booking/internal/events"
)

const notifyTimeout = 10 * time.Second

// notifyBooking publishes the booking event and emails the contact address, both in the
// background. Failures are logged and never reach the client.
func (app *Application) notifyBooking(booking *domain.Booking) {
	b := *booking

	app.background(func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()

		logger := app.logger.With("booking_id", b.ID, "status", b.Status)

		err := app.publisher.Publish(ctx, events.NewBookingEvent(&b, time.Now()))
		if err != nil {
			logger.Error("failed to publish booking event", "error", err)
		}

		if app.mailer == nil || b.ContactEmail == "" {
			return
		}

		var templateFile string
		switch b.Status {
		case domain.BookingStatusConfirmed:
			templateFile = "booking_confirmed.tmpl"
		case domain.BookingStatusCancelled:
			templateFile = "booking_cancelled.tmpl"
		default:
			return
		}

		data, err := app.bookingEmailData(ctx, &b)
		if err != nil {
			logger.Error("failed to prepare booking email", "error", err)
			return
		}

		err = app.mailer.Send(b.ContactEmail, templateFile, data)
		if err != nil {
			logger.Error("failed to send booking email", "error", err)
		}
	})
}

func (app *Application) bookingEmailData(ctx context.Context, booking *domain.Booking) (map[string]any, error) {
	screening, err := app.manager.Store().Screening(booking.ScreeningID)
	if err != nil {
		return nil, err
	}

	movies, err := app.catalog.GetMovies(ctx)
	if err != nil {
		return nil, err
	}

	var title string
	for _, movie := range movies {
		if movie.ID == screening.MovieID {
			title = movie.Title
			break
		}
	}

	return map[string]any{
		"BookingID":  booking.ID.String(),
		"MovieTitle": title,
		"Hall":       screening.Hall,
		"StartTime":  screening.StartTime,
		"Seats":      fromSeatIDs(booking.Seats),
		"TotalPrice": booking.TotalPrice.StringFixed(2),
		"Currency":   app.currency(),
	}, nil
}
