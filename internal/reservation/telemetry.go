package reservation

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/metinatakli/cinema-booking/internal/domain"
)

const instrumentationName = "github.com/metinatakli/cinema-booking/internal/reservation"

var tracer = otel.Tracer(instrumentationName)

type metrics struct {
	holdsPlaced      metric.Int64Counter
	holdConflicts    metric.Int64Counter
	holdsExpired     metric.Int64Counter
	bookings         metric.Int64Counter
	paymentsDeclined metric.Int64Counter
}

func newMetrics() *metrics {
	meter := otel.Meter(instrumentationName)

	return &metrics{
		holdsPlaced:      counter(meter, "reservation.holds.placed", "Holds placed"),
		holdConflicts:    counter(meter, "reservation.holds.conflicts", "Hold requests rejected because a seat was taken"),
		holdsExpired:     counter(meter, "reservation.holds.expired", "Holds released after their TTL"),
		bookings:         counter(meter, "reservation.bookings", "Booking status transitions"),
		paymentsDeclined: counter(meter, "reservation.payments.declined", "Declined payments"),
	}
}

func counter(meter metric.Meter, name, description string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(description))
	if err != nil {
		otel.Handle(err)
	}

	return c
}

func statusAttr(status domain.BookingStatus) metric.AddOption {
	return metric.WithAttributes(attribute.String("status", string(status)))
}

func recordErr(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	return err
}
