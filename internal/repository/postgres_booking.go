package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/cinema-booking/internal/domain"
)

// activeSeatIndex is the partial unique index that lets a seat belong to at most one
// booking that has not been cancelled.
const activeSeatIndex = "booking_seats_active_seat_idx"

type PostgresBookingRepository struct {
	db *pgxpool.Pool
}

func NewPostgresBookingRepository(db *pgxpool.Pool) *PostgresBookingRepository {
	return &PostgresBookingRepository{
		db: db,
	}
}

func (p *PostgresBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	err := runInTx(ctx, p.db, func(tx pgx.Tx) error {
		query := `
			INSERT INTO bookings (id, user_id, screening_id, total_price, payment_ref, contact_email, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, $9)
		`

		_, err := tx.Exec(
			ctx,
			query,
			booking.ID,
			booking.UserID,
			booking.ScreeningID,
			booking.TotalPrice,
			booking.PaymentRef,
			booking.ContactEmail,
			booking.Status,
			booking.CreatedAt,
			booking.UpdatedAt)

		if err != nil {
			return err
		}

		if !booking.Active() {
			return nil
		}

		rows := make([][]any, 0, len(booking.Seats))
		for _, seatID := range booking.Seats {
			rows = append(rows, []any{booking.ID, booking.ScreeningID, string(seatID)})
		}

		_, err = tx.CopyFrom(
			ctx,
			pgx.Identifier{"booking_seats"},
			[]string{"booking_id", "screening_id", "seat_id"},
			pgx.CopyFromRows(rows),
		)

		return err
	})

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation && pgErr.ConstraintName == activeSeatIndex {
		return &domain.SeatUnavailableError{ScreeningID: booking.ScreeningID, SeatIDs: booking.Seats}
	}

	return err
}

func (p *PostgresBookingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.BookingStatus) error {
	return runInTxWithOptions(ctx, p.db, pgx.TxOptions{IsoLevel: pgx.RepeatableRead}, func(tx pgx.Tx) error {
		query := `
			UPDATE bookings
			SET status = $2, updated_at = NOW()
			WHERE id = $1 AND (status <> 'cancelled' OR $2 = 'cancelled')
		`

		tag, err := tx.Exec(ctx, query, id, status)
		if err != nil {
			return err
		}

		if tag.RowsAffected() == 0 {
			var exists bool
			err = tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM bookings WHERE id = $1)`, id).Scan(&exists)
			if err != nil {
				return err
			}

			if !exists {
				return domain.ErrRecordNotFound
			}

			return fmt.Errorf("booking %s is cancelled and cannot become %s", id, status)
		}

		if status != domain.BookingStatusCancelled {
			return nil
		}

		query = `
			UPDATE booking_seats
			SET released_at = NOW()
			WHERE booking_id = $1 AND released_at IS NULL
		`

		_, err = tx.Exec(ctx, query, id)

		return err
	})
}

const selectBooking = `
	SELECT
		b.id,
		b.user_id,
		b.screening_id,
		COALESCE(ARRAY(SELECT bs.seat_id FROM booking_seats bs WHERE bs.booking_id = b.id ORDER BY bs.seat_id), '{}'),
		b.total_price,
		COALESCE(b.payment_ref, ''),
		b.contact_email,
		b.status,
		b.created_at,
		b.updated_at
	FROM bookings b
`

func (p *PostgresBookingRepository) GetById(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	return p.getOne(ctx, selectBooking+` WHERE b.id = $1`, id)
}

func (p *PostgresBookingRepository) GetByPaymentRef(ctx context.Context, paymentRef string) (*domain.Booking, error) {
	return p.getOne(ctx, selectBooking+` WHERE b.payment_ref = $1`, paymentRef)
}

func (p *PostgresBookingRepository) getOne(ctx context.Context, query string, arg any) (*domain.Booking, error) {
	booking, err := scanBooking(p.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	return booking, nil
}

func (p *PostgresBookingRepository) GetAllByUserId(
	ctx context.Context,
	userID string,
	pagination domain.Pagination) ([]domain.Booking, *domain.Metadata, error) {

	var totalRecords int

	err := p.db.QueryRow(ctx, `SELECT COUNT(*) FROM bookings WHERE user_id = $1`, userID).Scan(&totalRecords)
	if err != nil {
		return nil, nil, err
	}

	query := selectBooking + `
		WHERE b.user_id = $1
		ORDER BY b.created_at DESC, b.id
		LIMIT $2 OFFSET $3
	`

	rows, err := p.db.Query(ctx, query, userID, pagination.Limit(), pagination.Offset())
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	bookings, err := collectBookings(rows)
	if err != nil {
		return nil, nil, err
	}

	metadata := domain.NewMetadata(totalRecords, pagination.Page, pagination.PageSize)

	return bookings, metadata, nil
}

func (p *PostgresBookingRepository) GetAll(ctx context.Context) ([]domain.Booking, error) {
	rows, err := p.db.Query(ctx, selectBooking+` ORDER BY b.created_at DESC, b.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectBookings(rows)
}

func collectBookings(rows pgx.Rows) ([]domain.Booking, error) {
	bookings := make([]domain.Booking, 0)

	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}

		bookings = append(bookings, *booking)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return bookings, nil
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var booking domain.Booking
	var seats []string

	err := row.Scan(
		&booking.ID,
		&booking.UserID,
		&booking.ScreeningID,
		&seats,
		&booking.TotalPrice,
		&booking.PaymentRef,
		&booking.ContactEmail,
		&booking.Status,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	booking.Seats = make([]domain.SeatID, len(seats))
	for i, seat := range seats {
		booking.Seats[i] = domain.SeatID(seat)
	}

	return &booking, nil
}
