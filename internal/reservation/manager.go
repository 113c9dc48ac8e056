// Package reservation owns the seat inventory of every screening and the hold/booking
// lifecycle on top of it: timed all-or-nothing holds, payment confirmation and expiry.
package reservation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/metinatakli/cinema-booking/internal/domain"
	"github.com/metinatakli/cinema-booking/internal/pricing"
	"github.com/shopspring/decimal"
)

type Config struct {
	MinHoldTTL     time.Duration
	MaxHoldTTL     time.Duration
	DefaultHoldTTL time.Duration
	// PaymentTimeout bounds a single payment gateway round-trip.
	PaymentTimeout time.Duration
	// TombstoneRetention is how long an expired hold keeps answering ErrHoldExpired
	// before it is forgotten and reported as not found.
	TombstoneRetention time.Duration
	Currency           string
}

func (c *Config) setDefaults() {
	if c.MinHoldTTL <= 0 {
		c.MinHoldTTL = time.Second
	}

	if c.MaxHoldTTL <= 0 || c.MaxHoldTTL < c.MinHoldTTL {
		c.MaxHoldTTL = 15 * time.Minute
	}

	if c.DefaultHoldTTL <= 0 {
		c.DefaultHoldTTL = 10 * time.Minute
	}

	if c.PaymentTimeout <= 0 {
		c.PaymentTimeout = 10 * time.Second
	}

	if c.TombstoneRetention <= 0 {
		c.TombstoneRetention = time.Hour
	}

	if c.Currency == "" {
		c.Currency = "usd"
	}
}

type Option func(*Manager)

// WithSeatLocker makes every hold also take a lock in a store shared between instances.
func WithSeatLocker(locker domain.SeatLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// Manager is the only entry point that mutates seat state. Every mutation of a screening
// runs under that screening's lock; the payment gateway is always called with no lock held.
type Manager struct {
	store    *Store
	pricing  *pricing.Calculator
	bookings domain.BookingRepository
	payments domain.PaymentProvider
	locker   domain.SeatLocker
	logger   *slog.Logger
	metrics  *metrics
	cfg      Config

	indexMu sync.Mutex
	index   map[uuid.UUID]holdRef
	intents map[string]uuid.UUID
}

type holdRef struct {
	screeningID int
	expiresAt   time.Time
}

func NewManager(
	store *Store,
	calculator *pricing.Calculator,
	bookings domain.BookingRepository,
	payments domain.PaymentProvider,
	cfg Config,
	opts ...Option) *Manager {

	cfg.setDefaults()

	m := &Manager{
		store:    store,
		pricing:  calculator,
		bookings: bookings,
		payments: payments,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics:  newMetrics(),
		cfg:      cfg,
		index:    make(map[uuid.UUID]holdRef),
		intents:  make(map[string]uuid.UUID),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

func (m *Manager) Store() *Store {
	return m.store
}

type PlaceHoldInput struct {
	ScreeningID  int
	SeatIDs      []domain.SeatID
	HolderID     string
	ContactEmail string
	TTL          time.Duration
}

// PlaceHold claims every requested seat for the holder or none of them. It fails with a
// *domain.SeatUnavailableError when any seat is booked or held by a live hold.
func (m *Manager) PlaceHold(ctx context.Context, in PlaceHoldInput) (*domain.Hold, error) {
	ctx, span := tracer.Start(ctx, "reservation.PlaceHold")
	defer span.End()

	if len(in.SeatIDs) == 0 {
		return nil, recordErr(span, fmt.Errorf("%w: no seats selected", domain.ErrInvalidSeat))
	}

	if in.HolderID == "" {
		return nil, recordErr(span, errors.New("holder is required"))
	}

	inv, err := m.store.inventory(in.ScreeningID)
	if err != nil {
		return nil, recordErr(span, err)
	}

	ttl := m.clampTTL(in.TTL)

	inv.mu.Lock()
	defer inv.mu.Unlock()

	seats, err := inv.lookup(in.SeatIDs)
	if err != nil {
		return nil, recordErr(span, err)
	}

	now := m.store.now()

	var unavailable []domain.SeatID
	stale := make(map[uuid.UUID]bool)

	for _, id := range in.SeatIDs {
		state := inv.seats[id].state

		switch state.Status {
		case domain.SeatBooked:
			unavailable = append(unavailable, id)
		case domain.SeatHeld:
			entry, ok := inv.holds[state.HoldID]
			if ok && (entry.inFlight || !entry.hold.Expired(now)) {
				unavailable = append(unavailable, id)
			} else if ok {
				stale[state.HoldID] = true
			}
		}
	}

	if len(unavailable) > 0 {
		m.metrics.holdConflicts.Add(ctx, 1)
		return nil, recordErr(span, &domain.SeatUnavailableError{ScreeningID: in.ScreeningID, SeatIDs: unavailable})
	}

	for holdID := range stale {
		m.expireLocked(ctx, inv, holdID)
	}

	hold := domain.Hold{
		ID:           uuid.New(),
		ScreeningID:  in.ScreeningID,
		HolderID:     in.HolderID,
		ContactEmail: in.ContactEmail,
		Seats:        slices.Clone(in.SeatIDs),
		Amount:       m.pricing.Total(seats, inv.screening),
		ExpiresAt:    now.Add(ttl),
		CreatedAt:    now,
	}

	if m.locker != nil {
		err = m.locker.Lock(ctx, in.ScreeningID, hold.Seats, hold.ID.String(), ttl)
		if err != nil {
			if errors.Is(err, domain.ErrSeatUnavailable) {
				m.metrics.holdConflicts.Add(ctx, 1)
			}
			return nil, recordErr(span, fmt.Errorf("failed to lock seats: %w", err))
		}
	}

	inv.hold(&holdEntry{hold: hold})
	m.remember(hold)
	m.metrics.holdsPlaced.Add(ctx, 1)

	m.logger.Debug("hold placed",
		"hold_id", hold.ID,
		"screening_id", hold.ScreeningID,
		"seats", hold.Seats,
		"expires_at", hold.ExpiresAt)

	return cloneHold(hold), nil
}

// Hold returns a live hold. Expired holds fail with domain.ErrHoldExpired.
func (m *Manager) Hold(ctx context.Context, holdID uuid.UUID) (*domain.Hold, error) {
	ref, inv, err := m.locate(holdID)
	if err != nil {
		return nil, err
	}

	inv.mu.Lock()
	defer inv.mu.Unlock()

	entry, err := m.liveHold(ctx, inv, holdID, ref)
	if err != nil {
		return nil, err
	}

	return cloneHold(entry.hold), nil
}

// AttachPayment creates a payment intent for the hold total and binds it to the hold.
// Calling it again returns the intent already bound.
func (m *Manager) AttachPayment(ctx context.Context, holdID uuid.UUID) (*domain.PaymentIntent, error) {
	ref, inv, err := m.locate(holdID)
	if err != nil {
		return nil, err
	}

	inv.mu.Lock()
	entry, err := m.liveHold(ctx, inv, holdID, ref)
	if err != nil {
		inv.mu.Unlock()
		return nil, err
	}

	if existing := boundIntent(entry, m.cfg.Currency); existing != nil {
		inv.mu.Unlock()
		return existing, nil
	}

	hold := cloneHold(entry.hold)
	inv.mu.Unlock()

	metadata := map[string]string{
		"hold_id":      hold.ID.String(),
		"screening_id": fmt.Sprint(hold.ScreeningID),
		"holder_id":    hold.HolderID,
	}

	gatewayCtx, cancel := context.WithTimeout(ctx, m.cfg.PaymentTimeout)
	defer cancel()

	intent, err := m.payments.CreatePaymentIntent(gatewayCtx, hold.Amount, m.cfg.Currency, metadata)
	if err != nil {
		return nil, gatewayErr(err)
	}

	inv.mu.Lock()
	defer inv.mu.Unlock()

	entry, err = m.liveHold(ctx, inv, holdID, ref)
	if err != nil {
		m.logger.Warn("payment intent created for a hold that is gone", "hold_id", holdID, "payment_intent_id", intent.ID)
		return nil, err
	}

	if existing := boundIntent(entry, m.cfg.Currency); existing != nil {
		return existing, nil
	}

	entry.hold.PaymentIntentID = intent.ID
	entry.clientSecret = intent.ClientSecret

	m.indexMu.Lock()
	m.intents[intent.ID] = holdID
	m.indexMu.Unlock()

	return intent, nil
}

// ConfirmHold asks the payment gateway for the outcome of paymentRef and converts the
// hold into a booking when it was paid. A declined payment releases the seats. When the
// gateway cannot be reached the hold is left untouched and stays valid until it expires.
//
// Expiry is checked only on entry. Once the gateway call has started the hold cannot
// expire, so a payment taken while the call was in flight is always committed.
func (m *Manager) ConfirmHold(ctx context.Context, holdID uuid.UUID, paymentRef string) (*domain.Booking, error) {
	ctx, span := tracer.Start(ctx, "reservation.ConfirmHold")
	defer span.End()

	if paymentRef == "" {
		return nil, recordErr(span, fmt.Errorf("%w: payment reference is required", domain.ErrPaymentMismatch))
	}

	ref, inv, err := m.locate(holdID)
	if err != nil {
		return nil, recordErr(span, err)
	}

	inv.mu.Lock()

	entry, err := m.liveHold(ctx, inv, holdID, ref)
	if err != nil {
		inv.mu.Unlock()
		return nil, recordErr(span, err)
	}

	if entry.inFlight {
		inv.mu.Unlock()
		return nil, recordErr(span, domain.ErrHoldBusy)
	}

	if entry.hold.PaymentIntentID != "" && entry.hold.PaymentIntentID != paymentRef {
		inv.mu.Unlock()
		return nil, recordErr(span, fmt.Errorf("%w: hold is bound to another payment", domain.ErrPaymentMismatch))
	}

	entry.inFlight = true
	hold := cloneHold(entry.hold)
	inv.mu.Unlock()

	outcome, err := m.paymentOutcome(ctx, hold, paymentRef)

	// Once the gateway answered, the result is committed even if the caller went away.
	ctx = context.WithoutCancel(ctx)

	inv.mu.Lock()
	defer inv.mu.Unlock()

	entry, ok := inv.holds[holdID]
	if !ok {
		return nil, recordErr(span, domain.ErrHoldNotFound)
	}

	entry.inFlight = false

	if err != nil {
		return nil, recordErr(span, err)
	}

	switch outcome {
	case domain.PaymentDeclined:
		m.releaseLocked(ctx, inv, holdID)
		m.forget(holdID, paymentRef)
		m.metrics.paymentsDeclined.Add(ctx, 1)
		return nil, recordErr(span, domain.ErrPaymentDeclined)
	case domain.PaymentIncomplete:
		return nil, recordErr(span, domain.ErrPaymentIncomplete)
	}

	status := domain.BookingStatusConfirmed
	if outcome == domain.PaymentProcessing {
		status = domain.BookingStatusPending
	}

	now := m.store.now()
	booking := &domain.Booking{
		ID:           uuid.New(),
		UserID:       hold.HolderID,
		ScreeningID:  hold.ScreeningID,
		Seats:        slices.Clone(hold.Seats),
		TotalPrice:   hold.Amount,
		PaymentRef:   paymentRef,
		ContactEmail: hold.ContactEmail,
		Status:       status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = m.bookings.Create(ctx, booking)
	if err != nil {
		if errors.Is(err, domain.ErrSeatUnavailable) {
			// Another instance booked one of these seats first.
			m.releaseLocked(ctx, inv, holdID)
			m.forget(holdID, paymentRef)
			m.logger.Error("paid hold lost its seats to another booking",
				"hold_id", holdID,
				"payment_ref", paymentRef,
				"error", err)
			return nil, recordErr(span, err)
		}

		return nil, recordErr(span, fmt.Errorf("failed to persist booking: %w", err))
	}

	inv.book(holdID, booking.ID)
	m.unlockSeats(ctx, hold)
	m.forget(holdID, paymentRef)
	m.metrics.bookings.Add(ctx, 1, statusAttr(status))

	m.logger.Info("hold converted to booking",
		"hold_id", holdID,
		"booking_id", booking.ID,
		"status", booking.Status)

	return booking, nil
}

// ReleaseHold returns the hold's seats to available. Releasing an unknown, expired or
// already released hold is a no-op.
func (m *Manager) ReleaseHold(ctx context.Context, holdID uuid.UUID) error {
	_, inv, err := m.locate(holdID)
	if err != nil {
		if errors.Is(err, domain.ErrHoldNotFound) {
			return nil
		}
		return err
	}

	inv.mu.Lock()
	defer inv.mu.Unlock()

	entry, ok := inv.holds[holdID]
	if !ok {
		return nil
	}

	if entry.inFlight {
		return domain.ErrHoldBusy
	}

	intentID := entry.hold.PaymentIntentID
	m.releaseLocked(ctx, inv, holdID)
	m.forget(holdID, intentID)

	return nil
}

// SettlePayment applies an asynchronous payment result reported by the gateway. A pending
// booking is confirmed or cancelled; a hold still waiting for that payment is confirmed or
// released. A payment whose booking was already settled returns the booking together with
// ErrPaymentSettled. A nil booking with a nil error means the result was left to a
// confirmation already in progress, or the hold was released.
func (m *Manager) SettlePayment(ctx context.Context, paymentRef string, succeeded bool) (*domain.Booking, error) {
	booking, err := m.bookings.GetByPaymentRef(ctx, paymentRef)
	switch {
	case err == nil:
		if booking.Status != domain.BookingStatusPending {
			return booking, domain.ErrPaymentSettled
		}

		if !succeeded {
			return m.cancel(ctx, booking)
		}

		err = m.bookings.UpdateStatus(ctx, booking.ID, domain.BookingStatusConfirmed)
		if err != nil {
			return nil, fmt.Errorf("failed to confirm booking: %w", err)
		}

		booking.Status = domain.BookingStatusConfirmed
		m.metrics.bookings.Add(ctx, 1, statusAttr(booking.Status))

		return booking, nil
	case !errors.Is(err, domain.ErrRecordNotFound):
		return nil, err
	}

	m.indexMu.Lock()
	holdID, ok := m.intents[paymentRef]
	m.indexMu.Unlock()

	if !ok {
		return nil, domain.ErrRecordNotFound
	}

	if succeeded {
		booking, err = m.ConfirmHold(ctx, holdID, paymentRef)
	} else {
		err = m.ReleaseHold(ctx, holdID)
	}

	if errors.Is(err, domain.ErrHoldBusy) {
		// The confirmation in progress reads the same payment outcome.
		return nil, nil
	}

	return booking, err
}

// CancelBooking cancels a booking owned by holderID and frees its seats.
func (m *Manager) CancelBooking(ctx context.Context, bookingID uuid.UUID, holderID string) (*domain.Booking, error) {
	booking, err := m.bookings.GetById(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if booking.UserID != holderID {
		return nil, domain.ErrRecordNotFound
	}

	if !booking.Active() {
		return booking, domain.ErrBookingCancelled
	}

	return m.cancel(ctx, booking)
}

func (m *Manager) cancel(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	inv, err := m.store.inventory(booking.ScreeningID)
	if err != nil {
		return nil, err
	}

	inv.mu.Lock()
	defer inv.mu.Unlock()

	err = m.bookings.UpdateStatus(ctx, booking.ID, domain.BookingStatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel booking: %w", err)
	}

	inv.unbook(*booking)
	booking.Status = domain.BookingStatusCancelled
	m.metrics.bookings.Add(ctx, 1, statusAttr(booking.Status))

	return booking, nil
}

// Sweep releases every expired hold that is not being confirmed and returns how many
// were released.
func (m *Manager) Sweep(ctx context.Context) int {
	now := m.store.now()
	released := 0

	for _, inv := range m.store.inventories() {
		inv.mu.Lock()
		for _, holdID := range inv.expiredHolds(now) {
			m.expireLocked(ctx, inv, holdID)
			released++
		}
		inv.mu.Unlock()
	}

	m.pruneTombstones(now)

	return released
}

// Run sweeps expired holds every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if released := m.Sweep(ctx); released > 0 {
				m.logger.Info("released expired holds", "count", released)
			}
		}
	}
}

// Restore marks the seats of every persisted, non-cancelled booking as booked.
func (m *Manager) Restore(ctx context.Context) error {
	bookings, err := m.bookings.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load bookings: %w", err)
	}

	restored := 0

	for _, booking := range bookings {
		if !booking.Active() {
			continue
		}

		inv, err := m.store.inventory(booking.ScreeningID)
		if err != nil {
			m.logger.Warn("booking refers to an unknown screening", "booking_id", booking.ID, "screening_id", booking.ScreeningID)
			continue
		}

		inv.mu.Lock()
		err = inv.restore(booking)
		inv.mu.Unlock()

		if err != nil {
			return fmt.Errorf("failed to restore booking %s: %w", booking.ID, err)
		}

		restored++
	}

	m.logger.Info("restored bookings", "count", restored)

	return nil
}

type QuotedSeat struct {
	Seat  domain.Seat
	Price decimal.Decimal
}

type Quote struct {
	ScreeningID int
	Seats       []QuotedSeat
	Total       decimal.Decimal
}

// Quote prices seats without holding them.
func (m *Manager) Quote(screeningID int, seatIDs []domain.SeatID) (*Quote, error) {
	screening, err := m.store.Screening(screeningID)
	if err != nil {
		return nil, err
	}

	seats, err := m.store.Seats(screeningID, seatIDs)
	if err != nil {
		return nil, err
	}

	quote := &Quote{ScreeningID: screeningID, Total: m.pricing.Total(seats, screening)}
	for _, seat := range seats {
		quote.Seats = append(quote.Seats, QuotedSeat{Seat: seat, Price: m.pricing.Price(seat.Type, screening)})
	}

	return quote, nil
}

func (m *Manager) clampTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		ttl = m.cfg.DefaultHoldTTL
	}

	if ttl < m.cfg.MinHoldTTL {
		return m.cfg.MinHoldTTL
	}

	if ttl > m.cfg.MaxHoldTTL {
		return m.cfg.MaxHoldTTL
	}

	return ttl
}

func (m *Manager) paymentOutcome(ctx context.Context, hold *domain.Hold, paymentRef string) (domain.PaymentOutcome, error) {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.PaymentTimeout)
	defer cancel()

	intent, err := m.payments.GetPaymentIntent(ctx, paymentRef)
	if err != nil {
		return "", gatewayErr(err)
	}

	if holdID, ok := intent.Metadata["hold_id"]; ok && holdID != hold.ID.String() {
		return "", fmt.Errorf("%w: payment belongs to another hold", domain.ErrPaymentMismatch)
	}

	if intent.Outcome == domain.PaymentSucceeded || intent.Outcome == domain.PaymentProcessing {
		if intent.Amount.LessThan(hold.Amount) {
			return "", fmt.Errorf("%w: paid %s, hold total is %s", domain.ErrPaymentMismatch, intent.Amount, hold.Amount)
		}
	}

	return intent.Outcome, nil
}

func (m *Manager) locate(holdID uuid.UUID) (holdRef, *screeningInventory, error) {
	m.indexMu.Lock()
	ref, ok := m.index[holdID]
	m.indexMu.Unlock()

	if !ok {
		return holdRef{}, nil, domain.ErrHoldNotFound
	}

	inv, err := m.store.inventory(ref.screeningID)
	if err != nil {
		return holdRef{}, nil, err
	}

	return ref, inv, nil
}

// liveHold requires inv.mu. An expired hold found here is released on the spot.
func (m *Manager) liveHold(ctx context.Context, inv *screeningInventory, holdID uuid.UUID, ref holdRef) (*holdEntry, error) {
	now := m.store.now()

	entry, ok := inv.holds[holdID]
	if !ok {
		if !now.Before(ref.expiresAt) {
			return nil, domain.ErrHoldExpired
		}
		return nil, domain.ErrHoldNotFound
	}

	if !entry.inFlight && entry.hold.Expired(now) {
		m.expireLocked(ctx, inv, holdID)
		return nil, domain.ErrHoldExpired
	}

	return entry, nil
}

// expireLocked releases an expired hold but keeps its id answering ErrHoldExpired.
func (m *Manager) expireLocked(ctx context.Context, inv *screeningInventory, holdID uuid.UUID) {
	entry, ok := inv.holds[holdID]
	if !ok {
		return
	}

	intentID := entry.hold.PaymentIntentID
	m.releaseLocked(ctx, inv, holdID)

	if intentID != "" {
		m.indexMu.Lock()
		delete(m.intents, intentID)
		m.indexMu.Unlock()
	}

	m.metrics.holdsExpired.Add(ctx, 1)
	m.logger.Debug("hold expired", "hold_id", holdID, "screening_id", entry.hold.ScreeningID)
}

func (m *Manager) releaseLocked(ctx context.Context, inv *screeningInventory, holdID uuid.UUID) {
	entry, ok := inv.holds[holdID]
	if !ok {
		return
	}

	hold := entry.hold
	inv.release(holdID)
	m.unlockSeats(ctx, &hold)
}

func (m *Manager) unlockSeats(ctx context.Context, hold *domain.Hold) {
	if m.locker == nil {
		return
	}

	err := m.locker.Unlock(context.WithoutCancel(ctx), hold.ScreeningID, hold.Seats, hold.ID.String())
	if err != nil {
		// The lock still expires on its own after the hold TTL.
		m.logger.Error("failed to unlock seats", "hold_id", hold.ID, "error", err)
	}
}

func (m *Manager) remember(hold domain.Hold) {
	m.indexMu.Lock()
	defer m.indexMu.Unlock()

	m.index[hold.ID] = holdRef{screeningID: hold.ScreeningID, expiresAt: hold.ExpiresAt}
}

func (m *Manager) forget(holdID uuid.UUID, intentID string) {
	m.indexMu.Lock()
	defer m.indexMu.Unlock()

	delete(m.index, holdID)
	if intentID != "" {
		delete(m.intents, intentID)
	}
}

func (m *Manager) pruneTombstones(now time.Time) {
	cutoff := now.Add(-m.cfg.TombstoneRetention)

	m.indexMu.Lock()
	defer m.indexMu.Unlock()

	for id, ref := range m.index {
		if ref.expiresAt.Before(cutoff) {
			delete(m.index, id)
		}
	}
}

func boundIntent(entry *holdEntry, currency string) *domain.PaymentIntent {
	if entry.hold.PaymentIntentID == "" {
		return nil
	}

	return &domain.PaymentIntent{
		ID:           entry.hold.PaymentIntentID,
		ClientSecret: entry.clientSecret,
		Amount:       entry.hold.Amount,
		Currency:     currency,
		Outcome:      domain.PaymentIncomplete,
	}
}

func gatewayErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, domain.ErrGatewayUnavailable) {
		return fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}

	return err
}

func cloneHold(hold domain.Hold) *domain.Hold {
	hold.Seats = slices.Clone(hold.Seats)
	return &hold
}
