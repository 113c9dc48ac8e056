package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/metinatakli/cinema-booking/api"
	"github.com/metinatakli/cinema-booking/internal/domain"
	"github.com/metinatakli/cinema-booking/internal/events"
	"github.com/metinatakli/cinema-booking/internal/payment"
	"github.com/metinatakli/cinema-booking/internal/pricing"
	"github.com/metinatakli/cinema-booking/internal/repository"
	"github.com/metinatakli/cinema-booking/internal/reservation"
	"github.com/metinatakli/cinema-booking/internal/validator"
	"golang.org/x/crypto/bcrypt"
)

const (
	testAdminUsername = "admin"
	testAdminPassword = "pa55word"
)

// testDay is the day of the seed catalog. Screening 1 starts at 14:00 (base 10.00) and
// screening 2 at 19:30 (base 12.50, prime time).
var testDay = time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)

var testAdminPasswordHash = func() string {
	hash, err := bcrypt.GenerateFromPassword([]byte(testAdminPassword), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}

	return string(hash)
}()

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

// testDeps are the collaborators of a test application that tests drive directly.
type testDeps struct {
	clock    *testClock
	payments *payment.MockPaymentProvider
	gateway  *gatedGateway
	bookings *repository.MemoryBookingRepository
}

// gatedGateway can hold the next GetPaymentIntent call until the test lets it through.
type gatedGateway struct {
	*payment.MockPaymentProvider

	mu      sync.Mutex
	entered chan struct{}
	release chan struct{}
}

// block makes the next GetPaymentIntent call wait. The returned channel is closed once
// the call is waiting and the returned func lets it continue.
func (g *gatedGateway) block() (<-chan struct{}, func()) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.entered = make(chan struct{})
	g.release = make(chan struct{})

	release := g.release
	return g.entered, func() { close(release) }
}

func (g *gatedGateway) GetPaymentIntent(ctx context.Context, id string) (*domain.PaymentIntent, error) {
	g.mu.Lock()
	entered, release := g.entered, g.release
	g.entered, g.release = nil, nil
	g.mu.Unlock()

	if release != nil {
		close(entered)
		<-release
	}

	return g.MockPaymentProvider.GetPaymentIntent(ctx, id)
}

func newTestApplication(opts ...func(*Application)) (*Application, *testDeps) {
	deps := &testDeps{
		clock:    &testClock{now: testDay.Add(9 * time.Hour)},
		payments: payment.NewMockPaymentProvider(),
		bookings: repository.NewMemoryBookingRepository(),
	}
	deps.gateway = &gatedGateway{MockPaymentProvider: deps.payments}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	catalog := repository.NewSeedCatalogRepository(testDay)
	calculator := pricing.NewCalculator(pricing.DefaultRateTable())

	store := reservation.NewStore(deps.clock.Now)
	if err := store.LoadCatalog(context.Background(), catalog); err != nil {
		panic(err)
	}

	manager := reservation.NewManager(store, calculator, deps.bookings, deps.gateway, reservation.Config{
		MinHoldTTL:     time.Second,
		MaxHoldTTL:     15 * time.Minute,
		DefaultHoldTTL: 10 * time.Minute,
		Currency:       "usd",
	}, reservation.WithLogger(logger))

	doc, err := api.GetSwagger()
	if err != nil {
		panic(err)
	}

	app := &Application{
		config: Config{
			Env:    "test",
			Stripe: StripeConfig{Currency: "usd", WebhookSecret: testWebhookSecret},
			Admin:  AdminConfig{Username: testAdminUsername, PasswordHash: testAdminPasswordHash},
		},
		logger:         logger,
		validator:      validator.NewValidator(),
		sessionManager: scs.New(),
		publisher:      events.NopPublisher{},
		openapi:        doc,
		catalog:        catalog,
		bookings:       deps.bookings,
		pricing:        calculator,
		manager:        manager,
	}

	for _, opt := range opts {
		opt(app)
	}

	return app, deps
}

func executeRequest(t *testing.T, method, url string, body any) (*httptest.ResponseRecorder, *http.Request) {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(jsonData)
	}

	r := httptest.NewRequest(method, url, reader)
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	return w, r
}

// guest is a client that keeps its session cookie between requests.
type guest struct {
	t       *testing.T
	handler http.Handler
	cookies []*http.Cookie
}

func newGuest(t *testing.T, handler http.Handler) *guest {
	return &guest{t: t, handler: handler}
}

func (g *guest) do(method, url string, body any) *httptest.ResponseRecorder {
	w, r := executeRequest(g.t, method, url, body)
	for _, c := range g.cookies {
		r.AddCookie(c)
	}

	g.handler.ServeHTTP(w, r)

	if cookies := w.Result().Cookies(); len(cookies) > 0 {
		g.cookies = cookies
	}

	return w
}

func decodeJSON[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	return v
}

func checkErrorResponse(t *testing.T, w *httptest.ResponseRecorder, tt struct {
	wantStatus     int
	wantErrMessage string
}) {
	if tt.wantStatus >= 200 && tt.wantStatus < 300 {
		return
	}

	switch tt.wantStatus {
	case http.StatusUnprocessableEntity:
		var validationResp api.ValidationErrorResponse
		if err := json.NewDecoder(w.Body).Decode(&validationResp); err != nil {
			t.Fatalf("Failed to decode validation error response: %v", err)
		}

		errorSet := make(map[string]bool)
		for _, vErr := range validationResp.ValidationErrors {
			errorSet[vErr.Issue] = true
		}

		if !errorSet[tt.wantErrMessage] {
			t.Errorf("Expected validation error message '%s' not found in response", tt.wantErrMessage)
		}

	default:
		var errorResp api.ErrorResponse
		if err := json.NewDecoder(w.Body).Decode(&errorResp); err != nil {
			t.Fatalf("Failed to decode error response: %v", err)
		}

		if tt.wantErrMessage != "" && errorResp.Message != tt.wantErrMessage {
			t.Errorf("Error message = %v, want %v", errorResp.Message, tt.wantErrMessage)
		}
	}
}

func ptr[T any](v T) *T {
	return &v
}
