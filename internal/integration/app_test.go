package integration_test

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/cinema-booking/internal/app"
	"github.com/metinatakli/cinema-booking/internal/domain"
	"github.com/metinatakli/cinema-booking/internal/events"
	"github.com/metinatakli/cinema-booking/internal/mailer"
	"github.com/metinatakli/cinema-booking/internal/payment"
	"github.com/metinatakli/cinema-booking/internal/pricing"
	"github.com/metinatakli/cinema-booking/internal/repository"
	"github.com/metinatakli/cinema-booking/internal/reservation"
	appvalidator "github.com/metinatakli/cinema-booking/internal/validator"
	"github.com/redis/go-redis/v9"
)

// TestApp is one service instance. Instances built from the same config share the
// database and the redis server, like replicas behind a load balancer.
type TestApp struct {
	App      *app.Application
	DB       *pgxpool.Pool
	Redis    *redis.Client
	Mailer   *mailer.MockMailer
	Manager  *reservation.Manager
	Bookings *repository.PostgresBookingRepository
}

func newTestApp(cfg app.Config) (*TestApp, error) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	mockMailer := mailer.NewMockMailer()

	db, err := app.NewDatabasePool(cfg)
	if err != nil {
		return nil, err
	}

	err = app.RunMigrations(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	redisClient, err := app.NewRedisClient(cfg)
	if err != nil {
		db.Close()
		return nil, err
	}

	catalog := repository.NewPostgresCatalogRepository(db)
	bookings := repository.NewPostgresBookingRepository(db)
	calculator := pricing.NewCalculator(pricing.DefaultRateTable())

	store := reservation.NewStore(time.Now)
	err = store.LoadCatalog(ctx, catalog)
	if err != nil {
		db.Close()
		redisClient.Close()
		return nil, err
	}

	manager := reservation.NewManager(
		store,
		calculator,
		bookings,
		payment.NewMockPaymentProvider().WithAutoOutcome(domain.PaymentSucceeded),
		reservation.Config{
			MinHoldTTL:     time.Second,
			MaxHoldTTL:     15 * time.Minute,
			DefaultHoldTTL: 10 * time.Minute,
			PaymentTimeout: 5 * time.Second,
			Currency:       cfg.Stripe.Currency,
		},
		reservation.WithLogger(logger),
		reservation.WithSeatLocker(repository.NewRedisSeatLocker(redisClient)),
	)

	err = manager.Restore(ctx)
	if err != nil {
		db.Close()
		redisClient.Close()
		return nil, err
	}

	application, err := app.NewApp(
		cfg,
		logger,
		appvalidator.NewValidator(),
		mockMailer,
		app.NewSessionManager(redisClient),
		events.NopPublisher{},
		catalog,
		bookings,
		calculator,
		manager,
	)
	if err != nil {
		db.Close()
		redisClient.Close()
		return nil, err
	}

	return &TestApp{
		App:      application,
		DB:       db,
		Redis:    redisClient,
		Mailer:   mockMailer,
		Manager:  manager,
		Bookings: bookings,
	}, nil
}

func (a *TestApp) Close() {
	a.Redis.Close()
	a.DB.Close()
}
