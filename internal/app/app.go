package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/alexedwards/scs/goredisstore"
	"github.com/alexedwards/scs/v2"
	"github.com/exaring/otelpgx"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/cinema-booking/api"
	"github.com/metinatakli/cinema-booking/internal/domain"
	"github.com/metinatakli/cinema-booking/internal/events"
	"github.com/metinatakli/cinema-booking/internal/mailer"
	"github.com/metinatakli/cinema-booking/internal/payment"
	"github.com/metinatakli/cinema-booking/internal/pricing"
	"github.com/metinatakli/cinema-booking/internal/repository"
	"github.com/metinatakli/cinema-booking/internal/reservation"
	appvalidator "github.com/metinatakli/cinema-booking/internal/validator"
	"github.com/metinatakli/cinema-booking/internal/vcs"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"golang.org/x/sync/errgroup"
)

var (
	version = vcs.Version()
)

type Application struct {
	config         Config
	logger         *slog.Logger
	validator      *validator.Validate
	mailer         mailer.Mailer
	sessionManager *scs.SessionManager
	publisher      events.Publisher
	openapi        *openapi3.T

	catalog  domain.CatalogRepository
	bookings domain.BookingRepository
	pricing  *pricing.Calculator
	manager  *reservation.Manager

	wg sync.WaitGroup
}

func NewApp(
	cfg Config,
	logger *slog.Logger,
	validator *validator.Validate,
	mailer mailer.Mailer,
	sessionManager *scs.SessionManager,
	publisher events.Publisher,
	catalog domain.CatalogRepository,
	bookings domain.BookingRepository,
	calculator *pricing.Calculator,
	manager *reservation.Manager) (*Application, error) {

	doc, err := api.GetSwagger()
	if err != nil {
		return nil, err
	}

	if publisher == nil {
		publisher = events.NopPublisher{}
	}

	return &Application{
		config:         cfg,
		logger:         logger,
		validator:      validator,
		mailer:         mailer,
		sessionManager: sessionManager,
		publisher:      publisher,
		openapi:        doc,
		catalog:        catalog,
		bookings:       bookings,
		pricing:        calculator,
		manager:        manager,
	}, nil
}

// Run wires the service from flags and environment and serves until SIGINT or SIGTERM.
func Run() error {
	cfg, displayVersion, err := LoadConfig(os.Args[1:])
	if err != nil {
		return err
	}

	if displayVersion {
		fmt.Printf("Version:\t%s\n", version)
		return nil
	}

	textHandler := slog.NewTextHandler(os.Stdout, nil)
	logger := slog.New(textHandler)

	shutdownTelemetry, err := InitTelemetry(cfg, logger)
	if err != nil {
		return err
	}
	defer shutdownTelemetry(context.Background())

	if cfg.OtelCollectorUrl != "" {
		logger = slog.New(NewMultiHandler(textHandler, otelslog.NewHandler("github.com/metinatakli/cinema-booking")))
	}

	ctx := context.Background()

	var (
		catalog  domain.CatalogRepository
		bookings domain.BookingRepository
	)

	if cfg.DB.DSN != "" {
		db, err := NewDatabasePool(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		if cfg.DB.AutoMigrate {
			err = RunMigrations(db)
			if err != nil {
				return err
			}
		}

		catalog = repository.NewPostgresCatalogRepository(db)
		bookings = repository.NewPostgresBookingRepository(db)
	} else {
		logger.Warn("database DSN not set, using in-memory storage with a seed catalog")

		catalog = repository.NewSeedCatalogRepository(time.Now())
		bookings = repository.NewMemoryBookingRepository()
	}

	sessionManager := scs.New()
	sessionManager.IdleTimeout = 20 * time.Minute
	sessionManager.Cookie.Name = "session_id"

	var opts []reservation.Option
	opts = append(opts, reservation.WithLogger(logger))

	if cfg.Redis.URL != "" {
		redisClient, err := NewRedisClient(cfg)
		if err != nil {
			return err
		}
		defer redisClient.Close()

		sessionManager = NewSessionManager(redisClient)
		opts = append(opts, reservation.WithSeatLocker(repository.NewRedisSeatLocker(redisClient)))
	}

	var payments domain.PaymentProvider
	if cfg.Stripe.SecretKey != "" {
		payments = payment.NewStripePaymentProvider(cfg.Stripe.SecretKey)
	} else {
		logger.Warn("stripe key not set, payments are simulated and always succeed")
		payments = payment.NewMockPaymentProvider().WithAutoOutcome(domain.PaymentSucceeded)
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.AMQP.URL != "" {
		rabbit, err := events.NewRabbitPublisher(cfg.AMQP.URL)
		if err != nil {
			return err
		}
		defer rabbit.Close()

		publisher = rabbit
	}

	var m mailer.Mailer
	if cfg.SMTP.Host != "" {
		m = mailer.NewSMTPMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.Sender)
	}

	rates, err := cfg.Pricing.rateTable()
	if err != nil {
		return err
	}
	calculator := pricing.NewCalculator(rates)

	store := reservation.NewStore(time.Now)

	err = store.LoadCatalog(ctx, catalog)
	if err != nil {
		return err
	}

	manager := reservation.NewManager(store, calculator, bookings, payments, reservation.Config{
		MinHoldTTL:     cfg.Reservation.MinHoldTTL,
		MaxHoldTTL:     cfg.Reservation.MaxHoldTTL,
		DefaultHoldTTL: cfg.Reservation.DefaultHoldTTL,
		PaymentTimeout: cfg.Reservation.PaymentTimeout,
		Currency:       cfg.Stripe.Currency,
	}, opts...)

	err = manager.Restore(ctx)
	if err != nil {
		return err
	}

	app, err := NewApp(
		cfg,
		logger,
		appvalidator.NewValidator(),
		m,
		sessionManager,
		publisher,
		catalog,
		bookings,
		calculator,
		manager,
	)
	if err != nil {
		return err
	}

	return app.serve()
}

func NewSessionManager(client *redis.Client) *scs.SessionManager {
	sessionManager := scs.New()

	sessionManager.Store = goredisstore.New(client)
	sessionManager.IdleTimeout = 20 * time.Minute
	sessionManager.Cookie.Name = "session_id"

	return sessionManager
}

func NewRedisClient(cfg Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:            cfg.Redis.URL,
		MaxIdleConns:    cfg.Redis.MaxIdleConns,
		MaxActiveConns:  cfg.Redis.MaxOpenConns,
		ConnMaxIdleTime: cfg.Redis.MaxIdleTime,
	})

	err := errors.Join(redisotel.InstrumentTracing(rdb), redisotel.InstrumentMetrics(rdb))
	if err != nil {
		rdb.Close()
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err = rdb.Ping(ctx).Err()
	if err != nil {
		rdb.Close()
		return nil, err
	}

	return rdb, nil
}

func NewDatabasePool(cfg Config) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(cfg.DB.DSN)
	if err != nil {
		return nil, err
	}

	config.MaxConnIdleTime = cfg.DB.MaxIdleTime
	config.MaxConns = int32(cfg.DB.MaxOpenConns)
	config.ConnConfig.Tracer = otelpgx.NewTracer()

	db, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err = db.Ping(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// serve runs the HTTP server and the hold sweeper side by side. A signal or the failure
// of either one stops both; pending background notifications are awaited before return.
func (app *Application) serve() error {
	srv := &http.Server{
		Addr:         fmt.Sprintf("0.0.0.0:%d", app.config.Port),
		Handler:      app.Routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10*time.Second + app.config.Reservation.PaymentTimeout,
		ErrorLog:     slog.NewLogLogger(app.logger.Handler(), slog.LevelDebug),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		app.logger.Info("starting server", "addr", srv.Addr, "env", app.config.Env)

		err := srv.ListenAndServe()
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	g.Go(func() error {
		return app.manager.Run(gCtx, app.config.Reservation.SweepInterval)
	})

	g.Go(func() error {
		<-gCtx.Done()

		app.logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		err := srv.Shutdown(shutdownCtx)

		app.logger.Info("completing background tasks")
		app.wg.Wait()

		return err
	})

	err := g.Wait()
	if err != nil {
		return err
	}

	app.logger.Info("stopped server", "addr", srv.Addr)

	return nil
}
