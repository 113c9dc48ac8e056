package app

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/metinatakli/cinema-booking/internal/domain"
	"github.com/metinatakli/cinema-booking/internal/pricing"
	"github.com/shopspring/decimal"
)

type Config struct {
	Port             int
	Env              string
	OtelCollectorUrl string
	DB               DBConfig
	Redis            RedisConfig
	SMTP             SMTPConfig
	Stripe           StripeConfig
	AMQP             AMQPConfig
	Reservation      ReservationConfig
	Pricing          PricingConfig
	Admin            AdminConfig
}

type DBConfig struct {
	DSN          string
	MaxOpenConns int
	MaxIdleTime  time.Duration
	// AutoMigrate applies the embedded migrations on startup.
	AutoMigrate bool
}

type RedisConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
	MaxIdleTime  time.Duration
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Sender   string
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	Currency      string
}

type AMQPConfig struct {
	URL string
}

type ReservationConfig struct {
	MinHoldTTL     time.Duration
	MaxHoldTTL     time.Duration
	DefaultHoldTTL time.Duration
	SweepInterval  time.Duration
	PaymentTimeout time.Duration
}

type PricingConfig struct {
	VIPSurcharge        string
	PrimeTimeMultiplier string
	PrimeTimeStart      int
	PrimeTimeEnd        int
}

type AdminConfig struct {
	Username     string
	PasswordHash string
}

// LoadConfig reads a .env file when one exists and parses args. Every flag falls back to
// an environment variable, so the service can be configured either way.
func LoadConfig(args []string) (Config, bool, error) {
	_ = godotenv.Load()

	var cfg Config

	fs := flag.NewFlagSet("cinema-booking", flag.ContinueOnError)

	fs.IntVar(&cfg.Port, "port", envInt("PORT", 3000), "server port")
	fs.StringVar(&cfg.Env, "env", envString("ENV", "dev"), "Environment (dev|staging|prod)")
	fs.StringVar(&cfg.OtelCollectorUrl, "otel-collector-url", envString("OTEL_COLLECTOR_URL", ""), "OpenTelemetry collector gRPC endpoint")

	fs.StringVar(&cfg.DB.DSN, "db-dsn", envString("DB_DSN", ""), "PostgreSQL DSN, in-memory storage when empty")
	fs.IntVar(&cfg.DB.MaxOpenConns, "db-max-open-conns", envInt("DB_MAX_OPEN_CONNS", 25), "PostgreSQL max open connections")
	fs.DurationVar(&cfg.DB.MaxIdleTime, "db-max-idle-time", envDuration("DB_MAX_IDLE_TIME", 15*time.Minute), "PostgreSQL max idle time for connections")
	fs.BoolVar(&cfg.DB.AutoMigrate, "db-auto-migrate", envBool("DB_AUTO_MIGRATE", true), "Apply database migrations on startup")

	fs.StringVar(&cfg.Redis.URL, "redis-url", envString("REDIS_URL", ""), "Redis address, no distributed seat locks when empty")
	fs.IntVar(&cfg.Redis.MaxOpenConns, "redis-max-open-conns", envInt("REDIS_MAX_OPEN_CONNS", 25), "Redis max open connections")
	fs.IntVar(&cfg.Redis.MaxIdleConns, "redis-max-idle-conns", envInt("REDIS_MAX_IDLE_CONNS", 10), "Redis max idle connections")
	fs.DurationVar(&cfg.Redis.MaxIdleTime, "redis-max-idle-time", envDuration("REDIS_MAX_IDLE_TIME", 2*time.Minute), "Redis max idle time for connections")

	fs.StringVar(&cfg.SMTP.Host, "smtp-host", envString("SMTP_HOST", ""), "SMTP host, emails are not sent when empty")
	fs.IntVar(&cfg.SMTP.Port, "smtp-port", envInt("SMTP_PORT", 2525), "SMTP port")
	fs.StringVar(&cfg.SMTP.Username, "smtp-username", envString("SMTP_USERNAME", ""), "SMTP username")
	fs.StringVar(&cfg.SMTP.Password, "smtp-password", envString("SMTP_PASSWORD", ""), "SMTP password")
	fs.StringVar(&cfg.SMTP.Sender, "smtp-sender", envString("SMTP_SENDER", "Cinema Booking <no-reply@cinema.example.com>"), "SMTP sender")

	fs.StringVar(&cfg.Stripe.SecretKey, "stripe-key", envString("STRIPE_KEY", ""), "Stripe secret key, a mock gateway is used when empty")
	fs.StringVar(&cfg.Stripe.WebhookSecret, "stripe-webhook-secret", envString("STRIPE_WEBHOOK_SECRET", ""), "Stripe webhook secret")
	fs.StringVar(&cfg.Stripe.Currency, "currency", envString("CURRENCY", "usd"), "ISO currency code of every price")

	fs.StringVar(&cfg.AMQP.URL, "amqp-url", envString("AMQP_URL", ""), "RabbitMQ URL, booking events are dropped when empty")

	fs.DurationVar(&cfg.Reservation.MinHoldTTL, "hold-ttl-min", envDuration("HOLD_TTL_MIN", time.Second), "Shortest hold a client may ask for")
	fs.DurationVar(&cfg.Reservation.MaxHoldTTL, "hold-ttl-max", envDuration("HOLD_TTL_MAX", 15*time.Minute), "Longest hold a client may ask for")
	fs.DurationVar(&cfg.Reservation.DefaultHoldTTL, "hold-ttl", envDuration("HOLD_TTL", 10*time.Minute), "Hold duration when the client does not ask for one")
	fs.DurationVar(&cfg.Reservation.SweepInterval, "sweep-interval", envDuration("SWEEP_INTERVAL", 5*time.Second), "How often expired holds are released")
	fs.DurationVar(&cfg.Reservation.PaymentTimeout, "payment-timeout", envDuration("PAYMENT_TIMEOUT", 10*time.Second), "Timeout of a single payment gateway call")

	fs.StringVar(&cfg.Pricing.VIPSurcharge, "price-vip-surcharge", envString("PRICE_VIP_SURCHARGE", "5.00"), "Amount added to the base price of VIP seats")
	fs.StringVar(&cfg.Pricing.PrimeTimeMultiplier, "price-prime-multiplier", envString("PRICE_PRIME_MULTIPLIER", "1.2"), "Price multiplier of prime time screenings")
	fs.IntVar(&cfg.Pricing.PrimeTimeStart, "price-prime-start", envInt("PRICE_PRIME_START", 18), "Hour prime time starts")
	fs.IntVar(&cfg.Pricing.PrimeTimeEnd, "price-prime-end", envInt("PRICE_PRIME_END", 23), "Hour prime time ends")

	fs.StringVar(&cfg.Admin.Username, "admin-username", envString("ADMIN_USERNAME", "admin"), "Username of the reports API")
	fs.StringVar(&cfg.Admin.PasswordHash, "admin-password-hash", envString("ADMIN_PASSWORD_HASH", ""), "bcrypt hash of the reports API password, reports are disabled when empty")

	displayVersion := fs.Bool("version", false, "Display version and exit")

	err := fs.Parse(args)
	if err != nil {
		return Config{}, false, err
	}

	if *displayVersion {
		return cfg, true, nil
	}

	return cfg, false, cfg.validate()
}

func (cfg Config) validate() error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("invalid port %d", cfg.Port)
	}

	if cfg.Reservation.MinHoldTTL <= 0 || cfg.Reservation.MaxHoldTTL < cfg.Reservation.MinHoldTTL {
		return fmt.Errorf("invalid hold ttl bounds [%s, %s]", cfg.Reservation.MinHoldTTL, cfg.Reservation.MaxHoldTTL)
	}

	if cfg.Reservation.SweepInterval <= 0 {
		return fmt.Errorf("sweep interval must be positive")
	}

	_, err := cfg.Pricing.rateTable()

	return err
}

func envString(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}

	return fallback
}

func envInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}

	return fallback
}

func envBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}

	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}

	return fallback
}

func parseDecimal(name, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s %q: %w", name, value, err)
	}

	return d, nil
}

func (p PricingConfig) rateTable() (pricing.RateTable, error) {
	rates := pricing.DefaultRateTable()

	vip, err := parseDecimal("vip surcharge", p.VIPSurcharge)
	if err != nil {
		return rates, err
	}

	multiplier, err := parseDecimal("prime time multiplier", p.PrimeTimeMultiplier)
	if err != nil {
		return rates, err
	}

	if vip.IsNegative() || !multiplier.IsPositive() {
		return rates, fmt.Errorf("vip surcharge must not be negative and prime time multiplier must be positive")
	}

	if p.PrimeTimeStart < 0 || p.PrimeTimeEnd > 24 || p.PrimeTimeStart > p.PrimeTimeEnd {
		return rates, fmt.Errorf("invalid prime time window [%d, %d)", p.PrimeTimeStart, p.PrimeTimeEnd)
	}

	rates.Surcharges[domain.SeatTypeVIP] = vip
	rates.PrimeTimeMultiplier = multiplier
	rates.PrimeTimeStart = p.PrimeTimeStart
	rates.PrimeTimeEnd = p.PrimeTimeEnd

	return rates, nil
}
