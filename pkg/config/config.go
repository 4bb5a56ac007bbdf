package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is the namespace shared by every environment variable the
// service reads.
const EnvPrefix = "SRR"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	FeatureFlags FeatureFlagsConfig
	Stripe       StripeConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SRR_APP_ENV" default:"dev"`
	Port         string `envconfig:"SRR_APP_PORT" default:"8080"`
	BaseURL      string `envconfig:"SRR_APP_BASE_URL" default:"http://localhost:8080"`
	LogLevel     string `envconfig:"SRR_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SRR_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	Driver string `envconfig:"SRR_DB_DRIVER" default:"sqlite"`
	DSN    string `envconfig:"SRR_DB_DSN" default:"app.db"`

	MaxOpenConns    int           `envconfig:"SRR_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SRR_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SRR_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SRR_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (db DBConfig) validate() error {
	switch db.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported db driver %q", db.Driver)
	}
	if db.DSN == "" {
		return fmt.Errorf("SRR_DB_DSN is required")
	}
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"SRR_REDIS_URL"`
	Address      string        `envconfig:"SRR_REDIS_ADDR" default:"localhost:6379"`
	Password     string        `envconfig:"SRR_REDIS_PASSWORD"`
	DB           int           `envconfig:"SRR_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SRR_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SRR_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SRR_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SRR_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SRR_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"SRR_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"SRR_JWT_ISSUER" default:"stripe-recurring-revenue"`
	ExpirationMinutes int    `envconfig:"SRR_JWT_EXPIRATION_MINUTES" default:"60"`
	SessionTTLMinutes int    `envconfig:"SRR_SESSION_TTL_MINUTES" default:"1440"`
}

// SessionTTL returns the redis session lifetime configured in minutes.
func (j JWTConfig) SessionTTL() time.Duration {
	if j.SessionTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.SessionTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"SRR_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"SRR_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"SRR_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"SRR_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"SRR_ARGON_KEY_LEN" default:"32"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SRR_AUTO_MIGRATE" default:"false"`
}

type StripeConfig struct {
	APIKey string `envconfig:"SRR_STRIPE_API_KEY"`
	// WebhookSecret enables signature verification when set. Leaving it
	// empty switches the webhook endpoint into unverified mode, which is
	// only acceptable for local development and tests.
	WebhookSecret      string `envconfig:"SRR_STRIPE_WEBHOOK_SECRET"`
	Env                string `envconfig:"SRR_STRIPE_ENV" default:"test"`
	MonthlyPriceID     string `envconfig:"SRR_STRIPE_MONTHLY_PRICE_ID"`
	YearlyPriceID      string `envconfig:"SRR_STRIPE_YEARLY_PRICE_ID"`
	EntitlementPageCap int64  `envconfig:"SRR_STRIPE_ENTITLEMENT_PAGE_CAP" default:"100"`
	// EventRetentionHours bounds how long processed webhook event ids are
	// remembered for duplicate suppression.
	EventRetentionHours int `envconfig:"SRR_STRIPE_EVENT_RETENTION_HOURS" default:"24"`
}

// EventRetention returns the webhook dedupe window as a duration.
func (s StripeConfig) EventRetention() time.Duration {
	if s.EventRetentionHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(s.EventRetentionHours) * time.Hour
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

// PriceIDFor maps a subscription interval to its configured price id.
func (s StripeConfig) PriceIDFor(subscriptionType string) (string, bool) {
	switch subscriptionType {
	case "monthly":
		return s.MonthlyPriceID, s.MonthlyPriceID != ""
	case "yearly":
		return s.YearlyPriceID, s.YearlyPriceID != ""
	default:
		return "", false
	}
}
