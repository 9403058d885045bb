package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds everything the API server needs.
type Config struct {
	App      AppConfig
	HTTP     HTTPConfig
	DB       DBConfig
	Redis    RedisConfig
	Stripe   StripeConfig
	Checkout CheckoutConfig
}

// ClientConfig holds the storefront client settings (catalog, checkout and local snapshot).
type ClientConfig struct {
	App      AppConfig
	Client   StorefrontConfig
	Snapshot SnapshotConfig
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

func LoadClient() (*ClientConfig, error) {
	var cfg ClientConfig
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing client config: %w", err)
	}
	if strings.TrimSpace(cfg.Snapshot.Key) == "" {
		return nil, fmt.Errorf("%s must not be empty", EnvSnapshotKey)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"INDSTORE_APP_ENV" default:"dev"`
	Port         string `envconfig:"INDSTORE_APP_PORT" default:"3001"`
	LogLevel     string `envconfig:"INDSTORE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"INDSTORE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type HTTPConfig struct {
	CORSOrigins     []string      `envconfig:"INDSTORE_CORS_ORIGINS" default:"http://localhost:3000"`
	ReadTimeout     time.Duration `envconfig:"INDSTORE_HTTP_READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"INDSTORE_HTTP_WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"INDSTORE_HTTP_SHUTDOWN_TIMEOUT" default:"10s"`
}

type DBConfig struct {
	DSN         string `envconfig:"INDSTORE_DB_DSN"`
	Driver      string `envconfig:"INDSTORE_DB_DRIVER" default:"postgres"`
	AutoMigrate bool   `envconfig:"INDSTORE_DB_AUTO_MIGRATE" default:"false"`

	MaxOpenConns    int           `envconfig:"INDSTORE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"INDSTORE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"INDSTORE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"INDSTORE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// NormalizedDriver returns the lower-cased driver name.
func (db DBConfig) NormalizedDriver() string {
	return strings.ToLower(strings.TrimSpace(db.Driver))
}

type RedisConfig struct {
	URL          string        `envconfig:"INDSTORE_REDIS_URL"`
	Address      string        `envconfig:"INDSTORE_REDIS_ADDR"`
	Password     string        `envconfig:"INDSTORE_REDIS_PASSWORD"`
	DB           int           `envconfig:"INDSTORE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"INDSTORE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"INDSTORE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"INDSTORE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"INDSTORE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"INDSTORE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a Redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type StripeConfig struct {
	APIKey string `envconfig:"INDSTORE_STRIPE_API_KEY" required:"true"`
	Env    string `envconfig:"INDSTORE_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type CheckoutConfig struct {
	SuccessURL      string        `envconfig:"INDSTORE_CHECKOUT_SUCCESS_URL" default:"http://localhost:3000/?success=true"`
	CancelURL       string        `envconfig:"INDSTORE_CHECKOUT_CANCEL_URL" default:"http://localhost:3000/?canceled=true"`
	RateLimitWindow time.Duration `envconfig:"INDSTORE_CHECKOUT_RATE_LIMIT_WINDOW" default:"1m"`
	RateLimitPerIP  int           `envconfig:"INDSTORE_CHECKOUT_RATE_LIMIT_IP_LIMIT" default:"20"`
	IdempotencyTTL  time.Duration `envconfig:"INDSTORE_CHECKOUT_IDEMPOTENCY_TTL" default:"24h"`
	ProviderTimeout time.Duration `envconfig:"INDSTORE_CHECKOUT_PROVIDER_TIMEOUT" default:"15s"`
}

type StorefrontConfig struct {
	CatalogURL      string        `envconfig:"INDSTORE_CATALOG_URL" default:"http://localhost:3001"`
	CheckoutURL     string        `envconfig:"INDSTORE_CHECKOUT_URL" default:"http://localhost:3001"`
	RequestTimeout  time.Duration `envconfig:"INDSTORE_CLIENT_REQUEST_TIMEOUT" default:"10s"`
	BreakerFailures uint32        `envconfig:"INDSTORE_CLIENT_BREAKER_FAILURES" default:"5"`
	BreakerCooldown time.Duration `envconfig:"INDSTORE_CLIENT_BREAKER_COOLDOWN" default:"30s"`
}

type SnapshotConfig struct {
	Path string `envconfig:"INDSTORE_SNAPSHOT_PATH" default:"indstore.db"`
	Key  string `envconfig:"INDSTORE_SNAPSHOT_KEY" default:"ind_store_pro"`
}

func (db *DBConfig) validate() error {
	switch db.NormalizedDriver() {
	case DriverPostgres:
		if strings.TrimSpace(db.DSN) == "" {
			return fmt.Errorf("%s is required for the %s driver", EnvDBDSN, DriverPostgres)
		}
	case DriverSQLite:
		if strings.TrimSpace(db.DSN) == "" {
			db.DSN = "file:indstore-catalog.db?cache=shared"
		}
	default:
		return fmt.Errorf("%s must be %q or %q", EnvDBDriver, DriverPostgres, DriverSQLite)
	}
	return nil
}
