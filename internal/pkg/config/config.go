package config

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Store drivers accepted in STORE_DRIVER.
const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	StoreDriver string   `env:"STORE_DRIVER, default=mongo"`
	CORSOrigins []string `env:"BACKEND_CORS_ORIGINS"`
	FrontendURL string   `env:"FRONTEND_URL, default=http://localhost:3000"`

	Auth     AuthConfig
	Argon2   Argon2Config
	Mongo    MongoConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Mail     MailConfig
	Notify   NotifyConfig
}

type AuthConfig struct {
	Secret    string `env:"SECRET, required"`
	Algorithm string `env:"ALGORITHM, default=HS256"`
	// Lifetimes are in seconds.
	AccessTokenExpire int  `env:"ACCESS_TOKEN_EXPIRE_SECOND,            default=900"`
	VerifyTokenExpire int  `env:"VERIFICATION_TOKEN_LIFETIME_SECONDS,   default=3600"`
	ResetTokenExpire  int  `env:"RESET_PASSWORD_TOKEN_LIFETIME_SECONDS, default=3600"`
	RehashOnLogin     bool `env:"REHASH_ON_LOGIN,                       default=true"`
}

// Argon2Config tunes new password hashes. Zero values use the hasher's
// defaults.
type Argon2Config struct {
	Time    uint32 `env:"ARGON2_TIME"`
	Memory  uint32 `env:"ARGON2_MEMORY_KIB"`
	Threads uint8  `env:"ARGON2_THREADS"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=blog"`
}

type PostgresConfig struct {
	// URL takes precedence over the discrete fields when set.
	URL      string `env:"DATABASE_URL"`
	Host     string `env:"POSTGRES_HOST,     default=localhost"`
	Port     int    `env:"POSTGRES_PORT,     default=5432"`
	User     string `env:"POSTGRES_USER,     default=postgres"`
	Password string `env:"POSTGRES_PASSWORD"`
	Database string `env:"POSTGRES_DB,       default=blog"`
	MaxConns int32  `env:"POSTGRES_MAX_CONNS, default=10"`
}

type RedisConfig struct {
	Addr           string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password       string `env:"REDIS_PASSWORD"`
	DB             int    `env:"REDIS_DB,       default=0"`
	IdempotencyTTL int    `env:"IDEMPOTENCY_TTL_SECONDS, default=86400"`
}

// MailConfig enables SMTP delivery when Server is set.
type MailConfig struct {
	Server   string `env:"MAIL_SERVER"`
	Port     int    `env:"MAIL_PORT, default=465"`
	Username string `env:"MAIL_USERNAME"`
	Password string `env:"MAIL_PASSWORD"`
	From     string `env:"MAIL_FROM, default=noreply@localhost"`
	FromName string `env:"MAIL_FROM_NAME, default=Blog"`
}

type NotifyConfig struct {
	Workers int `env:"NOTIFY_WORKERS, default=4"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadFrom(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadFrom reads configuration from l and validates it.
func LoadFrom(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case DriverMongo, DriverPostgres:
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", DriverMongo, DriverPostgres, c.StoreDriver)
	}
	if c.Auth.AccessTokenExpire < 0 || c.Auth.VerifyTokenExpire < 0 || c.Auth.ResetTokenExpire < 0 {
		return errors.New("token lifetimes must not be negative")
	}
	return nil
}

// IsProduction reports whether ENV is production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c AuthConfig) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenExpire) * time.Second
}

func (c AuthConfig) VerifyTokenTTL() time.Duration {
	return time.Duration(c.VerifyTokenExpire) * time.Second
}

func (c AuthConfig) ResetTokenTTL() time.Duration {
	return time.Duration(c.ResetTokenExpire) * time.Second
}

// DSN returns the connection string for pgx.
func (c PostgresConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/" + c.Database,
	}
	return u.String()
}
