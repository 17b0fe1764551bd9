package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	defaultAppURL = "http://localhost:3000"
)

// Config is the typed process configuration. Values come from the process
// environment, which env.SetupEnvFile seeds from .env.
type Config struct {
	App     AppConfig
	DB      DBConfig
	Cache   CacheConfig
	Stripe  StripeConfig
	Auth    AuthConfig
	Log     LogConfig
	Metrics MetricsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env        string `envconfig:"APP_ENV" default:"prod"`
	Host       string `envconfig:"APP_HOST" default:"localhost"`
	Port       string `envconfig:"APP_PORT" default:"4000"`
	BaseURL    string `envconfig:"APP_BASE_URL"`
	PublicURL  string `envconfig:"NEXT_PUBLIC_APP_URL"`
	IPHashSalt string `envconfig:"IP_HASH_SALT" default:"change-me"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) ListenAddr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// URL returns the public base URL without trailing slashes. The request origin
// is used when no base URL is configured.
func (a AppConfig) URL(origin string) string {
	for _, candidate := range []string{a.PublicURL, a.BaseURL, origin, defaultAppURL} {
		if strings.TrimSpace(candidate) != "" {
			return strings.TrimRight(strings.TrimSpace(candidate), "/")
		}
	}
	return defaultAppURL
}

type DBConfig struct {
	Host            string        `envconfig:"DB_HOST" default:"127.0.0.1"`
	Port            string        `envconfig:"DB_PORT" default:"3306"`
	User            string        `envconfig:"DB_USER"`
	Password        string        `envconfig:"DB_PASSWORD"`
	Name            string        `envconfig:"DB_NAME"`
	MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnectRetries  uint64        `envconfig:"DB_CONNECT_RETRIES" default:"5"`
	AutoMigrate     bool          `envconfig:"DB_AUTO_MIGRATE" default:"false"`
}

// DSN builds the go-sql-driver/mysql data source name.
func (d DBConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

// MigrateURL builds the golang-migrate database URL.
func (d DBConfig) MigrateURL() string {
	return fmt.Sprintf("mysql://%s:%s@tcp(%s:%s)/%s?multiStatements=true",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

type CacheConfig struct {
	Host     string `envconfig:"CACHE_HOST" default:"localhost"`
	Port     string `envconfig:"CACHE_PORT" default:"6379"`
	Password string `envconfig:"CACHE_PASSWORD"`
}

func (c CacheConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

type StripeConfig struct {
	SecretKey      string `envconfig:"STRIPE_SECRET_KEY"`
	WebhookSecret  string `envconfig:"STRIPE_WEBHOOK_SECRET"`
	PriceMonthlyID string `envconfig:"STRIPE_PRICE_PRO_MONTHLY_USD"`
	PriceYearlyID  string `envconfig:"STRIPE_PRICE_PRO_YEARLY_USD"`
}

// Configured reports whether the Stripe API client can be built.
func (s StripeConfig) Configured() bool {
	return strings.TrimSpace(s.SecretKey) != ""
}

// WebhookConfigured reports whether webhook signatures can be verified.
func (s StripeConfig) WebhookConfigured() bool {
	return s.Configured() && strings.TrimSpace(s.WebhookSecret) != ""
}

type AuthConfig struct {
	MobileJWTSecret    string        `envconfig:"MOBILE_JWT_SECRET"`
	MobileTokenTTL     time.Duration `envconfig:"MOBILE_TOKEN_TTL" default:"1h"`
	GoogleClientID     string        `envconfig:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string        `envconfig:"GOOGLE_CLIENT_SECRET"`
	CookieSecure       bool          `envconfig:"AUTH_COOKIE_SECURE" default:"false"`
}

type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Format string `envconfig:"LOG_FORMAT" default:"json"`
}

type MetricsConfig struct {
	User     string `envconfig:"METRICS_USER" default:"admin"`
	Password string `envconfig:"METRICS_PASSWORD"`
}
