package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jinzhu/copier"
	"github.com/joho/godotenv"
	dbutils "github.com/tendant/db-utils/db"
	"github.com/tendant/simple-storefront/pkg/notification"
	"github.com/tendant/simple-storefront/pkg/ratelimit"
)

const (
	SessionStoreMemory   = "memory"
	SessionStoreFile     = "file"
	SessionStorePostgres = "postgres"
)

type HTTPConfig struct {
	Port           int      `env:"STOREFRONT_PORT" env-default:"4000"`
	BaseUrl        string   `env:"STOREFRONT_BASE_URL" env-default:"http://localhost:4000"`
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" env-separator:"," env-default:"http://localhost:3000,http://localhost:5173"`
}

type RegisterAPIConfig struct {
	URL     string        `env:"REGISTER_API_URL" env-default:"http://localhost:4001"`
	Path    string        `env:"REGISTER_API_PATH" env-default:"/api/users"`
	Timeout time.Duration `env:"REGISTER_API_TIMEOUT" env-default:"10s"`
}

type SessionConfig struct {
	Store           string        `env:"SESSION_STORE" env-default:"memory"`
	FileDir         string        `env:"SESSION_FILE_DIR" env-default:"./data"`
	TTL             time.Duration `env:"SESSION_TTL" env-default:"24h"`
	CleanupInterval time.Duration `env:"SESSION_CLEANUP_INTERVAL" env-default:"10m"`
	Secret          string        `env:"SESSION_SECRET" env-default:"very-secure-session-secret"`
	CookieHttpOnly  bool          `env:"COOKIE_HTTP_ONLY" env-default:"true"`
	CookieSecure    bool          `env:"COOKIE_SECURE" env-default:"false"`
}

type DatabaseConfig struct {
	Host     string `env:"STOREFRONT_PG_HOST" env-default:"localhost"`
	Port     uint16 `env:"STOREFRONT_PG_PORT" env-default:"5432"`
	Database string `env:"STOREFRONT_PG_DATABASE" env-default:"storefront_db"`
	User     string `env:"STOREFRONT_PG_USER" env-default:"storefront"`
	Password string `env:"STOREFRONT_PG_PASSWORD" env-default:"pwd"`
}

func (d DatabaseConfig) ToDbConfig() dbutils.DbConfig {
	return dbutils.DbConfig{
		Host:     d.Host,
		Port:     d.Port,
		Database: d.Database,
		User:     d.User,
		Password: d.Password,
	}
}

type EmailConfig struct {
	Host           string `env:"EMAIL_HOST" env-default:"localhost"`
	Port           uint16 `env:"EMAIL_PORT" env-default:"1025"`
	Username       string `env:"EMAIL_USERNAME"`
	Password       string `env:"EMAIL_PASSWORD"`
	From           string `env:"EMAIL_FROM" env-default:"noreply@example.com"`
	TLS            bool   `env:"EMAIL_TLS" env-default:"false"`
	WelcomeEnabled bool   `env:"WELCOME_EMAIL_ENABLED" env-default:"false"`
}

// ToSMTPConfig maps the email section onto the notifier's SMTP settings.
func (e EmailConfig) ToSMTPConfig() notification.SMTPConfig {
	var smtp notification.SMTPConfig
	if err := copier.Copy(&smtp, &e); err != nil {
		slog.Error("Failed copying email config", "err", err)
	}
	return smtp
}

type RateLimitConfig struct {
	Enabled           bool    `env:"REGISTER_RATE_LIMIT_ENABLED" env-default:"true"`
	Capacity          int     `env:"REGISTER_RATE_LIMIT_CAPACITY" env-default:"5"`
	PerMinute         float64 `env:"REGISTER_RATE_LIMIT_PER_MINUTE" env-default:"5"`
	TrustProxyHeaders bool    `env:"REGISTER_RATE_LIMIT_TRUST_PROXY" env-default:"false"`
}

// ToMiddlewareConfig returns nil when rate limiting is disabled.
func (c RateLimitConfig) ToMiddlewareConfig() *ratelimit.Config {
	if !c.Enabled {
		return nil
	}
	rate := c.PerMinute / 60.0
	return &ratelimit.Config{
		PerIPEnabled:      true,
		PerIPCapacity:     c.Capacity,
		PerIPRefillRate:   rate,
		PerUserEnabled:    true,
		PerUserCapacity:   c.Capacity,
		PerUserRefillRate: rate,
		BucketTTL:         time.Hour,
		IncludeHeaders:    true,
		TrustProxyHeaders: c.TrustProxyHeaders,
	}
}

type LogConfig struct {
	Format string `env:"LOG_FORMAT" env-default:"text"`
	Level  string `env:"LOG_LEVEL" env-default:"info"`
}

// StorefrontConfig is the configuration of the storefront web server.
type StorefrontConfig struct {
	HTTP        HTTPConfig
	RegisterAPI RegisterAPIConfig
	Session     SessionConfig
	Database    DatabaseConfig
	Email       EmailConfig
	RateLimit   RateLimitConfig
	Log         LogConfig
}

func (c StorefrontConfig) Validate() error {
	return CollectErrors(
		RequirePositive("STOREFRONT_PORT", c.HTTP.Port),
		RequireHTTPURL("REGISTER_API_URL", c.RegisterAPI.URL),
		RequirePositiveDuration("REGISTER_API_TIMEOUT", c.RegisterAPI.Timeout),
		RequireOneOf("SESSION_STORE", c.Session.Store, []string{SessionStoreMemory, SessionStoreFile, SessionStorePostgres}),
		RequirePositiveDuration("SESSION_TTL", c.Session.TTL),
		RequirePositiveDuration("SESSION_CLEANUP_INTERVAL", c.Session.CleanupInterval),
		RequireNonEmpty("SESSION_SECRET", c.Session.Secret),
		When(c.Session.Store == SessionStoreFile, func() *ValidationError {
			return RequireNonEmpty("SESSION_FILE_DIR", c.Session.FileDir)
		}),
		When(c.Email.WelcomeEnabled, func() *ValidationError {
			return RequireNonEmpty("EMAIL_FROM", c.Email.From)
		}),
		When(c.RateLimit.Enabled, func() *ValidationError {
			return RequirePositive("REGISTER_RATE_LIMIT_CAPACITY", c.RateLimit.Capacity)
		}),
		When(c.RateLimit.Enabled, func() *ValidationError {
			return RequirePositiveFloat("REGISTER_RATE_LIMIT_PER_MINUTE", c.RateLimit.PerMinute)
		}),
		RequireOneOf("LOG_FORMAT", c.Log.Format, []string{"text", "json"}),
	)
}

// LoadStorefrontConfig reads the environment, after an optional .env file, and validates the result.
func LoadStorefrontConfig() (StorefrontConfig, error) {
	LoadEnvFile()
	var cfg StorefrontConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// RegistrarConfig is the configuration of the stub registration backend.
type RegistrarConfig struct {
	Port      int           `env:"REGISTRAR_PORT" env-default:"4001"`
	JwtSecret string        `env:"REGISTRAR_JWT_SECRET" env-default:"very-secure-jwt-secret"`
	TokenTTL  time.Duration `env:"REGISTRAR_TOKEN_TTL" env-default:"720h"`
	Log       LogConfig
}

func (c RegistrarConfig) Validate() error {
	return CollectErrors(
		RequirePositive("REGISTRAR_PORT", c.Port),
		RequireNonEmpty("REGISTRAR_JWT_SECRET", c.JwtSecret),
		RequirePositiveDuration("REGISTRAR_TOKEN_TTL", c.TokenTTL),
		RequireOneOf("LOG_FORMAT", c.Log.Format, []string{"text", "json"}),
	)
}

func LoadRegistrarConfig() (RegistrarConfig, error) {
	LoadEnvFile()
	var cfg RegistrarConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	return cfg, cfg.Validate()
}

// LoadEnvFile loads a .env file from the executable's directory or, failing
// that, the working directory. Variables already set win.
func LoadEnvFile() {
	var candidates []string
	if execPath, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(execPath), ".env"))
	}
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, ".env"))
	}

	for _, envFile := range candidates {
		if _, err := os.Stat(envFile); err != nil {
			continue
		}
		slog.Info("Loading configuration from .env file", "path", envFile)
		if err := godotenv.Load(envFile); err != nil {
			slog.Warn("Failed to load .env file", "error", err)
		}
		return
	}
	slog.Debug("No .env file found (using environment variables or defaults)")
}
