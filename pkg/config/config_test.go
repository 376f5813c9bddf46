package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorefrontConfig_Defaults(t *testing.T) {
	var cfg StorefrontConfig
	require.NoError(t, cleanenv.ReadEnv(&cfg))

	assert.Equal(t, 4000, cfg.HTTP.Port)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:5173"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, "/api/users", cfg.RegisterAPI.Path)
	assert.Equal(t, 10*time.Second, cfg.RegisterAPI.Timeout)
	assert.Equal(t, SessionStoreMemory, cfg.Session.Store)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	assert.True(t, cfg.Session.CookieHttpOnly)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.NoError(t, cfg.Validate())
}

func TestStorefrontConfig_FromEnv(t *testing.T) {
	t.Setenv("REGISTER_API_URL", "https://api.shop.example")
	t.Setenv("SESSION_STORE", "postgres")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("STOREFRONT_PG_DATABASE", "shop")

	var cfg StorefrontConfig
	require.NoError(t, cleanenv.ReadEnv(&cfg))

	assert.Equal(t, "https://api.shop.example", cfg.RegisterAPI.URL)
	assert.Equal(t, SessionStorePostgres, cfg.Session.Store)
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "shop", cfg.Database.ToDbConfig().Database)
}

func TestStorefrontConfig_Validate(t *testing.T) {
	var cfg StorefrontConfig
	require.NoError(t, cleanenv.ReadEnv(&cfg))

	cfg.RegisterAPI.URL = "not a url"
	cfg.Session.Store = "redis"
	cfg.Session.Secret = ""
	cfg.Session.CleanupInterval = 0

	err := cfg.Validate()
	require.Error(t, err)

	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Len(t, verrs, 4)
	assert.Contains(t, err.Error(), "REGISTER_API_URL")
	assert.Contains(t, err.Error(), "SESSION_STORE")
	assert.Contains(t, err.Error(), "SESSION_SECRET")
	assert.Contains(t, err.Error(), "SESSION_CLEANUP_INTERVAL")
}

func TestStorefrontConfig_ValidateCleanupInterval(t *testing.T) {
	var cfg StorefrontConfig
	require.NoError(t, cleanenv.ReadEnv(&cfg))
	cfg.Session.Secret = "s3cret"
	require.NoError(t, cfg.Validate())

	cfg.Session.CleanupInterval = -time.Minute
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SESSION_CLEANUP_INTERVAL")
}

func TestEmailConfig_ToSMTPConfig(t *testing.T) {
	smtp := EmailConfig{
		Host:     "smtp.example.com",
		Port:     587,
		Username: "user",
		Password: "secret",
		From:     "shop@example.com",
		TLS:      true,
	}.ToSMTPConfig()

	assert.Equal(t, "smtp.example.com", smtp.Host)
	assert.Equal(t, 587, smtp.Port)
	assert.Equal(t, "user", smtp.Username)
	assert.Equal(t, "secret", smtp.Password)
	assert.Equal(t, "shop@example.com", smtp.From)
	assert.True(t, smtp.TLS)
}

func TestRateLimitConfig_ToMiddlewareConfig(t *testing.T) {
	assert.Nil(t, RateLimitConfig{Enabled: false}.ToMiddlewareConfig())

	mw := RateLimitConfig{Enabled: true, Capacity: 3, PerMinute: 6}.ToMiddlewareConfig()
	require.NotNil(t, mw)
	assert.Equal(t, 3, mw.PerIPCapacity)
	assert.InDelta(t, 0.1, mw.PerIPRefillRate, 1e-9)
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("STOREFRONT_TEST_VALUE=from-file\n"), 0600))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		os.Chdir(wd)
		os.Unsetenv("STOREFRONT_TEST_VALUE")
	})

	LoadEnvFile()
	assert.Equal(t, "from-file", os.Getenv("STOREFRONT_TEST_VALUE"))
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, LogConfig{Format: "json", Level: "warn"})

	logger.Info("hidden")
	logger.Warn("shown", "key", "value")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
	assert.Contains(t, buf.String(), `"key":"value"`)
}
