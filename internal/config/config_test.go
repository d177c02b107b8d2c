package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsAndOverrides(t *testing.T) {
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("JWT_SECRET_KEY", "jwt-secret")
	t.Setenv("APP_TIMEZONE", "UTC")
	t.Setenv("CACHE_TTL", "5m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5432, cfg.Database.Port)
	assert.True(t, cfg.Database.AutoMigrate)
	assert.Equal(t, 5*time.Minute, cfg.Redis.TTL)
	assert.Equal(t, "24h", cfg.JWT.VerificationExpiration)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.App.AllowedOrigins)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestLoad_RejectsInvalidPort(t *testing.T) {
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("JWT_SECRET_KEY", "jwt-secret")
	t.Setenv("DB_PORT", "not-a-port")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Database: DatabaseConfig{Password: "p"},
			JWT:      JWTConfig{Secret: "s", AccessExpiration: "1h", RefreshExpiration: "2h", VerificationExpiration: "24h"},
			App:      AppConfig{Timezone: "UTC"},
		}
	}

	assert.NoError(t, valid().Validate())

	c := valid()
	c.Database.Password = ""
	assert.EqualError(t, c.Validate(), "DB_PASSWORD is required")

	c = valid()
	c.JWT.Secret = ""
	assert.EqualError(t, c.Validate(), "JWT_SECRET_KEY is required")

	c = valid()
	c.JWT.AccessExpiration = "soon"
	assert.Error(t, c.Validate())

	c = valid()
	c.App.Timezone = "Mars/Olympus_Mons"
	assert.Error(t, c.Validate())
}

func TestSlogLevel(t *testing.T) {
	c := &Config{App: AppConfig{LogLevel: "debug"}}
	assert.Equal(t, slog.LevelDebug, c.SlogLevel())

	c.App.LogLevel = "nonsense"
	assert.Equal(t, slog.LevelInfo, c.SlogLevel())
}

func TestDatabaseURL(t *testing.T) {
	c := &Config{Database: DatabaseConfig{User: "u", Password: "p", Host: "h", Port: 5433, Name: "n", SSLMode: "disable"}}
	assert.Equal(t, "postgres://u:p@h:5433/n?sslmode=disable", c.DatabaseURL())
}
