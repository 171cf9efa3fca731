package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithEnvSecret(t *testing.T) {
	t.Setenv("CLINIC_JWT_SECRET", "s3cret")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "clinic_session", cfg.Session.CookieName)
	assert.Equal(t, time.Hour, cfg.JWT.Expiry)
	assert.True(t, cfg.Booking.EnforceTemplate)
	assert.False(t, cfg.Booking.AllowPastDates)
	assert.Equal(t, "s3cret", cfg.JWT.Secret)
}

func TestLoadFileThenEnvOverride(t *testing.T) {
	dir := t.TempDir()
	yaml := `
server:
  port: 9000
database:
  driver: memory
  host: db.internal
jwt:
  secret: from-file
  expiry: 30m
booking:
  allow_past_dates: true
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))

	t.Setenv("CLINIC_DATABASE_HOST", "db.override")
	t.Setenv("CLINIC_BOOKING_ENFORCE_TEMPLATE", "false")
	t.Setenv("CLINIC_RATE_LIMIT_LOGIN_BURST", "9")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, "db.override", cfg.Database.Host)
	assert.Equal(t, "from-file", cfg.JWT.Secret)
	assert.Equal(t, 30*time.Minute, cfg.JWT.Expiry)
	assert.True(t, cfg.Booking.AllowPastDates)
	assert.False(t, cfg.Booking.EnforceTemplate)
	assert.Equal(t, 9, cfg.RateLimit.LoginBurst)
}

func TestLoadRequiresSecret(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.ErrorContains(t, err, "jwt.secret")
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Server:   ServerConfig{Port: 8080},
			Database: DatabaseConfig{Driver: "memory"},
			Session:  SessionConfig{Store: "memory"},
			JWT:      JWTConfig{Secret: "x", Expiry: time.Hour},
		}
	}

	c := base()
	assert.NoError(t, c.Validate())

	c = base()
	c.Database.Driver = "mongo"
	assert.ErrorContains(t, c.Validate(), "unknown database driver")

	c = base()
	c.Session.Store = "redis"
	assert.ErrorContains(t, c.Validate(), "redis.url")

	c.Redis.URL = "redis://localhost:6379/0"
	assert.NoError(t, c.Validate())
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{Host: "h", Port: 5432, User: "u", Password: "p", Name: "n", SSLMode: "disable"}
	assert.Equal(t, "host=h port=5432 user=u password=p dbname=n sslmode=disable", d.DSN())
}
