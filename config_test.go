package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	c, v, err := loadConfig("")
	require.NoError(t, err)
	assert.Empty(t, v.ConfigFileUsed())
	assert.Equal(t, ":3000", c.Server.Addr)
	assert.Equal(t, 24*time.Hour, c.Session.MaxAge)
	assert.Equal(t, "memory", c.Session.Store)
	assert.Equal(t, "sqlite", c.Database.Driver)
	assert.Equal(t, "/uploads", c.Storage.Local.URLPrefix)
	assert.Equal(t, 10*time.Minute, c.OTP.TTL)
	assert.Equal(t, 5, c.OTP.MaxAttempts)
	assert.Equal(t, 30*time.Second, c.OTP.ResendCooldown)
	assert.EqualValues(t, 5*1024*1024, c.Upload.MaxBytes)
	assert.Equal(t, 400, c.Picture.Size)
	assert.Equal(t, 80, c.Picture.Quality)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("UNIVERSE_SESSION_MAX_AGE", "2h")
	t.Setenv("UNIVERSE_STORAGE_LOCAL_URL_PREFIX", "/media")
	t.Setenv("UNIVERSE_OTP_MAX_ATTEMPTS", "3")
	c, _, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, c.Session.MaxAge)
	assert.Equal(t, "/media", c.Storage.Local.URLPrefix)
	assert.Equal(t, 3, c.OTP.MaxAttempts)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "universe.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":8080"
database:
  driver: postgres
  dsn: "host=db user=u dbname=universe"
mail:
  driver: emailjs
emailjs:
  service_id: svc
`), 0o600))
	c, v, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, path, v.ConfigFileUsed())
	assert.Equal(t, ":8080", c.Server.Addr)
	assert.Equal(t, "postgres", c.Database.Driver)
	assert.Equal(t, "emailjs", c.Mail.Driver)
	assert.Equal(t, "svc", c.EmailJS.ServiceID)
	// untouched keys keep their defaults
	assert.Equal(t, 24*time.Hour, c.Session.MaxAge)
}

func TestLoadConfigErrors(t *testing.T) {
	_, _, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	t.Setenv("UNIVERSE_LOG_LEVEL", "loud")
	_, _, err = loadConfig("")
	assert.ErrorContains(t, err, "log.level")
}

func TestLoadConfigRejectsNonPositiveDurations(t *testing.T) {
	t.Setenv("UNIVERSE_OTP_TTL", "0s")
	_, _, err := loadConfig("")
	assert.ErrorContains(t, err, "otp.ttl")
}

func TestNewLogger(t *testing.T) {
	l, level, err := newLogger("warn", "release")
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(level.Level()-1))
	assert.True(t, l.Core().Enabled(level.Level()))

	_, _, err = newLogger("nope", "release")
	assert.Error(t, err)
}
