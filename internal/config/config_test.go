package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "3306", cfg.Database.Port)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessExpiry)
	assert.Equal(t, 168*time.Hour, cfg.JWT.RefreshExpiry)
	assert.Equal(t, 5*time.Minute, cfg.OTP.TTL)
	assert.Equal(t, 84, cfg.Donation.IntervalDays)
	assert.Equal(t, 5, cfg.RateLimit.VerifyPerMinute)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:5173"}, cfg.CORS.AllowedOrigins)
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("DB_HOST", "mysql.internal")
	t.Setenv("DB_NAME", "donations")
	t.Setenv("OTP_TTL", "90s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("MAIL_TRANSPORT", "smtp")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "mysql.internal", cfg.Database.Host)
	assert.Equal(t, 90*time.Second, cfg.OTP.TTL)
	assert.Equal(t, "smtp", cfg.Mail.Transport)
	assert.Len(t, cfg.CORS.AllowedOrigins, 2)
	assert.Contains(t, cfg.Database.DSN(), "@tcp(mysql.internal:3306)/donations?")
}

func TestLoadConfigRejectsDefaultSecretInRelease(t *testing.T) {
	t.Setenv("SERVER_GIN_MODE", "release")

	_, err := LoadConfig()
	assert.Error(t, err)
}
