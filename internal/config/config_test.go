package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"APP_ENV":                 "",
		"PORT":                    "",
		"SMTP_HOST":               "",
		"SMTP_PORT":               "",
		"SMTP_USER":               "alerts@example.com",
		"SMTP_FROM":               "",
		"MAIL_DRIVER":             "",
		"RATE_LIMIT_MAX_REQUESTS": "",
		"RATE_LIMIT_WINDOW":       "",
		"RATE_LIMIT_STRATEGY":     "",
		"REDIS_URL":               "",
		"TRUST_PROXY":             "",
	})
	require.NoError(t, err)
	require.Equal(t, EnvDevelopment, cfg.AppEnv)
	require.False(t, cfg.IsProduction())
	require.Equal(t, ":3001", cfg.HTTPAddr())
	require.Equal(t, "smtp.gmail.com", cfg.SMTP.Host)
	require.Equal(t, 587, cfg.SMTP.Port)
	require.Equal(t, "alerts@example.com", cfg.SMTP.From)
	require.Equal(t, 15*time.Second, cfg.SMTP.Timeout)
	require.Equal(t, "smtp", cfg.MailDriver)
	require.Equal(t, 100, cfg.RateLimitMax)
	require.Equal(t, 15*time.Minute, cfg.RateLimitWindow)
	require.Equal(t, "fixed", cfg.RateLimitStrategy)
	require.False(t, cfg.TrustProxy)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"APP_ENV":              "Production",
		"PORT":                 ":9000",
		"SMTP_SECURE":          "true",
		"SMTP_PORT":            "465",
		"SMTP_FROM":            "noreply@example.com",
		"EMAIL_API_URL":        "https://api.mailgun.net/v3/domains/",
		"CORS_ALLOWED_ORIGINS": "https://a.example, ,https://b.example",
		"REPORT_RECIPIENTS":    "ops@example.com,boss@example.com",
		"RATE_LIMIT_WINDOW":    "not-a-duration",
		"TRUST_PROXY":          "yes",
	})
	require.NoError(t, err)
	require.True(t, cfg.IsProduction())
	require.Equal(t, ":9000", cfg.HTTPAddr())
	require.True(t, cfg.SMTP.Secure)
	require.Equal(t, 465, cfg.SMTP.Port)
	require.Equal(t, "noreply@example.com", cfg.SMTP.From)
	require.Equal(t, "https://api.mailgun.net/v3/domains", cfg.EmailAPIURL)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	require.Equal(t, []string{"ops@example.com", "boss@example.com"}, cfg.ReportRecipients)
	require.Equal(t, 15*time.Minute, cfg.RateLimitWindow)
	require.True(t, cfg.TrustProxy)
}

func TestLoadRejectsSlidingWithoutRedis(t *testing.T) {
	_, err := LoadForTests(map[string]string{
		"RATE_LIMIT_STRATEGY": "sliding",
		"REDIS_URL":           "",
	})
	require.Error(t, err)
}

func TestLoadRejectsUnknownMailDriver(t *testing.T) {
	_, err := LoadForTests(map[string]string{"MAIL_DRIVER": "carrier-pigeon"})
	require.Error(t, err)
}
