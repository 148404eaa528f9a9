package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

const (
	// EnvDevelopment enables simulated provider fallbacks and verbose error messages.
	EnvDevelopment = "development"
	// EnvProduction surfaces every upstream failure as-is.
	EnvProduction = "production"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv         string
	Port           string
	ServiceName    string
	ServiceVersion string

	SMTP       SMTPConfig
	MailDriver string

	EmailAPIURL     string
	EmailAPIKey     string
	EmailDomain     string
	EmailAPITimeout time.Duration

	RateLimitMax      int
	RateLimitWindow   time.Duration
	RateLimitStrategy string
	RedisURL          string

	CORSAllowedOrigins []string
	BodyLimitBytes     int64

	// TrustProxy derives client addresses from forwarding headers.
	TrustProxy bool

	ReportLocale     string
	ReportTimezone   string
	ReportRecipients []string

	InventoryAPIURL     string
	InventoryAPIUser    string
	InventoryAPIPass    string
	InventoryAPITimeout time.Duration

	LogLevel  string
	LogFormat string
}

// SMTPConfig groups the outbound mail transport settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Secure   bool
	User     string
	Password string
	From     string
	Timeout  time.Duration
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	smtpUser := strings.TrimSpace(k.String("SMTP_USER"))
	cfg := &Config{
		AppEnv:         strings.ToLower(valueOrDefault(k.String("APP_ENV"), EnvDevelopment)),
		Port:           valueOrDefault(k.String("PORT"), "3001"),
		ServiceName:    valueOrDefault(k.String("SERVICE_NAME"), "Email Service"),
		ServiceVersion: valueOrDefault(k.String("SERVICE_VERSION"), "1.0.0"),
		SMTP: SMTPConfig{
			Host:     valueOrDefault(k.String("SMTP_HOST"), "smtp.gmail.com"),
			Port:     parseInt(k.String("SMTP_PORT"), 587),
			Secure:   parseBool(k.String("SMTP_SECURE")),
			User:     smtpUser,
			Password: k.String("SMTP_PASS"),
			From:     valueOrDefault(k.String("SMTP_FROM"), smtpUser),
			Timeout:  parseDuration(k.String("SMTP_TIMEOUT"), "15s"),
		},
		MailDriver:          strings.ToLower(valueOrDefault(k.String("MAIL_DRIVER"), "smtp")),
		EmailAPIURL:         strings.TrimRight(strings.TrimSpace(k.String("EMAIL_API_URL")), "/"),
		EmailAPIKey:         strings.TrimSpace(k.String("EMAIL_API_KEY")),
		EmailDomain:         strings.TrimSpace(k.String("EMAIL_DOMAIN")),
		EmailAPITimeout:     parseDuration(k.String("EMAIL_API_TIMEOUT"), "10s"),
		RateLimitMax:        parseInt(k.String("RATE_LIMIT_MAX_REQUESTS"), 100),
		RateLimitWindow:     parseDuration(k.String("RATE_LIMIT_WINDOW"), "15m"),
		RateLimitStrategy:   strings.ToLower(valueOrDefault(k.String("RATE_LIMIT_STRATEGY"), "fixed")),
		RedisURL:            strings.TrimSpace(k.String("REDIS_URL")),
		CORSAllowedOrigins:  SplitList(k.String("CORS_ALLOWED_ORIGINS")),
		BodyLimitBytes:      int64(parseInt(k.String("BODY_LIMIT_BYTES"), 10<<20)),
		TrustProxy:          parseBool(k.String("TRUST_PROXY")),
		ReportLocale:        valueOrDefault(k.String("REPORT_LOCALE"), "es"),
		ReportTimezone:      valueOrDefault(k.String("REPORT_TIMEZONE"), "Local"),
		ReportRecipients:    SplitList(k.String("REPORT_RECIPIENTS")),
		InventoryAPIURL:     strings.TrimRight(strings.TrimSpace(k.String("INVENTORY_API_URL")), "/"),
		InventoryAPIUser:    strings.TrimSpace(k.String("INVENTORY_API_USER")),
		InventoryAPIPass:    k.String("INVENTORY_API_PASS"),
		InventoryAPITimeout: parseDuration(k.String("INVENTORY_API_TIMEOUT"), "10s"),
		LogLevel:            valueOrDefault(k.String("LOG_LEVEL"), "info"),
		LogFormat:           valueOrDefault(k.String("LOG_FORMAT"), "json"),
	}

	switch cfg.AppEnv {
	case EnvDevelopment, EnvProduction, "test", "staging":
	default:
		return nil, fmt.Errorf("APP_ENV %q is not supported", cfg.AppEnv)
	}
	switch cfg.MailDriver {
	case "smtp", "log":
	default:
		return nil, fmt.Errorf("MAIL_DRIVER %q is not supported", cfg.MailDriver)
	}
	switch cfg.RateLimitStrategy {
	case "fixed", "sliding":
	default:
		return nil, fmt.Errorf("RATE_LIMIT_STRATEGY %q is not supported", cfg.RateLimitStrategy)
	}
	if cfg.RateLimitStrategy == "sliding" && cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required for the sliding rate limit strategy")
	}
	if cfg.SMTP.Port <= 0 {
		return nil, errors.New("SMTP_PORT must be positive")
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "3001"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

// IsProduction reports whether upstream failures must be surfaced without simulation.
func (c *Config) IsProduction() bool {
	return c.AppEnv == EnvProduction
}

// Location resolves the configured report timezone, falling back to the local zone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.ReportTimezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// SplitList splits a comma separated list, dropping blanks.
func SplitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseInt(value string, fallback int) int {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return parsed
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
