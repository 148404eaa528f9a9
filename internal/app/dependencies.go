package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	limiter "github.com/ulule/limiter/v3"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/noah-isme/inventory-notify/internal/accounts"
	"github.com/noah-isme/inventory-notify/internal/common"
	"github.com/noah-isme/inventory-notify/internal/config"
	"github.com/noah-isme/inventory-notify/internal/inventory"
	"github.com/noah-isme/inventory-notify/internal/mail"
	"github.com/noah-isme/inventory-notify/internal/ratelimit"
	"github.com/noah-isme/inventory-notify/internal/resilience"
	"github.com/noah-isme/inventory-notify/internal/templates"
)

// Dependencies enumerates the services shared by the HTTP surface and the report command.
type Dependencies struct {
	Config    *config.Config
	Logger    zerolog.Logger
	Redis     *redis.Client
	Validator *common.Validator
	Renderer  *templates.Renderer
	Mail      mail.Dispatcher
	Accounts  accounts.Provider
	Limiter   ratelimit.Limiter

	// MetricsRegistry is used for /metrics when set; the default gatherer otherwise.
	MetricsRegistry *prometheus.Registry
	TracingEnabled  bool
	MetricsEnabled  bool
}

// Build assembles the production dependency set from cfg. The returned cleanup
// closes every connection that was opened.
func Build(ctx context.Context, cfg *config.Config, logger zerolog.Logger, instrument bool) (*Dependencies, func(), error) {
	deps := &Dependencies{
		Config:    cfg,
		Logger:    logger,
		Renderer:  templates.NewRenderer(cfg.ReportLocale, templates.WithLocation(cfg.Location())),
		Mail:      NewDispatcher(cfg, logger),
		Accounts:  NewAccountsProvider(cfg, logger),
		Validator: common.MustNewValidator(),
	}
	cleanup := func() {}

	if cfg.RedisURL != "" {
		rdb, err := NewRedis(ctx, cfg.RedisURL, instrument)
		if err != nil {
			return nil, cleanup, err
		}
		deps.Redis = rdb
		cleanup = func() {
			if err := rdb.Close(); err != nil {
				logger.Error().Err(err).Msg("close redis")
			}
		}
	}

	lim, err := NewLimiter(cfg.RateLimitStrategy, deps.Redis)
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}
	deps.Limiter = lim
	return deps, cleanup, nil
}

// NewRedis parses url, instruments the client and checks connectivity.
func NewRedis(ctx context.Context, url string, instrument bool) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if instrument {
		if err := redisotel.InstrumentTracing(rdb); err != nil {
			return nil, fmt.Errorf("instrument redis tracing: %w", err)
		}
		if err := redisotel.InstrumentMetrics(rdb); err != nil {
			return nil, fmt.Errorf("instrument redis metrics: %w", err)
		}
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

// NewLimiterStore wires a rate limiter store backed by Redis.
func NewLimiterStore(rdb *redis.Client) (limiter.Store, error) {
	return limiterredis.NewStoreWithOptions(rdb, limiter.StoreOptions{Prefix: "ratelimit"})
}

// NewLimiter picks the limiter for strategy. Without Redis the fixed window is kept in memory.
func NewLimiter(strategy string, rdb *redis.Client) (ratelimit.Limiter, error) {
	if strategy == "sliding" {
		if rdb == nil {
			return nil, fmt.Errorf("sliding rate limit requires redis")
		}
		return ratelimit.SlidingLimiter{Client: rdb, Prefix: "ratelimit:sliding:"}, nil
	}
	if rdb == nil {
		return ratelimit.NewFixedLimiter(nil), nil
	}
	store, err := NewLimiterStore(rdb)
	if err != nil {
		return nil, fmt.Errorf("limiter store: %w", err)
	}
	return ratelimit.NewFixedLimiter(store), nil
}

// NewDispatcher returns the configured mail driver.
func NewDispatcher(cfg *config.Config, logger zerolog.Logger) mail.Dispatcher {
	if cfg.MailDriver == "log" {
		l := logger.With().Str("component", "mail").Logger()
		return &mail.Recorder{Domain: cfg.EmailDomain, Logger: &l}
	}
	return mail.NewSMTPDispatcher(mail.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Secure:   cfg.SMTP.Secure,
		User:     cfg.SMTP.User,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		Timeout:  cfg.SMTP.Timeout,
	}, logger)
}

// OutboundClient builds a breaker-guarded client whose transport propagates trace context.
func OutboundClient(target string, timeout time.Duration, logger zerolog.Logger) resilience.HTTPClient {
	return resilience.HTTPClient{
		Client:  &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		Breaker: resilience.NewBreaker(resilience.BreakerConfig{
			Upstream:     target,
			MinCalls:     5,
			FailureRatio: 0.5,
			Cooldown:     30 * time.Second,
			Logger:       logger,
		}),
		Timeout: timeout,
	}
}

// NewAccountsProvider wires the provisioning API client.
func NewAccountsProvider(cfg *config.Config, logger zerolog.Logger) *accounts.HTTPProvider {
	return &accounts.HTTPProvider{
		BaseURL: cfg.EmailAPIURL,
		APIKey:  cfg.EmailAPIKey,
		Client:  OutboundClient("accounts_provider", cfg.EmailAPITimeout, logger),
	}
}

// NewInventoryClient wires the inventory backend client used by the report command.
func NewInventoryClient(cfg *config.Config, logger zerolog.Logger) *inventory.Client {
	return inventory.NewClient(cfg.InventoryAPIURL, OutboundClient("inventory_api", cfg.InventoryAPITimeout, logger))
}
