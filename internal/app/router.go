package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/inventory-notify/internal/accounts"
	"github.com/noah-isme/inventory-notify/internal/common"
	"github.com/noah-isme/inventory-notify/internal/email"
	"github.com/noah-isme/inventory-notify/internal/health"
	httpmw "github.com/noah-isme/inventory-notify/internal/http/middleware"
	"github.com/noah-isme/inventory-notify/internal/obs"
	"github.com/noah-isme/inventory-notify/internal/ratelimit"
	"github.com/noah-isme/inventory-notify/internal/security"
)

// RouterOptions carries the optional surfaces of the HTTP server.
type RouterOptions struct {
	HTTPMetrics *obs.HTTPMetrics
	Headers     security.Headers
	// Debug is mounted under /debug/pprof when set.
	Debug http.Handler
}

// NewRouter wires middleware and routes for the notification service.
func NewRouter(deps *Dependencies, opts RouterOptions) http.Handler {
	cfg := deps.Config
	logger := deps.Logger
	expose := !cfg.IsProduction()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if cfg.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(httpmw.Recoverer(logger, expose))
	if deps.TracingEnabled {
		r.Use(obs.Tracing)
	}
	if opts.HTTPMetrics != nil {
		r.Use(opts.HTTPMetrics.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg.CORSAllowedOrigins),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", common.IdempotencyHeader},
		ExposedHeaders:   []string{"Retry-After", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: len(cfg.CORSAllowedOrigins) > 0,
		MaxAge:           300,
	}))
	r.Use(opts.Headers.Middleware)
	r.Use(ratelimit.Handler{
		Limiter: deps.Limiter,
		Config: ratelimit.Config{
			Key:    ratelimit.ByClientIP,
			Window: cfg.RateLimitWindow,
			Max:    cfg.RateLimitMax,
		},
		OnError: func(err error) {
			logger.Warn().Err(err).Msg("rate limiter unavailable")
		},
	}.Middleware)
	r.Use(security.BodyLimit{Max: cfg.BodyLimitBytes}.Middleware)

	r.NotFound(httpmw.NotFound)
	r.MethodNotAllowed(httpmw.MethodNotAllowed)

	if deps.MetricsEnabled {
		if deps.MetricsRegistry != nil {
			r.Handle("/metrics", promhttp.HandlerFor(deps.MetricsRegistry, promhttp.HandlerOpts{}))
		} else {
			r.Handle("/metrics", promhttp.Handler())
		}
	}
	if opts.Debug != nil {
		r.Mount("/debug/pprof", opts.Debug)
	}

	healthHandler := health.Handler{
		Service: cfg.ServiceName,
		Version: cfg.ServiceVersion,
		Checker: health.Deps{
			Mail:      deps.Mail,
			Redis:     deps.Redis,
			SMTPCache: &health.VerifyCache{TTL: health.DefaultSMTPCacheTTL},
		},
	}
	r.Get("/health", healthHandler.Health)
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	var idem func(http.Handler) http.Handler
	if deps.Redis != nil {
		idem = common.Idem{R: deps.Redis}.Middleware
	}
	emailHandler := &email.Handler{
		Renderer:  deps.Renderer,
		Mail:      deps.Mail,
		Validator: deps.Validator,
		Logger:    logger.With().Str("component", "email").Logger(),
	}
	accountsHandler := &accounts.Handler{
		Provider:      deps.Accounts,
		DefaultDomain: cfg.EmailDomain,
		Production:    cfg.IsProduction(),
		Validator:     deps.Validator,
		Logger:        logger.With().Str("component", "accounts").Logger(),
	}
	emailRoutes := emailHandler.Routes(idem)
	accountRoutes := accountsHandler.Routes()
	r.Mount("/email", emailRoutes)
	r.Mount("/api/email", emailRoutes)
	r.Mount("/accounts", accountRoutes)
	r.Mount("/api/accounts", accountRoutes)

	return r
}

func allowedOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
