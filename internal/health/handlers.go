package health

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/noah-isme/inventory-notify/internal/common"
)

var ready atomic.Bool

func init() {
	ready.Store(true)
}

// SetReady toggles readiness. The API server flips it off once shutdown begins so
// load balancers drain the instance before connections close.
func SetReady(v bool) {
	ready.Store(v)
}

// IsReady reports the current readiness flag.
func IsReady() bool {
	return ready.Load()
}

// Checker represents dependencies that can be checked for readiness.
type Checker interface {
	PingSMTP(ctx context.Context, timeout time.Duration) error
	PingRedis(ctx context.Context, timeout time.Duration) error
}

// Status is the body of GET /health.
type Status struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
}

// Handler exposes HTTP handlers for health endpoints.
type Handler struct {
	Service      string
	Version      string
	Checker      Checker
	SMTPTimeout  time.Duration
	RedisTimeout time.Duration
	Now          func() time.Time
}

// Health reports service identity and the current time.
func (h Handler) Health(w http.ResponseWriter, _ *http.Request) {
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	service := h.Service
	if service == "" {
		service = "Email Service"
	}
	version := h.Version
	if version == "" {
		version = "1.0.0"
	}
	common.JSON(w, http.StatusOK, Status{
		Status:    "ok",
		Service:   service,
		Version:   version,
		Timestamp: now().UTC().Format(time.RFC3339Nano),
	})
}

// Live reports liveness status.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready reports readiness based on dependency checks.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if !IsReady() {
		common.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "draining"})
		return
	}
	if h.Checker == nil {
		common.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "dependencies unavailable"})
		return
	}
	ctx := r.Context()
	smtpStatus := "ok"
	if err := h.Checker.PingSMTP(ctx, h.smtpTimeout()); err != nil {
		smtpStatus = err.Error()
	}
	redisStatus := "ok"
	if err := h.Checker.PingRedis(ctx, h.redisTimeout()); err != nil {
		redisStatus = err.Error()
	}
	status := map[string]string{
		"smtp":  smtpStatus,
		"redis": redisStatus,
	}
	code := http.StatusOK
	if smtpStatus != "ok" || redisStatus != "ok" {
		code = http.StatusServiceUnavailable
	}
	common.JSON(w, code, status)
}

func (h Handler) smtpTimeout() time.Duration {
	if h.SMTPTimeout <= 0 {
		return 5 * time.Second
	}
	return h.SMTPTimeout
}

func (h Handler) redisTimeout() time.Duration {
	if h.RedisTimeout <= 0 {
		return 300 * time.Millisecond
	}
	return h.RedisTimeout
}
