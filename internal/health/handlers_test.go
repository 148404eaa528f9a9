package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/inventory-notify/internal/health"
	"github.com/noah-isme/inventory-notify/internal/mail"
)

type stubChecker struct {
	smtpErr  error
	redisErr error
}

func (s stubChecker) PingSMTP(_ context.Context, _ time.Duration) error {
	return s.smtpErr
}

func (s stubChecker) PingRedis(_ context.Context, _ time.Duration) error {
	return s.redisErr
}

func TestHealth(t *testing.T) {
	fixed := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	handler := health.Handler{Now: func() time.Time { return fixed }}
	rr := httptest.NewRecorder()
	handler.Health(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var body health.Status
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, health.Status{
		Status:    "ok",
		Service:   "Email Service",
		Version:   "1.0.0",
		Timestamp: "2024-03-01T10:00:00Z",
	}, body)
}

func TestLive(t *testing.T) {
	handler := health.Handler{}
	rr := httptest.NewRecorder()
	handler.Live(rr, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "ok", rr.Body.String())
}

func TestReadySuccess(t *testing.T) {
	handler := health.Handler{Checker: stubChecker{}, SMTPTimeout: 50 * time.Millisecond, RedisTimeout: 50 * time.Millisecond}
	rr := httptest.NewRecorder()
	handler.Ready(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var status map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &status))
	require.Equal(t, map[string]string{"smtp": "ok", "redis": "ok"}, status)
}

func TestReadyFailure(t *testing.T) {
	handler := health.Handler{Checker: stubChecker{smtpErr: errors.New("dial tcp: connection refused")}}
	rr := httptest.NewRecorder()
	handler.Ready(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	require.Contains(t, rr.Body.String(), "connection refused")
}

func TestDepsChecks(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	deps := health.Deps{Mail: &mail.Recorder{Keep: true}, Redis: client}
	require.NoError(t, deps.PingSMTP(context.Background(), time.Second))
	require.NoError(t, deps.PingRedis(context.Background(), time.Second))

	mr.Close()
	require.Error(t, deps.PingRedis(context.Background(), 200*time.Millisecond))

	failing := health.Deps{Mail: &mail.Recorder{Keep: true, Err: errors.New("535 auth failed")}}
	require.Error(t, failing.PingSMTP(context.Background(), time.Second))
	require.NoError(t, failing.PingRedis(context.Background(), time.Second))
}

type countingDispatcher struct {
	mail.Recorder
	verifies int
	err      error
}

func (c *countingDispatcher) Verify(context.Context) error {
	c.verifies++
	return c.err
}

func TestPingSMTPReusesRecentVerify(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	d := &countingDispatcher{}
	deps := health.Deps{
		Mail:      d,
		SMTPCache: &health.VerifyCache{TTL: 30 * time.Second, Now: func() time.Time { return now }},
	}
	handler := health.Handler{Checker: deps}

	for i := 0; i < 5; i++ {
		rr := httptest.NewRecorder()
		handler.Ready(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
		require.Equal(t, http.StatusOK, rr.Code)
	}
	require.Equal(t, 1, d.verifies)

	now = now.Add(31 * time.Second)
	d.err = errors.New("dial tcp: connection refused")
	require.Error(t, deps.PingSMTP(context.Background(), time.Second))
	require.Equal(t, 2, d.verifies)

	now = now.Add(time.Second)
	require.Error(t, deps.PingSMTP(context.Background(), time.Second))
	require.Equal(t, 2, d.verifies)
}
