package health_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/inventory-notify/internal/health"
)

type healthyChecker struct{}

func (healthyChecker) PingSMTP(context.Context, time.Duration) error  { return nil }
func (healthyChecker) PingRedis(context.Context, time.Duration) error { return nil }

func TestReadyReportsDrainingOnceShutdownStarts(t *testing.T) {
	t.Cleanup(func() { health.SetReady(true) })
	handler := health.Handler{Checker: healthyChecker{}}
	ready := func() *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		handler.Ready(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
		return rr
	}

	health.SetReady(true)
	require.Equal(t, http.StatusOK, ready().Code)

	health.SetReady(false)
	rr := ready()
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	require.JSONEq(t, `{"status":"draining"}`, rr.Body.String())

	rr = httptest.NewRecorder()
	handler.Live(rr, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	require.Equal(t, http.StatusOK, rr.Code)
}
