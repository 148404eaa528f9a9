package obs_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/noah-isme/inventory-notify/internal/obs"
)

func TestHTTPMetricsLabelsByRoutePattern(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := obs.NewHTTPMetrics("notify", []float64{10, 1}, registry)
	r := chi.NewRouter()
	r.Use(metrics.Middleware)
	r.Delete("/accounts/{email}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Post("/email/send", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{}"))
	})

	for _, path := range []string{"/accounts/a@b.com", "/accounts/c@d.com"} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, path, nil))
		require.Equal(t, http.StatusNoContent, rr.Code)
	}
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/email/send", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/wp-login.php", nil))

	require.Equal(t, float64(2), testutil.ToFloat64(metrics.Requests.WithLabelValues(http.MethodDelete, "/accounts/{email}", "204")))
	require.Equal(t, float64(1), testutil.ToFloat64(metrics.Requests.WithLabelValues(http.MethodPost, "/email/send", "200")))
	require.Equal(t, float64(1), testutil.ToFloat64(metrics.Requests.WithLabelValues(http.MethodGet, "unmatched", "404")))
	require.NotZero(t, testutil.CollectAndCount(metrics.Latency))
	require.Equal(t, float64(0), testutil.ToFloat64(metrics.InFlight))

	again := obs.NewHTTPMetrics("notify", nil, registry)
	require.Same(t, metrics.Requests, again.Requests)
}

func TestParseBuckets(t *testing.T) {
	require.Equal(t, []float64{5, 250.5}, obs.ParseBuckets(" 5, x, -1, 0, 250.5,"))
	require.Nil(t, obs.ParseBuckets(""))
}

func TestTracingNamesSpanAfterRoute(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})

	r := chi.NewRouter()
	r.Use(obs.Tracing)
	r.Delete("/accounts/{email}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodDelete, "/accounts/a@b.com", nil))

	spans := sr.Ended()
	require.Len(t, spans, 1)
	require.Equal(t, "DELETE /accounts/{email}", spans[0].Name())
	require.Equal(t, codes.Error, spans[0].Status().Code)
}

func TestDomainMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	obs.MustRegisterDomainMetrics("notify", registry)

	obs.ObserveEmailDispatch("stockBajo", "success", 120*time.Millisecond)
	obs.ObserveEmailDispatch("stockBajo", "timeout", 15*time.Second)
	obs.ObserveAccountProvider("create", "error")

	require.Equal(t, float64(1), testutil.ToFloat64(obs.EmailDispatchTotal.WithLabelValues("stockBajo", "success")))
	require.Equal(t, float64(1), testutil.ToFloat64(obs.EmailDispatchTotal.WithLabelValues("stockBajo", "timeout")))
	require.Equal(t, float64(1), testutil.ToFloat64(obs.AccountProviderTotal.WithLabelValues("create", "error")))
}

func TestRequestLoggerAttachesScopedLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	var scoped bool
	h := middleware.RequestID(obs.RequestLogger{Logger: logger}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scoped = zerolog.Ctx(r.Context()).GetLevel() != zerolog.Disabled
		w.WriteHeader(http.StatusBadGateway)
	})))

	req := httptest.NewRequest(http.MethodDelete, "/accounts/a@b.com", nil)
	req.RemoteAddr = "203.0.113.7:52000"
	req.Header.Set("X-Forwarded-For", "198.51.100.9")
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.True(t, scoped)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "error", entry["level"])
	require.Equal(t, float64(http.StatusBadGateway), entry["status"])
	require.Equal(t, "203.0.113.7", entry["client_ip"])
	require.NotEmpty(t, entry["request_id"])
}

func TestInitTracerExporterSelection(t *testing.T) {
	shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{ServiceName: "notify", Exporter: "none"})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
	require.Contains(t, otel.GetTextMapPropagator().Fields(), "traceparent")

	_, err = obs.InitTracer(context.Background(), obs.TracingConfig{Exporter: "zipkin"})
	require.ErrorContains(t, err, "zipkin")
}
