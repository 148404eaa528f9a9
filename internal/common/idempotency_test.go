package common

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestIdemRejectsReplay(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	calls := 0
	h := Idem{R: client, TTL: time.Minute}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))

	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/email/send", nil)
		req.Header.Set(IdempotencyHeader, "abc")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr.Code
	}
	require.Equal(t, http.StatusOK, send())
	require.Equal(t, http.StatusConflict, send())
	require.Equal(t, 1, calls)
}

func TestIdemReleasesKeyOnFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	calls := 0
	h := Idem{R: client, TTL: time.Minute}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/email/send", nil)
		req.Header.Set(IdempotencyHeader, "retry-me")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		require.Equal(t, http.StatusInternalServerError, rr.Code)
	}
	require.Equal(t, 2, calls)
}

func TestIdemPassThroughWithoutHeader(t *testing.T) {
	h := Idem{}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/email/send", nil))
	require.Equal(t, http.StatusAccepted, rr.Code)
}

func TestWriteErrorMapsAppError(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, NewAppError(CodeUpstream, "Error enviando email", http.StatusInternalServerError, errDial), false)
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.JSONEq(t, `{"success":false,"error":"Error enviando email","code":"UPSTREAM_ERROR","message":"dial tcp: refused"}`, rr.Body.String())

	rr = httptest.NewRecorder()
	WriteError(rr, errDial, false)
	require.JSONEq(t, `{"success":false,"error":"Error interno del servidor","code":"INTERNAL","message":"Error interno"}`, rr.Body.String())
}

type staticErr string

func (e staticErr) Error() string { return string(e) }

const errDial = staticErr("dial tcp: refused")
