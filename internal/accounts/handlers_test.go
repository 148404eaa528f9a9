package accounts

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/inventory-notify/internal/common"
	"github.com/noah-isme/inventory-notify/internal/resilience"
)

type capturedCall struct {
	Method   string
	Path     string
	User     string
	Key      string
	Login    string
	Password string
}

type fakeProviderAPI struct {
	mu     sync.Mutex
	calls  []capturedCall
	status int
	body   string
}

func (f *fakeProviderAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	user, key, _ := r.BasicAuth()
	_ = r.ParseForm()
	f.mu.Lock()
	f.calls = append(f.calls, capturedCall{
		Method:   r.Method,
		Path:     r.URL.Path,
		User:     user,
		Key:      key,
		Login:    r.PostForm.Get("login"),
		Password: r.PostForm.Get("password"),
	})
	f.mu.Unlock()
	status := f.status
	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, f.body)
}

func (f *fakeProviderAPI) Calls() []capturedCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]capturedCall(nil), f.calls...)
}

func newHandler(t *testing.T, baseURL, key string, production bool) http.Handler {
	t.Helper()
	h := &Handler{
		Provider: &HTTPProvider{
			BaseURL: baseURL,
			APIKey:  key,
			Client:  resilience.HTTPClient{Client: http.DefaultClient, Timeout: 2 * time.Second},
		},
		DefaultDomain: "mail.example.com",
		Production:    production,
		Validator:     common.MustNewValidator(),
		Logger:        zerolog.Nop(),
		Now:           func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) },
	}
	r := chi.NewRouter()
	r.Mount("/accounts", h.Routes())
	return r
}

func call(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestCreateGeneratesPassword(t *testing.T) {
	api := &fakeProviderAPI{body: `{"message":"Created 1 credentials pair(s)"}`}
	srv := httptest.NewServer(api)
	defer srv.Close()
	h := newHandler(t, srv.URL+"/v3/domains", "key-123", true)

	rr := call(t, h, http.MethodPost, "/accounts/create", `{"email":"ventas@mail.example.com","name":"Ventas"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	var body createResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.True(t, body.Success)
	require.False(t, body.Account.Simulated)
	require.Equal(t, "mail.example.com", body.Account.Domain)
	require.Equal(t, "2024-06-01T12:00:00Z", body.Account.CreatedAt)

	calls := api.Calls()
	require.Len(t, calls, 1)
	got := calls[0]
	require.Equal(t, http.MethodPost, got.Method)
	require.Equal(t, "/v3/domains/mail.example.com/credentials", got.Path)
	require.Equal(t, "api", got.User)
	require.Equal(t, "key-123", got.Key)
	require.Equal(t, "ventas@mail.example.com", got.Login)
	require.Len(t, got.Password, DefaultPasswordLength)
	for _, c := range got.Password {
		require.True(t, strings.ContainsRune(PasswordCharset, c), "unexpected rune %q", c)
	}
}

func TestCreateUsesSuppliedPassword(t *testing.T) {
	api := &fakeProviderAPI{body: `{}`}
	srv := httptest.NewServer(api)
	defer srv.Close()
	h := newHandler(t, srv.URL, "key", true)

	rr := call(t, h, http.MethodPost, "/accounts/create",
		`{"email":"a@b.com","name":"A","domain":"b.com","password":"s3cretpass"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "s3cretpass", api.Calls()[0].Password)
	require.Equal(t, "/b.com/credentials", api.Calls()[0].Path)
}

func TestCreateValidation(t *testing.T) {
	api := &fakeProviderAPI{}
	srv := httptest.NewServer(api)
	defer srv.Close()
	h := newHandler(t, srv.URL, "key", true)

	rr := call(t, h, http.MethodPost, "/accounts/create", `{"email":"nope","password":"short"}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	var body common.ErrorBody
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, "Datos inválidos", body.Error)
	require.Len(t, body.Details, 3)
	require.Empty(t, api.Calls())
}

func TestCreateReportsTypeMismatchWithOtherViolations(t *testing.T) {
	api := &fakeProviderAPI{}
	srv := httptest.NewServer(api)
	defer srv.Close()
	h := newHandler(t, srv.URL, "key", true)

	rr := call(t, h, http.MethodPost, "/accounts/create", `{"email":42,"name":"X","password":"short"}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	var body struct {
		Error   string   `json:"error"`
		Details []string `json:"details"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body.Details, 2)
	require.Equal(t, "email must be a string", body.Details[0])
	require.Contains(t, body.Details[1], "password")
	require.Empty(t, api.Calls())
}

func TestMissingConfigurationShortCircuits(t *testing.T) {
	h := newHandler(t, "", "", false)

	rr := call(t, h, http.MethodPost, "/accounts/create", `{"email":"a@b.com","name":"A"}`)
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.Contains(t, rr.Body.String(), "Configuración de API externa no disponible")

	rr = call(t, h, http.MethodGet, "/accounts/list", "")
	require.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestProviderFailureSimulatedOutsideProduction(t *testing.T) {
	api := &fakeProviderAPI{status: http.StatusUnauthorized, body: `{"message":"Invalid private key"}`}
	srv := httptest.NewServer(api)
	defer srv.Close()
	h := newHandler(t, srv.URL, "bad", false)

	rr := call(t, h, http.MethodPost, "/accounts/create", `{"email":"a@b.com","name":"A"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	var created createResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	require.True(t, created.Success)
	require.True(t, created.Account.Simulated)

	rr = call(t, h, http.MethodGet, "/accounts/list", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var listed listResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &listed))
	require.True(t, listed.Simulated)
	require.Equal(t, 1, listed.Total)
	require.Equal(t, "admin@localhost", listed.Accounts[0].Login)

	rr = call(t, h, http.MethodDelete, "/accounts/a@b.com", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"simulated":true`)
}

func TestProviderFailureSurfacedInProduction(t *testing.T) {
	api := &fakeProviderAPI{status: http.StatusUnauthorized, body: `{"message":"Invalid private key"}`}
	srv := httptest.NewServer(api)
	defer srv.Close()
	h := newHandler(t, srv.URL, "bad", true)

	rr := call(t, h, http.MethodPost, "/accounts/create", `{"email":"a@b.com","name":"A"}`)
	require.Equal(t, http.StatusBadGateway, rr.Code)

	var body common.ErrorBody
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, "Error creando cuenta en el proveedor de email", body.Error)
	require.Equal(t, "Invalid private key", body.Message)
}

func TestListAndDelete(t *testing.T) {
	api := &fakeProviderAPI{body: `{"items":[{"login":"a@b.com","created_at":"Mon, 01 Jan 2024 00:00:00 GMT"}],"total_count":1}`}
	srv := httptest.NewServer(api)
	defer srv.Close()
	h := newHandler(t, srv.URL, "key", true)

	rr := call(t, h, http.MethodGet, "/accounts/list?domain=b.com", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var listed listResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &listed))
	require.Equal(t, 1, listed.Total)
	require.Equal(t, "a@b.com", listed.Accounts[0].Login)
	require.False(t, listed.Simulated)

	rr = call(t, h, http.MethodDelete, "/accounts/a@b.com?domain=b.com", "")
	require.Equal(t, http.StatusOK, rr.Code)

	calls := api.Calls()
	require.Len(t, calls, 2)
	require.Equal(t, "/b.com/credentials", calls[0].Path)
	require.Equal(t, http.MethodDelete, calls[1].Method)
	require.Equal(t, "/b.com/credentials/a@b.com", calls[1].Path)
}

func TestDeleteRejectsInvalidEmail(t *testing.T) {
	api := &fakeProviderAPI{}
	srv := httptest.NewServer(api)
	defer srv.Close()
	h := newHandler(t, srv.URL, "key", true)

	rr := call(t, h, http.MethodDelete, "/accounts/"+url.PathEscape("not-an-email"), "")
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Empty(t, api.Calls())
}

func TestGeneratePassword(t *testing.T) {
	seen := map[string]struct{}{}
	for i := 0; i < 20; i++ {
		p, err := GeneratePassword(0)
		require.NoError(t, err)
		require.Len(t, p, DefaultPasswordLength)
		seen[p] = struct{}{}
	}
	require.Greater(t, len(seen), 1)

	long, err := GeneratePassword(32)
	require.NoError(t, err)
	require.Len(t, long, 32)
}

func TestHTTPProviderNotConfigured(t *testing.T) {
	p := &HTTPProvider{}
	require.ErrorIs(t, p.Create(context.Background(), "d", "l", "p"), ErrNotConfigured)
	_, err := p.List(context.Background(), "d")
	require.ErrorIs(t, err, ErrNotConfigured)
	require.ErrorIs(t, p.Delete(context.Background(), "d", "l"), ErrNotConfigured)
}
