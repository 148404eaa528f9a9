// Package inventory reads the inventory backend and derives the dashboard figures
// used by the periodic inventory report.
package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/noah-isme/inventory-notify/internal/resilience"
)

// ErrUnauthenticated is returned when no usable token is held. Callers are expected
// to Login again.
var ErrUnauthenticated = errors.New("inventory: not authenticated")

// StatusError reports a non-2xx backend answer.
type StatusError struct {
	Endpoint string
	Status   int
	Message  string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("inventory %s: status %d: %s", e.Endpoint, e.Status, e.Message)
	}
	return fmt.Sprintf("inventory %s: status %d", e.Endpoint, e.Status)
}

// Client talks to the inventory backend on behalf of a single user.
type Client struct {
	baseURL string
	http    resilience.HTTPClient
	now     func() time.Time

	mu        sync.RWMutex
	token     string
	expiresAt time.Time
}

// NewClient builds a client for the backend rooted at baseURL (without the /api suffix).
func NewClient(baseURL string, httpClient resilience.HTTPClient) *Client {
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    httpClient,
		now:     time.Now,
	}
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
}

// Login exchanges credentials for a bearer token and keeps it for later calls.
func (c *Client) Login(ctx context.Context, username, password string) error {
	body, err := json.Marshal(map[string]string{"username": username, "password": password})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/auth/login", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var out loginResponse
	if err := c.send(ctx, "auth/login", req, &out); err != nil {
		return err
	}
	if strings.TrimSpace(out.AccessToken) == "" {
		return fmt.Errorf("inventory auth/login: empty access token")
	}
	return c.SetToken(out.AccessToken)
}

// SetToken stores token. Its exp claim, when present, bounds how long it is used;
// the signature is not checked here since the backend verifies it on every call.
func (c *Client) SetToken(token string) error {
	token = strings.TrimSpace(token)
	var expiresAt time.Time
	if token != "" {
		parsed, err := jwt.ParseString(token, jwt.WithVerify(false), jwt.WithValidate(false))
		if err != nil {
			return fmt.Errorf("parse access token: %w", err)
		}
		expiresAt = parsed.Expiration()
	}
	c.mu.Lock()
	c.token = token
	c.expiresAt = expiresAt
	c.mu.Unlock()
	return nil
}

// Logout drops the stored token.
func (c *Client) Logout() {
	c.mu.Lock()
	c.token = ""
	c.expiresAt = time.Time{}
	c.mu.Unlock()
}

// Authenticated reports whether a non-expired token is held.
func (c *Client) Authenticated() bool {
	_, ok := c.bearer()
	return ok
}

func (c *Client) bearer() (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.token == "" {
		return "", false
	}
	if !c.expiresAt.IsZero() && !c.now().Before(c.expiresAt) {
		return "", false
	}
	return c.token, true
}

// Products returns up to 1000 products, the page size the dashboard uses.
func (c *Client) Products(ctx context.Context) ([]Product, error) {
	q := url.Values{}
	q.Set("per_page", "1000")
	var out productsResponse
	if err := c.get(ctx, "productos", q, &out); err != nil {
		return nil, err
	}
	if out.Productos == nil {
		return []Product{}, nil
	}
	return out.Productos, nil
}

// AlertStats returns the backend's alert aggregates.
func (c *Client) AlertStats(ctx context.Context) (AlertStats, error) {
	var out AlertStats
	if err := c.get(ctx, "alertas/estadisticas", nil, &out); err != nil {
		return AlertStats{}, err
	}
	return out, nil
}

// Refresh fetches both endpoints and derives fresh statistics.
func (c *Client) Refresh(ctx context.Context) (Stats, error) {
	products, err := c.Products(ctx)
	if err != nil {
		return Stats{}, err
	}
	alerts, err := c.AlertStats(ctx)
	if err != nil {
		return Stats{}, err
	}
	return DeriveStats(products, alerts), nil
}

func (c *Client) get(ctx context.Context, endpoint string, query url.Values, dst any) error {
	token, ok := c.bearer()
	if !ok {
		return ErrUnauthenticated
	}
	target := c.baseURL + "/api/" + endpoint
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("build %s request: %w", endpoint, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return c.send(ctx, endpoint, req, dst)
}

func (c *Client) send(ctx context.Context, endpoint string, req *http.Request, dst any) error {
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("inventory %s: %w", endpoint, err)
	}
	defer func() { _ = resp.Close() }()

	if resp.StatusCode == http.StatusUnauthorized {
		c.Logout()
		return ErrUnauthenticated
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Endpoint: endpoint, Status: resp.StatusCode, Message: errorMessage(resp.Body)}
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode %s: %w", endpoint, err)
	}
	return nil
}

func errorMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 16<<10))
	if err != nil {
		return ""
	}
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Msg     string `json:"msg"`
	}
	if json.Unmarshal(raw, &payload) == nil {
		for _, candidate := range []string{payload.Error, payload.Message, payload.Msg} {
			if candidate != "" {
				return candidate
			}
		}
	}
	return strings.TrimSpace(string(raw))
}
