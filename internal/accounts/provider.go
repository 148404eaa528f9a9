// Package accounts proxies mailbox provisioning to the external email provider.
package accounts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/noah-isme/inventory-notify/internal/obs"
	"github.com/noah-isme/inventory-notify/internal/resilience"
)

// ErrNotConfigured is returned before any network call when the provider URL or key is missing.
var ErrNotConfigured = errors.New("accounts: provider not configured")

// Credential is one mailbox as reported by the provider.
type Credential struct {
	Login     string `json:"login"`
	CreatedAt string `json:"created_at,omitempty"`
	Simulated bool   `json:"simulated,omitempty"`
}

// ListResult is the provider's credential listing.
type ListResult struct {
	Items []Credential
	Total int
}

// Provider manages mailbox credentials for a domain.
type Provider interface {
	Create(ctx context.Context, domain, login, password string) error
	List(ctx context.Context, domain string) (ListResult, error)
	Delete(ctx context.Context, domain, login string) error
}

// ProviderError reports a non-2xx provider answer.
type ProviderError struct {
	Status  int
	Message string
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("provider responded with status %d", e.Status)
}

// HTTPProvider talks to a Mailgun-style credentials API using basic auth (user "api").
type HTTPProvider struct {
	BaseURL string
	APIKey  string
	Client  resilience.HTTPClient
}

// Configured reports whether both the base URL and the API key are set.
func (p *HTTPProvider) Configured() bool {
	return p != nil && strings.TrimSpace(p.BaseURL) != "" && strings.TrimSpace(p.APIKey) != ""
}

// Create registers a new mailbox login.
func (p *HTTPProvider) Create(ctx context.Context, domain, login, password string) error {
	form := url.Values{}
	form.Set("login", login)
	form.Set("password", password)
	resp, err := p.do(ctx, "create", http.MethodPost, p.credentialsURL(domain), strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	return resp.Close()
}

type listPayload struct {
	Items      []Credential `json:"items"`
	TotalCount int          `json:"total_count"`
}

// List returns every mailbox of the domain.
func (p *HTTPProvider) List(ctx context.Context, domain string) (ListResult, error) {
	resp, err := p.do(ctx, "list", http.MethodGet, p.credentialsURL(domain), nil)
	if err != nil {
		return ListResult{}, err
	}
	defer func() { _ = resp.Close() }()

	var payload listPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		obs.ObserveAccountProvider("list", "error")
		return ListResult{}, fmt.Errorf("decode credentials: %w", err)
	}
	if payload.Items == nil {
		payload.Items = []Credential{}
	}
	return ListResult{Items: payload.Items, Total: payload.TotalCount}, nil
}

// Delete removes a mailbox login.
func (p *HTTPProvider) Delete(ctx context.Context, domain, login string) error {
	resp, err := p.do(ctx, "delete", http.MethodDelete, p.credentialsURL(domain)+"/"+url.PathEscape(login), nil)
	if err != nil {
		return err
	}
	return resp.Close()
}

func (p *HTTPProvider) credentialsURL(domain string) string {
	return strings.TrimRight(p.BaseURL, "/") + "/" + url.PathEscape(domain) + "/credentials"
}

func (p *HTTPProvider) do(ctx context.Context, op, method, target string, body io.Reader) (*resilience.Response, error) {
	if !p.Configured() {
		return nil, ErrNotConfigured
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", op, err)
	}
	req.SetBasicAuth("api", p.APIKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := p.Client.Do(ctx, req)
	if err != nil {
		obs.ObserveAccountProvider(op, "error")
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer func() { _ = resp.Close() }()
		obs.ObserveAccountProvider(op, "error")
		return nil, &ProviderError{Status: resp.StatusCode, Message: providerMessage(resp.Body)}
	}
	obs.ObserveAccountProvider(op, "ok")
	return resp, nil
}

func providerMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 64<<10))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &payload) == nil && payload.Message != "" {
		return payload.Message
	}
	return strings.TrimSpace(string(raw))
}
