package resilience

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// ErrClientNotConfigured is returned when HTTPClient has no underlying client.
var ErrClientNotConfigured = errors.New("resilience: http client not configured")

// HTTPClient wraps an http.Client with a per-call timeout and a circuit breaker.
// Each call is attempted exactly once; a 5xx answer or a transport error counts
// against the breaker, anything else counts as healthy.
type HTTPClient struct {
	Client  *http.Client
	Breaker *Breaker
	Timeout time.Duration
}

// Response pairs the upstream response with the cancel func of its call context.
// Close releases both.
type Response struct {
	*http.Response
	cancel context.CancelFunc
}

// Close closes the body and releases the call timeout.
func (r *Response) Close() error {
	defer r.cancel()
	if r.Response == nil || r.Body == nil {
		return nil
	}
	return r.Body.Close()
}

// Do executes the request once. When the breaker is open ErrOpenCircuit is
// returned without touching the network.
func (cl HTTPClient) Do(ctx context.Context, req *http.Request) (*Response, error) {
	if cl.Client == nil {
		return nil, ErrClientNotConfigured
	}
	if cl.Breaker != nil && !cl.Breaker.Allow(ctx) {
		return nil, ErrOpenCircuit
	}
	timeout := cl.Timeout
	if timeout <= 0 {
		timeout = cl.Client.Timeout
	}
	var callCtx context.Context
	var cancel context.CancelFunc
	if timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, timeout)
	} else {
		callCtx, cancel = context.WithCancel(ctx)
	}
	resp, err := cl.Client.Do(req.WithContext(callCtx))
	if err != nil {
		cancel()
		cl.report(ctx, false)
		return nil, err
	}
	cl.report(ctx, resp.StatusCode < http.StatusInternalServerError)
	return &Response{Response: resp, cancel: cancel}, nil
}

func (cl HTTPClient) report(ctx context.Context, success bool) {
	if cl.Breaker != nil {
		cl.Breaker.Report(ctx, success)
	}
}
