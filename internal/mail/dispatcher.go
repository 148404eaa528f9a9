// Package mail hands rendered emails to the SMTP transport.
package mail

import (
	"context"
	"errors"
	"net"
	"strings"

	gomail "github.com/wneessen/go-mail"
)

// Message is a rendered email ready for dispatch.
type Message struct {
	To       []string
	Subject  string
	Text     string
	HTML     string
	Template string
}

// RecipientField joins the recipients into the single transport-level To value.
func (m Message) RecipientField() string {
	return JoinRecipients(m.To)
}

// Result describes a successful dispatch.
type Result struct {
	Success   bool
	MessageID string
	To        string
}

// Dispatcher sends one message per call. Implementations never retry.
type Dispatcher interface {
	Send(ctx context.Context, msg Message) (Result, error)
	Verify(ctx context.Context) error
}

// JoinRecipients renders a recipient list the way it appears in the To header, order preserved.
func JoinRecipients(to []string) string {
	return strings.Join(to, ", ")
}

// ErrorKind classifies transport failures.
type ErrorKind string

const (
	KindTimeout    ErrorKind = "timeout"
	KindConnection ErrorKind = "connection"
	KindSMTP       ErrorKind = "smtp"
	KindConfig     ErrorKind = "config"
	KindUnknown    ErrorKind = "unknown"
)

// DispatchError wraps a transport failure with its kind. Error returns the transport message unchanged.
type DispatchError struct {
	Kind ErrorKind
	Err  error
}

func (e *DispatchError) Error() string {
	if e == nil || e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e *DispatchError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// KindOf extracts the failure kind from err, defaulting to KindUnknown.
func KindOf(err error) ErrorKind {
	var de *DispatchError
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnknown
}

func classify(err error) *DispatchError {
	if err == nil {
		return nil
	}
	var existing *DispatchError
	if errors.As(err, &existing) {
		return existing
	}
	kind := KindUnknown
	var netErr net.Error
	var opErr *net.OpError
	var sendErr *gomail.SendError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = KindTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		kind = KindTimeout
	case errors.As(err, &opErr):
		kind = KindConnection
	case errors.As(err, &sendErr):
		kind = KindSMTP
	}
	return &DispatchError{Kind: kind, Err: err}
}
