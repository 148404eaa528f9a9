package mail

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Recorder is a Dispatcher that logs messages instead of sending them.
// It backs MAIL_DRIVER=log and the handler tests.
type Recorder struct {
	mu     sync.Mutex
	outbox []Message

	// Keep retains sent messages for Outbox. Leave it off in long-running
	// processes.
	Keep bool
	// Domain is used for generated message identifiers.
	Domain string
	// Err, when set, is returned from Send and Verify.
	Err error
	// Logger, when set, logs every recorded message.
	Logger *zerolog.Logger
}

// Send logs the message and, with Keep set, appends it to the outbox.
func (r *Recorder) Send(_ context.Context, msg Message) (Result, error) {
	if r.Err != nil {
		return Result{}, classify(r.Err)
	}
	domain := r.Domain
	if domain == "" {
		domain = "localhost"
	}
	id := fmt.Sprintf("<%s@%s>", uuid.NewString(), domain)
	if r.Keep {
		r.mu.Lock()
		r.outbox = append(r.outbox, msg)
		r.mu.Unlock()
	}
	if r.Logger != nil {
		r.Logger.Info().
			Str("message_id", id).
			Str("to", msg.RecipientField()).
			Str("subject", msg.Subject).
			Str("template", templateLabel(msg.Template)).
			Msg("email recorded")
	}
	return Result{Success: true, MessageID: id, To: msg.RecipientField()}, nil
}

// Verify reports the configured error, if any.
func (r *Recorder) Verify(context.Context) error {
	if r.Err != nil {
		return classify(r.Err)
	}
	return nil
}

// Outbox returns a copy of the kept messages.
func (r *Recorder) Outbox() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.outbox))
	copy(out, r.outbox)
	return out
}
