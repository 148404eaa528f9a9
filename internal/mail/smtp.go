package mail

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	gomail "github.com/wneessen/go-mail"

	"github.com/noah-isme/inventory-notify/internal/obs"
)

const defaultTimeout = 15 * time.Second

// SMTPConfig describes the SMTP endpoint and sender identity.
type SMTPConfig struct {
	Host     string
	Port     int
	Secure   bool
	User     string
	Password string
	From     string
	Timeout  time.Duration
}

// SMTPDispatcher delivers messages through go-mail. A fresh client is created for every
// send so no connection state is shared between requests.
type SMTPDispatcher struct {
	cfg    SMTPConfig
	logger zerolog.Logger
}

// NewSMTPDispatcher builds a dispatcher and verifies connectivity in the background.
// The outcome is only logged; sends are attempted regardless.
func NewSMTPDispatcher(cfg SMTPConfig, logger zerolog.Logger) *SMTPDispatcher {
	d := &SMTPDispatcher{cfg: cfg, logger: logger.With().Str("component", "smtp").Logger()}
	go func() {
		if err := d.Verify(context.Background()); err != nil {
			d.logger.Error().Err(err).Str("host", cfg.Host).Int("port", cfg.Port).Msg("smtp verification failed")
			return
		}
		d.logger.Info().Str("host", cfg.Host).Int("port", cfg.Port).Msg("smtp server ready")
	}()
	return d
}

// Send performs a single synchronous delivery attempt.
func (d *SMTPDispatcher) Send(ctx context.Context, msg Message) (Result, error) {
	start := time.Now()
	res, err := d.send(ctx, msg)
	result := "sent"
	if err != nil {
		result = string(KindOf(err))
	}
	obs.ObserveEmailDispatch(templateLabel(msg.Template), result, time.Since(start))
	return res, err
}

func (d *SMTPDispatcher) send(ctx context.Context, msg Message) (Result, error) {
	if strings.TrimSpace(d.cfg.From) == "" {
		return Result{}, &DispatchError{Kind: KindConfig, Err: errors.New("sender address is not configured")}
	}
	m := gomail.NewMsg()
	if err := m.From(d.cfg.From); err != nil {
		return Result{}, &DispatchError{Kind: KindConfig, Err: fmt.Errorf("set sender: %w", err)}
	}
	if err := m.To(msg.To...); err != nil {
		return Result{}, &DispatchError{Kind: KindConfig, Err: fmt.Errorf("set recipients: %w", err)}
	}
	m.Subject(msg.Subject)
	m.SetDate()
	m.SetMessageID()
	switch {
	case msg.Text != "" && msg.HTML != "":
		m.SetBodyString(gomail.TypeTextPlain, msg.Text)
		m.AddAlternativeString(gomail.TypeTextHTML, msg.HTML)
	case msg.HTML != "":
		m.SetBodyString(gomail.TypeTextHTML, msg.HTML)
	default:
		m.SetBodyString(gomail.TypeTextPlain, msg.Text)
	}

	client, err := d.newClient()
	if err != nil {
		return Result{}, &DispatchError{Kind: KindConfig, Err: err}
	}
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout())
	defer cancel()
	if err := client.DialAndSendWithContext(sendCtx, m); err != nil {
		return Result{}, classify(err)
	}

	to := msg.RecipientField()
	d.logger.Info().
		Str("message_id", m.GetMessageID()).
		Str("to", to).
		Str("subject", msg.Subject).
		Str("template", templateLabel(msg.Template)).
		Msg("email sent")
	return Result{Success: true, MessageID: m.GetMessageID(), To: to}, nil
}

// Verify dials the SMTP endpoint, authenticates and disconnects without sending mail.
func (d *SMTPDispatcher) Verify(ctx context.Context) error {
	client, err := d.newClient()
	if err != nil {
		return &DispatchError{Kind: KindConfig, Err: err}
	}
	dialCtx, cancel := context.WithTimeout(ctx, d.timeout())
	defer cancel()
	if err := client.DialWithContext(dialCtx); err != nil {
		return classify(err)
	}
	if err := client.Close(); err != nil {
		d.logger.Warn().Err(err).Msg("close smtp verification connection")
	}
	return nil
}

func (d *SMTPDispatcher) newClient() (*gomail.Client, error) {
	opts := []gomail.Option{
		gomail.WithPort(d.cfg.Port),
		gomail.WithTimeout(d.timeout()),
	}
	if d.cfg.Secure {
		opts = append(opts, gomail.WithSSL())
	} else {
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSOpportunistic))
	}
	if strings.TrimSpace(d.cfg.User) != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(d.cfg.User),
			gomail.WithPassword(d.cfg.Password),
		)
	}
	client, err := gomail.NewClient(d.cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}
	return client, nil
}

func (d *SMTPDispatcher) timeout() time.Duration {
	if d.cfg.Timeout <= 0 {
		return defaultTimeout
	}
	return d.cfg.Timeout
}

func templateLabel(name string) string {
	if strings.TrimSpace(name) == "" {
		return "custom"
	}
	return name
}
