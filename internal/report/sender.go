package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/inventory-notify/internal/inventory"
	"github.com/noah-isme/inventory-notify/internal/lock"
	"github.com/noah-isme/inventory-notify/internal/mail"
	"github.com/noah-isme/inventory-notify/internal/templates"
)

// ErrNoRecipients is returned when the report has nobody to go to.
var ErrNoRecipients = errors.New("report: no recipients configured")

// Source provides inventory statistics. *inventory.Client satisfies it.
type Source interface {
	Authenticated() bool
	Login(ctx context.Context, username, password string) error
	Refresh(ctx context.Context) (inventory.Stats, error)
}

// Guard serialises report cycles across replicas. lock.Locker satisfies it.
type Guard interface {
	Do(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error
}

const cycleLockKey = "inventory-report"

// Sender fetches fresh inventory statistics and mails the inventory report.
type Sender struct {
	Source     Source
	Username   string
	Password   string
	Renderer   *templates.Renderer
	Mail       mail.Dispatcher
	Recipients []string
	Logger     zerolog.Logger
	Now        func() time.Time
	// Lock, when set, makes Run skip cycles another replica already owns.
	Lock Guard
}

// Send runs one report cycle. A rejected session triggers a single re-login.
func (s *Sender) Send(ctx context.Context) (mail.Result, error) {
	if len(s.Recipients) == 0 {
		return mail.Result{}, ErrNoRecipients
	}
	stats, err := s.refresh(ctx)
	if errors.Is(err, inventory.ErrUnauthenticated) {
		s.Logger.Warn().Msg("inventory session rejected, logging in again")
		stats, err = s.refresh(ctx)
	}
	if err != nil {
		return mail.Result{}, fmt.Errorf("refresh inventory: %w", err)
	}

	rendered, err := s.Renderer.Render(templates.InventoryReport{
		Summary:     stats.Summary(),
		GeneratedAt: s.now(),
	})
	if err != nil {
		return mail.Result{}, fmt.Errorf("render report: %w", err)
	}
	res, err := s.Mail.Send(ctx, mail.Message{
		To:       s.Recipients,
		Subject:  rendered.Subject,
		Text:     rendered.Text,
		HTML:     rendered.HTML,
		Template: templates.KindInventoryReport.String(),
	})
	if err != nil {
		return mail.Result{}, fmt.Errorf("send report: %w", err)
	}
	s.Logger.Info().
		Str("message_id", res.MessageID).
		Str("to", res.To).
		Int("total_products", stats.TotalProducts).
		Int("low_stock", stats.LowStock).
		Int("out_of_stock", stats.OutOfStock).
		Int("active_alerts", stats.ActiveAlerts).
		Msg("inventory report sent")
	return res, nil
}

// Run sends a report every interval until ctx is cancelled. Failed cycles are logged.
func (s *Sender) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if err := s.cycle(ctx, interval); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, lock.ErrHeld) {
				s.Logger.Debug().Msg("inventory report cycle owned by another replica")
			} else {
				s.Logger.Error().Err(err).Msg("inventory report failed")
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *Sender) cycle(ctx context.Context, interval time.Duration) error {
	if s.Lock == nil {
		_, err := s.Send(ctx)
		return err
	}
	return s.Lock.Do(ctx, cycleLockKey, interval, func(ctx context.Context) error {
		_, err := s.Send(ctx)
		return err
	})
}

func (s *Sender) refresh(ctx context.Context) (inventory.Stats, error) {
	if !s.Source.Authenticated() {
		if err := s.Source.Login(ctx, s.Username, s.Password); err != nil {
			return inventory.Stats{}, err
		}
	}
	return s.Source.Refresh(ctx)
}

func (s *Sender) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
