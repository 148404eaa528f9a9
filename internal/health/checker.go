package health

import (
	"context"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/noah-isme/inventory-notify/internal/mail"
)

// DefaultSMTPCacheTTL is how long a transport verification answers readiness checks.
const DefaultSMTPCacheTTL = 30 * time.Second

// Deps checks the mail transport and, when configured, Redis.
type Deps struct {
	Mail  mail.Dispatcher
	Redis *redis.Client
	// SMTPCache, when set, reuses the last Verify outcome so frequent checks
	// do not open an SMTP session each time.
	SMTPCache *VerifyCache
}

// PingSMTP verifies the mail transport accepts connections.
func (d Deps) PingSMTP(ctx context.Context, timeout time.Duration) error {
	if d.Mail == nil {
		return nil
	}
	verify := func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return d.Mail.Verify(ctx)
	}
	if d.SMTPCache == nil {
		return verify(ctx)
	}
	return d.SMTPCache.Do(ctx, verify)
}

// VerifyCache remembers the outcome of a check, failures included, for TTL.
type VerifyCache struct {
	TTL time.Duration
	Now func() time.Time

	mu      sync.Mutex
	checked time.Time
	err     error
}

// Do returns the cached outcome while it is fresh and runs check otherwise.
// Concurrent callers share a single check.
func (c *VerifyCache) Do(ctx context.Context, check func(context.Context) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	if !c.checked.IsZero() && now.Sub(c.checked) < c.ttl() {
		return c.err
	}
	c.err = check(ctx)
	c.checked = now
	return c.err
}

func (c *VerifyCache) ttl() time.Duration {
	if c.TTL > 0 {
		return c.TTL
	}
	return DefaultSMTPCacheTTL
}

func (c *VerifyCache) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// PingRedis pings Redis. A nil client counts as healthy because Redis is optional.
func (d Deps) PingRedis(ctx context.Context, timeout time.Duration) error {
	if d.Redis == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return d.Redis.Ping(ctx).Err()
}
