package ratelimit

import (
	"context"
	"time"

	limiter "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// Limiter decides whether one more event for key fits in the window.
type Limiter interface {
	Allow(ctx context.Context, key string, window time.Duration, max int) (allowed bool, remaining int, reset time.Time, err error)
}

// FixedLimiter is a fixed-window limiter over a ulule limiter store. The rate is
// taken from the first Allow call; window and max are expected to stay constant.
type FixedLimiter struct {
	Store limiter.Store
}

// NewFixedLimiter returns a fixed-window limiter. A nil store selects the in-process memory store.
func NewFixedLimiter(store limiter.Store) *FixedLimiter {
	if store == nil {
		store = memory.NewStoreWithOptions(limiter.StoreOptions{
			Prefix:          "ratelimit",
			CleanUpInterval: time.Minute,
		})
	}
	return &FixedLimiter{Store: store}
}

// Allow counts one event for key.
func (l *FixedLimiter) Allow(ctx context.Context, key string, window time.Duration, max int) (bool, int, time.Time, error) {
	if l == nil || l.Store == nil || max <= 0 || window <= 0 {
		return true, max, time.Now().Add(window), nil
	}
	rate := limiter.Rate{Period: window, Limit: int64(max)}
	res, err := l.Store.Get(ctx, key, rate)
	if err != nil {
		return false, 0, time.Now().Add(window), err
	}
	return !res.Reached, int(res.Remaining), time.Unix(res.Reset, 0), nil
}
