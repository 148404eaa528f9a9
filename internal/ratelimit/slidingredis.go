package ratelimit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// slidingScript trims the window, admits the event only when there is room and
// returns {admitted, remaining, resetMillis}. Scores are unix milliseconds.
var slidingScript = redis.NewScript(`
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', now - window)
local count = redis.call('ZCARD', KEYS[1])
local admitted = 0
if count < limit then
  redis.call('ZADD', KEYS[1], now, ARGV[4])
  count = count + 1
  admitted = 1
end
redis.call('PEXPIRE', KEYS[1], window)
local reset = now + window
local oldest = redis.call('ZRANGE', KEYS[1], 0, 0, 'WITHSCORES')
if oldest[2] then
  reset = tonumber(oldest[2]) + window
end
return {admitted, limit - count, reset}
`)

// SlidingLimiter counts events over a sliding window in a Redis sorted set.
// Rejected events are not recorded, so a client that keeps retrying regains
// capacity as its earlier events age out.
type SlidingLimiter struct {
	Client *redis.Client
	Prefix string
	Now    func() time.Time
}

// Allow admits one event for key when fewer than max were admitted in the last window.
func (l SlidingLimiter) Allow(ctx context.Context, key string, window time.Duration, max int) (bool, int, time.Time, error) {
	now := time.Now()
	if l.Now != nil {
		now = l.Now()
	}
	if l.Client == nil || max <= 0 || window <= 0 {
		return true, max, now.Add(window), nil
	}
	res, err := slidingScript.Run(ctx, l.Client, []string{l.Prefix + key},
		now.UnixMilli(), window.Milliseconds(), max, uuid.NewString(),
	).Int64Slice()
	if err != nil {
		return false, 0, now.Add(window), err
	}
	return res[0] == 1, int(res[1]), time.UnixMilli(res[2]), nil
}
