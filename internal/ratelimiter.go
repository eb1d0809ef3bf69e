package internal

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	providerWindowKey   = "provider"
	windowRetryInterval = 250 * time.Millisecond
	maxWindowWait       = 30 * time.Second
)

type windowCounter interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// fixedWindowScript counts a hit and sets the window expiry in one step. A key
// found without an expiry gets one, so a window can never outlive its length.
const fixedWindowScript = `
local count = redis.call("INCR", KEYS[1])
if redis.call("PTTL", KEYS[1]) < 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return count
`

// RateLimiter enforces the provider's published per-key windows with Redis
// counters, so every bot process sharing the key shares the budget.
type RateLimiter struct {
	client windowCounter
	prefix string
	limits []RateLimit
	logger *Logger
}

type RateLimit struct {
	requests int
	window   time.Duration
}

var riotRateLimits = []RateLimit{
	{requests: 20, window: 1 * time.Second},
	{requests: 100, window: 2 * time.Minute},
}

func NewRateLimiter(cfg *Config, client *redis.Client, logger *Logger) *RateLimiter {
	return &RateLimiter{
		client: client,
		prefix: cfg.RateLimitRedisPrefix,
		limits: riotRateLimits,
		logger: logger,
	}
}

func (rl *RateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	for _, limit := range rl.limits {
		allowed, err := rl.checkLimit(ctx, key, limit)
		if err != nil {
			rl.logger.Error("rate_limit_check_failed").
				Component("rate_limiter").
				Operation("check_limit").
				Err(err).
				Meta("key", key).
				Log()
			return false, err
		}
		if !allowed {
			rl.logger.Debug("rate_limit_blocked").
				Component("rate_limiter").
				Operation("check_limit").
				Meta("key", key).
				Meta("limit_requests", limit.requests).
				Meta("limit_window", limit.window.String()).
				Log()
			return false, nil
		}
	}
	return true, nil
}

func (rl *RateLimiter) checkLimit(ctx context.Context, key string, limit RateLimit) (bool, error) {
	redisKey := fmt.Sprintf("%s:%s:%d", rl.prefix, key, int(limit.window.Seconds()))

	count, err := rl.client.Eval(ctx, fixedWindowScript, []string{redisKey}, limit.window.Milliseconds()).Int64()
	if err != nil {
		return false, err
	}

	return int(count) <= limit.requests, nil
}

// windowWaiter holds one outbound provider request until the shared window has
// room for it. A nil waiter or a nil gate never blocks.
type windowWaiter struct {
	gate    WindowGate
	key     string
	retry   time.Duration
	maxWait time.Duration
	logger  *Logger
}

func newWindowWaiter(gate WindowGate, key string, logger *Logger) *windowWaiter {
	if gate == nil {
		return nil
	}
	return &windowWaiter{
		gate:    gate,
		key:     key,
		retry:   windowRetryInterval,
		maxWait: maxWindowWait,
		logger:  logger,
	}
}

// Wait charges one request against the window. An unreachable gate lets the
// request through; a window that stays full past maxWait fails with
// ErrWindowWait.
func (w *windowWaiter) Wait(ctx context.Context) error {
	if w == nil {
		return nil
	}
	deadline := time.Now().Add(w.maxWait)
	for {
		allowed, err := w.gate.Allow(ctx, w.key)
		if err != nil {
			w.logger.Warn("window_gate_unavailable").
				Component("rate_limiter").
				Operation("wait").
				Err(err).
				Meta("key", w.key).
				Log()
			return nil
		}
		if allowed {
			return nil
		}
		if !time.Now().Add(w.retry).Before(deadline) {
			return ErrWindowWait
		}

		t := time.NewTimer(w.retry)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}
