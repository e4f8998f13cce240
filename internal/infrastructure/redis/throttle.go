package redisinfra

import (
	"context"
	"fmt"
	"time"

	"github.com/landing-auth/internal/config"
	"github.com/redis/go-redis/v9"
)

const throttlePrefix = "otp:send:"

// NewClient connects to Redis and verifies the connection with PING.
func NewClient(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	c := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return c, nil
}

type counter interface {
	TxPipelined(ctx context.Context, fn func(redis.Pipeliner) error) ([]redis.Cmder, error)
}

// Throttle is a fixed-window counter keyed by an arbitrary string (an email address).
type Throttle struct {
	rdb    counter
	limit  int
	window time.Duration
}

func NewThrottle(rdb counter, limit int, window time.Duration) *Throttle {
	return &Throttle{rdb: rdb, limit: limit, window: window}
}

// Allow counts one event for key and reports whether it is within the limit.
// INCR and EXPIRE NX run in one MULTI so the window always gets a TTL.
// EXPIRE NX needs Redis 7.
func (t *Throttle) Allow(ctx context.Context, key string) (bool, error) {
	k := throttlePrefix + key
	var incr *redis.IntCmd
	_, err := t.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, k)
		p.ExpireNX(ctx, k, t.window)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("count %s: %w", k, err)
	}
	return incr.Val() <= int64(t.limit), nil
}
