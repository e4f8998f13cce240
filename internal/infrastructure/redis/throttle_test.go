package redisinfra

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePipe records what Allow queues. Unlisted Pipeliner methods panic.
type fakePipe struct {
	redis.Pipeliner
	count    int64
	incrKey  string
	ttlKey   string
	ttl      time.Duration
	queueLen int
}

func (p *fakePipe) Incr(_ context.Context, key string) *redis.IntCmd {
	p.incrKey = key
	p.queueLen++
	return redis.NewIntResult(p.count, nil)
}

func (p *fakePipe) ExpireNX(_ context.Context, key string, exp time.Duration) *redis.BoolCmd {
	p.ttlKey, p.ttl = key, exp
	p.queueLen++
	return redis.NewBoolResult(true, nil)
}

type fakeTx struct {
	pipe  *fakePipe
	err   error
	calls int
}

func (f *fakeTx) TxPipelined(_ context.Context, fn func(redis.Pipeliner) error) ([]redis.Cmder, error) {
	f.calls++
	if err := fn(f.pipe); err != nil {
		return nil, err
	}
	return nil, f.err
}

func TestAllow_CountAndWindowInOneTransaction(t *testing.T) {
	tx := &fakeTx{pipe: &fakePipe{count: 1}}

	ok, err := NewThrottle(tx, 5, time.Hour).Allow(context.Background(), "a@b.com")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, tx.calls)
	assert.Equal(t, 2, tx.pipe.queueLen)
	assert.Equal(t, "otp:send:a@b.com", tx.pipe.incrKey)
	assert.Equal(t, "otp:send:a@b.com", tx.pipe.ttlKey)
	assert.Equal(t, time.Hour, tx.pipe.ttl)
}

func TestAllow_EveryHitReassertsWindow(t *testing.T) {
	tx := &fakeTx{pipe: &fakePipe{count: 3}}

	_, err := NewThrottle(tx, 5, time.Hour).Allow(context.Background(), "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, time.Hour, tx.pipe.ttl)
}

func TestAllow_OverLimit(t *testing.T) {
	tx := &fakeTx{pipe: &fakePipe{count: 6}}

	ok, err := NewThrottle(tx, 5, time.Hour).Allow(context.Background(), "a@b.com")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAllow_AtLimit(t *testing.T) {
	tx := &fakeTx{pipe: &fakePipe{count: 5}}

	ok, err := NewThrottle(tx, 5, time.Hour).Allow(context.Background(), "a@b.com")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAllow_RedisDown(t *testing.T) {
	tx := &fakeTx{pipe: &fakePipe{}, err: errors.New("connection refused")}

	_, err := NewThrottle(tx, 5, time.Hour).Allow(context.Background(), "a@b.com")
	assert.ErrorContains(t, err, "connection refused")
}
