package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiterAllowsUpToMax(t *testing.T) {
	clock := clockwork.NewFakeClock()
	l := NewMemoryLimiter(Rule{Max: 3, Window: time.Minute}, clock, 0)
	defer l.Close()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := l.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.Equal(t, 3, res.Limit)
		assert.Equal(t, 2-i, res.Remaining)
	}

	res, err := l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
	assert.Equal(t, clock.Now().Add(time.Minute), res.ResetAt)
	assert.Equal(t, time.Minute, res.RetryAfter(clock.Now()))
}

func TestMemoryLimiterWindowResets(t *testing.T) {
	clock := clockwork.NewFakeClock()
	l := NewMemoryLimiter(Rule{Max: 1, Window: time.Minute}, clock, 0)
	defer l.Close()
	ctx := context.Background()

	res, _ := l.Allow(ctx, "k")
	assert.True(t, res.Allowed)
	res, _ = l.Allow(ctx, "k")
	assert.False(t, res.Allowed)

	clock.Advance(59 * time.Second)
	res, _ = l.Allow(ctx, "k")
	assert.False(t, res.Allowed)

	clock.Advance(time.Second)
	res, _ = l.Allow(ctx, "k")
	assert.True(t, res.Allowed)
}

func TestMemoryLimiterKeysAreIndependent(t *testing.T) {
	l := NewMemoryLimiter(Rule{Max: 1, Window: time.Minute}, clockwork.NewFakeClock(), 0)
	defer l.Close()
	ctx := context.Background()

	a, _ := l.Allow(ctx, "a")
	b, _ := l.Allow(ctx, "b")
	assert.True(t, a.Allowed)
	assert.True(t, b.Allowed)
	assert.Equal(t, 2, l.Len())
}

func TestMemoryLimiterCleanup(t *testing.T) {
	clock := clockwork.NewFakeClock()
	l := NewMemoryLimiter(Rule{Max: 5, Window: time.Minute}, clock, 0)
	defer l.Close()
	ctx := context.Background()

	_, _ = l.Allow(ctx, "old")
	clock.Advance(30 * time.Second)
	_, _ = l.Allow(ctx, "new")

	clock.Advance(31 * time.Second)
	l.Cleanup()
	assert.Equal(t, 1, l.Len())
}

func TestMemoryLimiterJanitor(t *testing.T) {
	clock := clockwork.NewFakeClock()
	l := NewMemoryLimiter(Rule{Max: 5, Window: time.Minute}, clock, time.Minute)
	defer l.Close()

	_, _ = l.Allow(context.Background(), "k")
	require.Equal(t, 1, l.Len())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(time.Minute)

	assert.Eventually(t, func() bool { return l.Len() == 0 }, time.Second, 10*time.Millisecond)
}

func TestMemoryLimiterCloseIsIdempotent(t *testing.T) {
	l := NewMemoryLimiter(Rule{Max: 1, Window: time.Second}, clockwork.NewFakeClock(), time.Second)
	assert.NoError(t, l.Close())
	assert.NoError(t, l.Close())
}

func TestRedisLimiterFailsOpen(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	clock := clockwork.NewFakeClock()
	l := NewRedisLimiter(client, "api", Rule{Max: 1, Window: time.Minute}, clock)

	for i := 0; i < 3; i++ {
		res, err := l.Allow(context.Background(), "k")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}
}

func TestNewRedisClientRejectsBadURL(t *testing.T) {
	_, err := NewRedisClient(context.Background(), "not a url")
	assert.Error(t, err)
}
