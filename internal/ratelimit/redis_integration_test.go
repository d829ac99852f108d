//go:build integration

package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func TestRedisLimiter(t *testing.T) {
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	client, err := NewRedisClient(ctx, "redis://"+endpoint)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	l := NewRedisLimiter(client, "auth", Rule{Max: 2, Window: time.Minute}, clockwork.NewRealClock())

	first, err := l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, first.Allowed)
	assert.Equal(t, 1, first.Remaining)

	second, _ := l.Allow(ctx, "1.2.3.4")
	assert.True(t, second.Allowed)

	third, _ := l.Allow(ctx, "1.2.3.4")
	assert.False(t, third.Allowed)
	assert.Equal(t, 0, third.Remaining)
	assert.WithinDuration(t, time.Now().Add(time.Minute), third.ResetAt, 2*time.Second)

	ttl, err := client.PTTL(ctx, "ratelimit:auth:1.2.3.4").Result()
	require.NoError(t, err)
	assert.True(t, ttl > 0 && ttl <= time.Minute)

	other, _ := l.Allow(ctx, "5.6.7.8")
	assert.True(t, other.Allowed)
}
