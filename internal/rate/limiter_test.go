package rate

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	rdb "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisLimiter(t *testing.T, max int) (*RedisLimiter, *miniredis.Miniredis, time.Time) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := rdb.NewClient(&rdb.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	l := NewRedisLimiter(client, "", max, time.Minute)
	base := time.Date(2026, 1, 1, 10, 0, 5, 0, time.UTC)
	l.now = func() time.Time { return base }
	return l, mr, base
}

func TestRedisLimiter_FixedWindow(t *testing.T) {
	l, mr, base := newRedisLimiter(t, 2)
	ctx := context.Background()

	for i := 1; i <= 2; i++ {
		res, err := l.Allow(ctx, "1.2.3.4|/delivery/quote")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.Equal(t, int64(i), res.CurrentHits)
	}

	res, err := l.Allow(ctx, "1.2.3.4|/delivery/quote")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, int64(0), res.Remaining)
	assert.Equal(t, time.Minute, res.RetryAfter)

	key := fmt.Sprintf("relay:rl:1.2.3.4|/delivery/quote:%d", base.Truncate(time.Minute).Unix())
	require.True(t, mr.Exists(key))
	assert.Equal(t, time.Minute, mr.TTL(key), "first hit must set the window expiry")

	// el contador vence con la ventana
	mr.FastForward(time.Minute + time.Second)
	assert.False(t, mr.Exists(key))
	res, err = l.Allow(ctx, "1.2.3.4|/delivery/quote")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, int64(1), res.CurrentHits)
}

func TestRedisLimiter_RetryAfterFallsBackToWindow(t *testing.T) {
	l, mr, base := newRedisLimiter(t, 2)

	// contador sin TTL (p.ej. un EXPIRE que falló): Retry-After usa la ventana
	key := fmt.Sprintf("relay:rl:k:%d", base.Truncate(time.Minute).Unix())
	require.NoError(t, mr.Set(key, "5"))

	res, err := l.Allow(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, int64(6), res.CurrentHits)
	assert.Equal(t, time.Minute, res.RetryAfter)
}

func TestRedisLimiter_KeySpacesAreSanitized(t *testing.T) {
	l, mr, base := newRedisLimiter(t, 1)

	_, err := l.Allow(context.Background(), "a b")
	require.NoError(t, err)
	assert.True(t, mr.Exists(fmt.Sprintf("relay:rl:a_b:%d", base.Truncate(time.Minute).Unix())))
}

func TestRedisLimiter_Unavailable(t *testing.T) {
	l, mr, _ := newRedisLimiter(t, 1)
	mr.Close()

	_, err := l.Allow(context.Background(), "k")
	require.Error(t, err)
}
