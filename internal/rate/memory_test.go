package rate

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiter_FixedWindow(t *testing.T) {
	l := NewMemoryLimiter(2, time.Minute)
	base := time.Date(2026, 1, 1, 10, 0, 5, 0, time.UTC)
	l.now = func() time.Time { return base }

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		res, err := l.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}

	res, err := l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, int64(0), res.Remaining)
	assert.Equal(t, 55*time.Second, res.RetryAfter)

	// otra clave no comparte contador
	res, err = l.Allow(ctx, "5.6.7.8")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	// ventana siguiente
	l.now = func() time.Time { return base.Add(time.Minute) }
	res, err = l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, int64(1), res.Remaining)
}

// expiringCounters simula que la entrada vence justo entre Add e IncrementInt64.
type expiringCounters struct {
	adds, incrs int
	vanishOnce  bool
}

func (e *expiringCounters) Add(string, interface{}, time.Duration) error {
	e.adds++
	if e.adds == 1 {
		return errors.New("Item already exists")
	}
	return nil
}

func (e *expiringCounters) IncrementInt64(k string, _ int64) (int64, error) {
	e.incrs++
	if e.vanishOnce {
		e.vanishOnce = false
		return 0, fmt.Errorf("Item %s not found", k)
	}
	return 2, nil
}

func TestMemoryLimiter_EntryExpiresBetweenAddAndIncrement(t *testing.T) {
	fake := &expiringCounters{vanishOnce: true}
	l := NewMemoryLimiter(5, time.Minute)
	l.c = fake

	res, err := l.Allow(context.Background(), "1.2.3.4")
	require.NoError(t, err, "a vanished window must start a new one, not fail open")
	assert.True(t, res.Allowed)
	assert.Equal(t, int64(1), res.CurrentHits)
	assert.Equal(t, 2, fake.adds)
	assert.Equal(t, 1, fake.incrs)
}

type brokenCounters struct{}

func (brokenCounters) Add(string, interface{}, time.Duration) error { return errors.New("exists") }
func (brokenCounters) IncrementInt64(string, int64) (int64, error) {
	return 0, errors.New("The value for k is not an int64")
}

func TestMemoryLimiter_PersistentErrorIsReturned(t *testing.T) {
	l := NewMemoryLimiter(5, time.Minute)
	l.c = brokenCounters{}

	_, err := l.Allow(context.Background(), "1.2.3.4")
	require.ErrorContains(t, err, "not an int64")
}
