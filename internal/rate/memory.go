package rate

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// counters es la porción de *gocache.Cache que usa MemoryLimiter.
type counters interface {
	Add(k string, x interface{}, d time.Duration) error
	IncrementInt64(k string, n int64) (int64, error)
}

// MemoryLimiter: misma ventana fija que RedisLimiter pero en proceso.
// Los contadores expiran solos con la ventana (go-cache janitor).
type MemoryLimiter struct {
	c      counters
	Max    int64
	Window time.Duration
	now    func() time.Time
}

func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return &MemoryLimiter{
		c:      gocache.New(window, 2*window),
		Max:    int64(max),
		Window: window,
		now:    time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	now := l.now().UTC()
	winStart := now.Truncate(l.Window)
	k := fmt.Sprintf("%s:%d", key, winStart.Unix())
	ttl := winStart.Add(l.Window).Sub(now)

	hits, err := l.hit(k, ttl)
	if err != nil {
		return Result{}, err
	}
	return newResult(hits, l.Max, ttl, l.Window), nil
}

// hit crea el contador de la ventana o lo incrementa. Si la entrada vence
// entre el Add y el Increment, el Increment da "not found": se reintenta una vez.
func (l *MemoryLimiter) hit(k string, ttl time.Duration) (int64, error) {
	var lastErr error
	for i := 0; i < 2; i++ {
		if err := l.c.Add(k, int64(1), ttl); err == nil {
			return 1, nil
		}
		n, err := l.c.IncrementInt64(k, 1)
		if err == nil {
			return n, nil
		}
		lastErr = err
	}
	return 0, lastErr
}
