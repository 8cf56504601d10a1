package echoapi

import (
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

var (
	nowFunc = time.Now // mockable

	msgTooManyAttempts = "Too many attempts. Please wait a minute and try again."
)

// rateLimiter is an in-memory token bucket per client IP.
// Buckets idle for a minute are full again, and get swept at most once a minute.
type rateLimiter struct {
	capacity  int
	rate      int // tokens per minute
	mu        sync.Mutex
	state     map[string]*bucket
	nextSweep time.Time
}

type bucket struct {
	tokens int
	last   time.Time
}

func newRateLimiter(perMinute int) *rateLimiter {
	return &rateLimiter{
		capacity: perMinute,
		rate:     perMinute,
		state:    make(map[string]*bucket),
	}
}

// middleware calls deny instead of the handler once the client has no token left.
// A non-positive rate disables limiting.
func (l *rateLimiter) middleware(deny echo.HandlerFunc) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if l.rate <= 0 {
				return next(ctx)
			}
			ip := ctx.RealIP()
			if ip == "" {
				ip = "unknown"
			}
			if !l.allow(ip) {
				return deny(ctx)
			}
			return next(ctx)
		}
	}
}

func (l *rateLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := nowFunc()
	if !now.Before(l.nextSweep) {
		l.sweep(now)
		l.nextSweep = now.Add(time.Minute)
	}

	b, ok := l.state[key]
	if !ok {
		l.state[key] = &bucket{tokens: l.capacity - 1, last: now}
		return true
	}

	elapsed := now.Sub(b.last).Minutes()
	if refill := int(elapsed * float64(l.rate)); refill > 0 {
		b.tokens += refill
		if b.tokens > l.capacity {
			b.tokens = l.capacity
		}
		b.last = now
	}
	if b.tokens <= 0 {
		return false
	}
	b.tokens--
	return true
}

// sweep drops the buckets no different from a new one.
func (l *rateLimiter) sweep(now time.Time) {
	for key, b := range l.state {
		if now.Sub(b.last) >= time.Minute {
			delete(l.state, key)
		}
	}
}
