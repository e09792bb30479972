// Package attention bounds the rate of attention requests per sender and
// conversation. State is session-local; it is not shared across devices.
package attention

import (
	"errors"
	"sync"
	"time"
)

// ErrRateLimited is returned once the per-key budget is exhausted.
var ErrRateLimited = errors.New("attention requests rate limited")

type bucket struct {
	count         int
	cooldownUntil time.Time
}

// Limiter is a fixed-window counter: max sends are allowed per key, the
// max-th send starts the cooldown, and the counter resets only after the
// cooldown elapses.
type Limiter struct {
	mu       sync.Mutex
	max      int
	cooldown time.Duration
	buckets  map[string]*bucket
	now      func() time.Time
}

// NewLimiter constructs a Limiter allowing max sends per cooldown window.
func NewLimiter(max int, cooldown time.Duration) *Limiter {
	return &Limiter{
		max:      max,
		cooldown: cooldown,
		buckets:  make(map[string]*bucket),
		now:      time.Now,
	}
}

// NewLimiterWithClock is NewLimiter with an injectable clock for tests.
func NewLimiterWithClock(max int, cooldown time.Duration, now func() time.Time) *Limiter {
	l := NewLimiter(max, cooldown)
	l.now = now
	return l
}

// TryConsume spends one send from the key's budget. On rejection it returns
// ErrRateLimited and the time the budget reopens.
func (l *Limiter) TryConsume(key string) (time.Time, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{}
		l.buckets[key] = b
	}

	if !b.cooldownUntil.IsZero() {
		if now.Before(b.cooldownUntil) {
			return b.cooldownUntil, ErrRateLimited
		}
		b.count = 0
		b.cooldownUntil = time.Time{}
	}

	b.count++
	if b.count >= l.max {
		b.cooldownUntil = now.Add(l.cooldown)
	}
	return b.cooldownUntil, nil
}
