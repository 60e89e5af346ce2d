package telegram

import (
	"context"
	"sync"
	"time"
)

// RateLimiter spaces outgoing requests at least interval apart.
type RateLimiter struct {
	interval time.Duration
	lastSend time.Time
	mu       sync.Mutex
}

// NewRateLimiter creates a limiter that allows the first request immediately.
func NewRateLimiter(interval time.Duration) *RateLimiter {
	return &RateLimiter{
		interval: interval,
		lastSend: time.Now().Add(-interval),
	}
}

// Wait blocks until the next request may go out or ctx is done.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	rl.mu.Lock()
	next := rl.lastSend.Add(rl.interval)
	now := time.Now()
	if next.Before(now) {
		next = now
	}
	rl.lastSend = next
	rl.mu.Unlock()

	delay := time.Until(next)
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
