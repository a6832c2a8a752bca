package ai

import (
	"context"
	"sync"
	"time"
)

// Limiter enforces a minimum interval between outbound model calls. It is
// owned by the client that uses it; there is no package-level state.
type Limiter struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
}

func NewLimiter(interval time.Duration) *Limiter {
	return &Limiter{interval: interval}
}

// Wait blocks until the interval since the previous call has elapsed or the
// context is cancelled. Concurrent callers are serialized.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil || l.interval <= 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	wait := l.interval - time.Since(l.last)
	if wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	l.last = time.Now()
	return nil
}
