package advisory

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// AdaptiveLimiter paces advisory calls. Each success raises the rate by 20%
// up to twice the initial rate; a 429 halves it down to a quarter.
type AdaptiveLimiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	initial rate.Limit
	current rate.Limit
}

// NewAdaptiveLimiter creates a limiter starting at perSecond with burst.
func NewAdaptiveLimiter(perSecond float64, burst int) *AdaptiveLimiter {
	if burst < 1 {
		burst = 1
	}
	r := rate.Limit(perSecond)
	return &AdaptiveLimiter{limiter: rate.NewLimiter(r, burst), initial: r, current: r}
}

// Wait blocks until a call is allowed or ctx is done.
func (a *AdaptiveLimiter) Wait(ctx context.Context) error {
	return a.limiter.Wait(ctx)
}

// OnSuccess nudges the rate up.
func (a *AdaptiveLimiter) OnSuccess() {
	a.adjust(func(cur rate.Limit) rate.Limit { return min(cur*1.2, a.initial*2) })
}

// OnRateLimit halves the rate.
func (a *AdaptiveLimiter) OnRateLimit() {
	next := a.adjust(func(cur rate.Limit) rate.Limit { return max(cur*0.5, a.initial/4) })
	zap.L().Warn("advisory: rate limited, slowing down", zap.Float64("rate", float64(next)))
}

// Limit returns the current rate.
func (a *AdaptiveLimiter) Limit() rate.Limit {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

// adjust applies f to the current rate as one step under the lock.
func (a *AdaptiveLimiter) adjust(f func(rate.Limit) rate.Limit) rate.Limit {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.current = f(a.current)
	a.limiter.SetLimit(a.current)
	return a.current
}
