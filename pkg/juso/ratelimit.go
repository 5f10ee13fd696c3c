package juso

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/time/rate"
)

// Service names used for rate limiting and error reporting.
const (
	ServiceSearch  = "search"
	ServiceDetail  = "detail"
	ServiceEnglish = "english"
)

// RateLimiter manages rate limiting for the individual Juso endpoints.
// Each endpoint is keyed by its own confirmation key upstream, so each gets
// its own limiter.
type RateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
}

// NewRateLimiter creates a limiter allowing rps requests per second with the
// given burst for every Juso service. A non-positive rps disables limiting.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	rl := &RateLimiter{limiters: make(map[string]*rate.Limiter)}
	for _, service := range []string{ServiceSearch, ServiceDetail, ServiceEnglish} {
		rl.limiters[service] = newLimiter(rps, burst)
	}
	return rl
}

func newLimiter(rps float64, burst int) *rate.Limiter {
	if burst < 1 {
		burst = 1
	}
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, burst)
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

// setLimit replaces the limiter for a single service.
func (rl *RateLimiter) setLimit(service string, rps float64, burst int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.limiters[service] = newLimiter(rps, burst)
}

// Wait blocks until the rate limit for the specified service allows an event
// or the context is canceled.
func (rl *RateLimiter) Wait(ctx context.Context, service string) error {
	rl.mu.RLock()
	limiter, exists := rl.limiters[service]
	rl.mu.RUnlock()

	if !exists {
		return fmt.Errorf("no rate limiter defined for service: %s", service)
	}

	if err := limiter.Wait(ctx); err != nil {
		slog.Debug("rate limiter wait error", "service", service, "error", err)
		return err
	}
	return nil
}
