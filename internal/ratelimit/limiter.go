// Package ratelimit throttles outbound catalog API calls so polite-use
// limits (OpenLibrary asks for ~1 req/s) are respected per source.
package ratelimit

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// Limiter wraps rate.Limiter with the owning source's name for error
// messages and logging.
type Limiter struct {
	limiter *rate.Limiter
	name    string
}

// New creates a limiter allowing requestsPerSecond sustained requests with a
// burst of one. Fractional rates are valid (0.5 = one request every 2s).
func New(name string, requestsPerSecond float64) *Limiter {
	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		name:    name,
	}
}

// Wait blocks until a request may proceed, or the context is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait for %s: %w", l.name, err)
	}
	return nil
}

// Name returns the owning source's name.
func (l *Limiter) Name() string {
	return l.name
}
