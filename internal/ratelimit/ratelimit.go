// Package ratelimit throttles outbound RPC calls on top of golang.org/x/time/rate.
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/fd1az/flashloan-arbitrage/internal/apperror"
)

// Limiter is a token bucket shared by every caller of one endpoint.
type Limiter struct {
	limiter *rate.Limiter
}

// New allows requestsPerSecond on average with bursts up to burst.
// A non-positive rate disables limiting.
func New(requestsPerSecond float64, burst int) *Limiter {
	limit := rate.Limit(requestsPerSecond)
	if requestsPerSecond <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &Limiter{limiter: rate.NewLimiter(limit, burst)}
}

// Wait blocks until a token is available. A cancelled or too-short context
// yields CodeRateLimitExceeded.
func (l *Limiter) Wait(ctx context.Context) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return apperror.New(apperror.CodeRateLimitExceeded, apperror.WithCause(err))
	}
	return nil
}

// Allow reports whether a call may happen now without waiting.
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}
