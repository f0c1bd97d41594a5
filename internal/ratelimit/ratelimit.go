// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ratelimit throttles outbound calls per external service. Each
// service gets a token bucket sized to its documented API quota; acquisition
// blocks until a token is available or the configured acquire timeout turns
// the wait into a recoverable error.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/citecheck/pkg/types"
)

// ErrRateLimitExceeded is returned when token acquisition does not complete
// within the acquire timeout. Callers treat it as a skip signal, not a crash.
var ErrRateLimitExceeded = errors.New("rate limit acquire timed out")

// Unknown services fall back to a polite default budget.
var defaultLimit = types.ServiceLimit{PerSecond: 1, Burst: 1}

// Limiter holds one token bucket per named external service. It is shared by
// all concurrent validation workers; the underlying rate.Limiter is
// goroutine-safe.
type Limiter struct {
	acquireTimeout time.Duration

	mu      sync.Mutex
	limits  map[string]types.ServiceLimit
	buckets map[string]*rate.Limiter
}

// New builds a Limiter from per-service budgets.
func New(cfg types.RateLimitConfig) *Limiter {
	timeout := cfg.AcquireTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	limits := make(map[string]types.ServiceLimit, len(cfg.Services))
	for name, l := range cfg.Services {
		limits[name] = l
	}
	return &Limiter{
		acquireTimeout: timeout,
		limits:         limits,
		buckets:        make(map[string]*rate.Limiter),
	}
}

// Acquire blocks until the service's bucket grants a token. It returns
// ErrRateLimitExceeded if the wait outlives the acquire timeout, or
// ctx.Err() if the caller's context ends first.
func (l *Limiter) Acquire(ctx context.Context, service string) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.acquireTimeout)
	defer cancel()

	if err := l.bucket(service).Wait(waitCtx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%s: %w", service, ErrRateLimitExceeded)
	}
	return nil
}

// SetLimit replaces a service's budget. The bucket is rebuilt, so already
// accumulated tokens are discarded.
func (l *Limiter) SetLimit(service string, limit types.ServiceLimit) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.limits[service] = limit
	delete(l.buckets, service)
}

func (l *Limiter) bucket(service string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if b, ok := l.buckets[service]; ok {
		return b
	}
	limit, ok := l.limits[service]
	if !ok || limit.PerSecond <= 0 {
		limit = defaultLimit
	}
	burst := limit.Burst
	if burst < 1 {
		burst = 1
	}
	b := rate.NewLimiter(rate.Limit(limit.PerSecond), burst)
	l.buckets[service] = b
	return b
}
