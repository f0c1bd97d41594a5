// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared by the fetcher and the
// resolver chain.
package httputil

import (
	"context"
	"io"
	"net/http"
	"time"
)

// RetryPolicy describes how failed HTTP requests are retried. One policy is
// shared by every outbound client so backoff behavior stays uniform.
type RetryPolicy struct {
	// MaxAttempts is the total number of tries, including the first.
	MaxAttempts int

	// BaseDelay is the wait before the first retry; it doubles per attempt
	// up to MaxDelay.
	BaseDelay time.Duration
	MaxDelay  time.Duration

	// Retryable decides whether a response (or transport error) warrants
	// another attempt. When nil, DefaultRetryable is used.
	Retryable func(resp *http.Response, err error) bool
}

// DefaultPolicy returns the retry policy used across the engine: three
// attempts with 500ms base delay, retrying transport errors, 429s, and 5xx.
func DefaultPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    8 * time.Second,
	}
}

// DefaultRetryable retries transport errors, HTTP 429, and all 5xx statuses.
func DefaultRetryable(resp *http.Response, err error) bool {
	if err != nil {
		return true
	}
	return resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
}

// Do executes the request, retrying per the policy. The request is cloned
// with ctx for each attempt, so it must have no consumable body (the engine
// only issues GETs). On a retryable response the body is drained and closed
// before the backoff wait; a context cancellation during the wait returns
// ctx.Err(). After the final attempt the last response or error is returned
// as-is so callers can inspect it.
func (p RetryPolicy) Do(ctx context.Context, client *http.Client, req *http.Request) (*http.Response, error) {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = DefaultRetryable
	}

	delay := p.BaseDelay
	var resp *http.Response
	var err error

	for attempt := 1; ; attempt++ {
		resp, err = client.Do(req.Clone(ctx))

		if !retryable(resp, err) || attempt >= attempts {
			return resp, err
		}

		if resp != nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}

		delay *= 2
		if p.MaxDelay > 0 && delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}
}
