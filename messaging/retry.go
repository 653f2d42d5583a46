// Copyright 2026 The StealthIM Go Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"fmt"
	"time"

	"github.com/stealthim/stealthim-go/lib/clock"
)

// maxRetriesLimit caps RetryPolicy.MaxRetries so a misconfiguration
// cannot keep a caller spinning against a busy server.
const maxRetriesLimit = 100

// defaultMaxDelay caps back-off when RetryPolicy.MaxDelay is zero.
const defaultMaxDelay = time.Minute

// RetryPolicy bounds how often a request that came back with a
// transient result code is re-issued.
type RetryPolicy struct {
	// MaxRetries is the number of extra attempts after the first. Zero
	// disables retries; a request makes at most MaxRetries+1 attempts.
	MaxRetries int
	// Delay is the wait before the first retry. It doubles for each
	// subsequent retry.
	Delay time.Duration
	// MaxDelay caps the doubled delay. Zero means one minute.
	MaxDelay time.Duration
}

// DefaultRetryPolicy returns 3 retries starting at 250ms, capped at 2s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 3,
		Delay:      250 * time.Millisecond,
		MaxDelay:   2 * time.Second,
	}
}

// NoRetry returns a policy that surfaces the first transient result as
// a RetryExhaustedError.
func NoRetry() RetryPolicy {
	return RetryPolicy{}
}

// Validate checks the policy bounds.
func (p RetryPolicy) Validate() error {
	if p.MaxRetries < 0 || p.MaxRetries > maxRetriesLimit {
		return fmt.Errorf("MaxRetries must be between 0 and %d, got %d", maxRetriesLimit, p.MaxRetries)
	}
	if p.Delay < 0 || p.MaxDelay < 0 {
		return fmt.Errorf("retry delays must not be negative")
	}
	return nil
}

// backoff returns the wait before retry number retry (zero-based).
func (p RetryPolicy) backoff(retry int) time.Duration {
	limit := p.MaxDelay
	if limit == 0 {
		limit = defaultMaxDelay
	}
	delay := p.Delay
	for range retry {
		if delay >= limit {
			break
		}
		delay *= 2
	}
	return min(delay, limit)
}

// sleep waits for d on c, returning early with ctx's error.
func sleep(ctx context.Context, c clock.Clock, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-c.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
